package release

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Manifest mirrors the host application's plugin manifest.json.
type Manifest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	MinAppVersion string `json:"minAppVersion"`
	Description   string `json:"description,omitempty"`
	Author        string `json:"author,omitempty"`
	AuthorURL     string `json:"authorUrl,omitempty"`
	IsDesktopOnly bool   `json:"isDesktopOnly"`
}

// LoadManifest reads a plugin manifest. Manifests are often hand-edited, so
// comments and trailing commas are tolerated on the way in; Save always writes
// standard JSON.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("standardizing manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(std, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("manifest %s has no version field", path)
	}
	return &m, nil
}

// Save writes the manifest atomically so a crash mid-release never leaves a
// torn metadata file behind.
func (m *Manifest) Save(path string) error {
	b, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	b = append(b, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// LoadVersions reads the version → minAppVersion map from versions.json.
// A missing file is an empty map, so the first release works on a fresh
// plugin.
func LoadVersions(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading versions file: %w", err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("standardizing versions file %s: %w", path, err)
	}

	versions := map[string]string{}
	if err := json.Unmarshal(std, &versions); err != nil {
		return nil, fmt.Errorf("parsing versions file %s: %w", path, err)
	}
	return versions, nil
}

// SaveVersions writes versions.json atomically with keys in ascending semver
// order. encoding/json sorts map keys lexically, which puts 0.10.0 before
// 0.2.0, so the object is assembled by hand.
func SaveVersions(path string, versions map[string]string) error {
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		vi, errI := semver.NewVersion(keys[i])
		vj, errJ := semver.NewVersion(keys[j])
		if errI != nil || errJ != nil {
			return keys[i] < keys[j]
		}
		return vi.LessThan(vj)
	})

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("encoding versions file: %w", err)
		}
		val, err := json.Marshal(versions[k])
		if err != nil {
			return fmt.Errorf("encoding versions file: %w", err)
		}
		buf.WriteByte('\t')
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing versions file %s: %w", path, err)
	}
	return nil
}
