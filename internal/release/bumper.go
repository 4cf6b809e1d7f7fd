// Package release computes a plugin's next semantic version from its commit
// history and rewrites the host application's release metadata files,
// manifest.json and versions.json.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/kmoran/notekit/internal/logging"
)

// ErrNoRelease is returned by Plan when nothing in the commit range warrants
// a new version.
var ErrNoRelease = errors.New("no release-worthy commits since last tag")

// Bumper ties a commit source to the plugin's metadata files.
type Bumper struct {
	Source       CommitSource
	ManifestPath string
	VersionsPath string
}

// Plan describes a computed release before anything is written.
type Plan struct {
	LastTag     string
	CommitCount int
	Bump        Bump
	Current     *semver.Version
	Next        *semver.Version
}

// Plan inspects the commit history since the last tag and the current
// manifest, and returns the release that history calls for. It returns
// ErrNoRelease when no conventional commit in the range warrants a bump.
func (b *Bumper) Plan(ctx context.Context) (*Plan, error) {
	log := logging.FromContext(ctx)

	manifest, err := LoadManifest(b.ManifestPath)
	if err != nil {
		return nil, err
	}
	current, err := semver.NewVersion(manifest.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest version %q is not valid semver: %w", manifest.Version, err)
	}

	lastTag, err := b.Source.LastTag(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding last tag: %w", err)
	}
	commits, err := b.Source.Commits(ctx, lastTag)
	if err != nil {
		return nil, err
	}

	bump := InferBump(commits)
	log.Debug().Ctx(ctx).
		Str("last_tag", lastTag).
		Int("commits", len(commits)).
		Str("bump", bump.String()).
		Msg("inferred bump from commit history")

	if bump == BumpNone {
		return nil, fmt.Errorf("%w (%d commits inspected)", ErrNoRelease, len(commits))
	}

	return &Plan{
		LastTag:     lastTag,
		CommitCount: len(commits),
		Bump:        bump,
		Current:     current,
		Next:        NextVersion(current, bump),
	}, nil
}

// Apply writes next into manifest.json and records it in versions.json,
// mapped to the manifest's minAppVersion.
func (b *Bumper) Apply(ctx context.Context, next *semver.Version) error {
	log := logging.FromContext(ctx)

	manifest, err := LoadManifest(b.ManifestPath)
	if err != nil {
		return err
	}
	manifest.Version = next.String()
	if err := manifest.Save(b.ManifestPath); err != nil {
		return err
	}

	versions, err := LoadVersions(b.VersionsPath)
	if err != nil {
		return err
	}
	versions[next.String()] = manifest.MinAppVersion
	if err := SaveVersions(b.VersionsPath, versions); err != nil {
		return err
	}

	log.Info().Ctx(ctx).
		Str("version", next.String()).
		Str("min_app_version", manifest.MinAppVersion).
		Msg("release metadata updated")
	return nil
}
