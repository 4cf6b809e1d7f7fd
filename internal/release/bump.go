package release

import (
	"github.com/Masterminds/semver/v3"
)

// Bump is the kind of version increment a commit range calls for.
type Bump int

const (
	// BumpNone means no release-worthy change was found.
	BumpNone Bump = iota
	// BumpPatch covers fixes and internal changes.
	BumpPatch
	// BumpMinor covers new backwards-compatible features.
	BumpMinor
	// BumpMajor covers breaking changes.
	BumpMajor
)

// String returns the bump name as used in CLI output.
func (b Bump) String() string {
	switch b {
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	default:
		return "none"
	}
}

// patchTypes are the conventional-commit types that warrant a patch release.
var patchTypes = map[string]bool{
	"fix":      true,
	"perf":     true,
	"refactor": true,
}

// InferBump scans a commit range and returns the strongest bump it calls for:
// any breaking change wins, then any feature, then any fix-like change.
// Commits that do not follow the conventional-commit format are ignored.
func InferBump(commits []Commit) Bump {
	bump := BumpNone
	for _, c := range commits {
		cc, ok := ParseCommit(c)
		if !ok {
			continue
		}
		switch {
		case cc.Breaking:
			return BumpMajor
		case cc.Type == "feat" && bump < BumpMinor:
			bump = BumpMinor
		case patchTypes[cc.Type] && bump < BumpPatch:
			bump = BumpPatch
		}
	}
	return bump
}

// NextVersion applies bump to current. Before 1.0.0 the public API is not
// considered stable, so breaking changes bump the minor version and features
// the patch version, matching common plugin-release practice.
func NextVersion(current *semver.Version, bump Bump) *semver.Version {
	if bump == BumpNone {
		return current
	}

	if current.Major() == 0 {
		switch bump {
		case BumpMajor:
			bump = BumpMinor
		case BumpMinor:
			bump = BumpPatch
		}
	}

	var next semver.Version
	switch bump {
	case BumpMajor:
		next = current.IncMajor()
	case BumpMinor:
		next = current.IncMinor()
	default:
		next = current.IncPatch()
	}
	return &next
}
