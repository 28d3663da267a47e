package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/superdarn/borealisio/internal/errs"
)

// Versions the registry can serve. v0.2 and v0.3 files use the v0.4
// field tables.
var supportedVersions = []string{"v0.2", "v0.3", "v0.4", "v0.5", "v0.6"}

var (
	registryOnce sync.Once
	registry     map[string]map[FileType]*Format
)

// SupportedVersions lists the versions Lookup accepts.
func SupportedVersions() []string {
	return append([]string(nil), supportedVersions...)
}

// Lookup returns the format descriptor for a version and file type.
// Descriptors are built once and shared, so callers must not mutate
// them.
func Lookup(version string, fileType FileType) (*Format, error) {
	registryOnce.Do(buildRegistry)
	byType, ok := registry[version]
	if !ok {
		e := &errs.UnsupportedVersionError{
			Version:   version,
			Supported: SupportedVersions(),
		}
		if strings.HasPrefix(version, "v") && !strings.HasPrefix(version, "v0.") {
			e.Detail = "v1.0 restructured the file layout; only the v0.x line is handled"
		}
		return nil, e
	}
	f, ok := byType[fileType]
	if !ok {
		return nil, &errs.FileTypeError{FileType: string(fileType)}
	}
	return f, nil
}

// LookupRecord resolves a format from a record's borealis_git_hash.
func LookupRecord(gitHash string, fileType FileType) (*Format, error) {
	version, err := ParseVersion(gitHash)
	if err != nil {
		return nil, err
	}
	return Lookup(version, fileType)
}

func buildRegistry() {
	registry = make(map[string]map[FileType]*Format, len(supportedVersions))
	for _, version := range supportedVersions {
		registry[version] = map[FileType]*Format{
			Rawacf:     buildFormat(rawacfBase(), version, applyRawacfV05, nil),
			Bfiq:       buildFormat(bfiqBase(), version, applyBfiqV05, applyPPOUnshared),
			AntennasIQ: buildFormat(antennasIQBase(), version, applyAntennasIQV05, applyPPOUnshared),
			Rawrf:      buildFormat(rawrfBase(), version, applyRawrfV05, nil),
		}
	}
}

// buildFormat layers version deltas onto a fresh base table. The v0.6
// health fields apply to every product; extraV06 carries the
// product-specific changes.
func buildFormat(f *Format, version string, applyV05 func(*Format), extraV06 func(*Format)) *Format {
	f.Version = version
	switch version {
	case "v0.2", "v0.3", "v0.4":
	case "v0.5":
		applyV05(f)
	case "v0.6":
		applyV05(f)
		applyV06Health(f)
		if extraV06 != nil {
			extraV06(f)
		}
	}
	return f
}

// ParseVersion extracts the "vMAJOR.MINOR" software version from a
// borealis_git_hash value such as "v0.5.1-14-g1234abcd".
func ParseVersion(gitHash string) (string, error) {
	tag := gitHash
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		tag = tag[:i]
	}
	if !strings.HasPrefix(tag, "v") {
		return "", fmt.Errorf("cannot parse version from git hash %q", gitHash)
	}
	parts := strings.Split(tag, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("cannot parse version from git hash %q", gitHash)
	}
	return parts[0] + "." + parts[1], nil
}
