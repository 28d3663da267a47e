package schema

import "github.com/superdarn/borealisio/internal/errs"

// Structure is the on-disk layout of a borealis file.
type Structure string

const (
	// StructureSite holds one timestamped group per integration
	// period, written live at the radar site.
	StructureSite Structure = "site"
	// StructureArray holds one padded tensor per field, restructured
	// for analysis.
	StructureArray Structure = "array"
)

// ParseStructure validates a structure string.
func ParseStructure(s string) (Structure, error) {
	switch Structure(s) {
	case StructureSite, StructureArray:
		return Structure(s), nil
	}
	return "", &errs.StructureError{Detail: "unknown structure " + s + ": expected site or array"}
}

// DetectStructure infers the layout from a file's top-level names.
// Array files store borealis_git_hash at the top level; site files
// only have timestamped record groups there.
func DetectStructure(topLevelNames []string) Structure {
	for _, name := range topLevelNames {
		if name == "borealis_git_hash" {
			return StructureArray
		}
	}
	return StructureSite
}
