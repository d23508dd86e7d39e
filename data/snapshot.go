package data

// EmbeddedSnapshot is the read-only view of metadata physically stored
// inside an asset file. It is recomputed on every harvest and is never
// persisted; none of its fields may be populated from the catalog.
type EmbeddedSnapshot struct {
	// Tags harvested from the file, semicolon-oriented for interchange.
	Tags []string
	// Comments is what a generic external file-properties viewer would
	// show as "comment", with markup artifacts stripped.
	Comments string
	// ToolMetadata collects long technical payloads (generator signatures,
	// parameter blocks) kept apart from Comments.
	ToolMetadata string
	// Diagnostics lists non-fatal decode problems encountered while the
	// snapshot was built.
	Diagnostics []string
}

// Equal compares the harvested values, ignoring diagnostics.
func (s *EmbeddedSnapshot) Equal(other *EmbeddedSnapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Comments != other.Comments || s.ToolMetadata != other.ToolMetadata {
		return false
	}
	if len(s.Tags) != len(other.Tags) {
		return false
	}
	for i := range s.Tags {
		if s.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// MetadataBundle is the encode-side unit: the minimal payload actually
// written into a file. Tool metadata and catalog-only fields never
// travel through it.
type MetadataBundle struct {
	Tags    []string
	Comment string
}

// Empty reports whether embedding this bundle would clear all managed
// metadata blocks without writing replacements.
func (b MetadataBundle) Empty() bool {
	return len(b.Tags) == 0 && b.Comment == ""
}
