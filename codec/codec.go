// Package codec provides per-container metadata block encoding and
// decoding. One codec exists per supported container format; codecs are
// pure and share no mutable state. Container selection happens by
// signature bytes, never by file extension.
package codec

import (
	"fmt"

	"github.com/h2non/filetype"

	"github.com/G1enB1and/MediaManagerX/data"
)

// SourceKind ranks where inside a container a candidate value came from.
// When several blocks carry the same semantic field, the harvester picks
// the first candidate of the best rank; later candidates are ignored,
// never merged.
type SourceKind int

const (
	// KindStructured is an explicit structured block (XMP property,
	// Windows XP tag slot).
	KindStructured SourceKind = iota
	// KindDescriptive is a descriptive-text block (ImageDescription,
	// a Description text chunk).
	KindDescriptive
	// KindLegacy is a plain or legacy block (JPEG COM segment, loose
	// text chunks).
	KindLegacy
)

// Field is one candidate value for a semantic slot, tagged with the block
// it was read from.
type Field struct {
	Source string
	Kind   SourceKind
	Value  string
}

// RawFields is everything a codec's decode path extracted from a file.
// A file without metadata decodes to the zero value.
type RawFields struct {
	// Comments holds comment candidates in the order they were found.
	Comments []Field
	// Tags holds tag-list candidates; values are semicolon-separated.
	Tags []Field
	// Tool holds technical payloads (generator signatures, parameter
	// blocks) classified by block name, never by content.
	Tool []Field
	// Diagnostics lists malformed blocks that were skipped.
	Diagnostics []string
}

// Codec encodes and decodes one container format's metadata blocks.
type Codec interface {
	// Name returns the identifier name defined for this codec.
	Name() string

	// Decode extracts every known metadata slot from the file bytes.
	// A file with no metadata yields an empty RawFields, not an error;
	// data.ErrUnsupportedContainer is returned only when the bytes are
	// not this codec's container at all.
	Decode(file []byte) (*RawFields, error)

	// Encode returns a rewritten file in which every managed metadata
	// block kind has been removed and replaced by fresh blocks carrying
	// the bundle, written to every target encoding external viewers are
	// known to read. On error the input bytes are unchanged and no
	// partial output is produced.
	Encode(file []byte, bundle data.MetadataBundle) ([]byte, error)
}

// Registry resolves a codec from a file's signature bytes.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry builds a registry keyed by the container extension reported
// by signature matching.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[string]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Name()] = c
	}
	return r
}

// Register adds or replaces a codec.
func (r *Registry) Register(c Codec) {
	r.codecs[c.Name()] = c
}

// Names returns the registered codec names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	return names
}

// Detect selects the codec for the given file content by matching its
// signature bytes. The filename plays no part in the decision.
func (r *Registry) Detect(file []byte) (Codec, error) {
	kind, err := filetype.Match(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrUnsupportedContainer, err)
	}

	if c, ok := r.codecs[kind.Extension]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("%w: signature %q not handled", data.ErrUnsupportedContainer, kind.Extension)
}
