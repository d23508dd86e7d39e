// Package jpeg implements the metadata codec for the JPEG marker-segment
// container. Managed block kinds are the APP1 Exif segment and COM
// comment segments; both are stripped wholesale on encode before fresh
// blocks are written.
package jpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/G1enB1and/MediaManagerX/codec"
	"github.com/G1enB1and/MediaManagerX/codec/exifdata"
	"github.com/G1enB1and/MediaManagerX/data"
)

var exifHeader = []byte("Exif\x00\x00")

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
	markerCOM  = 0xFE

	// Segment payload limit: length field is 16 bit and includes itself.
	maxSegmentPayload = 65533
)

type Codec struct{}

func New() *Codec {
	return &Codec{}
}

// Name matches the extension reported by signature detection.
func (*Codec) Name() string {
	return "jpg"
}

// segment is one marker segment between SOI and SOS.
type segment struct {
	marker  byte
	payload []byte
}

// parse splits the file into its leading marker segments and the opaque
// tail starting at SOS (entropy data through EOI).
func parse(file []byte) ([]segment, []byte, error) {
	if len(file) < 2 || file[0] != 0xFF || file[1] != markerSOI {
		return nil, nil, fmt.Errorf("%w: missing jpeg SOI marker", data.ErrUnsupportedContainer)
	}

	var segments []segment
	pos := 2
	for pos < len(file) {
		// Skip fill bytes before the marker.
		if file[pos] != 0xFF {
			return segments, nil, fmt.Errorf("%w: expected marker at offset %d", data.ErrCorruptMetadata, pos)
		}
		for pos < len(file) && file[pos] == 0xFF {
			pos++
		}
		if pos >= len(file) {
			return segments, nil, fmt.Errorf("%w: truncated marker", data.ErrCorruptMetadata)
		}

		marker := file[pos]
		pos++

		switch marker {
		case markerSOS:
			// Everything from the SOS marker onward stays opaque.
			return segments, file[pos-2:], nil
		case markerEOI:
			return segments, file[pos-2:], nil
		}

		if pos+2 > len(file) {
			return segments, nil, fmt.Errorf("%w: truncated segment length", data.ErrCorruptMetadata)
		}
		length := int(binary.BigEndian.Uint16(file[pos : pos+2]))
		if length < 2 || pos+length > len(file) {
			return segments, nil, fmt.Errorf("%w: segment length out of range", data.ErrCorruptMetadata)
		}

		segments = append(segments, segment{
			marker:  marker,
			payload: file[pos+2 : pos+length],
		})
		pos += length
	}

	return segments, nil, nil
}

// Decode extracts the managed EXIF tag slots and COM comment segments.
func (*Codec) Decode(file []byte) (*codec.RawFields, error) {
	segments, _, err := parse(file)
	if err != nil && !bytes.HasPrefix(file, []byte{0xFF, markerSOI}) {
		return nil, err
	}

	raw := &codec.RawFields{}
	if err != nil {
		// Structural damage mid-stream: keep the segments parsed before
		// it and degrade to a partial result with a diagnostic.
		raw.Diagnostics = append(raw.Diagnostics, err.Error())
	}
	for _, seg := range segments {
		switch {
		case seg.marker == markerAPP1 && bytes.HasPrefix(seg.payload, exifHeader):
			fields, err := exifdata.Decode(seg.payload[len(exifHeader):])
			if err != nil {
				raw.Diagnostics = append(raw.Diagnostics, err.Error())
			}
			collectExif(raw, fields)
		case seg.marker == markerCOM:
			if text := string(seg.payload); text != "" {
				raw.Comments = append(raw.Comments, codec.Field{
					Source: "jpeg:COM",
					Kind:   codec.KindLegacy,
					Value:  text,
				})
			}
		}
	}

	return raw, nil
}

func collectExif(raw *codec.RawFields, fields *exifdata.Fields) {
	if fields.XPComment != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "exif:XPComment",
			Kind:   codec.KindStructured,
			Value:  fields.XPComment,
		})
	}
	if fields.ImageDescription != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "exif:ImageDescription",
			Kind:   codec.KindDescriptive,
			Value:  fields.ImageDescription,
		})
	}
	if fields.UserComment != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "exif:UserComment",
			Kind:   codec.KindLegacy,
			Value:  fields.UserComment,
		})
	}
	if fields.XPKeywords != "" {
		raw.Tags = append(raw.Tags, codec.Field{
			Source: "exif:XPKeywords",
			Kind:   codec.KindStructured,
			Value:  fields.XPKeywords,
		})
	}
	if fields.Software != "" {
		raw.Tool = append(raw.Tool, codec.Field{
			Source: "exif:Software",
			Kind:   codec.KindDescriptive,
			Value:  fields.Software,
		})
	}
}

// Encode strips every APP1 Exif and COM segment, then writes one fresh
// APP1 Exif carrying the bundle. The keyword list is semicolon-joined
// into XPKeywords; the comment goes to XPComment (UTF-16LE with a 2-byte
// null terminator) and to ImageDescription for viewers that only read the
// plain slot.
func (*Codec) Encode(file []byte, bundle data.MetadataBundle) ([]byte, error) {
	segments, tail, err := parse(file)
	if err != nil {
		return nil, err
	}

	kept := make([]segment, 0, len(segments)+1)
	for _, seg := range segments {
		if seg.marker == markerCOM {
			continue
		}
		if seg.marker == markerAPP1 && bytes.HasPrefix(seg.payload, exifHeader) {
			continue
		}
		kept = append(kept, seg)
	}

	if !bundle.Empty() {
		payload := append(append([]byte{}, exifHeader...),
			exifdata.Encode(bundle.Comment, data.JoinList(bundle.Tags, ";"))...)
		if len(payload) > maxSegmentPayload {
			return nil, fmt.Errorf("%w: exif segment would exceed %d bytes", data.ErrMetadataTooLarge, maxSegmentPayload)
		}

		// APP1 Exif belongs directly after SOI, or after APP0/JFIF when
		// one is present.
		insert := 0
		if len(kept) > 0 && kept[0].marker == markerAPP0 {
			insert = 1
		}
		app1 := segment{marker: markerAPP1, payload: payload}
		kept = append(kept[:insert], append([]segment{app1}, kept[insert:]...)...)
	}

	var out bytes.Buffer
	out.Grow(len(file) + 1024)
	out.Write([]byte{0xFF, markerSOI})
	for _, seg := range kept {
		out.Write([]byte{0xFF, seg.marker})
		var length [2]byte
		binary.BigEndian.PutUint16(length[:], uint16(len(seg.payload)+2))
		out.Write(length[:])
		out.Write(seg.payload)
	}
	out.Write(tail)

	return out.Bytes(), nil
}
