// Package exifdata encodes and decodes the EXIF (TIFF) tag block shared by
// the JPEG APP1 segment and the PNG eXIf chunk. Only the tag slots managed
// by the engine are understood; everything else is ignored on decode and
// absent from encode output.
package exifdata

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/G1enB1and/MediaManagerX/data"
)

// Managed IFD0 tag slots. XPComment and XPKeywords are the slots common
// file-properties viewers surface as "comment" and "keywords".
const (
	TagImageDescription = 0x010E
	TagSoftware         = 0x0131
	TagExifIFD          = 0x8769
	TagXPComment        = 0x9C9C
	TagXPKeywords       = 0x9C9E
	TagUserComment      = 0x9286 // lives in the Exif sub-IFD
)

// TIFF field types used here.
const (
	typeByte      = 1
	typeASCII     = 2
	typeLong      = 4
	typeUndefined = 7
)

// Fields carries the decoded values of the managed tag slots. Empty
// strings mean the slot was absent.
type Fields struct {
	ImageDescription string
	Software         string
	XPComment        string
	XPKeywords       string
	UserComment      string
}

// Empty reports whether no managed slot carried a value.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Decode parses a raw TIFF payload (without any "Exif\x00\x00" prefix).
// Malformed structures return the fields recovered so far wrapped with
// data.ErrCorruptMetadata; callers downgrade that to a diagnostic.
func Decode(payload []byte) (*Fields, error) {
	fields := &Fields{}

	if len(payload) < 8 {
		return fields, fmt.Errorf("%w: exif payload truncated", data.ErrCorruptMetadata)
	}

	var order binary.ByteOrder
	switch {
	case payload[0] == 'I' && payload[1] == 'I':
		order = binary.LittleEndian
	case payload[0] == 'M' && payload[1] == 'M':
		order = binary.BigEndian
	default:
		return fields, fmt.Errorf("%w: unknown exif byte order %q", data.ErrCorruptMetadata, payload[:2])
	}

	if order.Uint16(payload[2:4]) != 42 {
		return fields, fmt.Errorf("%w: bad tiff magic", data.ErrCorruptMetadata)
	}

	ifdOffset := order.Uint32(payload[4:8])
	exifIFD, err := decodeIFD(payload, ifdOffset, order, fields, false)
	if err != nil {
		return fields, err
	}

	if exifIFD != 0 {
		if _, err := decodeIFD(payload, exifIFD, order, fields, true); err != nil {
			return fields, err
		}
	}

	return fields, nil
}

// decodeIFD walks one IFD and fills the managed slots. Returns the Exif
// sub-IFD offset when the pointer tag is present in IFD0.
func decodeIFD(payload []byte, offset uint32, order binary.ByteOrder, fields *Fields, sub bool) (uint32, error) {
	if int(offset)+2 > len(payload) {
		return 0, fmt.Errorf("%w: ifd offset out of range", data.ErrCorruptMetadata)
	}

	count := int(order.Uint16(payload[offset : offset+2]))
	base := int(offset) + 2
	if base+count*12 > len(payload) {
		return 0, fmt.Errorf("%w: ifd entry table truncated", data.ErrCorruptMetadata)
	}

	var exifIFD uint32
	for i := 0; i < count; i++ {
		entry := payload[base+i*12 : base+i*12+12]
		tag := order.Uint16(entry[0:2])
		fieldType := order.Uint16(entry[2:4])
		valueCount := order.Uint32(entry[4:8])

		value, ok := entryValue(payload, entry, order, fieldType, valueCount)
		if !ok {
			return exifIFD, fmt.Errorf("%w: tag 0x%04X value out of range", data.ErrCorruptMetadata, tag)
		}

		switch {
		case !sub && tag == TagImageDescription:
			fields.ImageDescription = decodeASCII(value)
		case !sub && tag == TagSoftware:
			fields.Software = decodeASCII(value)
		case !sub && tag == TagXPComment:
			fields.XPComment = DecodeUTF16LE(value)
		case !sub && tag == TagXPKeywords:
			fields.XPKeywords = DecodeUTF16LE(value)
		case !sub && tag == TagExifIFD && fieldType == typeLong && valueCount >= 1:
			exifIFD = order.Uint32(entry[8:12])
		case sub && tag == TagUserComment:
			fields.UserComment = decodeUserComment(value, order)
		}
	}

	return exifIFD, nil
}

// entryValue resolves an entry's value bytes, inline or offset-addressed.
func entryValue(payload, entry []byte, order binary.ByteOrder, fieldType uint16, count uint32) ([]byte, bool) {
	size := typeSize(fieldType) * int(count)
	if size < 0 {
		return nil, false
	}
	if size <= 4 {
		return entry[8 : 8+size], true
	}

	offset := int(order.Uint32(entry[8:12]))
	if offset < 0 || offset+size > len(payload) {
		return nil, false
	}
	return payload[offset : offset+size], true
}

func typeSize(fieldType uint16) int {
	switch fieldType {
	case typeByte, typeASCII, typeUndefined:
		return 1
	case 3: // SHORT
		return 2
	case typeLong:
		return 4
	case 5, 10: // RATIONAL, SRATIONAL
		return 8
	default:
		return 1
	}
}

func decodeASCII(value []byte) string {
	end := len(value)
	for end > 0 && value[end-1] == 0 {
		end--
	}
	return string(value[:end])
}

// decodeUserComment handles the 8-byte character code prefix of the
// UserComment slot.
func decodeUserComment(value []byte, order binary.ByteOrder) string {
	if len(value) < 8 {
		return decodeASCII(value)
	}

	prefix := string(value[:8])
	body := value[8:]
	switch prefix {
	case "ASCII\x00\x00\x00":
		return decodeASCII(body)
	case "UNICODE\x00":
		if order == binary.BigEndian {
			return decodeUTF16(body, binary.BigEndian)
		}
		return DecodeUTF16LE(body)
	default:
		return decodeASCII(value)
	}
}

// EncodeUTF16LE converts text to UTF-16LE bytes with an explicit 2-byte
// null terminator, the encoding the XP tag slots require.
func EncodeUTF16LE(text string) []byte {
	units := utf16.Encode([]rune(text))
	out := make([]byte, 0, len(units)*2+2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return append(out, 0, 0)
}

// DecodeUTF16LE converts UTF-16LE bytes back to text, stopping at a null
// terminator when present.
func DecodeUTF16LE(value []byte) string {
	return decodeUTF16(value, binary.LittleEndian)
}

func decodeUTF16(value []byte, order binary.ByteOrder) string {
	units := make([]uint16, 0, len(value)/2)
	for i := 0; i+1 < len(value); i += 2 {
		u := order.Uint16(value[i : i+2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// Encode builds a fresh little-endian TIFF block carrying the bundle's
// comment and tags: XPComment and XPKeywords as UTF-16LE byte arrays plus
// ImageDescription as a plain ASCII fallback for viewers that ignore the
// XP slots. Only managed slots are ever written.
func Encode(comment, keywords string) []byte {
	type entry struct {
		tag       uint16
		fieldType uint16
		value     []byte
	}

	var entries []entry
	if comment != "" {
		entries = append(entries,
			entry{TagImageDescription, typeASCII, append([]byte(comment), 0)},
			entry{TagXPComment, typeByte, EncodeUTF16LE(comment)},
		)
	}
	if keywords != "" {
		entries = append(entries, entry{TagXPKeywords, typeByte, EncodeUTF16LE(keywords)})
	}

	// Entries must be sorted ascending by tag id.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].tag > entries[j].tag; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}

	order := binary.LittleEndian
	header := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}

	// Value area starts after header, entry count, entries and the
	// next-IFD terminator.
	valueOffset := len(header) + 2 + len(entries)*12 + 4

	out := make([]byte, 0, valueOffset+64)
	out = append(out, header...)
	out = order.AppendUint16(out, uint16(len(entries)))

	var valueArea []byte
	for _, e := range entries {
		out = order.AppendUint16(out, e.tag)
		out = order.AppendUint16(out, e.fieldType)
		out = order.AppendUint32(out, uint32(len(e.value)))
		if len(e.value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.value)
			out = append(out, inline...)
		} else {
			out = order.AppendUint32(out, uint32(valueOffset+len(valueArea)))
			valueArea = append(valueArea, e.value...)
		}
	}

	// Next IFD offset: none.
	out = order.AppendUint32(out, 0)
	return append(out, valueArea...)
}
