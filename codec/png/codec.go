// Package png implements the metadata codec for the PNG chunk container.
// Managed block kinds are the text chunks carrying comment and keyword
// data, the XMP packet, and the eXIf chunk. AI-tool provenance chunks
// (e.g. the "parameters" block Stable Diffusion writes) are harvested but
// never managed, so a rewrite leaves them in place.
package png

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/G1enB1and/MediaManagerX/codec"
	"github.com/G1enB1and/MediaManagerX/codec/exifdata"
	"github.com/G1enB1and/MediaManagerX/data"
)

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

const xmpKeyword = "XML:com.adobe.xmp"

// Text-chunk keywords the engine owns. Embedding first removes every
// chunk carrying one of these, so stale values cannot resurface.
var managedKeywords = map[string]struct{}{
	"title":       {},
	"description": {},
	"comment":     {},
	"subject":     {},
	"keywords":    {},
	"tags":        {},
}

// Keywords whose payloads are technical tool output, routed to the
// tool-metadata bucket by name. Content is never inspected.
var toolKeywords = map[string]struct{}{
	"parameters":     {},
	"prompt":         {},
	"workflow":       {},
	"postprocessing": {},
	"extras":         {},
	"software":       {},
	"source":         {},
}

type Codec struct{}

func New() *Codec {
	return &Codec{}
}

func (*Codec) Name() string {
	return "png"
}

type chunk struct {
	typ  string
	body []byte
}

func parse(file []byte) ([]chunk, error) {
	if !bytes.HasPrefix(file, signature) {
		return nil, fmt.Errorf("%w: missing png signature", data.ErrUnsupportedContainer)
	}

	var chunks []chunk
	pos := len(signature)
	for pos < len(file) {
		if pos+8 > len(file) {
			return chunks, fmt.Errorf("%w: truncated chunk header", data.ErrCorruptMetadata)
		}
		length := int(binary.BigEndian.Uint32(file[pos : pos+4]))
		typ := string(file[pos+4 : pos+8])
		if pos+8+length+4 > len(file) {
			return chunks, fmt.Errorf("%w: chunk %q exceeds file size", data.ErrCorruptMetadata, typ)
		}

		chunks = append(chunks, chunk{
			typ:  typ,
			body: file[pos+8 : pos+8+length],
		})
		pos += 8 + length + 4
	}

	return chunks, nil
}

// textEntry is one decoded text chunk.
type textEntry struct {
	keyword string
	text    string
	chunkTy string
}

// decodeText decodes tEXt, iTXt and zTXt chunk bodies into keyword/text
// pairs. Unknown or undecodable bodies return ok=false.
func decodeText(c chunk) (textEntry, bool) {
	sep := bytes.IndexByte(c.body, 0)
	if sep < 0 {
		return textEntry{}, false
	}
	keyword := string(c.body[:sep])
	rest := c.body[sep+1:]

	switch c.typ {
	case "tEXt":
		return textEntry{keyword: keyword, text: string(rest), chunkTy: c.typ}, true

	case "zTXt":
		if len(rest) < 1 {
			return textEntry{}, false
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return textEntry{}, false
		}
		return textEntry{keyword: keyword, text: text, chunkTy: c.typ}, true

	case "iTXt":
		// compression flag, compression method, language tag NUL,
		// translated keyword NUL, then the text.
		if len(rest) < 2 {
			return textEntry{}, false
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		for i := 0; i < 2; i++ {
			idx := bytes.IndexByte(rest, 0)
			if idx < 0 {
				return textEntry{}, false
			}
			rest = rest[idx+1:]
		}
		text := string(rest)
		if compressed {
			inflated, err := inflate(rest)
			if err != nil {
				return textEntry{}, false
			}
			text = inflated
		}
		return textEntry{keyword: keyword, text: text, chunkTy: c.typ}, true
	}

	return textEntry{}, false
}

func inflate(body []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Decode walks the chunk stream and collects every candidate the
// container can carry: text chunks, the XMP packet, and the eXIf chunk.
func (*Codec) Decode(file []byte) (*codec.RawFields, error) {
	chunks, err := parse(file)
	if err != nil && !bytes.HasPrefix(file, signature) {
		return nil, err
	}

	raw := &codec.RawFields{}
	if err != nil {
		// Corruption mid-stream: keep everything parsed before it.
		raw.Diagnostics = append(raw.Diagnostics, err.Error())
	}
	for _, c := range chunks {
		switch c.typ {
		case "tEXt", "iTXt", "zTXt":
			entry, ok := decodeText(c)
			if !ok {
				raw.Diagnostics = append(raw.Diagnostics,
					fmt.Sprintf("undecodable %s chunk skipped", c.typ))
				continue
			}
			if entry.keyword == xmpKeyword {
				collectXMP(raw, entry.text)
				continue
			}
			collectText(raw, entry)

		case "eXIf":
			fields, err := exifdata.Decode(c.body)
			if err != nil {
				raw.Diagnostics = append(raw.Diagnostics, err.Error())
			}
			collectExif(raw, fields)
		}
	}

	return raw, nil
}

func collectText(raw *codec.RawFields, entry textEntry) {
	if entry.text == "" {
		return
	}

	source := entry.chunkTy + ":" + entry.keyword
	lower := strings.ToLower(entry.keyword)

	if _, ok := toolKeywords[lower]; ok {
		raw.Tool = append(raw.Tool, codec.Field{
			Source: source,
			Kind:   codec.KindDescriptive,
			Value:  entry.text,
		})
		return
	}

	switch lower {
	case "comment", "description":
		raw.Comments = append(raw.Comments, codec.Field{
			Source: source,
			Kind:   codec.KindDescriptive,
			Value:  entry.text,
		})
	case "subject", "title":
		raw.Comments = append(raw.Comments, codec.Field{
			Source: source,
			Kind:   codec.KindLegacy,
			Value:  entry.text,
		})
	case "keywords", "tags":
		raw.Tags = append(raw.Tags, codec.Field{
			Source: source,
			Kind:   codec.KindDescriptive,
			Value:  entry.text,
		})
	default:
		// Unknown keywords are loose text; expose them as legacy
		// comment candidates so nothing silently disappears.
		raw.Comments = append(raw.Comments, codec.Field{
			Source: source,
			Kind:   codec.KindLegacy,
			Value:  entry.text,
		})
	}
}

func collectXMP(raw *codec.RawFields, packet string) {
	parsed, err := parseXMP(packet)
	if err != nil {
		raw.Diagnostics = append(raw.Diagnostics, err.Error())
		return
	}

	if len(parsed.subjects) > 0 {
		raw.Tags = append(raw.Tags, codec.Field{
			Source: "xmp:dc:subject",
			Kind:   codec.KindStructured,
			Value:  data.JoinList(parsed.subjects, ";"),
		})
	}
	if parsed.userComment != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "xmp:exif:UserComment",
			Kind:   codec.KindStructured,
			Value:  parsed.userComment,
		})
	}
	if parsed.description != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "xmp:dc:description",
			Kind:   codec.KindDescriptive,
			Value:  parsed.description,
		})
	}
}

func collectExif(raw *codec.RawFields, fields *exifdata.Fields) {
	if fields.XPComment != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "eXIf:XPComment",
			Kind:   codec.KindStructured,
			Value:  fields.XPComment,
		})
	}
	if fields.ImageDescription != "" {
		raw.Comments = append(raw.Comments, codec.Field{
			Source: "eXIf:ImageDescription",
			Kind:   codec.KindDescriptive,
			Value:  fields.ImageDescription,
		})
	}
	if fields.XPKeywords != "" {
		raw.Tags = append(raw.Tags, codec.Field{
			Source: "eXIf:XPKeywords",
			Kind:   codec.KindStructured,
			Value:  fields.XPKeywords,
		})
	}
	if fields.Software != "" {
		raw.Tool = append(raw.Tool, codec.Field{
			Source: "eXIf:Software",
			Kind:   codec.KindDescriptive,
			Value:  fields.Software,
		})
	}
}

// Encode removes every managed chunk, then writes the bundle redundantly
// right after IHDR: plain iTXt chunks for tool interoperability, the XMP
// packet external file-properties viewers actually surface, and an eXIf
// chunk mirroring the JPEG tag slots.
func (*Codec) Encode(file []byte, bundle data.MetadataBundle) ([]byte, error) {
	chunks, err := parse(file)
	if err != nil {
		return nil, err
	}

	kept := make([]chunk, 0, len(chunks)+8)
	for _, c := range chunks {
		if c.typ == "eXIf" {
			continue
		}
		if c.typ == "tEXt" || c.typ == "iTXt" || c.typ == "zTXt" {
			entry, ok := decodeText(c)
			if ok && isManagedKeyword(entry.keyword) {
				continue
			}
		}
		kept = append(kept, c)
	}

	if !bundle.Empty() {
		keywords := data.JoinList(bundle.Tags, ";")

		var fresh []chunk
		if bundle.Comment != "" {
			fresh = append(fresh,
				itxtChunk("Description", bundle.Comment),
				itxtChunk("Comment", bundle.Comment),
				itxtChunk("Subject", bundle.Comment),
			)
		}
		if keywords != "" {
			fresh = append(fresh, itxtChunk("Keywords", keywords))
		}
		fresh = append(fresh,
			itxtChunk(xmpKeyword, buildXMP(bundle.Tags, bundle.Comment)),
			chunk{typ: "eXIf", body: exifdata.Encode(bundle.Comment, keywords)},
		)

		// Metadata goes directly after IHDR.
		insert := 0
		if len(kept) > 0 && kept[0].typ == "IHDR" {
			insert = 1
		}
		kept = append(kept[:insert], append(fresh, kept[insert:]...)...)
	}

	var out bytes.Buffer
	out.Grow(len(file) + 2048)
	out.Write(signature)
	for _, c := range kept {
		writeChunk(&out, c)
	}

	return out.Bytes(), nil
}

func isManagedKeyword(keyword string) bool {
	if keyword == xmpKeyword {
		return true
	}
	_, ok := managedKeywords[strings.ToLower(keyword)]
	return ok
}

// itxtChunk builds an uncompressed iTXt chunk with empty language and
// translated-keyword fields.
func itxtChunk(keyword, text string) chunk {
	body := make([]byte, 0, len(keyword)+len(text)+5)
	body = append(body, keyword...)
	body = append(body, 0, 0, 0, 0, 0)
	body = append(body, text...)
	return chunk{typ: "iTXt", body: body}
}

func writeChunk(out *bytes.Buffer, c chunk) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(c.body)))
	copy(header[4:], c.typ)
	out.Write(header[:])
	out.Write(c.body)

	crc := crc32.NewIEEE()
	crc.Write(header[4:])
	crc.Write(c.body)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	out.Write(sum[:])
}
