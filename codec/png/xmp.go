package png

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/G1enB1and/MediaManagerX/data"
)

// buildXMP renders the XMP packet embedded as an iTXt chunk. Tags map to
// dc:subject as a simple rdf:Bag; the comment maps to exif:UserComment as
// a localized-string-list (rdf:Alt). The comment is deliberately NOT
// written to dc:description: at least one major external viewer surfaces
// that property as "title" instead of "comment".
func buildXMP(tags []string, comment string) string {
	var sb strings.Builder

	sb.WriteString(`<?xpacket begin="` + "\uFEFF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>` + "\n")
	sb.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">` + "\n")
	sb.WriteString(` <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` + "\n")
	sb.WriteString(`  <rdf:Description rdf:about=""` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns:exif="http://ns.adobe.com/exif/1.0/">` + "\n")

	if len(tags) > 0 {
		sb.WriteString("   <dc:subject><rdf:Bag>\n")
		for _, tag := range tags {
			sb.WriteString("    <rdf:li>")
			sb.WriteString(escapeXML(tag))
			sb.WriteString("</rdf:li>\n")
		}
		sb.WriteString("   </rdf:Bag></dc:subject>\n")
	}

	if comment != "" {
		sb.WriteString("   <exif:UserComment><rdf:Alt>\n")
		sb.WriteString(`    <rdf:li xml:lang="x-default">`)
		sb.WriteString(escapeXML(comment))
		sb.WriteString("</rdf:li>\n")
		sb.WriteString("   </rdf:Alt></exif:UserComment>\n")
	}

	sb.WriteString("  </rdf:Description>\n")
	sb.WriteString(" </rdf:RDF>\n")
	sb.WriteString("</x:xmpmeta>\n")
	sb.WriteString(`<?xpacket end="w"?>`)

	return sb.String()
}

func escapeXML(text string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(text)); err != nil {
		return text
	}
	return sb.String()
}

// xmpFields is the subset of an XMP packet the harvester understands.
type xmpFields struct {
	subjects    []string
	userComment string
	description string
}

// parseXMP walks the RDF token stream, collecting rdf:li items under the
// properties the engine reads. Namespace prefixes are resolved by local
// name plus namespace URL, so any prefix spelling is accepted.
func parseXMP(packet string) (*xmpFields, error) {
	decoder := xml.NewDecoder(strings.NewReader(packet))

	const (
		nsDC   = "http://purl.org/dc/elements/1.1/"
		nsExif = "http://ns.adobe.com/exif/1.0/"
	)

	fields := &xmpFields{}
	var stack []xml.Name

	inside := func(space, local string) bool {
		for _, name := range stack {
			if name.Space == space && name.Local == local {
				return true
			}
		}
		return false
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: xmp packet: %v", data.ErrCorruptMetadata, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}

			switch {
			case inside(nsDC, "subject"):
				fields.subjects = append(fields.subjects, text)
			case inside(nsExif, "UserComment"):
				if fields.userComment == "" {
					fields.userComment = text
				}
			case inside(nsDC, "description"):
				if fields.description == "" {
					fields.description = text
				}
			}
		}
	}

	return fields, nil
}
