package metasync

import (
	"fmt"
	"os"
	"strings"

	"github.com/G1enB1and/MediaManagerX/codec"
	"github.com/G1enB1and/MediaManagerX/data"
	"github.com/G1enB1and/MediaManagerX/log"
)

// Harvester produces read-only embedded snapshots from file contents. It
// never reads or touches the catalog.
type Harvester struct {
	registry *codec.Registry
	logger   *log.Logger
}

func NewHarvester(registry *codec.Registry, logger *log.Logger) *Harvester {
	return &Harvester{
		registry: registry,
		logger:   logger,
	}
}

// Harvest decodes the file's metadata blocks into an embedded snapshot.
// The codec is selected by container signature, never by extension.
// Malformed metadata degrades to a partial snapshot with diagnostics;
// only an unreadable file or an unrecognized container is an error.
func (h *Harvester) Harvest(path string) (*data.EmbeddedSnapshot, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return &data.EmbeddedSnapshot{}, fmt.Errorf("read %s: %w", path, err)
	}

	c, err := h.registry.Detect(file)
	if err != nil {
		return &data.EmbeddedSnapshot{}, err
	}

	raw, err := c.Decode(file)
	if err != nil {
		return &data.EmbeddedSnapshot{}, err
	}

	snapshot := resolve(raw)
	if len(snapshot.Diagnostics) > 0 {
		h.logger.Warn("harvest %s: %d metadata block(s) skipped", path, len(snapshot.Diagnostics))
	}
	h.logger.Debug("harvested %s via %s: %d tag(s), comment %d byte(s)",
		path, c.Name(), len(snapshot.Tags), len(snapshot.Comments))

	return snapshot, nil
}

// resolve reduces raw candidates to a snapshot: for comments and tags
// the first candidate of the best source rank wins and the rest are
// ignored; tool payloads are all kept, joined in scan order.
func resolve(raw *codec.RawFields) *data.EmbeddedSnapshot {
	snapshot := &data.EmbeddedSnapshot{
		Diagnostics: raw.Diagnostics,
	}

	if field, ok := pick(raw.Comments); ok {
		snapshot.Comments = data.StripMarkup(field.Value)
	}

	if field, ok := pick(raw.Tags); ok {
		snapshot.Tags = data.SplitList(data.StripMarkup(field.Value), ";")
	}

	var tool []string
	for _, field := range raw.Tool {
		if v := data.StripMarkup(field.Value); v != "" {
			tool = append(tool, v)
		}
	}
	snapshot.ToolMetadata = strings.Join(tool, "\n\n")

	return snapshot
}

// pick returns the first candidate of the best rank: structured beats
// descriptive beats legacy, insertion order breaks ties.
func pick(fields []codec.Field) (codec.Field, bool) {
	best := -1
	for i, field := range fields {
		if field.Value == "" {
			continue
		}
		if best < 0 || field.Kind < fields[best].Kind {
			best = i
		}
	}
	if best < 0 {
		return codec.Field{}, false
	}
	return fields[best], true
}
