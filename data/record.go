package data

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaID is the stable identity of one asset, independent of its current
// file path. It is owned by the catalog; the engine only consumes it.
type MediaID string

func NewMediaID() MediaID {
	return MediaID(uuid.Must(uuid.NewV7()).String())
}

// CatalogFields holds the user-editable, file-independent metadata of one
// media item. Tags are comma-oriented when stored.
type CatalogFields struct {
	Tags             []string
	Description      string
	Notes            string
	AIPrompt         string
	AINegativePrompt string
	AIParameters     string
}

// CatalogRecord is the persistent catalog row for one media identity.
// It is written only by the Save operation, never as a side effect of
// reading a file or embedding into one.
type CatalogRecord struct {
	ID MediaID
	CatalogFields
	UpdatedAt time.Time
}

// Clone returns a deep copy so stores can hand out records without
// aliasing their internal state.
func (r *CatalogRecord) Clone() *CatalogRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Tags = append([]string(nil), r.Tags...)
	return &out
}

// CombinedView renders the display-only projection of a catalog record:
// notes and AI provenance fields concatenated with section headers.
// It is never persisted and never embedded into a file.
func CombinedView(rec *CatalogRecord) string {
	if rec == nil {
		return ""
	}

	sections := []struct {
		header string
		body   string
	}{
		{"Notes", rec.Notes},
		{"AI Prompt", rec.AIPrompt},
		{"AI Negative Prompt", rec.AINegativePrompt},
		{"AI Parameters", rec.AIParameters},
	}

	var sb strings.Builder
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s.header)
		sb.WriteString(":\n")
		sb.WriteString(s.body)
	}

	return sb.String()
}
