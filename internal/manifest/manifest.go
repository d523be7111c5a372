package manifest

import (
	"strings"
	"time"
)

// Status represents the terminal outcome of one planned item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusBlocked Status = "blocked"
	StatusFailed  Status = "failed"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusOK, StatusBlocked, StatusFailed:
		return normalized, true
	}
	return "", false
}

// Entry records the outcome of one planned item. Exactly one entry exists per
// item per run. Path fields are empty strings when the stage that produces
// them did not run.
type Entry struct {
	ItemSlug      string   `json:"item_slug"`
	ContentKind   string   `json:"content_kind"`
	EntityName    string   `json:"entity_name"`
	ScriptPath    string   `json:"script_path"`
	Caption       string   `json:"caption"`
	VideoPath     string   `json:"video_path"`
	ThumbnailPath string   `json:"thumbnail_path"`
	Tags          []string `json:"tags"`
	Status        Status   `json:"status"`
	ErrorDetail   string   `json:"error_detail,omitempty"`
}

// Week is the ordered record of one week's batch run. Entry order always
// matches planning order; Partial marks manifests flushed before every item
// reached a terminal state.
type Week struct {
	WeekNumber  int       `json:"week_number"`
	GeneratedAt time.Time `json:"generated_at"`
	Partial     bool      `json:"partial,omitempty"`
	Entries     []Entry   `json:"entries"`
}

// Counts summarizes terminal outcomes for operator reporting.
type Counts struct {
	OK      int
	Blocked int
	Failed  int
}

// Summary tallies the manifest's entries by status.
func (w *Week) Summary() Counts {
	var c Counts
	for _, entry := range w.Entries {
		switch entry.Status {
		case StatusOK:
			c.OK++
		case StatusBlocked:
			c.Blocked++
		case StatusFailed:
			c.Failed++
		}
	}
	return c
}
