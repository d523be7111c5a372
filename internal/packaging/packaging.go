package packaging

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelsmith/internal/services"
)

const captionMaxLen = 120

var titleCaser = cases.Title(language.English)

// Seed returns a short deterministic hex digest of the given parts. It keys
// simulated identifiers and captions so reruns produce identical artifacts.
func Seed(parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		if part == nil {
			continue
		}
		fmt.Fprintf(h, "%v", part)
	}
	return hex.EncodeToString(h.Sum(nil))[:10]
}

// Caption builds the public caption for an item. In simulated mode the
// caption carries a deterministic sim marker so reruns are byte-identical.
func Caption(kind string, week int, scriptText string, simulated bool) string {
	base := fmt.Sprintf("%s — Week %d", titleCaser.String(strings.ReplaceAll(kind, "-", " ")), week)
	if simulated {
		base = fmt.Sprintf("[sim-%s] %s", Seed(kind, week, scriptText), base)
	}
	return truncate(base, captionMaxLen)
}

// Hashtags returns the tag set for an item, including a camel-cased tag
// derived from the content kind.
func Hashtags(kind string, week int) []string {
	tags := []string{"#FantasyFootball", "#NFL", fmt.Sprintf("#Week%d", week)}
	var camel strings.Builder
	for _, part := range strings.Split(kind, "-") {
		camel.WriteString(titleCaser.String(part))
	}
	if camel.Len() > 0 {
		tags = append(tags, "#"+camel.String())
	}
	return tags
}

// Metadata is the per-item sidecar persisted next to the script artifact.
type Metadata struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Week      int      `json:"week"`
	Entity    string   `json:"entity"`
	Caption   string   `json:"caption"`
	Hashtags  []string `json:"hashtags"`
	CreatedAt string   `json:"created_at"`
	Source    string   `json:"source"`
}

// BuildMetadata assembles the sidecar record for an item. A missing id falls
// back to a deterministic seed of the item identity.
func BuildMetadata(id, kind string, week int, entity, caption string, hashtags []string) Metadata {
	if id == "" {
		id = Seed(kind, week, entity)
	}
	return Metadata{
		ID:        id,
		Kind:      kind,
		Week:      week,
		Entity:    entity,
		Caption:   caption,
		Hashtags:  hashtags,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Source:    "reelsmith",
	}
}

// SidecarPath returns the metadata file path for a slug within weekDir.
func SidecarPath(weekDir, slug string) string {
	return filepath.Join(weekDir, slug+".meta.json")
}

// WriteSidecar persists the metadata sidecar atomically.
func WriteSidecar(weekDir, slug string, meta Metadata) (string, error) {
	if err := os.MkdirAll(weekDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "packaging", "write sidecar", "create week directory", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrProviderFatal, "packaging", "write sidecar", "encode metadata", err)
	}
	path := SidecarPath(weekDir, slug)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "packaging", "write sidecar", "write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "packaging", "write sidecar", "rename into place", err)
	}
	return path, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
