package templates

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/services"
)

//go:embed defaults/*.md
var defaultTemplates embed.FS

// filenameOverrides maps content kinds whose canonical template file does not
// follow the plain <kind>.md convention.
var filenameOverrides = map[string]string{
	"start-sit":   "start_sit.md",
	"waiver-wire": "waiver_wire.md",
}

// fallbackName is the generic template used when a kind has no dedicated file.
const fallbackName = "default.md"

// Resolver locates the script template for a content kind. A configured
// override directory takes precedence over the embedded defaults.
type Resolver struct {
	overrideDir string
}

// NewResolver builds a resolver. overrideDir may be empty, in which case only
// the embedded templates are consulted.
func NewResolver(overrideDir string) *Resolver {
	return &Resolver{overrideDir: strings.TrimSpace(overrideDir)}
}

// Resolve returns the template text for a kind, trying the kind-specific file
// first and falling back to the generic default. The returned name identifies
// which template matched, for logging. A configuration error is returned only
// when even the fallback is missing.
func (r *Resolver) Resolve(kind string) (text string, name string, err error) {
	for _, candidate := range candidateNames(kind) {
		if content, ok := r.read(candidate); ok {
			return content, candidate, nil
		}
	}
	if content, ok := r.read(fallbackName); ok {
		return content, fallbackName, nil
	}
	return "", "", services.Wrap(services.ErrConfiguration, "script", "resolve template",
		fmt.Sprintf("no template for kind %q and no %s fallback", kind, fallbackName), nil)
}

func candidateNames(kind string) []string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	names := make([]string, 0, 3)
	if override, ok := filenameOverrides[kind]; ok {
		names = append(names, override)
	}
	names = append(names, kind+".md")
	if underscored := strings.ReplaceAll(kind, "-", "_") + ".md"; underscored != kind+".md" {
		names = append(names, underscored)
	}
	return names
}

func (r *Resolver) read(name string) (string, bool) {
	if r.overrideDir != "" {
		path := filepath.Join(r.overrideDir, name)
		if data, err := os.ReadFile(path); err == nil {
			return string(data), true
		}
	}
	if data, err := defaultTemplates.ReadFile("defaults/" + name); err == nil {
		return string(data), true
	}
	return "", false
}
