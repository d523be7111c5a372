package templates

import (
	"strings"
	"text/template"

	"reelsmith/internal/plan"
	"reelsmith/internal/services"
)

// Script is the rendered output for one content request. Derived data: it is
// regenerated from the template rather than mutated in place.
type Script struct {
	Text      string
	WordCount int
	Kind      string
	Template  string
}

// templateData is the context exposed to script templates.
type templateData struct {
	Entity string
	Week   int
	Kind   string
	Extra  map[string]string
}

// Render resolves the template for the request's kind and executes it.
// Template resolution failure (including a missing fallback) is a
// configuration error; execution failure against a resolved template is too,
// since it means the template file itself is broken.
func (r *Resolver) Render(request plan.ContentRequest) (*Script, error) {
	text, name, err := r.Resolve(request.ContentKind)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "parse template", name, err)
	}

	var out strings.Builder
	data := templateData{
		Entity: request.EntityName,
		Week:   request.WeekNumber,
		Kind:   request.ContentKind,
		Extra:  request.ExtraContext,
	}
	if err := tmpl.Execute(&out, data); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "execute template", name, err)
	}

	rendered := strings.TrimSpace(out.String())
	return &Script{
		Text:      rendered,
		WordCount: len(strings.Fields(rendered)),
		Kind:      request.ContentKind,
		Template:  name,
	}, nil
}
