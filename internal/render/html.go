package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
)

//go:embed templates/digest.html.tmpl
var templateFS embed.FS

var digestTmpl = template.Must(template.ParseFS(templateFS, "templates/digest.html.tmpl"))

type htmlPage struct {
	Title     string
	Generated string
	Sections  []section
}

// HTML renders a self-contained HTML digest.
func HTML(b aggregate.BucketMap, o Options) (string, error) {
	page := htmlPage{
		Title:     o.title(),
		Generated: o.generated(),
		Sections:  sections(b, o),
	}
	for i := range page.Sections {
		for j := range page.Sections[i].Items {
			if page.Sections[i].Items[j].Link == "" {
				page.Sections[i].Items[j].Link = noLink
			}
		}
	}
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("rendering html digest: %w", err)
	}
	return buf.String(), nil
}
