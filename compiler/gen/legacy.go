package gen

import (
	"bytes"
	"embed"
	"path"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/syssam/chrono/schema"
)

//go:embed template/*.tmpl
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     *template.Template
)

// Funcs are the functions available to the legacy templates.
var Funcs = template.FuncMap{
	"comment": comment,
	"snake":   snake,
	"camel":   camel,
	"article": article,
}

func loadTemplates() *template.Template {
	templatesOnce.Do(func() {
		templates = template.Must(template.New("legacy").Funcs(Funcs).ParseFS(templateFS, "template/*.tmpl"))
	})
	return templates
}

// comment renders s as line comments.
func comment(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("// "+l, " ")
	}
	return strings.Join(lines, "\n")
}

// Legacy is the template based generator kept as the fallback path.
// It emits the Go artifacts only.
type Legacy struct {
	cfg *Config
}

var _ Generator = (*Legacy)(nil)

// NewLegacy returns the legacy generator for cfg.
func NewLegacy(cfg *Config) *Legacy {
	return &Legacy{cfg: cfg}
}

// Name implements Generator.
func (*Legacy) Name() string { return "legacy" }

// legacyData is the template context. W qualifies wrapper identifiers
// referenced from the repository package.
type legacyData struct {
	*view
	Cfg    *Config
	Import string
	W      string
}

type legacyStep struct {
	kind ArtifactKind
	tmpl string
	dir  string
}

// Generate implements Generator.
func (g *Legacy) Generate(e *schema.Entity) ([]*Artifact, error) {
	v, err := newView(e)
	if err != nil {
		return nil, NewCodeGenerationError(KindWrapper, e.Name, "building entity view", err)
	}
	steps := []legacyStep{{KindWrapper, "wrapper", g.cfg.WrapperTarget}}
	if e.Temporal() {
		steps = append(steps,
			legacyStep{KindRepository, "repository", g.cfg.Target},
			legacyStep{KindQuery, "query", g.cfg.Target},
		)
	}
	arts := make([]*Artifact, 0, len(steps))
	for _, s := range steps {
		data := &legacyData{view: v, Cfg: g.cfg}
		if s.kind != KindWrapper && !g.cfg.SamePackage() {
			data.Import = g.cfg.WrapperImport
			data.W = g.cfg.WrapperPackage + "."
		}
		name := FileName(s.kind, v.Type)
		b, err := execute(s.tmpl, path.Join(s.dir, name), data)
		if err != nil {
			return nil, NewCodeGenerationError(s.kind, e.Name, "executing template "+s.tmpl, err)
		}
		arts = append(arts, &Artifact{Kind: s.kind, Entity: v.Type, Dir: s.dir, Name: name, Content: b})
	}
	return arts, nil
}

// execute runs a template and formats the result, dropping the imports
// the entity does not use.
func execute(name, filename string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := loadTemplates().ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return imports.Process(filename, buf.Bytes(), nil)
}
