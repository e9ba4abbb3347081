package gen

import (
	"bytes"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/chrono/schema"
)

// Generator turns one validated entity into its artifacts. An error
// means none of the entity's artifacts should be written.
type Generator interface {
	Name() string
	Generate(e *schema.Entity) ([]*Artifact, error)
}

// Enhanced is the jennifer based generator. Besides the Go artifacts it
// emits the optional DDL and GraphQL schema files.
type Enhanced struct {
	cfg *Config
}

var _ Generator = (*Enhanced)(nil)

// NewEnhanced returns the enhanced generator for cfg.
func NewEnhanced(cfg *Config) *Enhanced {
	return &Enhanced{cfg: cfg}
}

// Name implements Generator.
func (*Enhanced) Name() string { return "enhanced" }

// Generate implements Generator. The repository and query helper are
// produced for temporal entities only.
func (g *Enhanced) Generate(e *schema.Entity) ([]*Artifact, error) {
	v, err := newView(e)
	if err != nil {
		return nil, NewCodeGenerationError(KindWrapper, e.Name, "building entity view", err)
	}
	var arts []*Artifact
	add := func(k ArtifactKind, dir string, content []byte) {
		arts = append(arts, &Artifact{
			Kind:    k,
			Entity:  v.Type,
			Dir:     dir,
			Name:    FileName(k, v.Type),
			Content: content,
		})
	}

	b, err := render(FileName(KindWrapper, v.Type), genWrapper(g.cfg, v))
	if err != nil {
		return nil, NewCodeGenerationError(KindWrapper, e.Name, "rendering", err)
	}
	add(KindWrapper, g.cfg.WrapperTarget, b)

	if e.Temporal() {
		if b, err = render(FileName(KindRepository, v.Type), genRepository(g.cfg, v)); err != nil {
			return nil, NewCodeGenerationError(KindRepository, e.Name, "rendering", err)
		}
		add(KindRepository, g.cfg.Target, b)
		if b, err = render(FileName(KindQuery, v.Type), genQuery(g.cfg, v)); err != nil {
			return nil, NewCodeGenerationError(KindQuery, e.Name, "rendering", err)
		}
		add(KindQuery, g.cfg.Target, b)
	}
	if g.cfg.DDL != "" {
		if b, err = genDDL(g.cfg, v); err != nil {
			return nil, NewCodeGenerationError(KindDDL, e.Name, "planning table", err)
		}
		add(KindDDL, g.cfg.Target, b)
	}
	if g.cfg.GraphQL {
		if b, err = genGraphQL(g.cfg, v); err != nil {
			return nil, NewCodeGenerationError(KindGraphQL, e.Name, "building type", err)
		}
		add(KindGraphQL, g.cfg.Target, b)
	}
	return arts, nil
}

// render formats f and groups its imports the way goimports does, the
// standard library first. jennifer reports syntax errors of the
// generated code here.
func render(name string, f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return imports.Process(filepath.Base(name), buf.Bytes(), nil)
}
