// Package compiler drives schema generation: it discovers the schema
// files of a directory, parses and validates each of them, generates the
// artifacts and writes them.
//
// Every file is first tried on the enhanced path. When parsing,
// validation or generation fails there, the file is retried on the
// legacy path; a file failing both ways is reported and the batch goes
// on with the remaining files.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/chrono/compiler/gen"
	"github.com/syssam/chrono/compiler/load"
	"github.com/syssam/chrono/schema"
)

// Path is one parser and generator pair.
type Path struct {
	Parser    load.Parser
	Generator gen.Generator
}

// Status tells how a schema file was handled.
type Status uint8

// Outcome statuses.
const (
	StatusEnhanced Status = iota
	StatusLegacy
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusEnhanced:
		return "enhanced"
	case StatusLegacy:
		return "legacy"
	default:
		return "failed"
	}
}

// Outcome is the result of one schema file.
type Outcome struct {
	File   string
	Entity string
	Status Status
	// Artifacts are the generated files, nil when generation failed.
	Artifacts []*gen.Artifact
	// Written counts the artifacts whose content changed on disk.
	Written int
	// Fallback is the enhanced path failure that led to the legacy path.
	Fallback error
	// Cause is the failure of the last path tried.
	Cause error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Dir      string
	Files    int
	Outcomes []*Outcome
	Warnings []string
}

// Artifacts returns the number of generated artifacts.
func (r *Report) Artifacts() int {
	n := 0
	for _, o := range r.Outcomes {
		n += len(o.Artifacts)
	}
	return n
}

// Written returns the number of artifacts whose content changed.
func (r *Report) Written() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Written
	}
	return n
}

// Failures returns the failed outcomes, in file order.
func (r *Report) Failures() []*Outcome {
	var fs []*Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			fs = append(fs, o)
		}
	}
	return fs
}

// String renders the summary printed at the end of a run. A failed file
// lists the cause of the last path tried followed by the enhanced path
// cause when the file fell back.
func (r *Report) String() string {
	var b strings.Builder
	fails := r.Failures()
	fmt.Fprintf(&b, "processed %d schema files, generated %d artifacts (%d written), %d failed",
		r.Files, r.Artifacts(), r.Written(), len(fails))
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s", w)
	}
	for _, o := range fails {
		fmt.Fprintf(&b, "\nfailed: %s: %v", o.File, o.Cause)
		if o.Fallback != nil {
			fmt.Fprintf(&b, " (enhanced: %v)", o.Fallback)
		}
	}
	return b.String()
}

// Pipeline runs the enhanced and legacy paths over a schema directory.
type Pipeline struct {
	fs         billy.Filesystem
	enhanced   Path
	legacy     Path
	writer     *gen.Writer
	logger     *slog.Logger
	parallel   int
	legacyOnly bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithParallelism bounds the number of files handled concurrently.
func WithParallelism(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallel = n
		}
	}
}

// WithLegacyOnly skips the enhanced path.
func WithLegacyOnly(enabled bool) Option {
	return func(p *Pipeline) { p.legacyOnly = enabled }
}

// WithPaths replaces the enhanced and legacy paths.
func WithPaths(enhanced, legacy Path) Option {
	return func(p *Pipeline) {
		p.enhanced = enhanced
		p.legacy = legacy
	}
}

// New returns a Pipeline reading and writing through fsys with the
// generators configured by cfg.
func New(fsys billy.Filesystem, cfg *gen.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		fs:       fsys,
		enhanced: Path{Parser: load.Enhanced{}, Generator: gen.NewEnhanced(cfg)},
		legacy:   Path{Parser: load.Legacy{}, Generator: gen.NewLegacy(cfg)},
		writer:   gen.NewWriter(fsys).WithWorkers(cfg.Workers),
		logger:   slog.Default(),
		parallel: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes the schema files of dir. Per-file failures are recorded
// in the report; the returned error is set only when ctx ends the run.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Report, error) {
	r := &Report{RunID: uuid.NewString(), Dir: dir}
	log := p.logger.With("run", r.RunID)
	warn := func(msg string, args ...any) {
		log.Warn(msg, args...)
		r.Warnings = append(r.Warnings, msg+attrText(args))
	}

	d, err := load.Discover(p.fs, dir)
	switch {
	case err != nil:
		warn("schema directory unreadable", "dir", dir, "error", err)
	case d.ManifestErr != nil:
		warn("manifest unreadable, processing every schema file", "file", load.ManifestFile, "error", d.ManifestErr)
	case !d.Manifest:
		warn("manifest not found, processing every schema file", "file", load.ManifestFile)
	}
	if len(d.Missing) > 0 {
		warn("manifest entries without schema file", "entries", strings.Join(d.Missing, ","))
	}
	r.Files = len(d.Files)
	r.Outcomes = make([]*Outcome, len(d.Files))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.parallel)
	for i, file := range d.Files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.Outcomes[i] = p.generate(log, file)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return r, err
	}

	seen := make(map[string]string)
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			continue
		}
		for _, a := range o.Artifacts {
			if prev, ok := seen[a.Path()]; ok {
				warn("artifact generated twice", "path", a.Path(), "first", prev, "second", o.File)
			}
			seen[a.Path()] = o.File
		}
		n, err := p.writer.Write(ctx, o.Artifacts)
		o.Written = n
		if err != nil {
			o.Status, o.Cause = StatusFailed, err
			log.Error("schema failed", "file", o.File, "error", err)
		}
	}
	log.Info("generation finished",
		"dir", dir,
		"files", r.Files,
		"artifacts", r.Artifacts(),
		"written", r.Written(),
		"failed", len(r.Failures()),
	)
	return r, ctx.Err()
}

// generate runs file through the enhanced path and, on failure, the
// legacy path.
func (p *Pipeline) generate(log *slog.Logger, file string) *Outcome {
	o := &Outcome{File: file}
	log.Info("processing schema", "file", file)
	if !p.legacyOnly {
		name, arts, err := p.run(p.enhanced, file)
		if err == nil {
			o.Entity, o.Status, o.Artifacts = name, StatusEnhanced, arts
			return o
		}
		o.Fallback = err
		log.Warn("falling back to legacy generator", "file", file, "cause", err)
	}
	name, arts, err := p.run(p.legacy, file)
	if err != nil {
		o.Status, o.Cause = StatusFailed, err
		log.Error("schema failed", "file", file, "error", err)
		return o
	}
	o.Entity, o.Status, o.Artifacts = name, StatusLegacy, arts
	return o
}

func (p *Pipeline) run(path Path, file string) (string, []*gen.Artifact, error) {
	raw, err := load.ParseFile(p.fs, file, path.Parser)
	if err != nil {
		return "", nil, err
	}
	e, err := schema.Validate(raw)
	if err != nil {
		return raw.Name, nil, err
	}
	arts, err := path.Generator.Generate(e)
	if err != nil {
		return e.Name, nil, err
	}
	return e.Name, arts, nil
}

// attrText renders slog style key value pairs for the report.
func attrText(args []any) string {
	var b strings.Builder
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}
