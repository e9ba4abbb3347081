package gen

import (
	"errors"
	"path"
	"runtime"
	"strings"
	"unicode"

	"github.com/syssam/chrono/dialect"
)

// DefaultHeader opens every generated Go file.
const DefaultHeader = "Code generated by chronogen. DO NOT EDIT."

// Config holds the generation settings shared by every generator.
type Config struct {
	// Target is the primary output directory. Repositories, query
	// helpers, DDL and GraphQL artifacts are written there.
	Target string
	// WrapperTarget is the directory of the wrapper types. It defaults
	// to Target.
	WrapperTarget string
	// Package and WrapperPackage are the Go package names of the two
	// directories. They default to the directory base names.
	Package        string
	WrapperPackage string
	// WrapperImport is the import path of WrapperTarget. It is required
	// when the two directories differ.
	WrapperImport string
	// Header is the first comment line of generated Go files.
	Header string
	// Workers bounds concurrent artifact writes.
	Workers int
	// DDL is the dialect of the DDL artifact; empty disables it.
	DDL string
	// GraphQL enables the GraphQL SDL artifact.
	GraphQL bool
}

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the primary output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if strings.TrimSpace(dir) == "" {
			return NewConfigurationError("Target", nil, "output directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWrapperTarget sets the wrapper output directory.
func WithWrapperTarget(dir string) Option {
	return func(c *Config) error {
		if strings.TrimSpace(dir) == "" {
			return NewConfigurationError("WrapperTarget", nil, "wrapper output directory cannot be empty")
		}
		c.WrapperTarget = dir
		return nil
	}
}

// WithPackage sets the package name of the primary output directory.
func WithPackage(name string) Option {
	return func(c *Config) error {
		if !validPackage(name) {
			return NewConfigurationError("Package", name, "not a valid Go package name")
		}
		c.Package = name
		return nil
	}
}

// WithWrapperPackage sets the package name of the wrapper directory.
func WithWrapperPackage(name string) Option {
	return func(c *Config) error {
		if !validPackage(name) {
			return NewConfigurationError("WrapperPackage", name, "not a valid Go package name")
		}
		c.WrapperPackage = name
		return nil
	}
}

// WithWrapperImport sets the import path of the wrapper package.
// For example: "github.com/org/project/model".
func WithWrapperImport(importPath string) Option {
	return func(c *Config) error {
		if importPath == "" {
			return NewConfigurationError("WrapperImport", nil, "import path cannot be empty")
		}
		c.WrapperImport = importPath
		return nil
	}
}

// WithHeader sets the header comment of generated Go files.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithWorkers bounds the number of concurrent writes.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigurationError("Workers", n, "must not be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithDDL enables the DDL artifact for the given dialect.
// Supported dialects: "postgres", "mysql", "sqlite3".
func WithDDL(d string) Option {
	return func(c *Config) error {
		switch d {
		case "":
		case dialect.Postgres, dialect.MySQL, dialect.SQLite:
		case "sqlite":
			d = dialect.SQLite
		default:
			return NewConfigurationError("DDL", d, "unsupported dialect; use postgres, mysql, or sqlite3")
		}
		c.DDL = d
		return nil
	}
}

// WithGraphQL enables or disables the GraphQL SDL artifact.
func WithGraphQL(enabled bool) Option {
	return func(c *Config) error {
		c.GraphQL = enabled
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SamePackage reports whether wrappers and repositories share a package.
func (c *Config) SamePackage() bool {
	return path.Clean(c.WrapperTarget) == path.Clean(c.Target)
}

// complete fills defaults and checks the settings that depend on each
// other.
func (c *Config) complete() error {
	if c.Target == "" {
		return NewConfigurationError("Target", nil, "missing output directory")
	}
	if c.WrapperTarget == "" {
		c.WrapperTarget = c.Target
	}
	if c.Package == "" {
		c.Package = packageName(c.Target)
	}
	if c.WrapperPackage == "" {
		c.WrapperPackage = packageName(c.WrapperTarget)
	}
	if c.SamePackage() && c.WrapperPackage != c.Package {
		return NewConfigurationError("WrapperPackage", c.WrapperPackage, "must equal Package when both share a directory")
	}
	if !c.SamePackage() && c.WrapperImport == "" {
		return NewConfigurationError("WrapperImport", nil, "required when the wrapper directory differs from the output directory")
	}
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// NewConfig creates a new Config with the given options and fills the
// defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.complete(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// packageName derives a package name from a directory: the lower-cased
// base name stripped of characters Go does not allow.
func packageName(dir string) string {
	base := path.Base(strings.ReplaceAll(dir, "\\", "/"))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if r == '_' || unicode.IsLetter(r) || (unicode.IsDigit(r) && b.Len() > 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "model"
	}
	return b.String()
}

func validPackage(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
