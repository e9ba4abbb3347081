// Package config loads the chronogen configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/chrono/bitemporal/sqlstore"
	"github.com/syssam/chrono/compiler/gen"
	"github.com/syssam/chrono/dialect"
	"github.com/syssam/chrono/dialect/sql"
	"github.com/syssam/chrono/sequence"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "chrono.yaml"

// Config is the top-level configuration.
type Config struct {
	Generate    GenerateConfig     `yaml:"generate"`
	Runtime     RuntimeConfig      `yaml:"runtime"`
	Connections []ConnectionConfig `yaml:"connections,omitempty"`
	Sequences   SequenceConfig     `yaml:"sequences"`
	Logging     LogConfig          `yaml:"logging"`
}

// GenerateConfig holds the code generation settings.
type GenerateConfig struct {
	Package        string `yaml:"package,omitempty"`
	WrapperPackage string `yaml:"wrapper_package,omitempty"`
	WrapperImport  string `yaml:"wrapper_import,omitempty"`
	Workers        int    `yaml:"workers,omitempty"`
	DDL            string `yaml:"ddl,omitempty"` // postgres, mysql or sqlite
	GraphQL        bool   `yaml:"graphql,omitempty"`
	LegacyOnly     bool   `yaml:"legacy_only,omitempty"`
	Header         string `yaml:"header,omitempty"`
}

// RuntimeConfig holds the storage runtime settings.
type RuntimeConfig struct {
	ConnectionManagerConfigFile string `yaml:"connection_manager_config_file,omitempty"`
	// DefaultTransactionTimeout is in seconds.
	DefaultTransactionTimeout int    `yaml:"default_transaction_timeout,omitempty"`
	DatabaseTimeZone          string `yaml:"database_time_zone,omitempty"`
	EnableDebugLogging        bool   `yaml:"enable_debug_logging,omitempty"`
}

// ConnectionConfig describes a named connection manager.
type ConnectionConfig struct {
	Name         string `yaml:"name"`
	Dialect      string `yaml:"dialect"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty"`
}

// SequenceConfig holds the defaults of new sequences.
type SequenceConfig struct {
	StartValue  int64  `yaml:"start_value,omitempty"`
	IncrementBy int64  `yaml:"increment_by,omitempty"`
	Table       string `yaml:"table,omitempty"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
}

// Error reports an invalid configuration value.
type Error struct {
	File string
	*gen.ConfigurationError
}

func (e *Error) Error() string {
	if e.File == "" {
		return e.ConfigurationError.Error()
	}
	return e.File + ": " + e.ConfigurationError.Error()
}

// Unwrap returns the configuration error.
func (e *Error) Unwrap() error { return e.ConfigurationError }

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the configuration at path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a configuration document. file is used in errors only.
func Parse(file string, data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		var ce *gen.ConfigurationError
		if errors.As(err, &ce) {
			return nil, &Error{File: file, ConfigurationError: ce}
		}
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Runtime.DefaultTransactionTimeout == 0 {
		c.Runtime.DefaultTransactionTimeout = 120
	}
	if c.Runtime.DatabaseTimeZone == "" {
		c.Runtime.DatabaseTimeZone = "UTC"
	}
	if c.Sequences.StartValue == 0 {
		c.Sequences.StartValue = sequence.DefaultStart
	}
	if c.Sequences.IncrementBy == 0 {
		c.Sequences.IncrementBy = sequence.DefaultIncrement
	}
	if c.Sequences.Table == "" {
		c.Sequences.Table = sequence.DefaultTable
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Runtime.EnableDebugLogging {
		c.Logging.Level = "debug"
	}
	if c.Generate.DDL == "sqlite" {
		c.Generate.DDL = dialect.SQLite
	}
}

func (c *Config) validate() error {
	switch c.Generate.DDL {
	case "", dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return gen.NewConfigurationError("generate.ddl", c.Generate.DDL, "unsupported dialect")
	}
	if c.Generate.Workers < 0 {
		return gen.NewConfigurationError("generate.workers", c.Generate.Workers, "must not be negative")
	}
	if c.Runtime.DefaultTransactionTimeout < 0 {
		return gen.NewConfigurationError("runtime.default_transaction_timeout", c.Runtime.DefaultTransactionTimeout, "must not be negative")
	}
	if _, err := time.LoadLocation(c.Runtime.DatabaseTimeZone); err != nil {
		return gen.NewConfigurationError("runtime.database_time_zone", c.Runtime.DatabaseTimeZone, err.Error())
	}
	if c.Sequences.IncrementBy < 0 {
		return gen.NewConfigurationError("sequences.increment_by", c.Sequences.IncrementBy, "must be positive")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return gen.NewConfigurationError("logging.level", c.Logging.Level, "unknown level")
	}
	seen := make(map[string]bool, len(c.Connections))
	for _, conn := range c.Connections {
		switch {
		case conn.Name == "":
			return gen.NewConfigurationError("connections.name", conn.Name, "connection name is empty")
		case seen[conn.Name]:
			return gen.NewConfigurationError("connections.name", conn.Name, "duplicate connection")
		}
		seen[conn.Name] = true
		if _, ok := dialect.Normalize(conn.Dialect); !ok {
			return gen.NewConfigurationError("connections.dialect", conn.Dialect, "unsupported dialect")
		}
	}
	return nil
}

// GenOptions returns the generator options of the generate section.
func (c *Config) GenOptions() []gen.Option {
	var opts []gen.Option
	if c.Generate.Package != "" {
		opts = append(opts, gen.WithPackage(c.Generate.Package))
	}
	if c.Generate.WrapperPackage != "" {
		opts = append(opts, gen.WithWrapperPackage(c.Generate.WrapperPackage))
	}
	if c.Generate.WrapperImport != "" {
		opts = append(opts, gen.WithWrapperImport(c.Generate.WrapperImport))
	}
	if c.Generate.Header != "" {
		opts = append(opts, gen.WithHeader(c.Generate.Header))
	}
	return append(opts,
		gen.WithWorkers(c.Generate.Workers),
		gen.WithDDL(c.Generate.DDL),
		gen.WithGraphQL(c.Generate.GraphQL),
	)
}

// TxTimeout returns the default transaction timeout.
func (c *Config) TxTimeout() time.Duration {
	return time.Duration(c.Runtime.DefaultTransactionTimeout) * time.Second
}

// Location returns the database time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Runtime.DatabaseTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SequenceOptions returns the options of sequence generators.
func (c *Config) SequenceOptions() []sequence.Option {
	return []sequence.Option{
		sequence.WithStart(c.Sequences.StartValue),
		sequence.WithIncrement(c.Sequences.IncrementBy),
		sequence.WithTable(c.Sequences.Table),
		sequence.WithTxTimeout(c.TxTimeout()),
	}
}

// StoreOptions returns the options of SQL backed bitemporal stores.
func (c *Config) StoreOptions() []sqlstore.Option {
	return []sqlstore.Option{
		sqlstore.WithTxTimeout(c.TxTimeout()),
		sqlstore.WithTimeZone(c.Location()),
	}
}

// Connection returns the connection named name.
func (c *Config) Connection(name string) (sql.ConnectionConfig, error) {
	for _, conn := range c.Connections {
		if conn.Name == name {
			return sql.ConnectionConfig{
				Name:         conn.Name,
				Dialect:      conn.Dialect,
				DSN:          conn.DSN,
				MaxOpenConns: conn.MaxOpenConns,
			}, nil
		}
	}
	return sql.ConnectionConfig{}, gen.NewConfigurationError("connections", name, "unknown connection")
}

var secretPattern = regexp.MustCompile(`\$\{ENV:([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	for i := range c.Connections {
		dsn, err := ResolveValue(c.Connections[i].DSN)
		if err != nil {
			return fmt.Errorf("connection %q: %w", c.Connections[i].Name, err)
		}
		c.Connections[i].DSN = dsn
	}
	return nil
}

// ResolveValue replaces a ${ENV:NAME} reference by the value of the
// environment variable. Other values are returned unchanged.
func ResolveValue(val string) (string, error) {
	m := secretPattern.FindStringSubmatch(val)
	if m == nil {
		return val, nil
	}
	v, ok := os.LookupEnv(m[1])
	if !ok {
		return "", fmt.Errorf("environment variable %s not set", m[1])
	}
	return strings.Replace(val, m[0], v, 1), nil
}
