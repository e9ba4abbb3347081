package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/syssam/chrono/compiler"
	"github.com/syssam/chrono/compiler/gen"
	"github.com/syssam/chrono/internal/config"
	"github.com/syssam/chrono/internal/logging"
)

// errUsage is returned when the command line is incomplete. The usage
// has already been printed.
var errUsage = errors.New("usage")

type rootFlags struct {
	config     string
	logLevel   string
	ddl        string
	graphql    bool
	legacyOnly bool
	workers    int
	watch      bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "chronogen <schemaDir> <outputDir> <wrapperOutputDir>",
		Short: "Generate bitemporal data-access code from entity schemas",
		Long: `chronogen reads the XML entity schemas of a directory and writes, per entity,
a wrapper type to the wrapper output directory and, for temporal entities,
a repository and a query helper to the output directory.

A schema file that fails is reported in the summary; the remaining files
are still generated and the exit code stays 0.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				fmt.Fprintf(stderr, "chronogen: expected 3 arguments, got %d\n\n%s", len(args), cmd.UsageString())
				return errUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd, f, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.config, "config", config.DefaultPath, "config file")
	pf.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	fl := cmd.Flags()
	fl.StringVar(&f.ddl, "ddl", "", "also write CREATE TABLE statements for a dialect (postgres, mysql, sqlite)")
	fl.BoolVar(&f.graphql, "graphql", false, "also write a GraphQL type per entity")
	fl.BoolVar(&f.legacyOnly, "legacy-only", false, "use the legacy parser and generator only")
	fl.IntVar(&f.workers, "workers", 0, "parallel file writes (default GOMAXPROCS)")
	fl.BoolVar(&f.watch, "watch", false, "regenerate when schema files change")

	cmd.AddCommand(newSequenceCmd(f, stdout, stderr))
	return cmd
}

// setup loads the configuration and builds the logger. Flags set on the
// command line override the file.
func setup(cmd *cobra.Command, f *rootFlags, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") {
		level = f.logLevel
	}
	return cfg, logging.Setup(level, stderr), nil
}

func generate(cmd *cobra.Command, f *rootFlags, args []string, stdout, stderr io.Writer) error {
	cfg, log, err := setup(cmd, f, stderr)
	if err != nil {
		return err
	}
	fsys := osfs.New("")
	schemaDir, target, wrapperTarget := args[0], args[1], args[2]

	opts := append(cfg.GenOptions(), gen.WithTarget(target), gen.WithWrapperTarget(wrapperTarget))
	if cmd.Flags().Changed("ddl") {
		opts = append(opts, gen.WithDDL(f.ddl))
	}
	if cmd.Flags().Changed("graphql") {
		opts = append(opts, gen.WithGraphQL(f.graphql))
	}
	if cmd.Flags().Changed("workers") {
		opts = append(opts, gen.WithWorkers(f.workers))
	}
	if cfg.Generate.WrapperImport == "" && filepath.Clean(target) != filepath.Clean(wrapperTarget) {
		imp, err := resolveImport(fsys, wrapperTarget)
		if err != nil {
			return err
		}
		opts = append(opts, gen.WithWrapperImport(imp))
	}
	gcfg, err := gen.NewConfig(opts...)
	if err != nil {
		return err
	}

	legacyOnly := cfg.Generate.LegacyOnly
	if cmd.Flags().Changed("legacy-only") {
		legacyOnly = f.legacyOnly
	}
	p := compiler.New(fsys, gcfg,
		compiler.WithLogger(log),
		compiler.WithLegacyOnly(legacyOnly),
	)
	once := func(ctx context.Context) error {
		r, err := p.Run(ctx, schemaDir)
		if r != nil {
			fmt.Fprintln(stdout, r)
		}
		return err
	}
	if !f.watch {
		return once(cmd.Context())
	}
	return watch(cmd.Context(), log, schemaDir, once)
}

func resolveImport(fsys billy.Filesystem, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return gen.ResolveImport(fsys, filepath.ToSlash(abs))
}
