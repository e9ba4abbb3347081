package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/syssam/chrono/dialect/sql"
	"github.com/syssam/chrono/sequence"
)

func newSequenceCmd(f *rootFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		connection string
		count      int
		create     bool
	)
	open := func(cmd *cobra.Command) (*sequence.Store, func() error, error) {
		cfg, log, err := setup(cmd, f, stderr)
		if err != nil {
			return nil, nil, err
		}
		cc, err := cfg.Connection(connection)
		if err != nil {
			return nil, nil, err
		}
		reg := sql.NewRegistry(sql.WithRegistryLogger(log), sql.WithDebug(cfg.Runtime.EnableDebugLogging))
		drv, err := reg.Open(cc)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() error {
			if st, ok := reg.Stats(cc.Name); ok {
				log.Debug("connection statistics", "connection", cc.Name, "stats", st.String())
			}
			return reg.Close()
		}
		s := sequence.NewStore(drv, append(cfg.SequenceOptions(), sequence.WithLogger(log))...)
		if create {
			if err := s.CreateTable(cmd.Context()); err != nil {
				return nil, nil, errors.Join(err, closeFn())
			}
		}
		return s, closeFn, nil
	}

	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Operate identity sequences stored in a database",
	}
	cmd.PersistentFlags().StringVar(&connection, "connection", "", "connection name from the config file")
	cmd.PersistentFlags().BoolVar(&create, "create-table", false, "create the sequence table when missing")
	_ = cmd.MarkPersistentFlagRequired("connection")

	next := &cobra.Command{
		Use:   "next <name>",
		Short: "Reserve and print the next values of a sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeFn()) }()
			ids, err := s.NextIDs(cmd.Context(), args[0], count)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(stdout, id)
			}
			return nil
		},
	}
	next.Flags().IntVar(&count, "count", 1, "number of values to reserve")

	reset := &cobra.Command{
		Use:   "reset <name> <value>",
		Short: "Set the next value of a sequence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			value, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			s, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeFn()) }()
			if err := s.Reset(cmd.Context(), args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s reset to %d\n", args[0], value)
			return nil
		},
	}
	cmd.AddCommand(next, reset)
	return cmd
}
