package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salesdocs/internal/infrastructure/storage/migrations"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the PostgreSQL schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *migrations.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				return reportVersion(cmd, m)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *migrations.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				return reportVersion(cmd, m)
			})
		},
	})
	return cmd
}

func withMigrator(opts *RootOptions, fn func(*migrations.Migrator) error) error {
	if opts.cfg.Database.URL == "" {
		return fmt.Errorf("database url is not configured (set DATABASE_URL)")
	}
	m, err := migrations.New(opts.cfg.Database.URL)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func reportVersion(cmd *cobra.Command, m *migrations.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
	return nil
}
