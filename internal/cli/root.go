// Package cli implements docctl, the operator tool for document numbering.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"salesdocs/internal/config"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/infrastructure/storage/postgres"
	"salesdocs/internal/infrastructure/storage/sqlite"
	"salesdocs/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Store      string
	SQLitePath string

	cfg    config.Config
	opener Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Backend is an opened numbering service.
type Backend struct {
	Numbers *numerator.Service
	close   func()
}

// NewBackend wraps svc; closeFn may be nil.
func NewBackend(svc *numerator.Service, closeFn func()) *Backend {
	return &Backend{Numbers: svc, close: closeFn}
}

// Close releases the backend's storage.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Opener connects to the counter store cfg selects.
type Opener func(ctx context.Context, cfg config.Config) (*Backend, error)

// OpenBackend opens the configured counter store. The SQLite store runs
// without a duplicate registry.
func OpenBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	ncfg, err := cfg.NumeratorConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Numbering.CounterStore == config.CounterStoreSQLite {
		store, err := sqlite.Open(cfg.Numbering.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewBackend(numerator.NewService(store, nil, ncfg), func() { store.Close() }), nil
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is not configured (set DATABASE_URL)")
	}
	pool, err := postgres.NewPool(ctx, cfg.PoolConfig())
	if err != nil {
		return nil, err
	}
	targets, err := cfg.RegistryTargets()
	if err != nil {
		pool.Close()
		return nil, err
	}
	registry, err := postgres.NewRegistry(pool, targets)
	if err != nil {
		pool.Close()
		return nil, err
	}
	svc := numerator.NewService(postgres.NewCounterStore(pool), registry, ncfg)
	return NewBackend(svc, pool.Close), nil
}

// NewRootCommand creates the docctl root command. A nil opener uses OpenBackend.
func NewRootCommand(opener Opener) *cobra.Command {
	if opener == nil {
		opener = OpenBackend
	}
	opts := &RootOptions{opener: opener}

	cmd := &cobra.Command{
		Use:   "docctl",
		Short: "Document numbering administration",
		Long: `docctl draws, previews and parses sales document numbers
(QT, INV, TX, RE, INST), reports counter usage and applies schema migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.Store != "" {
				cfg.Numbering.CounterStore = opts.Store
			}
			if opts.SQLitePath != "" {
				cfg.Numbering.SQLitePath = opts.SQLitePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg

			log, err := logger.New(logger.Config{Level: cfg.Log.Level, OutputPaths: []string{"stderr"}})
			if err != nil {
				return err
			}
			logger.SetDefault(log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (default $SALESDOCS_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "counter store override (postgres|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "SQLite counter database path")

	cmd.AddCommand(newNextCommand(opts))
	cmd.AddCommand(newPreviewCommand(opts))
	cmd.AddCommand(newParseCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newAdvanceCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

func (o *RootOptions) withBackend(ctx context.Context, fn func(*Backend) error) error {
	b, err := o.opener(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
