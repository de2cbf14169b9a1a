package main

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-blobdb/pkg/config"
	"github.com/adfharrison1/go-blobdb/pkg/domain"
	"github.com/adfharrison1/go-blobdb/pkg/logging"
	"github.com/adfharrison1/go-blobdb/pkg/records"
	"github.com/adfharrison1/go-blobdb/pkg/storage"
)

const Version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "go-blobdb",
		Short: "collections of records on top of a single stored document",
		Long: fmt.Sprintf(`go-blobdb (v%s)

Serves CRUD over named collections of records. The whole database is a
single document kept in memory, a JSON or .godb file, a SQLite row or a
remote HTTP slot; concurrent writers are reconciled with optimistic
concurrency and retries.

Every flag can also be set as BLOBDB_<FLAG> (e.g. BLOBDB_DATA_FILE), in the
environment or in .env / .env.local.`, Version),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
		},
	}

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of go-blobdb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "go-blobdb v%s\n", Version)
		},
	}
}

// app is the provider and its collaborators built from the configuration
type app struct {
	cfg      *config.Config
	logger   hclog.Logger
	metrics  *metrics.Set
	provider *records.BlobRecordProvider
	backend  domain.Backend
}

// newApp loads the configuration of cmd and builds the configured backend
// and provider
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := logging.New("go-blobdb", cfg.LogLevel, cfg.LogJSON, cmd.ErrOrStderr())

	backend, err := storage.New(cfg.StorageConfig(), storage.WithLogger(logger.Named("storage")))
	if err != nil {
		return nil, err
	}

	set := metrics.NewSet()
	provider, err := records.NewBlobRecordProvider(backend,
		records.WithConcurrentWrites(cfg.ConcurrentWrites),
		records.WithRetryPolicy(cfg.RetryPolicy()),
		records.WithLogger(logger.Named("records")),
		records.WithMetrics(set),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("backend ready", "backend", cfg.Backend, "concurrent_writes", cfg.ConcurrentWrites)

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  set,
		provider: provider,
		backend:  backend,
	}, nil
}

// Close stops the provider and releases the backend
func (a *app) Close() {
	a.provider.Close()
	if closer, ok := a.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("failed to close backend", "error", err)
		}
	}
}
