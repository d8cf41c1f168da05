package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogetl/internal/config"
	"catalogetl/internal/logger"
	"catalogetl/internal/observability"
	"catalogetl/internal/pipeline"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoadCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the catalog CSV and normalize its relations",
		Long: `
Reads the source, applies the schema, upserts every row into the games table,
normalizes the configured relations and prints a run summary. Row errors and
aborted relations are reported as warnings; only a missing source, a failed
connection or an unreadable schema file fail the command.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := report(stderr, config.Validate(cfg)); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := runLoad(ctx, cfg)
			if rep != nil {
				if asJSON {
					enc := json.NewEncoder(stdout)
					enc.SetIndent("", "  ")
					if err := enc.Encode(rep); err != nil {
						return err
					}
				} else {
					printSummary(stdout, rep)
				}
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("source", "", "CSV path or http(s) URL")
	flags.String("comma", "", "field delimiter")
	flags.Int("batch-size", 0, "rows per commit")
	flags.String("storage-kind", "", "mysql, postgres, sqlite or mssql")
	flags.String("database", "", "database name, or file path for sqlite")
	flags.String("dsn", "", "driver DSN, overrides the other storage settings")
	flags.String("schema", "", "DDL script overriding the embedded one")
	flags.String("job", "", "job label for logs and metrics")
	flags.String("metrics-backend", "", "none, prom or datadog")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

// runLoad wires logging, metrics and tracing around one pipeline run.
func runLoad(ctx context.Context, cfg config.Config) (*pipeline.Report, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	runID := uuid.NewString()
	backend, closeMetrics, err := metricsBackend(cfg, runID, log)
	if err != nil {
		return nil, errors.Wrap(err, "metrics")
	}
	defer closeMetrics()

	shutdown, err := observability.Setup(ctx, observability.TracingConfig{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
		Endpoint: cfg.Tracing.Endpoint,
		Out:      os.Stderr,
	}, log)
	if err != nil {
		return nil, errors.Wrap(err, "tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	return pipeline.New(cfg, pipeline.Deps{Logger: log, Metrics: backend, RunID: runID}).Run(ctx)
}
