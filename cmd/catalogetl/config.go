package main

import (
	"fmt"
	"io"

	"catalogetl/internal/config"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"source":          "source.path",
	"comma":           "source.comma",
	"batch-size":      "runtime.batch_size",
	"storage-kind":    "storage.kind",
	"database":        "storage.database",
	"dsn":             "storage.dsn",
	"schema":          "storage.schema_path",
	"job":             "job",
	"metrics-backend": "metrics.backend",
	"log-level":       "log.level",
}

// loadConfig resolves the layered configuration for cmd, binding every
// flag of cmd that appears in flagKeys.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	l := config.NewLoader()
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := l.BindFlag(key, f); err != nil {
			return config.Config{}, err
		}
	}
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return l.Load(file, envFile)
}

// report prints issues to w and returns an error when any blocks a run.
func report(w io.Writer, issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	return nil
}
