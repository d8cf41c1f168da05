package main

import (
	"encoding/json"
	"fmt"
	"io"

	"catalogetl/internal/datasource"
	"catalogetl/internal/datasource/httpds"
	"catalogetl/internal/probe"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newProbeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var (
		sample int
		sniff  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sample the source and check its headers against the column map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Source.Path == "" {
				return errors.New("no source: set source.path or --source")
			}
			opt := probe.Options{SampleRows: sample}
			if !sniff {
				opt.Comma = cfg.Source.CommaRune()
			}
			src := datasource.New(cfg.Source.Path, httpds.Config{MaxRetries: cfg.Source.Retries})
			res, err := probe.Probe(cmd.Context(), cfg.Source.Path, src, cfg.ColumnMap(), opt)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(stdout, "%s: %d rows (%d sampled), delimiter %q\n", res.Location, res.Rows, res.Sampled, res.Delimiter)
			for _, c := range res.Columns {
				target := c.Target
				if target == "" {
					target = "-"
				}
				fmt.Fprintf(stdout, "  %-28s %-24s %-8s %d filled\n", c.Header, target, c.Type, c.Filled)
			}
			for _, m := range res.Missing {
				fmt.Fprintf(stdout, "  missing header for %s\n", m)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("source", "", "CSV path or http(s) URL")
	flags.String("comma", "", "field delimiter")
	flags.IntVar(&sample, "sample", probe.DefaultSampleRows, "rows used for type inference")
	flags.BoolVar(&sniff, "sniff", false, "detect the delimiter instead of using the configured one")
	flags.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
