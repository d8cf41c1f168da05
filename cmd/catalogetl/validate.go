package main

import (
	"fmt"
	"io"

	"catalogetl/internal/config"

	"github.com/spf13/cobra"
)

func newValidateCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := report(stdout, config.Validate(cfg)); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "configuration is valid")
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("source", "", "CSV path or http(s) URL")
	flags.String("storage-kind", "", "mysql, postgres, sqlite or mssql")
	flags.String("database", "", "database name, or file path for sqlite")
	flags.String("dsn", "", "driver DSN, overrides the other storage settings")
	return cmd
}
