// Command catalogetl loads a Steam catalog CSV into a relational database,
// validates run configurations and runs read-only analytics queries.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	// register every storage dialect; the config picks one.
	_ "catalogetl/internal/storage/all"
)

func main() {
	root := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "catalogetl",
		Short: "Load and normalize a game catalog CSV",
		Long: `catalogetl reads a game catalog CSV, coerces every row into the games
table with an idempotent bulk upsert and derives the category, genre and tag
lookup tables.

Configuration is layered: defaults, --config file, --env-file (or .env),
CATALOG_* environment variables and finally command-line flags.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rc.PersistentFlags().StringP("config", "c", "", "configuration file (yaml, json or toml)")
	rc.PersistentFlags().String("env-file", "", "dotenv file to load; .env is tried when empty")

	rc.AddCommand(newLoadCommand(stdin, stdout, stderr))
	rc.AddCommand(newValidateCommand(stdin, stdout, stderr))
	rc.AddCommand(newQueryCommand(stdin, stdout, stderr))
	rc.AddCommand(newProbeCommand(stdin, stdout, stderr))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}
