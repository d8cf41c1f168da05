package schema

import (
	"context"
	"embed"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed sql/*.sql
var scripts embed.FS

// Script returns the embedded DDL script for a storage kind.
func Script(kind string) (string, error) {
	b, err := scripts.ReadFile("sql/" + kind + ".sql")
	if err != nil {
		return "", errors.Errorf("schema: no embedded script for storage.kind=%s", kind)
	}
	return string(b), nil
}

// ReadScript returns the script at path, or the embedded script for kind
// when path is empty. A path that cannot be read is an error.
func ReadScript(kind, path string) (string, error) {
	if path == "" {
		return Script(kind)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "schema: read script")
	}
	return string(b), nil
}

// SplitStatements splits script on ';'. Full-line "--" comments are dropped
// and chunks left empty are skipped.
func SplitStatements(script string) []string {
	var out []string
	for _, chunk := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// StatementWarning is a statement that failed during setup.
type StatementWarning struct {
	Index     int    `json:"index"`
	Statement string `json:"statement"`
	Err       string `json:"error"`
}

// SetupReport summarizes an Apply call.
type SetupReport struct {
	Statements int                `json:"statements"`
	Executed   int                `json:"executed"`
	Warnings   []StatementWarning `json:"warnings,omitempty"`
}

// Apply executes every statement of script in order. A failing statement
// (typically "already exists") is recorded as a warning and setup continues.
// Only a cancelled ctx stops it early.
func Apply(ctx context.Context, ex sqlx.ExecerContext, script string) (SetupReport, error) {
	stmts := SplitStatements(script)
	rep := SetupReport{Statements: len(stmts)}
	for i, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			rep.Warnings = append(rep.Warnings, StatementWarning{Index: i, Statement: firstLine(stmt), Err: err.Error()})
			continue
		}
		rep.Executed++
	}
	return rep, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
