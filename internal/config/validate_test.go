package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	c := Default()
	c.Source.Path = "games.csv"
	c.Storage = Storage{Kind: "sqlite", Database: ":memory:"}
	c.Columns = map[string]string{"discount": "DiscountDLC count"}
	return c
}

func TestValidate_ValidMinimal(t *testing.T) {
	t.Parallel()
	issues := Validate(validConfig())
	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestValidate_Cases(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(c *Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing job", func(c *Config) { c.Job = "" }, SeverityError, "job", "must not be empty"},
		{"missing source", func(c *Config) { c.Source.Path = "" }, SeverityError, "source.path", "must not be empty"},
		{"bad comma", func(c *Config) { c.Source.Comma = ";;" }, SeverityError, "source.comma", "len=1"},
		{"unknown kind", func(c *Config) { c.Storage.Kind = "oracle" }, SeverityError, "storage.kind", "must be one of"},
		{"zero batch", func(c *Config) { c.Runtime.BatchSize = 0 }, SeverityError, "runtime.batch_size", "gt=0"},
		{"mysql needs host", func(c *Config) { c.Storage = Storage{Kind: "mysql", Database: "steam"} }, SeverityError, "storage.host", "host"},
		{"sqlite needs database", func(c *Config) { c.Storage = Storage{Kind: "sqlite"} }, SeverityError, "storage.database", ":memory:"},
		{"injected table name", func(c *Config) { c.Relations[0].LookupTable = "x; DROP TABLE games" }, SeverityError, "relations[0].lookup_table", "identifier"},
		{"unknown relation column", func(c *Config) { c.Relations[2].Column = "labels" }, SeverityError, "relations[2].column", "not a games column"},
		{"duplicate relation", func(c *Config) { c.Relations[1].Name = "categories" }, SeverityError, "relations[1].name", "duplicate"},
		{"shared junction", func(c *Config) { c.Relations[2].JunctionTable = "game_genres" }, SeverityError, "relations[2].junction_table", "already used"},
		{"games as lookup", func(c *Config) { c.Relations[0].LookupTable = "games" }, SeverityError, "relations[0]", "games table"},
		{"no relations", func(c *Config) { c.Relations = nil }, SeverityWarning, "relations", "stay empty"},
		{"unknown column override", func(c *Config) { c.Columns["bogus"] = "X" }, SeverityWarning, "columns.bogus", "not a games column"},
		{"discount not reviewed", func(c *Config) { c.Columns = nil }, SeverityWarning, "columns.discount", "DiscountDLC count"},
		{"prom without url", func(c *Config) { c.Metrics.Backend = "prom" }, SeverityError, "metrics.pushgateway_url", "required"},
		{"datadog without addr", func(c *Config) { c.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "required"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, SeverityError, "log.level", "must be one of"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			c.Relations = DefaultRelations()
			c.Columns = map[string]string{"discount": "DiscountDLC count"}
			tc.mutate(&c)
			issues := Validate(c)
			assert.True(t, hasIssue(issues, tc.sev, tc.path, tc.msg), "issues: %v", issues)
		})
	}
}

func TestValidate_DSNSkipsCoordinates(t *testing.T) {
	t.Parallel()
	c := validConfig()
	c.Storage = Storage{Kind: "postgres", DSN: "postgres://u:p@h/db"}
	assert.False(t, HasErrors(Validate(c)))
}

func TestIssueError(t *testing.T) {
	t.Parallel()
	iss := Issue{Severity: SeverityError, Path: "storage.kind", Message: "bad"}
	assert.Equal(t, "error at storage.kind: bad", iss.Error())
}
