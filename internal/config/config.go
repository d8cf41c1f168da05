// Package config defines the configuration model for a catalog load and the
// helpers that build it (Load) and lint it (Validate).
//
// A Config is built once at startup and passed by value into the pipeline.
// Nothing in this package holds process-wide state.
//
// Example (YAML, trimmed):
//
//	job: steam-catalog
//	source:
//	  path: data/games.csv
//	storage:
//	  kind: mysql
//	  host: 127.0.0.1
//	  user: etl
//	  database: steam
//	runtime:
//	  batch_size: 500
//	columns:
//	  discount: Discount
package config

import (
	"catalogetl/internal/schema"
)

// Config is the full run configuration.
type Config struct {
	// Job labels metrics, traces and log lines for this run.
	Job string `mapstructure:"job" json:"job" validate:"required"`

	Source  Source        `mapstructure:"source" json:"source"`
	Storage Storage       `mapstructure:"storage" json:"storage"`
	Runtime RuntimeConfig `mapstructure:"runtime" json:"runtime"`

	// Columns overrides entries of schema.DefaultColumnMap, keyed by games
	// column name with the source header as value.
	Columns map[string]string `mapstructure:"columns" json:"columns"`

	// Relations lists the delimited-list columns that are normalized into
	// lookup and junction tables.
	Relations []Relation `mapstructure:"relations" json:"relations" validate:"dive"`

	Metrics Metrics `mapstructure:"metrics" json:"metrics"`
	Tracing Tracing `mapstructure:"tracing" json:"tracing"`
	Log     Log     `mapstructure:"log" json:"log"`
}

// Source identifies the input file.
type Source struct {
	// Path is a local path or an http(s) URL.
	Path string `mapstructure:"path" json:"path" validate:"required"`

	// Comma is the single-character field delimiter. Empty means ",".
	Comma string `mapstructure:"comma" json:"comma" validate:"omitempty,len=1"`

	// Retries bounds HTTP retry attempts for URL sources.
	Retries int `mapstructure:"retries" json:"retries" validate:"gte=0"`
}

// Storage selects the database backend and how to reach it.
type Storage struct {
	// Kind is one of mysql, postgres, sqlite or mssql.
	Kind string `mapstructure:"kind" json:"kind" validate:"required,oneof=mysql postgres sqlite mssql"`

	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port" validate:"gte=0,lte=65535"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"-"`

	// Database is the database name, or the file path for sqlite.
	Database string `mapstructure:"database" json:"database"`

	// DSN, when set, is used verbatim and the fields above are ignored.
	DSN string `mapstructure:"dsn" json:"-"`

	// SchemaPath overrides the embedded DDL script for Kind.
	SchemaPath string `mapstructure:"schema_path" json:"schema_path"`
}

// RuntimeConfig controls batching and error reporting.
type RuntimeConfig struct {
	// BatchSize is the number of successful rows per commit.
	BatchSize int `mapstructure:"batch_size" json:"batch_size" validate:"gt=0"`

	// MaxErrorDetails bounds how many row failures are kept verbatim.
	// Zero uses the loader default.
	MaxErrorDetails int `mapstructure:"max_error_details" json:"max_error_details" validate:"gte=0"`
}

// Relation describes one lookup/junction pair derived from a list column.
type Relation struct {
	Name          string `mapstructure:"name" json:"name" validate:"required"`
	Column        string `mapstructure:"column" json:"column" validate:"required,ident"`
	LookupTable   string `mapstructure:"lookup_table" json:"lookup_table" validate:"required,ident"`
	JunctionTable string `mapstructure:"junction_table" json:"junction_table" validate:"required,ident"`
	FKColumn      string `mapstructure:"fk_column" json:"fk_column" validate:"required,ident"`
	Delimiter     string `mapstructure:"delimiter" json:"delimiter"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `mapstructure:"backend" json:"backend" validate:"omitempty,oneof=none prom datadog"`
	PushgatewayURL string `mapstructure:"pushgateway_url" json:"pushgateway_url" validate:"omitempty,url"`
	DatadogAddr    string `mapstructure:"datadog_addr" json:"datadog_addr"`
	Namespace      string `mapstructure:"namespace" json:"namespace"`
}

// Tracing configures OpenTelemetry span export.
type Tracing struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	Exporter string `mapstructure:"exporter" json:"exporter" validate:"omitempty,oneof=stdout otlp"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

// Log configures the zap logger.
type Log struct {
	Mode  string `mapstructure:"mode" json:"mode" validate:"omitempty,oneof=dev prod"`
	Level string `mapstructure:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultRelations normalizes the category, genre and tag lists.
func DefaultRelations() []Relation {
	return []Relation{
		{Name: "categories", Column: "categories", LookupTable: "categories", JunctionTable: "game_categories", FKColumn: "category_id", Delimiter: ","},
		{Name: "genres", Column: "genres", LookupTable: "genres", JunctionTable: "game_genres", FKColumn: "genre_id", Delimiter: ","},
		{Name: "tags", Column: "tags", LookupTable: "tags", JunctionTable: "game_tags", FKColumn: "tag_id", Delimiter: ","},
	}
}

// Default returns a Config with every optional field filled in. Source and
// storage coordinates are left for the caller.
func Default() Config {
	return Config{
		Job:       "catalog",
		Source:    Source{Comma: ",", Retries: 3},
		Storage:   Storage{Kind: "mysql"},
		Runtime:   RuntimeConfig{BatchSize: 500, MaxErrorDetails: 5},
		Relations: DefaultRelations(),
		Metrics:   Metrics{Backend: "none", Namespace: "catalogetl."},
		Tracing:   Tracing{Exporter: "stdout"},
		Log:       Log{Mode: "dev", Level: "info"},
	}
}

// ColumnMap resolves the effective field-to-header mapping.
func (c Config) ColumnMap() schema.ColumnMap {
	return schema.DefaultColumnMap().Merge(c.Columns)
}

// CommaRune returns the delimiter as a rune.
func (s Source) CommaRune() rune {
	for _, r := range s.Comma {
		return r
	}
	return ','
}
