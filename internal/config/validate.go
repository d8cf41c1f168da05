package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"catalogetl/internal/schema"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks a run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block a run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "relations[1].lookup_table").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// identPattern restricts names that end up interpolated into SQL.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate lints c. Struct-tag rules come first, followed by cross-field
// checks that tags cannot express. It does not mutate c.
func Validate(c Config) []Issue {
	var issues []Issue
	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
		}
		for _, fe := range verrs {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fieldPath(fe.Namespace()),
				Message:  describe(fe),
			})
		}
	}
	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateRelations(c.Relations)...)
	issues = append(issues, validateColumns(c.Columns)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

// fieldPath drops the root struct name: "Config.storage.kind" -> "storage.kind".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "ident":
		return fmt.Sprintf("%q is not a plain SQL identifier", fmt.Sprint(fe.Value()))
	case "gt", "gte", "lte", "len":
		return fmt.Sprintf("failed %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}

func validateStorage(s Storage) []Issue {
	if s.DSN != "" {
		return nil
	}
	var issues []Issue
	if strings.TrimSpace(s.Database) == "" {
		msg := "database must not be empty when dsn is not set"
		if s.Kind == "sqlite" {
			msg = "database (file path or :memory:) must not be empty when dsn is not set"
		}
		issues = append(issues, Issue{Severity: SeverityError, Path: "storage.database", Message: msg})
	}
	if s.Kind != "sqlite" && strings.TrimSpace(s.Host) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.host",
			Message:  "host must not be empty when dsn is not set",
		})
	}
	return issues
}

func validateRelations(rs []Relation) []Issue {
	var issues []Issue
	known := make(map[string]struct{}, len(schema.Columns))
	for _, c := range schema.Columns {
		known[c] = struct{}{}
	}
	names := map[string]int{}
	junctions := map[string]int{}
	for i, r := range rs {
		path := fmt.Sprintf("relations[%d]", i)
		if r.Column != "" {
			if _, ok := known[r.Column]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".column",
					Message:  fmt.Sprintf("%q is not a games column", r.Column),
				})
			}
		}
		if j, dup := names[r.Name]; dup && r.Name != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("duplicate relation name %q (also relations[%d])", r.Name, j),
			})
		}
		names[r.Name] = i
		if j, dup := junctions[r.JunctionTable]; dup && r.JunctionTable != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".junction_table",
				Message:  fmt.Sprintf("junction table %q already used by relations[%d]", r.JunctionTable, j),
			})
		}
		junctions[r.JunctionTable] = i
		if r.LookupTable == schema.GamesTable || r.JunctionTable == schema.GamesTable {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "relation tables must not be the games table",
			})
		}
	}
	if len(rs) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "relations",
			Message:  "no relations configured; lookup and junction tables will stay empty",
		})
	}
	return issues
}

func validateColumns(cols map[string]string) []Issue {
	var issues []Issue
	for _, k := range schema.ColumnMap(cols).Unknown() {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "columns." + k,
			Message:  fmt.Sprintf("%q is not a games column; the override is ignored", k),
		})
	}
	if _, ok := cols["discount"]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "columns.discount",
			Message:  `discount is read from header "DiscountDLC count"; set columns.discount once the source header is confirmed`,
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "prom":
		if m.PushgatewayURL == "" {
			return []Issue{{Severity: SeverityError, Path: "metrics.pushgateway_url", Message: "required when metrics.backend=prom"}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{Severity: SeverityError, Path: "metrics.datadog_addr", Message: "required when metrics.backend=datadog"}}
		}
	}
	return nil
}
