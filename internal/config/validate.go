// Package config provides configuration models and helpers for the report.
//
// This file adds a lightweight linter for Report values. It performs static
// checks over a decoded Report and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"salesreport/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.db.dsn",
// "schema.candidates.revenue").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	knownEncodings = map[string]struct{}{
		"utf-8": {}, "utf8": {}, "latin1": {}, "iso-8859-1": {}, "windows-1252": {}, "cp1252": {},
	}
	knownFormats = map[string]struct{}{
		"parquet": {}, "xlsx": {}, "manifest": {},
	}
	knownStorage = map[string]struct{}{
		"postgres": {}, "sqlite": {}, "mysql": {}, "mssql": {},
	}
)

// ValidateReport performs static validation of a Report. It does not mutate
// r; callers decide whether warnings are fatal.
func ValidateReport(r Report) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  fmt.Sprintf("job is empty; %q will be used for metrics labels", DefaultJob),
		})
	}
	issues = append(issues, validateSource(r.Source)...)
	issues = append(issues, validateParser(r.Parser)...)
	issues = append(issues, validateSchema(r.Schema)...)
	issues = append(issues, validateReportOptions(r.Report)...)
	issues = append(issues, validateOutput(r.Output)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateRuntime(r.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "", "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "an input path is required (-input, source.file.path or SALESREPORT_INPUT)",
			})
		}
	case "http":
		if !IsURL(s.HTTP.URL) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("an http(s) url is required, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.TimeoutSec < 0 || s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http",
				Message:  "timeout_sec and max_retries must be >= 0",
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.http.insecure_skip_verify",
				Message:  "TLS certificate verification is disabled",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q; expected \"file\" or \"http\"", s.Kind),
		})
	}
	if enc := strings.ToLower(strings.TrimSpace(s.File.Encoding)); enc != "" {
		if _, ok := knownEncodings[enc]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.encoding",
				Message:  fmt.Sprintf("unknown encoding %q", s.File.Encoding),
			})
		}
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "" && p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only \"csv\" is implemented", p.Kind),
		})
		return issues
	}
	if comma := p.Options.String("comma", ","); utf8.RuneCountInString(comma) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", comma),
		})
	}
	return issues
}

func validateSchema(s Schema) []Issue {
	var issues []Issue

	for name, cands := range s.Candidates {
		path := "schema.candidates." + name
		if !schema.IsKnown(name) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("unknown logical field %q", name),
			})
			continue
		}
		for i, c := range cands {
			if strings.TrimSpace(c) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("%s[%d]", path, i),
					Message:  "candidate must not be empty",
				})
			}
		}
	}
	for i, name := range s.Optional {
		path := fmt.Sprintf("schema.optional[%d]", i)
		switch {
		case !schema.IsKnown(name):
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("unknown logical field %q", name),
			})
		case !schema.OptionalAllowed(schema.Field(name)):
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("field %q is required by the report and cannot be optional", name),
			})
		}
	}
	return issues
}

func validateReportOptions(o ReportOptions) []Issue {
	var issues []Issue

	if o.TopN < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.top_n",
			Message:  "top_n must be > 0",
		})
	}
	if o.Chart.WidthIn < 0 || o.Chart.HeightIn < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.chart",
			Message:  "chart width_in and height_in must be positive",
		})
	}
	if o.Chart.DPI < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.chart.dpi",
			Message:  "dpi must be positive",
		})
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	for i, f := range o.Formats {
		if _, ok := knownFormats[strings.ToLower(strings.TrimSpace(f))]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("output.formats[%d]", i),
				Message:  fmt.Sprintf("unknown output format %q will be ignored", f),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if s.Kind == "" {
		return nil
	}
	if _, ok := knownStorage[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q", s.Kind),
		})
		return issues
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "dsn is required when storage.kind is set (or SALESREPORT_DB_DSN)",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "table is required when storage.kind is set",
		})
	}
	return issues
}

func validateRuntime(rt RuntimeConfig) []Issue {
	var issues []Issue

	if rt.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must be >= 0",
		})
	}
	if rt.WriteWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.write_workers",
			Message:  "write_workers must be >= 0",
		})
	}
	return issues
}
