// Package config defines the JSON-serializable configuration model for the
// sales report. Decoding is performed by the standard library, with a light
// Options helper for parser-specific settings whose shape varies by kind.
//
// Example (trimmed):
//
//	{
//	  "job":    "sales_report",
//	  "source": { "kind": "file", "file": { "path": "data.csv", "encoding": "latin1" } },
//	  "parser": { "kind": "csv", "options": { "comma": ",", "trim_space": true } },
//	  "schema": { "candidates": { "sales": ["revenue"] }, "optional": ["discount"] },
//	  "output": { "dir": "outputs", "formats": ["parquet", "xlsx", "manifest"] },
//	  "storage":{ "kind": "sqlite", "db": { "dsn": "file:report.db", "table": "cleaned_orders" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults applied by Report.ApplyDefaults.
const (
	DefaultJob       = "sales_report"
	DefaultOutputDir = "outputs"
	DefaultTopN      = 10
	DefaultBatchSize = 5000
	DefaultEncoding  = "utf-8"
)

// Report is the top-level configuration for one report run.
type Report struct {
	// Job names the run for metrics labels and the manifest.
	Job string `json:"job"`

	Source  Source        `json:"source"`
	Parser  Parser        `json:"parser"`
	Schema  Schema        `json:"schema"`
	Report  ReportOptions `json:"report"`
	Output  Output        `json:"output"`
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies the input table.
type Source struct {
	// Kind selects the source implementation: "file" (default) or "http".
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// IsURL reports whether s looks like an http(s) URL.
func IsURL(s string) bool {
	l := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`

	// Encoding is the input text encoding: "utf-8" (default), "latin1",
	// "iso-8859-1" or "windows-1252".
	Encoding string `json:"encoding"`
}

// SourceHTTP holds configuration for the "http" source kind. The body is
// decoded with File.Encoding.
type SourceHTTP struct {
	URL                string `json:"url"`
	TimeoutSec         int    `json:"timeout_sec"`
	MaxRetries         int    `json:"max_retries"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
}

// Parser selects how the raw bytes become a table.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), lazy_quotes (bool), skip_bad_rows (bool)
	Options Options `json:"options"`
}

// Schema tunes the column compatibility layer.
type Schema struct {
	// Candidates appends extra accepted header spellings per logical field,
	// tried after the built-in ones.
	Candidates map[string][]string `json:"candidates"`

	// Optional lists logical fields that may be absent from the input.
	Optional []string `json:"optional"`
}

// ReportOptions controls the computed tables and the chart.
type ReportOptions struct {
	TopN  int   `json:"top_n"`
	Chart Chart `json:"chart"`
}

// Chart sizes the monthly sales chart. Zero values take the renderer defaults.
type Chart struct {
	Title    string  `json:"title"`
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
	DPI      int     `json:"dpi"`
}

// Output describes where artifacts are written.
type Output struct {
	Dir string `json:"dir"`

	// Formats enables optional artifacts beyond the fixed report set:
	// "parquet", "xlsx", "manifest".
	Formats []string `json:"formats"`
}

// Has reports whether the optional format f is enabled.
func (o Output) Has(f string) bool {
	for _, x := range o.Formats {
		if strings.EqualFold(strings.TrimSpace(x), f) {
			return true
		}
	}
	return false
}

// Storage selects an optional database sink for the cleaned record set.
// An empty Kind disables the sink.
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Table is the destination table (e.g., "public.cleaned_orders").
	Table string `json:"table"`

	// AutoCreateTable creates the destination table when missing.
	AutoCreateTable bool `json:"auto_create_table"`
}

// RuntimeConfig controls batching for the DB sink and output fan-out.
type RuntimeConfig struct {
	BatchSize    int `json:"batch_size"`
	WriteWorkers int `json:"write_workers"`
}

// Load decodes a Report from path. Unknown keys are rejected so typos in a
// config file surface as errors instead of silently using defaults.
func Load(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var r Report
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Report{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r, nil
}

// ApplyEnv fills empty settings from environment variables. Flags are applied
// by the caller afterwards, so the effective precedence is
// flag → config file → env → default.
func (r *Report) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if r.Source.File.Path == "" && r.Source.HTTP.URL == "" {
		if in := getenv("SALESREPORT_INPUT"); IsURL(in) {
			r.Source.Kind = "http"
			r.Source.HTTP.URL = in
		} else {
			r.Source.File.Path = in
		}
	}
	if r.Output.Dir == "" {
		r.Output.Dir = getenv("SALESREPORT_OUT")
	}
	if r.Source.File.Encoding == "" {
		r.Source.File.Encoding = getenv("SALESREPORT_ENCODING")
	}
	if r.Storage.Kind != "" && r.Storage.DB.DSN == "" {
		r.Storage.DB.DSN = getenv("SALESREPORT_DB_DSN")
	}
	if r.Runtime.BatchSize == 0 {
		if s := getenv("SALESREPORT_BATCH_SIZE"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				r.Runtime.BatchSize = n
			}
		}
	}
}

// ApplyDefaults fills zero values with package defaults.
func (r *Report) ApplyDefaults() {
	if strings.TrimSpace(r.Job) == "" {
		r.Job = DefaultJob
	}
	if r.Source.Kind == "" {
		r.Source.Kind = "file"
	}
	if r.Source.File.Encoding == "" {
		r.Source.File.Encoding = DefaultEncoding
	}
	if r.Parser.Kind == "" {
		r.Parser.Kind = "csv"
	}
	if r.Parser.Options == nil {
		r.Parser.Options = Options{}
	}
	if r.Report.TopN == 0 {
		r.Report.TopN = DefaultTopN
	}
	if r.Output.Dir == "" {
		r.Output.Dir = DefaultOutputDir
	}
	if r.Runtime.BatchSize == 0 {
		r.Runtime.BatchSize = DefaultBatchSize
	}
	if r.Runtime.WriteWorkers == 0 {
		r.Runtime.WriteWorkers = 4
	}
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. Used for
// single-character settings such as the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
