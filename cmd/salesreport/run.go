package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"salesreport/internal/chart"
	"salesreport/internal/config"
	"salesreport/internal/datasource"
	"salesreport/internal/datasource/file"
	"salesreport/internal/datasource/httpds"
	"salesreport/internal/metrics"
	"salesreport/internal/output"
	pcsv "salesreport/internal/parser/csv"
	"salesreport/internal/report"
	"salesreport/internal/schema"
	"salesreport/internal/storage"
	"salesreport/internal/transformer"
)

// maxLoggedIssues caps how many row-level problems are echoed per stage.
const maxLoggedIssues = 20

// result summarizes one completed run.
type result struct {
	RunID    string
	Stats    transformer.Stats
	Report   report.Report
	Files    []string
	Inserted int64
	Skipped  int
}

// issueLog keeps the first max messages and counts the rest.
type issueLog struct {
	stage string
	max   int
	total int
	msgs  []string
}

func (l *issueLog) add(msg string) {
	l.total++
	if len(l.msgs) < l.max {
		l.msgs = append(l.msgs, msg)
	}
}

func (l *issueLog) flush() {
	if l.total == 0 {
		return
	}
	log.Printf("%s: %d rows affected (showing first %d)", l.stage, l.total, len(l.msgs))
	for i, m := range l.msgs {
		log.Printf("  #%03d: %s", i+1, m)
	}
}

// run executes read → resolve → clean → report → write → optional load.
// Nothing is written to the output directory when any stage before the
// write fails.
func run(ctx context.Context, cfg config.Report, verbose bool) (result, error) {
	var res result
	job := cfg.Job
	started := time.Now().UTC()
	res.RunID = output.NewRunID()

	// read
	t0 := time.Now()
	src, err := openSource(cfg.Source)
	if err != nil {
		metrics.RecordStep(job, "read", err, time.Since(t0))
		return res, fmt.Errorf("reader: %w", err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		metrics.RecordStep(job, "read", err, time.Since(t0))
		return res, fmt.Errorf("reader: %w", err)
	}
	parseIssues := &issueLog{stage: "reader", max: maxLoggedIssues}
	tbl, skipped, err := pcsv.ReadTable(ctx, rc, cfg.Parser.Options, func(line int, err error) {
		parseIssues.add(fmt.Sprintf("line %d: %v", line, err))
	})
	_ = rc.Close()
	metrics.RecordStep(job, "read", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("reader: %w", err)
	}
	parseIssues.flush()
	res.Skipped = skipped
	metrics.RecordRows(job, metrics.RowsParseErrors, int64(skipped))
	if verbose {
		log.Printf("reader: columns=%d rows=%d skipped=%d in %s",
			len(tbl.Header), len(tbl.Rows), skipped, time.Since(t0).Truncate(time.Millisecond))
	}

	// resolve
	t0 = time.Now()
	mapping, err := schema.Resolve(tbl.Header, schema.BuildFields(cfg.Schema.Candidates, cfg.Schema.Optional))
	metrics.RecordStep(job, "resolve", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("resolve: %w", err)
	}
	if verbose {
		log.Printf("resolve: %s", formatMapping(mapping))
	}

	// clean
	t0 = time.Now()
	rejects := &issueLog{stage: "clean", max: maxLoggedIssues}
	recs, stats, err := transformer.Clean(tbl, mapping, func(row int, reasons []string) {
		rejects.add(fmt.Sprintf("row %d: %s", row+1, strings.Join(reasons, ", ")))
	})
	metrics.RecordStep(job, "clean", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("clean: %w", err)
	}
	if verbose {
		rejects.flush()
	}
	res.Stats = stats
	metrics.RecordRows(job, metrics.RowsRead, int64(stats.RowsRead))
	metrics.RecordRows(job, metrics.RowsKept, int64(stats.RowsKept))
	metrics.RecordRows(job, metrics.RowsDropped, int64(stats.Dropped))
	log.Printf("clean: read=%d kept=%d dropped=%d (sales=%d profit=%d order_date=%d) order_date_misses=%d ship_date_misses=%d",
		stats.RowsRead, stats.RowsKept, stats.Dropped,
		stats.MissingSales, stats.MissingProfit, stats.MissingOrderDate,
		stats.OrderDateMisses, stats.ShipDateMisses)

	// report
	t0 = time.Now()
	rep := report.Build(recs, stats.HasDiscount, cfg.Report.TopN)
	res.Report = rep
	metrics.RecordStep(job, "report", nil, time.Since(t0))

	// write
	t0 = time.Now()
	chartOpt := chart.Options{
		Title:    cfg.Report.Chart.Title,
		WidthIn:  cfg.Report.Chart.WidthIn,
		HeightIn: cfg.Report.Chart.HeightIn,
		DPI:      cfg.Report.Chart.DPI,
	}
	arts := output.ReportArtifacts(rep, chartOpt)
	if cfg.Output.Has("parquet") {
		arts = append(arts, output.ParquetArtifact(recs))
	}
	if cfg.Output.Has("xlsx") {
		title := chartOpt.Title
		if title == "" {
			title = chart.DefaultTitle
		}
		arts = append(arts, output.WorkbookArtifact(rep, title))
	}
	if cfg.Output.Has("manifest") {
		in := output.InputInfo{Path: inputName(cfg.Source)}
		if cfg.Source.Kind != "http" {
			in, err = output.DigestFile(cfg.Source.File.Path)
			if err != nil {
				metrics.RecordStep(job, "write", err, time.Since(t0))
				return res, fmt.Errorf("output: %w", err)
			}
		}
		in.Encoding = cfg.Source.File.Encoding
		names := make([]string, 0, len(arts)+1)
		for _, a := range arts {
			names = append(names, a.Name)
		}
		names = append(names, output.ManifestFile)
		arts = append(arts, output.ManifestArtifact(output.Manifest{
			RunID:     res.RunID,
			Job:       job,
			StartedAt: started,
			Input:     in,
			Mapping:   output.MappingNames(mapping),
			Stats:     stats,
			KPIs:      rep.KPIs,
			Files:     names,
		}))
	}
	files, err := output.WriteAtomic(ctx, cfg.Output.Dir, arts, cfg.Runtime.WriteWorkers)
	metrics.RecordStep(job, "write", err, time.Since(t0))
	if err != nil {
		return res, fmt.Errorf("output: %w", err)
	}
	res.Files = files
	metrics.RecordFiles(job, int64(len(files)))
	log.Printf("output: wrote %d files to %s", len(files), cfg.Output.Dir)

	// load
	if cfg.Storage.Kind != "" {
		t0 = time.Now()
		n, err := storage.Sink(ctx, storage.SinkOptions{
			Kind:            cfg.Storage.Kind,
			DSN:             cfg.Storage.DB.DSN,
			Table:           cfg.Storage.DB.Table,
			AutoCreateTable: cfg.Storage.DB.AutoCreateTable,
			BatchSize:       cfg.Runtime.BatchSize,
			RunID:           res.RunID,
		}, recs)
		metrics.RecordStep(job, "load", err, time.Since(t0))
		if err != nil {
			return res, fmt.Errorf("storage: %w", err)
		}
		res.Inserted = n
		metrics.RecordRows(job, metrics.RowsInserted, n)
	}

	log.Printf("summary: run=%s read=%d kept=%d dropped=%d skipped=%d files=%d inserted=%d total_sales=%s total_profit=%s",
		res.RunID, stats.RowsRead, stats.RowsKept, stats.Dropped, skipped, len(files), res.Inserted,
		output.FormatFloat(rep.KPIs.TotalSales), output.FormatFloat(rep.KPIs.TotalProfit))
	return res, nil
}

// openSource builds the datasource for the configured kind.
func openSource(s config.Source) (datasource.Source, error) {
	if s.Kind == "http" {
		src, err := httpds.New(httpds.Config{
			URL:                s.HTTP.URL,
			Encoding:           s.File.Encoding,
			Timeout:            time.Duration(s.HTTP.TimeoutSec) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	src, err := file.NewLocal(s.File.Path, s.File.Encoding)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// formatMapping renders a resolved mapping as "field=<header>" pairs in
// logical field order.
func formatMapping(m schema.Mapping) string {
	var b strings.Builder
	for _, spec := range schema.DefaultFields() {
		col, ok := m.Column(spec.Field)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%q", spec.Field, col)
	}
	return b.String()
}
