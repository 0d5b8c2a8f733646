package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"salesreport/internal/config"
	"salesreport/internal/output"
	"salesreport/internal/schema"

	_ "modernc.org/sqlite"
)

const header = `"Order ID","Order Date","Ship Date","Country","Region","Segment","Category","Sub-Category","Product Name","Sales","Quantity","Discount","Profit"`

// sampleCSV holds three good rows and one row with an unparseable order date.
var sampleCSV = strings.Join([]string{
	header,
	`O1,15/01/2024,18/01/2024,US,West,Consumer,Furniture,Chairs,Chair,100,2,0.5,20`,
	`O2,20/01/2024,,US,East,Consumer,Furniture,Phones,Phone,50,1,,-5`,
	`O3,03/02/2024,05/02/2024,US,West,Consumer,Furniture,Tables,Desk,30,1,0.25,10`,
	`O4,not a date,05/02/2024,US,West,Consumer,Furniture,Tables,Desk,99,1,,1`,
}, "\n") + "\n"

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return p
}

func newConfig(input, out string) config.Report {
	cfg := config.Report{
		Source: config.Source{File: config.SourceFile{Path: input}},
		Output: config.Output{Dir: out},
	}
	cfg.ApplyDefaults()
	return cfg
}

func readOut(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cfg := newConfig(writeInput(t, dir, "in.csv", sampleCSV), out)

	res, err := run(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stats.RowsRead != 4 || res.Stats.RowsKept != 3 || res.Stats.Dropped != 1 || res.Stats.MissingOrderDate != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if res.Stats.ShipDateMisses != 1 {
		t.Fatalf("ship_date_misses = %d, want 1", res.Stats.ShipDateMisses)
	}

	var kpis struct {
		TotalSales  float64  `json:"total_sales"`
		TotalProfit float64  `json:"total_profit"`
		AvgDiscount *float64 `json:"avg_discount"`
		Orders      int      `json:"orders"`
	}
	if err := json.Unmarshal([]byte(readOut(t, out, output.KPIsFile)), &kpis); err != nil {
		t.Fatalf("decode kpis: %v", err)
	}
	if kpis.TotalSales != 180 || kpis.TotalProfit != 25 || kpis.Orders != 3 {
		t.Fatalf("kpis = %+v", kpis)
	}
	if kpis.AvgDiscount == nil || *kpis.AvgDiscount != 0.375 {
		t.Fatalf("avg_discount = %v, want 0.375", kpis.AvgDiscount)
	}

	cases := map[string]string{
		output.RegionFile:      "region,sales\nEast,50\nWest,130\n",
		output.MonthFile:       "month,sales\n2024-01,150\n2024-02,30\n",
		output.TopProductsFile: "product_name,profit\nChair,20\nDesk,10\nPhone,-5\n",
		output.CategoryFile:    "category,sales,profit\nFurniture,180,25\n",
		output.SegmentFile:     "segment,sales\nConsumer,180\n",
	}
	for name, want := range cases {
		if got := readOut(t, out, name); got != want {
			t.Fatalf("%s =\n%s\nwant\n%s", name, got, want)
		}
	}

	png := readOut(t, out, output.ChartFile)
	if !strings.HasPrefix(png, "\x89PNG") {
		t.Fatalf("%s is not a PNG", output.ChartFile)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 7 {
		t.Fatalf("wrote %d entries, want 7", len(entries))
	}
}

func TestRun_Latin1MatchesUTF8(t *testing.T) {
	t.Parallel()

	body := strings.ReplaceAll(sampleCSV, "Chair", "Chaise Café")
	latin1, err := charmap.ISO8859_1.NewEncoder().String(body)
	if err != nil {
		t.Fatalf("encode latin1: %v", err)
	}

	dir := t.TempDir()
	utfOut := filepath.Join(dir, "utf8")
	latOut := filepath.Join(dir, "latin1")

	if _, err := run(context.Background(), newConfig(writeInput(t, dir, "u.csv", body), utfOut), false); err != nil {
		t.Fatalf("run utf-8: %v", err)
	}
	cfg := newConfig(writeInput(t, dir, "l.csv", latin1), latOut)
	cfg.Source.File.Encoding = "latin1"
	if _, err := run(context.Background(), cfg, false); err != nil {
		t.Fatalf("run latin1: %v", err)
	}

	for _, name := range []string{output.KPIsFile, output.RegionFile, output.MonthFile, output.TopProductsFile, output.CategoryFile, output.SegmentFile} {
		if a, b := readOut(t, utfOut, name), readOut(t, latOut, name); a != b {
			t.Fatalf("%s differs:\nutf-8:\n%s\nlatin1:\n%s", name, a, b)
		}
	}
	if got := readOut(t, latOut, output.TopProductsFile); !strings.Contains(got, "Chaise Café,20") {
		t.Fatalf("top products = %q, want decoded product name", got)
	}
}

func TestRun_MissingColumnWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	body := strings.Replace(sampleCSV, `,"Profit"`, `,"Margin"`, 1)
	cfg := newConfig(writeInput(t, dir, "in.csv", body), out)

	_, err := run(context.Background(), cfg, false)
	if err == nil {
		t.Fatal("expected resolve error")
	}
	if !errors.Is(err, schema.ErrMissingColumn) {
		t.Fatalf("errors.Is(err, ErrMissingColumn) = false for %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output dir exists after failed run (stat err=%v)", statErr)
	}
}

func TestRun_MalformedRows(t *testing.T) {
	t.Parallel()

	body := strings.Join([]string{
		header,
		`O1,15/01/2024,18/01/2024,US,West,Consumer,Furniture,Chairs,Chair,100,2,0.5,20`,
		`O2,20/01/2024,,US,East,Consumer,Furniture,Phones,Phone,50,1,,-5,extra`,
		`O3,03/02/2024,05/02/2024,US,West,Consumer,Furniture,Tables,Desk "Oak",30,1,0.25,10`,
	}, "\n") + "\n"

	t.Run("fail_by_default", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		out := filepath.Join(dir, "out")
		cfg := newConfig(writeInput(t, dir, "in.csv", body), out)

		_, err := run(context.Background(), cfg, false)
		var pe *csv.ParseError
		if !errors.As(err, &pe) || !errors.Is(err, csv.ErrFieldCount) {
			t.Fatalf("err = %v, want field count *csv.ParseError", err)
		}
		if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
			t.Fatalf("output dir exists after failed run (stat err=%v)", statErr)
		}
	})

	t.Run("skip_bad_rows", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		out := filepath.Join(dir, "out")
		cfg := newConfig(writeInput(t, dir, "in.csv", body), out)
		cfg.Parser.Options["skip_bad_rows"] = true

		res, err := run(context.Background(), cfg, false)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if res.Skipped != 2 || res.Stats.RowsRead != 1 || res.Report.KPIs.TotalSales != 100 {
			t.Fatalf("skipped=%d read=%d total_sales=%v, want 2, 1, 100",
				res.Skipped, res.Stats.RowsRead, res.Report.KPIs.TotalSales)
		}
	})
}

func TestRun_OverflowedSalesStillWrites(t *testing.T) {
	t.Parallel()

	body := strings.Join([]string{
		header,
		`O1,15/01/2024,,US,West,Consumer,Furniture,Chairs,Chair,1e308,1,,1`,
		`O2,16/01/2024,,US,West,Consumer,Furniture,Chairs,Chair,1e308,1,,1`,
	}, "\n") + "\n"

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	if _, err := run(context.Background(), newConfig(writeInput(t, dir, "in.csv", body), out), false); err != nil {
		t.Fatalf("run: %v", err)
	}
	var kpis struct {
		TotalSales  *float64 `json:"total_sales"`
		TotalProfit *float64 `json:"total_profit"`
	}
	if err := json.Unmarshal([]byte(readOut(t, out, output.KPIsFile)), &kpis); err != nil {
		t.Fatalf("decode kpis: %v", err)
	}
	if kpis.TotalSales != nil || kpis.TotalProfit == nil || *kpis.TotalProfit != 2 {
		t.Fatalf("kpis = sales %v profit %v, want null and 2", kpis.TotalSales, kpis.TotalProfit)
	}
	if png := readOut(t, out, output.ChartFile); !strings.HasPrefix(png, "\x89PNG") {
		t.Fatalf("%s is not a PNG", output.ChartFile)
	}
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := newConfig(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out"))
	if _, err := run(context.Background(), cfg, false); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestRun_OptionalFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cfg := newConfig(writeInput(t, dir, "in.csv", sampleCSV), out)
	cfg.Output.Formats = []string{"parquet", "xlsx", "manifest"}

	res, err := run(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Files) != 10 {
		t.Fatalf("files = %v, want 10", res.Files)
	}

	var m output.Manifest
	if err := json.Unmarshal([]byte(readOut(t, out, output.ManifestFile)), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.RunID != res.RunID || m.Job != config.DefaultJob {
		t.Fatalf("manifest run_id=%q job=%q", m.RunID, m.Job)
	}
	if m.Input.Size != int64(len(sampleCSV)) || len(m.Input.XXH3) != 16 || m.Input.Encoding != config.DefaultEncoding {
		t.Fatalf("manifest input = %+v", m.Input)
	}
	if m.Mapping["profit"] != "Profit" || m.Stats.RowsKept != 3 || m.KPIs.TotalSales != 180 {
		t.Fatalf("manifest = %+v", m)
	}

	got := append([]string(nil), m.Files...)
	want := append([]string(nil), res.Files...)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("manifest files = %v, want %v", got, want)
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
	}
}

func TestRun_HTTPSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cfg := config.Report{
		Source: config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: srv.URL + "/superstore.csv"}},
		Output: config.Output{Dir: out, Formats: []string{"manifest"}},
	}
	cfg.ApplyDefaults()

	res, err := run(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Report.KPIs.TotalSales != 180 {
		t.Fatalf("total_sales = %v, want 180", res.Report.KPIs.TotalSales)
	}
	var m output.Manifest
	if err := json.Unmarshal([]byte(readOut(t, out, output.ManifestFile)), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Input.Path != srv.URL+"/superstore.csv" || m.Input.XXH3 != "" {
		t.Fatalf("manifest input = %+v", m.Input)
	}
}

func TestRun_SQLiteSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "report.db")
	cfg := newConfig(writeInput(t, dir, "in.csv", sampleCSV), filepath.Join(dir, "out"))
	cfg.Storage = config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: dbPath, Table: "cleaned_orders", AutoCreateTable: true}}
	cfg.Runtime.BatchSize = 2

	res, err := run(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Inserted != int64(res.Stats.RowsKept) {
		t.Fatalf("inserted = %d, want %d", res.Inserted, res.Stats.RowsKept)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	var runID string
	if err := db.QueryRow(`SELECT COUNT(*), MIN(run_id) FROM cleaned_orders`).Scan(&n, &runID); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 3 || runID != res.RunID {
		t.Fatalf("count=%d run_id=%q, want 3 and %q", n, runID, res.RunID)
	}
}

func TestFormatMapping(t *testing.T) {
	t.Parallel()

	got := formatMapping(schema.Mapping{schema.Sales: "Revenue", schema.OrderID: "Order ID"})
	if want := `order_id="Order ID" sales="Revenue"`; got != want {
		t.Fatalf("formatMapping = %q, want %q", got, want)
	}
}

func TestInputName(t *testing.T) {
	t.Parallel()

	if got := inputName(config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: "https://x"}}); got != "https://x" {
		t.Fatalf("inputName(http) = %q", got)
	}
	if got := inputName(config.Source{Kind: "file", File: config.SourceFile{Path: "a.csv"}}); got != "a.csv" {
		t.Fatalf("inputName(file) = %q", got)
	}
}

func TestPick(t *testing.T) {
	t.Parallel()

	if got := pick("", "env", "def"); got != "env" {
		t.Fatalf("pick = %q, want env", got)
	}
	if got := pick("", ""); got != "" {
		t.Fatalf("pick = %q, want empty", got)
	}
}
