// Command salesreport cleans a retail sales CSV and writes a KPI summary,
// five rollup tables and a monthly sales chart into an output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesreport/internal/config"
	"salesreport/internal/metrics"
	"salesreport/internal/metrics/datadog"
	"salesreport/internal/metrics/prompush"

	// register all backends with the storage factory; the config picks one.
	_ "salesreport/internal/storage/all"
)

// main loads the report config, applies env and flag overrides, optionally
// initializes a metrics backend, and executes one run.
func main() {
	var (
		inputFlg          string
		outFlg            string
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validate          bool
	)

	flag.StringVar(&inputFlg, "input", "", "input CSV path or http(s) URL (overrides source.*)")
	flag.StringVar(&outFlg, "out", "", "output directory (overrides output.dir, default outputs)")
	flag.StringVar(&cfgPath, "config", "", "optional report config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddrFlg, "statsd-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	var cfg config.Report
	if cfgPath != "" {
		c, err := config.Load(cfgPath)
		if err != nil {
			fatalf("%v", err)
		}
		cfg = c
	}
	cfg.ApplyEnv(os.Getenv)
	if inputFlg != "" {
		if config.IsURL(inputFlg) {
			cfg.Source.Kind = "http"
			cfg.Source.HTTP.URL = inputFlg
			cfg.Source.File.Path = ""
		} else {
			cfg.Source.Kind = "file"
			cfg.Source.File.Path = inputFlg
		}
	}
	if outFlg != "" {
		cfg.Output.Dir = outFlg
	}
	cfg.ApplyDefaults()

	issues := config.ValidateReport(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid")
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid")
		os.Exit(0)
	}

	backendName := pick(metricsBackendFlg, os.Getenv("METRICS_BACKEND"), "none")
	flush := setupMetrics(backendName, cfg.Job, pushGatewayURLFlg, statsdAddrFlg, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	start := time.Now()

	if *verbose {
		log.Printf("report: job=%s source=%s input=%s encoding=%s out=%s formats=%v storage=%s",
			cfg.Job, cfg.Source.Kind, inputName(cfg.Source), cfg.Source.File.Encoding, cfg.Output.Dir, cfg.Output.Formats, cfg.Storage.Kind)
	}

	_, err := run(ctx, cfg, *verbose)
	stop()
	flush()
	if err != nil {
		fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// setupMetrics installs the selected backend and returns its flush func.
// An unusable backend is logged and metrics stay disabled.
func setupMetrics(name, job, gwFlag, statsdFlag string, verbose bool) func() {
	nop := func() {}
	var (
		b   metrics.Backend
		err error
	)
	switch name {
	case "pushgateway":
		gwURL := pick(gwFlag, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091")
		b, err = prompush.NewBackend(job, gwURL)
		if err == nil {
			log.Printf("metrics: backend=%s url=%s job=%s", name, gwURL, job)
		}

	case "datadog":
		addr := pick(statsdFlag, os.Getenv("DD_AGENT_ADDR"), "127.0.0.1:8125")
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "salesreport.",
			GlobalTags: []string{"job:" + job},
		})
		if err == nil {
			log.Printf("metrics: backend=%s addr=%s job=%s", name, addr, job)
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}
		return nop

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
		return nop
	}

	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", name, err)
		return nop
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// inputName returns the path or URL the source reads from.
func inputName(s config.Source) string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// pick returns the first non-empty value.
func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
