// Command semmelweis-report prints the before/after mortality comparison for
// the configured dataset, overall and per clinic.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"semmelweis/internal/cli"
	"semmelweis/internal/config"
	"semmelweis/internal/core"
	applog "semmelweis/internal/log"
)

func main() {
	cli.LoadEnvFile()

	path := flag.String("path", "", "CSV file to report on (overrides DATASET_PATH and DATA_BACKEND)")
	timeout := flag.Duration("timeout", 30*time.Second, "load timeout")
	flag.Parse()

	boot := applog.New(applog.Config{Output: os.Stderr, Level: applog.ParseLevel("warn")})
	if *path != "" {
		os.Setenv("DATA_BACKEND", config.BackendCSV)
		os.Setenv("DATASET_PATH", *path)
	}
	cfg := cli.LoadAndValidateConfig(boot.Logger)

	ctx, stop := cli.SignalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	source, err := cli.OpenSource(ctx, cfg)
	if err != nil {
		boot.Error("Failed to initialize dataset source", applog.FieldError, err)
		os.Exit(1)
	}
	records, err := source.Load(ctx)
	if err != nil {
		boot.Error("Failed to load dataset", applog.FieldError, err, applog.FieldSource, source.Name())
		os.Exit(1)
	}

	if err := writeReport(os.Stdout, source.Name(), records); err != nil {
		boot.Error("Failed to write report", applog.FieldError, err)
		os.Exit(1)
	}
}

func writeReport(w io.Writer, source string, records []core.Record) error {
	p := message.NewPrinter(language.English)
	births, deaths := 0, 0
	for _, r := range records {
		births += r.Birth
		deaths += r.Deaths
	}

	summary := core.Summarize(records, core.HandwashingYear)
	f := summary.Format()
	p.Fprintf(w, "Source: %s\n", source)
	p.Fprintf(w, "Records: %d, births: %d, deaths: %d\n\n", len(records), births, deaths)
	fmt.Fprintf(w, "Average mortality before %d: %s\n", summary.Threshold, f.Before)
	fmt.Fprintf(w, "Average mortality from %d:   %s\n", summary.Threshold, f.After)
	fmt.Fprintf(w, "Change: %s\n\n", f.Delta)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLINIC\tBEFORE\tAFTER\tCHANGE\tYEARS")
	for _, cs := range core.PerClinicSummary(records, core.HandwashingYear) {
		cf := cs.Format()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", cs.Clinic, cf.Before, cf.After, cf.Delta, cs.Before.Count+cs.After.Count)
	}
	return tw.Flush()
}
