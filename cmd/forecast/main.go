package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	config "demand-forecast-api/configs"
	"demand-forecast-api/pkg/logger"
	"demand-forecast-api/pkg/metrics"
	"demand-forecast-api/pkg/models"
	"demand-forecast-api/pkg/server"
	"demand-forecast-api/pkg/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses flags, runs the forecast once and writes the aggregated table.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var (
		file     = fs.String("file", "", "Path to sales history (.csv or .xlsx)")
		products = fs.String("products", "", "Comma-separated product keys (default: first two sorted products)")
		months   = fs.Int("months", cfg.DefaultMonths, "Forecast horizon in months (1-12)")
		out      = fs.String("out", services.ForecastCSVFileName, "Output file (.csv or .xlsx)")
		workers  = fs.Int("workers", cfg.ForecastWorkers, "Parallel model fits")
		calendar = fs.Bool("calendar-months", cfg.CalendarMonths, "Use calendar months instead of 30-day months")
		verbose  = fs.Bool("verbose", false, "Enable verbose output")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}
	cfg.ForecastWorkers = *workers
	cfg.CalendarMonths = *calendar

	level := "warn"
	if *verbose {
		level = "debug"
	}
	zapLogger, err := logger.New(level, true)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *file, err)
	}
	defer f.Close()

	var selection []string
	if *products != "" {
		selection = strings.Split(*products, ",")
	}

	pipeline := server.NewPipeline(cfg, zapLogger, metrics.NewCollector(server.MetricsNamespace))
	result, err := pipeline.Run(ctx, services.PipelineInput{
		File:     f,
		FileName: filepath.Base(*file),
		Products: selection,
		Months:   *months,
	})
	if err != nil {
		if services.IsInputError(err) {
			return errors.New(services.DescribeInputError(err))
		}
		return err
	}

	printSummary(stdout, result)

	if err := writeOutput(*out, result.Buckets); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "💾 Wrote %d rows to %s\n", len(result.Buckets), *out)
	return nil
}

func printSummary(w io.Writer, result *services.PipelineOutput) {
	s := result.Summary
	fmt.Fprintln(w, "📊 Dataset Sales Overview")
	fmt.Fprintf(w, "  Total Products:       %d\n", s.TotalProducts)
	fmt.Fprintf(w, "  Total Sales Volume:   %d\n", s.TotalDemand)
	fmt.Fprintf(w, "  Date Range:           %s to %s\n", s.DateFrom, s.DateTo)
	if s.UniqueCustomers != nil {
		fmt.Fprintf(w, "  Unique Customers:     %d\n", *s.UniqueCustomers)
	}
	fmt.Fprintf(w, "  Average Daily Demand: %.2f\n", s.AverageDailyDemand)
	fmt.Fprintf(w, "  Rows kept/dropped:    %d/%d\n", len(result.Dataset.Records), result.Dataset.DroppedRows)

	fmt.Fprintln(w, "🏆 Top Products by Total Demand")
	for i, p := range s.TopProducts {
		fmt.Fprintf(w, "  %d. %s  %.0f\n", i+1, p.Product, p.TotalDemand)
	}

	fmt.Fprintf(w, "📈 Forecast %d month(s): %s\n", result.Request.Months, strings.Join(result.Forecast.Succeeded, ", "))
	for _, failure := range result.Forecast.Failures {
		fmt.Fprintf(w, "⚠️  %s skipped (%s): %s\n", failure.Product, failure.Reason, failure.Error)
	}
}

func writeOutput(path string, buckets []models.AggregatedBucket) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = services.WriteForecastXLSX(f, buckets)
	} else {
		err = services.WriteForecastCSV(f, buckets)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}
