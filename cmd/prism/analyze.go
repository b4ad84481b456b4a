package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/newthinker/prism/internal/analysis"
	"github.com/newthinker/prism/internal/app"
	"github.com/newthinker/prism/internal/config"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/logger"
	"github.com/spf13/cobra"
)

var (
	analyzeMarketSymbol string
	analyzeMarket       string
	analyzeFrom         string
	analyzeTo           string
	analyzeWindow       int
	analyzeInterval     string
	analyzeSource       string
	analyzeOut          string
	analyzeNotify       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbols...]",
	Short: "Analyze symbols against the market benchmark",
	Long: `Fetch price history for each symbol, compute the rolling metrics and
their benchmark sensitivities, and print a summary. Use --out to write the
full results as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMarketSymbol, "market-symbol", "", "Benchmark symbol (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeMarket, "market", "", "Market (US, HK, EU, CRYPTO)")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Start date YYYY-MM-DD")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "End date YYYY-MM-DD")
	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 0, "Rolling window size (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeInterval, "interval", "", "Bar interval (default 1d)")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "", "Collector to use (default by market)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Write full results as JSON to this file")
	analyzeCmd.Flags().BoolVar(&analyzeNotify, "notify", false, "Send reports through configured notifiers")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	opts, err := analyzeOptions(a.Options())
	if err != nil {
		return err
	}

	ctx := context.Background()
	results := make([]*analysis.Result, 0, len(args))

	for _, symbol := range args {
		symbolOpts := opts
		if symbolOpts.Market == "" {
			symbolOpts.Market = app.DetectMarket(symbol)
		}

		result, err := a.Runner().Run(ctx, symbol, symbolOpts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "analysis of %s failed: %v\n", symbol, err)
			continue
		}
		results = append(results, result)
		printSummary(result)
	}

	if len(results) == 0 {
		return fmt.Errorf("no symbols analyzed successfully")
	}

	if analyzeOut != "" {
		if err := writeResults(analyzeOut, results); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
		fmt.Printf("Results written to %s\n", analyzeOut)
	}

	if analyzeNotify {
		reports := make([]*core.Report, len(results))
		for i, r := range results {
			reports[i] = r.Report()
		}
		if err := a.Notify(reports); err != nil {
			return fmt.Errorf("sending reports: %w", err)
		}
	}

	return nil
}

func analyzeOptions(opts analysis.Options) (analysis.Options, error) {
	if analyzeMarketSymbol != "" {
		opts.MarketSymbol = analyzeMarketSymbol
	}
	if analyzeMarket != "" {
		opts.Market = core.Market(analyzeMarket)
	}
	if analyzeWindow > 0 {
		opts.Window = analyzeWindow
	}
	if analyzeInterval != "" {
		opts.Interval = analyzeInterval
	}
	if analyzeSource != "" {
		opts.Source = analyzeSource
	}
	if analyzeFrom != "" {
		from, err := time.Parse("2006-01-02", analyzeFrom)
		if err != nil {
			return opts, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
		}
		opts.Start = from
	}
	if analyzeTo != "" {
		to, err := time.Parse("2006-01-02", analyzeTo)
		if err != nil {
			return opts, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
		opts.End = to
	}
	if !opts.Start.IsZero() && !opts.End.IsZero() && opts.End.Before(opts.Start) {
		return opts, fmt.Errorf("end date must be after start date")
	}
	return opts, nil
}

func printSummary(result *analysis.Result) {
	fmt.Printf("=== %s vs %s ===\n", result.Symbol, result.MarketSymbol)
	fmt.Printf("Window:   %d bars (%s)\n", result.Window, result.Interval)
	fmt.Printf("Period:   %s to %s\n",
		result.Start.Format("2006-01-02"), result.End.Format("2006-01-02"))

	report := result.Report()
	for _, name := range sortedMetricNames(report) {
		means := report.Metrics[name]
		fmt.Printf("\n%s:\n", name)
		fmt.Printf("  Upside:       %+.4f\n", means.Upside)
		fmt.Printf("  Downside:     %+.4f\n", means.Downside)
		fmt.Printf("  Composite:    %+.4f\n", means.Composite)
		fmt.Printf("  Independence: %.4f\n", means.Independence)
	}
	fmt.Println()
}

func sortedMetricNames(report *core.Report) []string {
	names := make([]string, 0, len(report.Metrics))
	for name := range report.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeResults(path string, results []*analysis.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
