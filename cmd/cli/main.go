package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"arima-backtest/internal/analysis"
	"arima-backtest/internal/config"
	"arima-backtest/internal/data"
	"arima-backtest/internal/evaluation"
	"arima-backtest/internal/forecast"
	"arima-backtest/internal/logging"
	"arima-backtest/internal/model"
	"arima-backtest/internal/series"
	"arima-backtest/internal/walkforward"
)

var (
	flagConfig string
	flagData   string
	flagColumn string
)

func main() {
	root := &cobra.Command{
		Use:          "arima-backtest",
		Short:        "Walk-forward evaluation of ARIMA directional strategies",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flagData, "data", "", "price file (.csv or .json), overrides the config")
	root.PersistentFlags().StringVar(&flagColumn, "column", "", "CSV price column, overrides the config")

	root.AddCommand(evaluateCmd(), sweepCmd(), describeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func evaluateCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one walk-forward evaluation and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prices, err := loadConfigAndPrices()
			if err != nil {
				return err
			}

			prep, split, err := prepare(cfg, prices)
			if err != nil {
				return err
			}
			printPrep(prep, split)

			engine := walkforward.New(forecast.NewARIMA(forecast.Config{}), walkforward.Config{
				Order:      cfg.Model.Order(),
				RefitEvery: cfg.Engine.RefitEvery,
			})
			result, err := engine.Run(cmd.Context(), split.Train, split.Test)
			if err != nil {
				return err
			}

			evalCfg := evaluation.Config{UnitCost: cfg.Costs.UnitCost, PeriodsPerYear: cfg.Costs.PeriodsPerYear}
			report := evaluation.Evaluate(result.Records, evalCfg)
			printReport(cfg.Model.Order(), report)

			if outPath != "" {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return err
				}
				rows := evaluation.BuildLedger(result.Records, evalCfg)
				if err := evaluation.WriteLedgerCSV(outPath, rows); err != nil {
					return err
				}
				fmt.Printf("wrote %d rows to %s\n", len(rows), outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the per-step ledger CSV here")
	return cmd
}

func sweepCmd() *cobra.Command {
	var ordersSpec string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Compare several ARIMA orders on the same series",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prices, err := loadConfigAndPrices()
			if err != nil {
				return err
			}

			_, split, err := prepare(cfg, prices)
			if err != nil {
				return err
			}

			orders, err := parseOrders(ordersSpec)
			if err != nil {
				return err
			}

			entries, err := analysis.Sweep(cmd.Context(), forecast.NewARIMA(forecast.Config{}), split, orders, analysis.SweepConfig{
				RefitEvery: cfg.Engine.RefitEvery,
				Eval:       evaluation.Config{UnitCost: cfg.Costs.UnitCost, PeriodsPerYear: cfg.Costs.PeriodsPerYear},
			})
			if err != nil {
				return err
			}

			fmt.Printf("%-4s %-14s %-9s %-9s %-9s %-12s\n", "rank", "model", "sharpe", "accuracy", "winrate", "total")
			for i, entry := range entries {
				if entry.Err != nil {
					fmt.Printf("%-4d %-14s failed: %v\n", i+1, entry.Order, entry.Err)
					continue
				}
				r := entry.Report
				fmt.Printf("%-4d %-14s %-9.3f %-9.4f %-9.4f %-12.6f\n",
					i+1, entry.Order, r.Sharpe, r.Accuracy, r.WinRate, r.TotalReturn)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ordersSpec, "orders", "2,0,1;1,0,0;0,0,1", "semicolon-separated p,d,q triples")
	return cmd
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print series diagnostics without running a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prices, err := loadConfigAndPrices()
			if err != nil {
				return err
			}

			prep, err := series.Prepare(prices, series.Options{
				MinObservations: cfg.Series.MinObservations,
				Significance:    cfg.Series.Significance,
			})
			if err != nil {
				return err
			}

			profile := analysis.Profile(prep.Returns, cfg.Series.Significance, cfg.Costs.UnitCost)
			fmt.Printf("observations   %d (dropped %d raw prices)\n", profile.Count, prep.Dropped)
			fmt.Printf("mean           %.6f\n", profile.Mean)
			fmt.Printf("std dev        %.6f\n", profile.StdDev)
			fmt.Printf("min/max        %.6f / %.6f\n", profile.Min, profile.Max)
			fmt.Printf("p05/p95        %.6f / %.6f (spread %.6f)\n", profile.P05, profile.P95, profile.SpreadP95P05)
			if prep.ADFErr != nil {
				fmt.Printf("adf            failed: %v\n", prep.ADFErr)
			} else {
				fmt.Printf("adf            stat=%.3f p=%.3f stationary=%v differenced=%v\n",
					profile.ADFStat, profile.ADFPValue, profile.Stationary, prep.Differenced)
			}
			fmt.Printf("oracle return  %.6f (perfect foresight, net of costs)\n", profile.OracleReturn)
			return nil
		},
	}
}

// Helpers

func loadConfigAndPrices() (config.Config, []float64, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return config.Config{}, nil, err
		}
		cfg = loaded
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	dataPath := flagData
	if dataPath == "" {
		dataPath = cfg.Data.File
	}
	if dataPath == "" {
		return config.Config{}, nil, fmt.Errorf("no price file: pass --data or set data.file in the config")
	}
	column := flagColumn
	if column == "" {
		column = cfg.Data.Column
	}

	prices, err := loadPrices(dataPath, column)
	if err != nil {
		return config.Config{}, nil, err
	}
	return *cfg, prices, nil
}

// loadPrices reads closes from a CSV or JSON file, decided by extension.
func loadPrices(path, column string) ([]float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		ds, err := data.LoadDataset(path)
		if err != nil {
			return nil, err
		}
		return model.Closes(ds.Data), nil
	default:
		bars, err := data.LoadCSV(path, column)
		if err != nil {
			return nil, err
		}
		return model.Closes(bars), nil
	}
}

func prepare(cfg config.Config, prices []float64) (*series.Prepared, series.Split, error) {
	prep, err := series.Prepare(prices, series.Options{
		MinObservations: cfg.Series.MinObservations,
		Significance:    cfg.Series.Significance,
	})
	if err != nil {
		return nil, series.Split{}, err
	}
	split := series.SplitReturns(prep.Returns, cfg.Series.TrainFraction)
	if len(split.Train) == 0 || len(split.Test) == 0 {
		return nil, series.Split{}, fmt.Errorf("%d returns leave an empty train or test segment", len(prep.Returns))
	}
	return prep, split, nil
}

func printPrep(prep *series.Prepared, split series.Split) {
	if prep.ADFErr != nil {
		fmt.Printf("series: %d returns (dropped %d), adf failed: %v\n", len(prep.Returns), prep.Dropped, prep.ADFErr)
	} else {
		fmt.Printf("series: %d returns (dropped %d), adf p=%.3f differenced=%v\n",
			len(prep.Returns), prep.Dropped, prep.ADF.PValue, prep.Differenced)
	}
	fmt.Printf("split:  train=%d test=%d\n", len(split.Train), len(split.Test))
}

func printReport(order forecast.Order, report *model.PerformanceReport) {
	fmt.Printf("model:  %s\n", order)
	fmt.Printf("steps=%d valid=%d accuracy=%.4f\n", report.Steps, report.ValidSteps, report.Accuracy)
	fmt.Printf("total return=%.6f sharpe=%.3f sortino=%.3f\n", report.TotalReturn, report.Sharpe, report.Sortino)
	fmt.Printf("win rate=%.4f profit factor=%.3f max drawdown=%.4f\n", report.WinRate, report.ProfitFactor, report.MaxDrawdown)

	fmt.Println("confusion (rows actual, cols predicted):")
	fmt.Printf("%-6s %8s %8s %8s\n", "", "DOWN", "FLAT", "UP")
	for _, actual := range model.Directions() {
		fmt.Printf("%-6s", actual)
		for _, predicted := range model.Directions() {
			fmt.Printf(" %8d", report.Confusion.Count(actual, predicted))
		}
		fmt.Println()
	}
}

func parseOrders(spec string) ([]forecast.Order, error) {
	var orders []forecast.Order
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("order %q: want p,d,q", part)
		}
		var terms [3]int
		for i, f := range fields {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("order %q: %w", part, err)
			}
			terms[i] = n
		}
		orders = append(orders, forecast.Order{P: terms[0], D: terms[1], Q: terms[2]})
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("no orders given")
	}
	return orders, nil
}
