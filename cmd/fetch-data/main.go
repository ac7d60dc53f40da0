package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"arima-backtest/internal/data"
	"arima-backtest/internal/logging"
)

func main() {
	var (
		symbol  = flag.String("symbol", "SPY", "Ticker symbol to fetch")
		start   = flag.String("start", "", "Start date YYYY-MM-DD (default: one year back)")
		end     = flag.String("end", "", "End date YYYY-MM-DD (default: today)")
		output  = flag.String("output", "", "Output file path (default: ./data/<symbol>.json)")
		baseURL = flag.String("base-url", "", "History API base URL")
	)
	flag.Parse()

	logging.Setup("info", "console")

	apiKey := os.Getenv("HISTORY_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("HISTORY_API_KEY environment variable is required")
	}

	endDate := *end
	if endDate == "" {
		endDate = time.Now().Format("2006-01-02")
	}
	startDate := *start
	if startDate == "" {
		startDate = time.Now().AddDate(-1, 0, 0).Format("2006-01-02")
	}

	outPath := *output
	if outPath == "" {
		outPath = filepath.Join(data.DefaultDataDir(), strings.ToLower(*symbol)+".json")
	}

	client := data.NewHistoryClient(apiKey, *baseURL)

	fmt.Printf("Fetching %s from %s to %s...\n", *symbol, startDate, endDate)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := client.QueryDaily(ctx, data.DailyQuery{Symbol: *symbol, Start: startDate, End: endDate})
	if err != nil {
		log.Fatal().Err(err).Msg("fetch failed")
	}
	if len(resp.Data) == 0 {
		log.Fatal().Str("symbol", *symbol).Msg("provider returned no bars")
	}

	if err := data.SaveDataset(outPath, resp); err != nil {
		log.Fatal().Err(err).Msg("saving dataset failed")
	}

	first := resp.Data[0].Date.Format("2006-01-02")
	last := resp.Data[len(resp.Data)-1].Date.Format("2006-01-02")
	fmt.Printf("Saved %d bars (%s to %s) to %s\n", len(resp.Data), first, last, outPath)
}
