package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"arima-backtest/internal/model"
)

// LoadCSV reads daily bars from path. A header row is detected by probing
// the first row for a numeric cell; column names the price column when a
// header is present (empty means "close"). Headerless files are read as a
// single price column or as date,price pairs. Rows whose price cell does
// not parse are skipped.
func LoadCSV(path, column string) ([]model.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: file is empty", path)
	}

	if column == "" {
		column = "close"
	}

	priceIdx, dateIdx := 0, -1
	start := 0
	if isHeader(rows[0]) {
		start = 1
		priceIdx = -1
		for i, name := range rows[0] {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case strings.ToLower(column):
				priceIdx = i
			case "date", "time", "timestamp":
				if dateIdx < 0 {
					dateIdx = i
				}
			}
		}
		if priceIdx < 0 {
			return nil, fmt.Errorf("%s: no %q column in header %v", path, column, rows[0])
		}
	} else if len(rows[0]) > 1 {
		// Headerless multi-column files are read as date,price.
		dateIdx, priceIdx = 0, 1
	}

	bars := make([]model.PriceBar, 0, len(rows)-start)
	skipped := 0
	for _, row := range rows[start:] {
		if priceIdx >= len(row) {
			skipped++
			continue
		}
		price, parseErr := strconv.ParseFloat(strings.TrimSpace(row[priceIdx]), 64)
		if parseErr != nil {
			skipped++
			continue
		}
		bar := model.PriceBar{Close: price}
		if dateIdx >= 0 && dateIdx < len(row) {
			bar.Date = parseDate(strings.TrimSpace(row[dateIdx]))
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no usable price rows", path)
	}
	if skipped > 0 {
		log.Warn().Str("file", path).Int("skipped", skipped).Msg("dropped unparseable csv rows")
	}
	return bars, nil
}

// isHeader reports whether no cell in the row parses as a number.
func isHeader(row []string) bool {
	for _, cell := range row {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			return false
		}
	}
	return true
}

// parseDate accepts plain dates and RFC3339 timestamps. Anything else
// yields a zero time; the price still counts.
func parseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
