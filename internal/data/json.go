package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"arima-backtest/internal/model"
)

// DefaultDataDir resolves the dataset directory from DATA_DIR, falling back
// to ./data.
func DefaultDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// LoadDataset reads a saved bar series from path.
func LoadDataset(path string) (*model.DailyBarsResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	var ds model.DailyBarsResponse
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	if len(ds.Data) == 0 {
		return nil, fmt.Errorf("dataset %s holds no bars", path)
	}
	return &ds, nil
}

// SaveDataset writes the series as indented JSON, creating parent
// directories as needed.
func SaveDataset(path string, ds *model.DailyBarsResponse) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	raw, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing dataset %s: %w", path, err)
	}
	return nil
}

// DatasetFile summarizes one stored dataset for listings.
type DatasetFile struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Bars   int    `json:"bars"`
	First  string `json:"first,omitempty"`
	Last   string `json:"last,omitempty"`
}

// ListDatasets describes every .json dataset under dir. Files that fail to
// parse are listed by name with zero bars rather than failing the listing.
func ListDatasets(dir string) ([]DatasetFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	out := make([]DatasetFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info := DatasetFile{Name: entry.Name()}
		if ds, err := LoadDataset(filepath.Join(dir, entry.Name())); err == nil {
			info.Symbol = ds.Symbol
			info.Bars = len(ds.Data)
			if first := ds.Data[0].Date; !first.IsZero() {
				info.First = first.Format("2006-01-02")
			}
			if last := ds.Data[len(ds.Data)-1].Date; !last.IsZero() {
				info.Last = last.Format("2006-01-02")
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
