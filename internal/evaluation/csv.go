package evaluation

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"arima-backtest/internal/model"
)

// LedgerRow is one priced step of a run.
// This is the primary artifact for "what happened" in an evaluation.
type LedgerRow struct {
	Step      int
	Predicted model.Direction
	Actual    model.Direction
	Realized  float64

	Return float64 // strategy return net of costs
	Cum    float64 // running sum over valid steps
	Valid  bool
}

// BuildLedger prices every record the same way Evaluate does. Invalid steps
// keep their row but do not advance the cumulative column.
func BuildLedger(records []model.PredictionRecord, cfg Config) []LedgerRow {
	rows := make([]LedgerRow, 0, len(records))
	cum := 0.0
	for _, r := range records {
		sr := StrategyReturn(r, cfg.UnitCost)
		valid := !math.IsNaN(sr) && !math.IsInf(sr, 0)
		if valid {
			cum += sr
		}
		rows = append(rows, LedgerRow{
			Step:      r.Step,
			Predicted: r.Predicted,
			Actual:    r.Actual,
			Realized:  r.Realized,
			Return:    sr,
			Cum:       cum,
			Valid:     valid,
		})
	}
	return rows
}

func WriteLedgerCSV(path string, rows []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"step",
		"predicted",
		"actual",
		"realized",
		"strategy_return",
		"cum_return",
		"valid",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Step),
			r.Predicted.String(),
			r.Actual.String(),
			fmtFloat(r.Realized),
			fmtFloat(r.Return),
			fmtFloat(r.Cum),
			strconv.FormatBool(r.Valid),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
