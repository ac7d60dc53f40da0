package model

// PredictionRecord captures one step of a walk-forward run.
type PredictionRecord struct {
	// Step is the 1-based index into the test segment.
	Step int `json:"step"`

	Predicted Direction `json:"predicted"`
	Actual    Direction `json:"actual"`

	// Realized is the return the directions were judged on, kept so the
	// evaluator can price the position without re-reading the series.
	Realized float64 `json:"realized"`
}

// ConfusionMatrix counts prediction outcomes over the three directions.
// Rows are actual directions, columns are predicted ones; the flat class is
// a first-class row and column, not an error state.
type ConfusionMatrix [3][3]int

func (m *ConfusionMatrix) Add(actual, predicted Direction) {
	m[actual.Index()][predicted.Index()]++
}

func (m *ConfusionMatrix) Count(actual, predicted Direction) int {
	return m[actual.Index()][predicted.Index()]
}

// ActualTotal is the number of records whose realized direction was d.
func (m *ConfusionMatrix) ActualTotal(d Direction) int {
	row := m[d.Index()]
	return row[0] + row[1] + row[2]
}

func (m *ConfusionMatrix) Total() int {
	n := 0
	for _, row := range m {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// Directions lists the matrix axes in row/column order.
func Directions() [3]Direction {
	return [3]Direction{Down, Flat, Up}
}
