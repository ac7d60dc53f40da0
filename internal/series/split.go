package series

// DefaultTrainFraction places 70% of the returns in the training segment.
const DefaultTrainFraction = 0.7

// Split is a chronological train/test partition of a return series. Both
// segments are private copies, so later mutation of the source slice cannot
// leak into a run.
type Split struct {
	Train []float64
	Test  []float64
}

// SplitReturns partitions returns in order: the first floor(fraction·n)
// values train, the remainder tests. fraction <= 0 selects the default.
func SplitReturns(returns []float64, fraction float64) Split {
	if fraction <= 0 {
		fraction = DefaultTrainFraction
	}
	if fraction > 1 {
		fraction = 1
	}
	cut := int(fraction * float64(len(returns)))
	train := make([]float64, cut)
	copy(train, returns[:cut])
	test := make([]float64, len(returns)-cut)
	copy(test, returns[cut:])
	return Split{Train: train, Test: test}
}
