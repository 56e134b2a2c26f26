package handicapdomain

import "math"

// Multiplier is the Australian handicap "bonus for excellence" factor.
const Multiplier = 0.93

// ComputeHandicap averages the selected differentials, applies Multiplier and
// rounds half away from zero to one decimal place. No selection yields 0.
func ComputeHandicap(selected []float64) float64 {
	if len(selected) == 0 {
		return 0.0
	}

	var sum float64
	for _, d := range selected {
		sum += d
	}
	mean := sum / float64(len(selected))

	return roundTenth(mean * Multiplier)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// Calculation is the outcome of running the selector and formula over a
// newest-first history.
type Calculation struct {
	Value      float64
	WindowSize int
	Selected   []float64
}

// Calculate runs the full handicap calculation over differentials ordered
// newest first.
func Calculate(newestFirst []float64) Calculation {
	window := len(newestFirst)
	if window > WindowSize {
		window = WindowSize
	}
	selected := SelectDifferentials(newestFirst)
	return Calculation{
		Value:      ComputeHandicap(selected),
		WindowSize: window,
		Selected:   selected,
	}
}
