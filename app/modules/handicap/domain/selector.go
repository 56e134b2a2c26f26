// Package handicapdomain holds the pure handicap calculation: choosing the
// counting differentials from a member's recent history and turning them into
// a handicap value.
package handicapdomain

import "sort"

// WindowSize is the number of most recent scores considered.
const WindowSize = 20

// bestOf maps the number of scores in the window to how many of the lowest
// differentials count. Index is the window size.
var bestOf = [WindowSize + 1]int{
	0: 0,
	1: 1, 2: 1, 3: 1, 4: 1, 5: 1,
	6: 2, 7: 2, 8: 2,
	9: 3, 10: 3, 11: 3,
	12: 4, 13: 4, 14: 4,
	15: 5, 16: 5,
	17: 6, 18: 6,
	19: 7,
	20: 8,
}

// BestOfCount returns how many differentials count for a window of the given
// size. Sizes above WindowSize are treated as a full window.
func BestOfCount(windowSize int) int {
	switch {
	case windowSize <= 0:
		return 0
	case windowSize > WindowSize:
		return bestOf[WindowSize]
	default:
		return bestOf[windowSize]
	}
}

// SelectDifferentials takes a member's differentials ordered newest first and
// returns the lowest ones that count towards the handicap, in ascending order.
// Only the first WindowSize entries are examined. The input is not modified.
func SelectDifferentials(newestFirst []float64) []float64 {
	window := newestFirst
	if len(window) > WindowSize {
		window = window[:WindowSize]
	}

	n := BestOfCount(len(window))
	if n == 0 {
		return []float64{}
	}

	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)

	return sorted[:n:n]
}
