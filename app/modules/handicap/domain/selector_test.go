package handicapdomain

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBestOfCount(t *testing.T) {
	tests := []struct {
		window int
		want   int
	}{
		{-1, 0}, {0, 0},
		{1, 1}, {5, 1},
		{6, 2}, {8, 2},
		{9, 3}, {11, 3},
		{12, 4}, {14, 4},
		{15, 5}, {16, 5},
		{17, 6}, {18, 6},
		{19, 7},
		{20, 8},
		{25, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BestOfCount(tt.window), "window=%d", tt.window)
	}
}

func TestSelectDifferentials(t *testing.T) {
	tests := []struct {
		name        string
		newestFirst []float64
		want        []float64
	}{
		{
			name:        "empty history selects nothing",
			newestFirst: nil,
			want:        []float64{},
		},
		{
			name:        "single score",
			newestFirst: []float64{14.2},
			want:        []float64{14.2},
		},
		{
			name:        "five scores pick one",
			newestFirst: []float64{12, 9, 15, 11, 10},
			want:        []float64{9},
		},
		{
			name:        "six scores pick two",
			newestFirst: []float64{10.5, 12.3, 9.8, 11.2, 10.1, 11.8},
			want:        []float64{9.8, 10.1},
		},
		{
			name:        "negative differentials are allowed",
			newestFirst: []float64{-1.5, 3.0, 0.2},
			want:        []float64{-1.5},
		},
		{
			name:        "ties keep duplicates",
			newestFirst: []float64{7, 7, 7, 7, 7, 7},
			want:        []float64{7, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectDifferentials(tt.newestFirst)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectDifferentials() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectDifferentialsOnlyConsidersNewestTwenty(t *testing.T) {
	// 20 recent scores of 30+, then 5 older very low scores that must be ignored.
	history := make([]float64, 0, 25)
	for i := 0; i < 20; i++ {
		history = append(history, 30+float64(i))
	}
	history = append(history, 1, 2, 3, 4, 5)

	got := SelectDifferentials(history)

	assert.Len(t, got, 8)
	assert.Equal(t, []float64{30, 31, 32, 33, 34, 35, 36, 37}, got)
}

func TestSelectDifferentialsDoesNotMutateInput(t *testing.T) {
	history := []float64{12.1, 8.4, 15.0, 9.9, 11.3, 7.7}
	original := append([]float64(nil), history...)

	_ = SelectDifferentials(history)

	assert.Equal(t, original, history)
}

// lowestN is a deliberately naive reference used to cross-check the selector.
func lowestN(values []float64, n int) []float64 {
	pool := append([]float64(nil), values...)
	out := make([]float64, 0, n)
	for len(out) < n {
		minIdx := 0
		for i := range pool {
			if pool[i] < pool[minIdx] {
				minIdx = i
			}
		}
		out = append(out, pool[minIdx])
		pool = append(pool[:minIdx], pool[minIdx+1:]...)
	}
	return out
}

func TestSelectDifferentialsMatchesReferenceForRandomHistories(t *testing.T) {
	faker := gofakeit.New(20240611)

	for i := 0; i < 500; i++ {
		size := faker.Number(0, 30)
		history := make([]float64, size)
		for j := range history {
			history[j] = faker.Float64Range(-5, 54)
		}

		window := history
		if len(window) > WindowSize {
			window = window[:WindowSize]
		}
		want := lowestN(window, BestOfCount(len(window)))

		got := SelectDifferentials(history)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("history %v: mismatch (-want +got):\n%s", history, diff)
		}
	}
}
