// Package stats provides the rolling window and skill calculations used by
// the bias correction models.
package stats

import (
	"errors"
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrWindowSize      = errors.New("window must be at least 1")
	ErrMinPeriods      = errors.New("min periods must be between 1 and the window size")
	ErrSeriesLen       = errors.New("series have different lengths")
	ErrNoSeries        = errors.New("no series values")
	ErrInsufficientObs = errors.New("insufficient observations in window")
)

// RollingMean computes a centered moving average over window consecutive
// samples. At the edges the window truncates to whatever samples are
// available as long as at least minPeriods remain, so the output always has
// the same length as the input. For even windows the extra sample is taken
// from the leading side.
func RollingMean(y []float64, window, minPeriods int) ([]float64, error) {
	if window < 1 {
		return nil, ErrWindowSize
	}
	if minPeriods < 1 || minPeriods > window {
		return nil, fmt.Errorf("got %d with window %d, %w", minPeriods, window, ErrMinPeriods)
	}
	if len(y) == 0 {
		return nil, ErrNoSeries
	}

	before := window / 2
	after := window - before - 1

	out := make([]float64, len(y))
	for i := range y {
		lo := i - before
		if lo < 0 {
			lo = 0
		}
		hi := i + after + 1
		if hi > len(y) {
			hi = len(y)
		}
		if hi-lo < minPeriods {
			return nil, fmt.Errorf("at index %d, %w", i, ErrInsufficientObs)
		}
		out[i] = stat.Mean(y[lo:hi], nil)
	}
	return out, nil
}

// Scores tracks how closely a corrected series tracks a reference series.
type Scores struct {
	Bias        float64 `json:"bias"`
	RMSE        float64 `json:"root_mean_squared_error"`
	Correlation float64 `json:"correlation"`
}

// NewScores computes skill scores between a corrected and reference value
// slice of the same length.
func NewScores(corrected, reference []float64) (*Scores, error) {
	if len(corrected) != len(reference) {
		return nil, fmt.Errorf("expected %d, but got %d, %w", len(reference), len(corrected), ErrSeriesLen)
	}
	if len(corrected) == 0 {
		return nil, ErrNoSeries
	}

	diff := make([]float64, len(corrected))
	for i := range corrected {
		diff[i] = corrected[i] - reference[i]
	}

	bias, err := mstats.Mean(diff)
	if err != nil {
		return nil, fmt.Errorf("unable to compute bias, %w", err)
	}

	sq := make([]float64, len(diff))
	for i, d := range diff {
		sq[i] = d * d
	}
	msd, err := mstats.Mean(sq)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared difference, %w", err)
	}
	rmse := math.Sqrt(msd)

	corr := stat.Correlation(corrected, reference, nil)

	return &Scores{
		Bias:        bias,
		RMSE:        rmse,
		Correlation: corr,
	}, nil
}
