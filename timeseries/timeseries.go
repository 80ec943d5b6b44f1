// Package timeseries provides the univariate time series container shared by
// the bias correction models.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoData       = errors.New("no series data")
	ErrNonMonotonic = errors.New("timestamps are not strictly increasing")
	ErrLenMismatch  = errors.New("timestamps have a different length than values")
	ErrNonFinite    = errors.New("series contains a non-finite value")
)

// Series represents a single-variable time series storing a slice of time
// points and values. Both must be of the same length and timestamps must be
// strictly increasing.
type Series struct {
	T []time.Time
	Y []float64
}

// New returns an instance of a Series given a time and value slice. The
// inputs are copied so later mutation of the caller's slices does not alias
// the series.
func New(t []time.Time, y []float64) (*Series, error) {
	if len(y) == 0 {
		return nil, ErrNoData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"timestamps have length of %d, but values have a length of %d, %w",
			len(t), len(y), ErrLenMismatch,
		)
	}

	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := t[i]
		if currT.Before(lastT) || currT.Equal(lastT) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMonotonic)
		}
		lastT = currT
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(y))
	copy(tSeries, t)
	copy(ySeries, y)
	return &Series{
		T: tSeries,
		Y: ySeries,
	}, nil
}

// Len returns the number of samples in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.T)
}

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	tSeries := make([]time.Time, len(s.T))
	ySeries := make([]float64, len(s.Y))
	copy(tSeries, s.T)
	copy(ySeries, s.Y)
	return &Series{
		T: tSeries,
		Y: ySeries,
	}
}

// WithValues returns a new series reusing this series' timestamps with a
// replacement value slice. The values must align with the timestamps.
func (s *Series) WithValues(y []float64) (*Series, error) {
	if len(y) != len(s.T) {
		return nil, fmt.Errorf(
			"timestamps have length of %d, but values have a length of %d, %w",
			len(s.T), len(y), ErrLenMismatch,
		)
	}
	ySeries := make([]float64, len(y))
	copy(ySeries, y)
	tSeries := make([]time.Time, len(s.T))
	copy(tSeries, s.T)
	return &Series{
		T: tSeries,
		Y: ySeries,
	}, nil
}

// ValidateFinite reports an error if any value in the series is NaN or Inf.
func (s *Series) ValidateFinite() error {
	for i, v := range s.Y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("at index %d, %w", i, ErrNonFinite)
		}
	}
	return nil
}

// GenerateT creates a slice of n evenly spaced timestamps ending at the
// current time truncated to the minute. Primarily used for tests and
// examples.
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval)
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}
