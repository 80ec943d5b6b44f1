package bcsd

import (
	"testing"
	"time"

	"github.com/aouyang1/go-bcsd/grouper"
	"github.com/aouyang1/go-bcsd/quantile"
	"github.com/aouyang1/go-bcsd/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monthlySeries generates a series with one sample per month starting at
// start, with values produced from the sample's timestamp.
func monthlySeries(t *testing.T, start time.Time, months int, f func(ts time.Time) float64) *timeseries.Series {
	t.Helper()
	tSlice := make([]time.Time, 0, months)
	y := make([]float64, 0, months)
	for i := 0; i < months; i++ {
		ts := start.AddDate(0, i, 0)
		tSlice = append(tSlice, ts)
		y = append(y, f(ts))
	}
	s, err := timeseries.New(tSlice, y)
	require.Nil(t, err)
	return s
}

// identityOptions returns model options whose quantile mapper passes values
// through unchanged, isolating the grouped plumbing under test.
func identityOptions() *Options {
	opt := NewDefaultOptions()
	opt.NewMapper = func(*quantile.Options) quantile.Mapper {
		return quantile.NewIdentity()
	}
	return opt
}

func TestPartition(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthlySeries(t, start, 25, func(ts time.Time) float64 {
		return float64(ts.Month())
	})

	groups := partition(s, grouper.Month)
	require.Len(t, groups, 12)

	// keys ascend and index slices form a disjoint cover of the series
	seen := make(map[int]bool)
	lastKey := 0
	total := 0
	for _, grp := range groups {
		assert.Greater(t, grp.key, lastKey)
		lastKey = grp.key
		for _, idx := range grp.idx {
			assert.False(t, seen[idx])
			seen[idx] = true
			assert.Equal(t, grp.key, grouper.Month(s.T[idx]))
		}
		total += len(grp.idx)
	}
	assert.Equal(t, s.Len(), total)
}

func TestClimatology(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	// two years where the second year runs 2 higher, so each month's
	// climatology is its first year value plus 1
	s := monthlySeries(t, start, 24, func(ts time.Time) float64 {
		base := float64(ts.Month())
		if ts.Year() > 2000 {
			base += 2
		}
		return base
	})

	climo := climatology(s, grouper.Month)
	require.Len(t, climo, 12)
	for m := 1; m <= 12; m++ {
		assert.InDelta(t, float64(m)+1, climo[m], 1e-12)
	}
}

func TestRemoveClimatologyRoundTrip(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthlySeries(t, start, 36, func(ts time.Time) float64 {
		return float64(ts.Month())*3 + float64(ts.Year()-2000)
	})

	climo := climatology(s, grouper.Month)
	removed, err := removeClimatology(s, climo, grouper.Month)
	require.Nil(t, err)
	require.Equal(t, s.T, removed.T)

	// adding the climatology back restores the series elementwise
	restored := make([]float64, removed.Len())
	for i, ts := range removed.T {
		restored[i] = removed.Y[i] + climo[grouper.Month(ts)]
	}
	for i := range restored {
		assert.InDelta(t, s.Y[i], restored[i], 1e-12)
	}
}

func TestRemoveClimatologyMissingKey(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthlySeries(t, start, 3, func(ts time.Time) float64 {
		return 1
	})

	climo := Climatology{1: 1, 2: 2}
	_, err := removeClimatology(s, climo, grouper.Month)
	assert.ErrorAs(t, err, &ErrUnknownGroup)
}

func TestTransformByGroupIdentity(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	target := monthlySeries(t, start, 48, func(ts time.Time) float64 {
		return float64(ts.Month()) + float64(ts.Year()-2000)*0.1
	})

	b := &base{opt: identityOptions().Validate()}
	mappers, err := b.fitByGroup(target)
	require.Nil(t, err)
	b.mappers = mappers

	input := monthlySeries(t, start.AddDate(10, 0, 0), 30, func(ts time.Time) float64 {
		return float64(ts.YearDay())
	})
	out, err := b.transformByGroup(input)
	require.Nil(t, err)

	// identity mapping preserves the index set, order, and values
	assert.Equal(t, input.T, out.T)
	assert.Equal(t, input.Y, out.Y)
}

func TestTransformByGroupDayOfYear(t *testing.T) {
	// two years of daily samples so every day-of-year key is seen at fit,
	// spanning a Dec to Jan boundary
	nowFunc := func() time.Time {
		return time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	tSlice := timeseries.GenerateT(730, 24*time.Hour, nowFunc)
	y := make([]float64, 0, len(tSlice))
	for i, ts := range tSlice {
		y = append(y, float64(ts.YearDay())+0.01*float64(i))
	}
	target, err := timeseries.New(tSlice, y)
	require.Nil(t, err)

	opt := identityOptions()
	opt.Grouper = grouper.DayOfYear
	b := &base{opt: opt.Validate()}
	mappers, err := b.fitByGroup(target)
	require.Nil(t, err)
	b.mappers = mappers

	out, err := b.transformByGroup(target)
	require.Nil(t, err)
	assert.Equal(t, target.T, out.T)
	assert.Equal(t, target.Y, out.Y)
}

func TestTransformByGroupUnknownGroup(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	// fit only sees January through June
	target := monthlySeries(t, start, 6, func(ts time.Time) float64 {
		return float64(ts.Month())
	})

	b := &base{opt: identityOptions().Validate()}
	mappers, err := b.fitByGroup(target)
	require.Nil(t, err)
	b.mappers = mappers

	input := monthlySeries(t, start.AddDate(0, 6, 0), 3, func(ts time.Time) float64 {
		return 1
	})
	_, err = b.transformByGroup(input)
	assert.ErrorAs(t, err, &ErrUnknownGroup)
}

func TestTransformByGroupBeforeFit(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	input := monthlySeries(t, start, 3, func(ts time.Time) float64 {
		return 1
	})

	b := &base{opt: identityOptions().Validate()}
	_, err := b.transformByGroup(input)
	assert.ErrorAs(t, err, &ErrNotFit)
}

func TestParallelMatchesSerial(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	target := monthlySeries(t, start, 120, func(ts time.Time) float64 {
		return float64(ts.Month())*2 + float64(ts.Year()-2000)*0.3
	})
	input := monthlySeries(t, start.AddDate(10, 0, 0), 60, func(ts time.Time) float64 {
		return float64(ts.Month())*2.5 + float64(ts.Year()-2010)*0.2
	})

	serial := &base{opt: NewDefaultOptions().Validate()}
	mappers, err := serial.fitByGroup(target)
	require.Nil(t, err)
	serial.mappers = mappers

	parOpt := NewDefaultOptions()
	parOpt.Parallel = true
	par := &base{opt: parOpt.Validate()}
	mappers, err = par.fitByGroup(target)
	require.Nil(t, err)
	par.mappers = mappers

	serialOut, err := serial.transformByGroup(input)
	require.Nil(t, err)
	parOut, err := par.transformByGroup(input)
	require.Nil(t, err)

	assert.Equal(t, serialOut.T, parOut.T)
	assert.Equal(t, serialOut.Y, parOut.Y)
}
