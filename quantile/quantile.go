// Package quantile implements empirical quantile mapping. A mapper learns a
// monotonic transform from an input sample's empirical distribution onto a
// reference sample's distribution. The bias correction models fit one mapper
// per period group and treat the mapper as opaque.
package quantile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoData    = errors.New("no samples to fit")
	ErrNotFit    = errors.New("mapper has not been fit yet")
	ErrNonFinite = errors.New("samples contain a non-finite value")
)

// Mapper learns the distribution of a reference sample set and maps new
// samples onto it.
type Mapper interface {
	Fit(samples []float64) error
	Transform(samples []float64) ([]float64, error)
}

// Options configures a CDFMapper.
type Options struct {
	// Detrend removes a linear trend across the sample sequence before
	// building the empirical distribution and restores the input's own
	// trend after mapping.
	Detrend bool
}

// NewDefaultOptions returns a default set of CDFMapper options.
func NewDefaultOptions() *Options {
	return &Options{
		Detrend: false,
	}
}

// CDFMapper maps values through the empirical CDF of the values themselves
// onto the quantiles of a fitted reference sample set using linear
// interpolation between sample points.
type CDFMapper struct {
	opt *Options

	refSorted []float64
}

// NewCDFMapper creates a CDFMapper with the given options. If no options are
// provided a default is used.
func NewCDFMapper(opt *Options) *CDFMapper {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &CDFMapper{opt: opt}
}

// Fit learns the reference distribution from the provided samples.
func (c *CDFMapper) Fit(samples []float64) error {
	if len(samples) == 0 {
		return ErrNoData
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("at index %d, %w", i, ErrNonFinite)
		}
	}

	ref := make([]float64, len(samples))
	copy(ref, samples)
	if c.opt.Detrend {
		ref = detrend(ref)
	}
	sort.Float64s(ref)
	c.refSorted = ref
	return nil
}

// Fitted reports whether the mapper holds a fitted reference distribution.
func (c *CDFMapper) Fitted() bool {
	return c.refSorted != nil
}

// RefSorted returns the fitted reference samples in ascending order. Used to
// serialize a fitted mapper.
func (c *CDFMapper) RefSorted() []float64 {
	ref := make([]float64, len(c.refSorted))
	copy(ref, c.refSorted)
	return ref
}

// NewCDFMapperFromRef rebuilds a fitted CDFMapper from previously serialized
// ascending reference samples.
func NewCDFMapperFromRef(opt *Options, refSorted []float64) (*CDFMapper, error) {
	if len(refSorted) == 0 {
		return nil, ErrNoData
	}
	if !sort.Float64sAreSorted(refSorted) {
		return nil, errors.New("reference samples are not in ascending order")
	}
	c := NewCDFMapper(opt)
	ref := make([]float64, len(refSorted))
	copy(ref, refSorted)
	c.refSorted = ref
	return c, nil
}

// Transform maps each sample through the samples' own empirical CDF onto the
// fitted reference quantiles. The output has the same length and order as
// the input.
func (c *CDFMapper) Transform(samples []float64) ([]float64, error) {
	if c.refSorted == nil {
		return nil, ErrNotFit
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	work := make([]float64, len(samples))
	copy(work, samples)

	var trend []float64
	if c.opt.Detrend {
		alpha, beta := trendLine(work)
		trend = make([]float64, len(work))
		mean := stat.Mean(work, nil)
		for i := range work {
			trend[i] = alpha + beta*float64(i) - mean
			work[i] -= trend[i]
		}
	}

	sorted := make([]float64, len(work))
	copy(sorted, work)
	sort.Float64s(sorted)

	out := make([]float64, len(work))
	for i, v := range work {
		p := percentileOf(v, sorted)
		out[i] = quantileAt(p, c.refSorted)
	}

	if trend != nil {
		for i := range out {
			out[i] += trend[i]
		}
	}
	return out, nil
}

// percentileOf returns the fraction in [0, 1] of the empirical distribution
// lying at v, linearly interpolating between sorted sample positions
// k/(n-1). Values outside the sample range clamp to 0 or 1. Equal values map
// to the same fraction.
func percentileOf(v float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return 0.5
	}
	i := sort.SearchFloat64s(sorted, v)
	if i == 0 {
		return 0.0
	}
	if i == n {
		return 1.0
	}
	if sorted[i] == v {
		return float64(i) / float64(n-1)
	}
	frac := (v - sorted[i-1]) / (sorted[i] - sorted[i-1])
	return (float64(i-1) + frac) / float64(n-1)
}

// quantileAt is the inverse of percentileOf, interpolating the value of the
// sorted samples at fraction p.
func quantileAt(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	i := int(math.Floor(h))
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// detrend subtracts the least squares line across the sample sequence
// keeping the sample mean in place.
func detrend(samples []float64) []float64 {
	alpha, beta := trendLine(samples)
	mean := stat.Mean(samples, nil)
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = v - (alpha + beta*float64(i)) + mean
	}
	return out
}

func trendLine(samples []float64) (alpha, beta float64) {
	if len(samples) < 2 {
		return samples[0], 0
	}
	idx := make([]float64, len(samples))
	for i := range idx {
		idx[i] = float64(i)
	}
	return stat.LinearRegression(idx, samples, nil, false)
}

// Identity is a Mapper that returns its input unchanged. Useful for testing
// the grouped plumbing around a mapper.
type Identity struct {
	fit bool
}

// NewIdentity creates an identity mapper.
func NewIdentity() *Identity {
	return &Identity{}
}

func (m *Identity) Fit(samples []float64) error {
	if len(samples) == 0 {
		return ErrNoData
	}
	m.fit = true
	return nil
}

func (m *Identity) Transform(samples []float64) ([]float64, error) {
	if !m.fit {
		return nil, ErrNotFit
	}
	out := make([]float64, len(samples))
	copy(out, samples)
	return out, nil
}
