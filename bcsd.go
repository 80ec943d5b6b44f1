// Package bcsd implements pointwise statistical bias correction of climate
// model output against an observed reference series. Corrections are learned
// per period group (calendar month by default) with one quantile mapper per
// group, following the bias correction half of the BCSD technique. The
// Precipitation model corrects multiplicatively against the observed
// climatology while the Temperature model removes a rolling mean shift
// before quantile mapping and expresses the result as an anomaly.
package bcsd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aouyang1/go-bcsd/grouper"
	"github.com/aouyang1/go-bcsd/quantile"
	"github.com/aouyang1/go-bcsd/timeseries"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNotFit                 = errors.New("model has not been fit yet")
	ErrNoTrainingSeries       = errors.New("no training series")
	ErrNoTargetSeries         = errors.New("no target series")
	ErrNoPredictSeries        = errors.New("no series for prediction")
	ErrUnknownGroup           = errors.New("period key was not seen during fit")
	ErrEmptyGroup             = errors.New("period group has no samples")
	ErrNonPositiveClimatology = errors.New("target climatology must be strictly positive")
	ErrMappedLenMismatch      = errors.New("mapped group has a different length than its input")
)

// Model is a bias correction model fit on a training pair and used to
// correct new series. Fit must succeed before Predict may be called.
// Predict is safe for concurrent use once fit; concurrent Fit calls on the
// same instance are not and must be serialized by the caller.
type Model interface {
	Fit(x, y *timeseries.Series) error
	Predict(x *timeseries.Series) (*timeseries.Series, error)
}

// Climatology maps a period key to the long-run mean of that period's
// samples.
type Climatology map[int]float64

// group holds the indices of one period's samples within a series. Index
// slices of a partition are disjoint and cover the full series.
type group struct {
	key int
	idx []int
}

// partition splits a series into period groups ordered by key.
func partition(s *timeseries.Series, g grouper.Grouper) []group {
	byKey := make(map[int][]int)
	keys := make([]int, 0)
	for i, ts := range s.T {
		k := g(ts)
		if _, exists := byKey[k]; !exists {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], i)
	}
	sort.Ints(keys)

	groups := make([]group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, group{key: k, idx: byKey[k]})
	}
	return groups
}

func gather(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func scatter(dst []float64, idx []int, src []float64) {
	for i, j := range idx {
		dst[j] = src[i]
	}
}

// climatology computes the per-group mean of a series.
func climatology(s *timeseries.Series, g grouper.Grouper) Climatology {
	climo := make(Climatology)
	for _, grp := range partition(s, g) {
		climo[grp.key] = stat.Mean(gather(s.Y, grp.idx), nil)
	}
	return climo
}

// removeClimatology subtracts each sample's period climatology from the
// series. Every period key in the series must have a climatology entry.
func removeClimatology(s *timeseries.Series, climo Climatology, g grouper.Grouper) (*timeseries.Series, error) {
	out := make([]float64, s.Len())
	for i, ts := range s.T {
		key := g(ts)
		c, exists := climo[key]
		if !exists {
			return nil, fmt.Errorf("no climatology for period key %d, %w", key, ErrUnknownGroup)
		}
		out[i] = s.Y[i] - c
	}
	return s.WithValues(out)
}

// base carries the state shared by the precipitation and temperature models:
// the grouping rule, the mapper configuration, and the per-group fitted
// quantile mappers.
type base struct {
	opt *Options

	mappers map[int]quantile.Mapper
}

// fitByGroup fits one quantile mapper per period group of the target
// series. The returned mapper set is fully built before being handed back so
// the caller can publish it atomically.
func (b *base) fitByGroup(target *timeseries.Series) (map[int]quantile.Mapper, error) {
	groups := partition(target, b.opt.Grouper)

	fitted := make([]quantile.Mapper, len(groups))
	fitOne := func(i int) error {
		grp := groups[i]
		if len(grp.idx) == 0 {
			return fmt.Errorf("period key %d, %w", grp.key, ErrEmptyGroup)
		}
		m := b.opt.NewMapper(b.opt.QuantileOptions)
		if err := m.Fit(gather(target.Y, grp.idx)); err != nil {
			return fmt.Errorf("unable to fit quantile mapper for period key %d, %w", grp.key, err)
		}
		fitted[i] = m
		return nil
	}

	if err := b.forEachGroup(len(groups), fitOne); err != nil {
		return nil, err
	}

	mappers := make(map[int]quantile.Mapper, len(groups))
	for i, grp := range groups {
		mappers[grp.key] = fitted[i]
	}
	return mappers, nil
}

// transformByGroup maps each period group of the input series through its
// fitted quantile mapper and reassembles a series with the same timestamps
// and sample order as the input.
func (b *base) transformByGroup(input *timeseries.Series) (*timeseries.Series, error) {
	if b.mappers == nil {
		return nil, ErrNotFit
	}

	groups := partition(input, b.opt.Grouper)
	out := make([]float64, input.Len())
	transformOne := func(i int) error {
		grp := groups[i]
		m, exists := b.mappers[grp.key]
		if !exists {
			return fmt.Errorf("period key %d, %w", grp.key, ErrUnknownGroup)
		}
		mapped, err := m.Transform(gather(input.Y, grp.idx))
		if err != nil {
			return fmt.Errorf("unable to transform period key %d, %w", grp.key, err)
		}
		if len(mapped) != len(grp.idx) {
			return fmt.Errorf("period key %d got %d values for %d samples, %w",
				grp.key, len(mapped), len(grp.idx), ErrMappedLenMismatch)
		}
		scatter(out, grp.idx, mapped)
		return nil
	}

	if err := b.forEachGroup(len(groups), transformOne); err != nil {
		return nil, err
	}
	return input.WithValues(out)
}

// forEachGroup runs fn for every group index, concurrently when the model
// was configured with Parallel. Group operations are independent and write
// to disjoint state, so the result does not depend on execution order.
func (b *base) forEachGroup(n int, fn func(i int) error) error {
	if !b.opt.Parallel {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			return fn(i)
		})
	}
	return eg.Wait()
}
