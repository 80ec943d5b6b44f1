package bcsd

import (
	"fmt"

	"github.com/aouyang1/go-bcsd/stats"
	"github.com/aouyang1/go-bcsd/timeseries"
	"gonum.org/v1/gonum/floats"
)

// The shift signal is a 9 sample centered rolling mean, truncating to at
// least one sample at the series edges.
const (
	ShiftWindow     = 9
	ShiftMinPeriods = 1
)

// Temperature is the BCSD bias correction model for temperature.
// Corrections are additive: a slow moving shift is removed before quantile
// mapping and restored after, and the result is expressed as an anomaly
// relative to the observed climatology.
type Temperature struct {
	base

	xClimo Climatology
	yClimo Climatology
}

// NewTemperature creates a temperature model with the provided options. If
// no options are provided a default is used.
func NewTemperature(opt *Options) (*Temperature, error) {
	return &Temperature{
		base: base{opt: opt.Validate()},
	}, nil
}

// Fit learns the training input climatology, the observed climatology, and
// one quantile mapper per period group from the target series. Fit is
// atomic: on error no fitted state is retained.
func (t *Temperature) Fit(x, y *timeseries.Series) error {
	if x == nil || x.Len() == 0 {
		return ErrNoTrainingSeries
	}
	if y == nil || y.Len() == 0 {
		return ErrNoTargetSeries
	}
	if err := x.ValidateFinite(); err != nil {
		return fmt.Errorf("invalid training series, %w", err)
	}
	if err := y.ValidateFinite(); err != nil {
		return fmt.Errorf("invalid target series, %w", err)
	}

	xClimo := climatology(x, t.opt.Grouper)
	yClimo := climatology(y, t.opt.Grouper)

	mappers, err := t.fitByGroup(y)
	if err != nil {
		return err
	}

	t.xClimo = xClimo
	t.yClimo = yClimo
	t.mappers = mappers
	return nil
}

// Predict corrects the input series in a fixed sequence: compute the rolling
// mean shift relative to the training climatology, remove the shift, apply
// per-group quantile mapping, restore the shift, and subtract the observed
// climatology. The sequence matters: quantile mapping operates on the
// de-trended signal and the final anomaly is taken against the observed, not
// the training, climatology. The output has the same timestamps as the
// input.
func (t *Temperature) Predict(x *timeseries.Series) (*timeseries.Series, error) {
	if t.mappers == nil || t.xClimo == nil || t.yClimo == nil {
		return nil, ErrNotFit
	}
	if x == nil || x.Len() == 0 {
		return nil, ErrNoPredictSeries
	}

	rolling, err := stats.RollingMean(x.Y, ShiftWindow, ShiftMinPeriods)
	if err != nil {
		return nil, fmt.Errorf("unable to compute rolling mean, %w", err)
	}
	smoothed, err := x.WithValues(rolling)
	if err != nil {
		return nil, err
	}

	shift, err := removeClimatology(smoothed, t.xClimo, t.opt.Grouper)
	if err != nil {
		return nil, fmt.Errorf("unable to compute shift, %w", err)
	}

	deshifted := make([]float64, x.Len())
	floats.SubTo(deshifted, x.Y, shift.Y)
	deshiftedSeries, err := x.WithValues(deshifted)
	if err != nil {
		return nil, err
	}

	mapped, err := t.transformByGroup(deshiftedSeries)
	if err != nil {
		return nil, err
	}

	reshifted := make([]float64, mapped.Len())
	floats.AddTo(reshifted, mapped.Y, shift.Y)
	reshiftedSeries, err := mapped.WithValues(reshifted)
	if err != nil {
		return nil, err
	}

	out, err := removeClimatology(reshiftedSeries, t.yClimo, t.opt.Grouper)
	if err != nil {
		return nil, fmt.Errorf("unable to compute anomaly, %w", err)
	}
	return out, nil
}
