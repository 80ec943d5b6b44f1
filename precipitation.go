package bcsd

import (
	"fmt"

	"github.com/aouyang1/go-bcsd/timeseries"
)

// Precipitation is the BCSD bias correction model for precipitation.
// Corrections are multiplicative: quantile mapped values are divided by the
// observed climatology of their period, so the observed per-period mean must
// be strictly positive.
type Precipitation struct {
	base

	yClimo Climatology
}

// NewPrecipitation creates a precipitation model with the provided options.
// If no options are provided a default is used.
func NewPrecipitation(opt *Options) (*Precipitation, error) {
	return &Precipitation{
		base: base{opt: opt.Validate()},
	}, nil
}

// Fit learns the observed climatology and one quantile mapper per period
// group from the target series. The training input x is accepted for
// interface symmetry but carries no precipitation specific state. Fit is
// atomic: on error no fitted state is retained.
func (p *Precipitation) Fit(x, y *timeseries.Series) error {
	if y == nil || y.Len() == 0 {
		return ErrNoTargetSeries
	}
	if err := y.ValidateFinite(); err != nil {
		return fmt.Errorf("invalid target series, %w", err)
	}

	climo := climatology(y, p.opt.Grouper)
	for key, c := range climo {
		if c <= 0 {
			return fmt.Errorf("period key %d has climatology %f, %w", key, c, ErrNonPositiveClimatology)
		}
	}

	mappers, err := p.fitByGroup(y)
	if err != nil {
		return err
	}

	p.yClimo = climo
	p.mappers = mappers
	return nil
}

// Predict quantile maps each period group of the input onto the observed
// distribution and divides by the observed climatology, returning the
// corrected values as ratios of the observed per-period mean. The output has
// the same timestamps as the input.
func (p *Precipitation) Predict(x *timeseries.Series) (*timeseries.Series, error) {
	if p.mappers == nil || p.yClimo == nil {
		return nil, ErrNotFit
	}
	if x == nil || x.Len() == 0 {
		return nil, ErrNoPredictSeries
	}

	mapped, err := p.transformByGroup(x)
	if err != nil {
		return nil, err
	}

	out := make([]float64, mapped.Len())
	for i, ts := range mapped.T {
		key := p.opt.Grouper(ts)
		c, exists := p.yClimo[key]
		if !exists {
			return nil, fmt.Errorf("no climatology for period key %d, %w", key, ErrUnknownGroup)
		}
		out[i] = mapped.Y[i] / c
	}
	return mapped.WithValues(out)
}
