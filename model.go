package bcsd

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-bcsd/quantile"
)

var (
	ErrNotSerializable = errors.New("fitted mappers are not CDF mappers and cannot be serialized")
	ErrKindMismatch    = errors.New("model state kind does not match model")
	ErrNoModelState    = errors.New("no model state")
)

const (
	KindPrecipitation = "precipitation"
	KindTemperature   = "temperature"
)

// ModelState is a serializeable representation of a fitted model holding the
// learned climatologies and the per-group reference samples backing each
// quantile mapper. It can be used to initialize a new model for immediate
// predictions skipping the training step. The grouper is a function and is
// not serialized; the caller supplies it again through Options on restore.
type ModelState struct {
	Kind            string            `json:"kind"`
	XClimatology    Climatology       `json:"x_climatology,omitempty"`
	YClimatology    Climatology       `json:"y_climatology"`
	MapperRefs      map[int][]float64 `json:"mapper_refs"`
	QuantileOptions *quantile.Options `json:"quantile_options,omitempty"`
}

func (b *base) mapperRefs() (map[int][]float64, error) {
	refs := make(map[int][]float64, len(b.mappers))
	for key, m := range b.mappers {
		cdf, ok := m.(*quantile.CDFMapper)
		if !ok {
			return nil, fmt.Errorf("period key %d, %w", key, ErrNotSerializable)
		}
		refs[key] = cdf.RefSorted()
	}
	return refs, nil
}

func (b *base) restoreMappers(refs map[int][]float64, opt *quantile.Options) error {
	mappers := make(map[int]quantile.Mapper, len(refs))
	for key, ref := range refs {
		m, err := quantile.NewCDFMapperFromRef(opt, ref)
		if err != nil {
			return fmt.Errorf("period key %d, %w", key, err)
		}
		mappers[key] = m
	}
	b.mappers = mappers
	return nil
}

// State returns the serializeable state of a fitted precipitation model.
func (p *Precipitation) State() (*ModelState, error) {
	if p.mappers == nil || p.yClimo == nil {
		return nil, ErrNotFit
	}
	refs, err := p.mapperRefs()
	if err != nil {
		return nil, err
	}
	return &ModelState{
		Kind:            KindPrecipitation,
		YClimatology:    p.yClimo,
		MapperRefs:      refs,
		QuantileOptions: p.opt.QuantileOptions,
	}, nil
}

// NewPrecipitationFromState creates a fitted precipitation model from a
// previously serialized state. The options provide the grouper which must
// match the one used at fit time.
func NewPrecipitationFromState(state *ModelState, opt *Options) (*Precipitation, error) {
	if state == nil {
		return nil, ErrNoModelState
	}
	if state.Kind != KindPrecipitation {
		return nil, fmt.Errorf("got %q, %w", state.Kind, ErrKindMismatch)
	}

	vopt := opt.Validate()
	vopt.QuantileOptions = state.QuantileOptions

	p := &Precipitation{
		base:   base{opt: vopt},
		yClimo: state.YClimatology,
	}
	if err := p.restoreMappers(state.MapperRefs, state.QuantileOptions); err != nil {
		return nil, err
	}
	return p, nil
}

// State returns the serializeable state of a fitted temperature model.
func (t *Temperature) State() (*ModelState, error) {
	if t.mappers == nil || t.xClimo == nil || t.yClimo == nil {
		return nil, ErrNotFit
	}
	refs, err := t.mapperRefs()
	if err != nil {
		return nil, err
	}
	return &ModelState{
		Kind:            KindTemperature,
		XClimatology:    t.xClimo,
		YClimatology:    t.yClimo,
		MapperRefs:      refs,
		QuantileOptions: t.opt.QuantileOptions,
	}, nil
}

// NewTemperatureFromState creates a fitted temperature model from a
// previously serialized state. The options provide the grouper which must
// match the one used at fit time.
func NewTemperatureFromState(state *ModelState, opt *Options) (*Temperature, error) {
	if state == nil {
		return nil, ErrNoModelState
	}
	if state.Kind != KindTemperature {
		return nil, fmt.Errorf("got %q, %w", state.Kind, ErrKindMismatch)
	}

	vopt := opt.Validate()
	vopt.QuantileOptions = state.QuantileOptions

	t := &Temperature{
		base:   base{opt: vopt},
		xClimo: state.XClimatology,
		yClimo: state.YClimatology,
	}
	if err := t.restoreMappers(state.MapperRefs, state.QuantileOptions); err != nil {
		return nil, err
	}
	return t, nil
}
