package bcsd

import (
	"github.com/aouyang1/go-bcsd/grouper"
	"github.com/aouyang1/go-bcsd/quantile"
)

// Options configures a bias correction model. The grouper and quantile
// mapper configuration are fixed at construction; the quantile options are
// forwarded to every per-group mapper without being interpreted.
type Options struct {
	// Grouper derives the period key used to partition both the training
	// and prediction series.
	Grouper grouper.Grouper

	// QuantileOptions is passed through to NewMapper for every group.
	QuantileOptions *quantile.Options

	// NewMapper constructs one quantile mapper per period group.
	NewMapper func(*quantile.Options) quantile.Mapper

	// Parallel fits and transforms period groups concurrently. Groups are
	// independent so the output is identical either way.
	Parallel bool
}

// NewDefaultOptions returns a default set of model options grouping by
// calendar month with an empirical CDF quantile mapper.
func NewDefaultOptions() *Options {
	return &Options{
		Grouper:         grouper.Month,
		QuantileOptions: quantile.NewDefaultOptions(),
		NewMapper: func(opt *quantile.Options) quantile.Mapper {
			return quantile.NewCDFMapper(opt)
		},
		Parallel: false,
	}
}

// Validate fills any unset option with its default and returns the options
// to use.
func (o *Options) Validate() *Options {
	if o == nil {
		return NewDefaultOptions()
	}
	opt := *o
	if opt.Grouper == nil {
		opt.Grouper = grouper.Month
	}
	if opt.NewMapper == nil {
		opt.NewMapper = func(qopt *quantile.Options) quantile.Mapper {
			return quantile.NewCDFMapper(qopt)
		}
	}
	return &opt
}
