package bcsd

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-bcsd/timeseries"
)

func ExamplePrecipitation() {
	start := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

	months := 120
	tSlice := make([]time.Time, 0, months)
	obs := make([]float64, 0, months)
	for i := 0; i < months; i++ {
		ts := start.AddDate(0, i, 0)
		tSlice = append(tSlice, ts)
		obs = append(obs, 50+10*float64(ts.Month()))
	}
	y, err := timeseries.New(tSlice, obs)
	if err != nil {
		panic(err)
	}

	p, err := NewPrecipitation(nil)
	if err != nil {
		panic(err)
	}
	if err := p.Fit(nil, y); err != nil {
		panic(err)
	}

	// model output for a single February runs twice the observed mean; the
	// quantile map pulls it onto the observed February distribution and the
	// result comes back as a ratio of the observed mean
	febT := []time.Time{time.Date(2005, 2, 15, 0, 0, 0, 0, time.UTC)}
	x, err := timeseries.New(febT, []float64{140})
	if err != nil {
		panic(err)
	}

	res, err := p.Predict(x)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.2f\n", res.Y[0])
	// Output: 1.00
}
