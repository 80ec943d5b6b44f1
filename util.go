package bcsd

import (
	"math"
	"os"
	"time"

	"github.com/aouyang1/go-bcsd/timeseries"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineTSeries generates an echart multi-line chart for some arbitrary
// time/value combination. The input y is a slice of series that must have
// the same length as the input time slice. Timestamps whose first series
// value is NaN are dropped from the x-axis.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))

	filteredT := make([]time.Time, 0, len(t))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]); j++ {
			if math.IsNaN(y[i][j]) {
				continue
			}
			if i == 0 {
				filteredT = append(filteredT, t[j])
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: y[i][j]})
		}
	}

	line = line.SetXAxis(filteredT)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}

	return line
}

// LineCorrection generates an echart line chart plotting the raw input
// series against its bias corrected counterpart.
func LineCorrection(raw, corrected *timeseries.Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Bias Correction",
			},
		),
	)

	lineDataRaw := make([]opts.LineData, 0, raw.Len())
	lineDataCorrected := make([]opts.LineData, 0, corrected.Len())

	for i := 0; i < corrected.Len(); i++ {
		lineDataRaw = append(lineDataRaw, opts.LineData{Value: raw.Y[i]})
		lineDataCorrected = append(lineDataCorrected, opts.LineData{Value: corrected.Y[i]})
	}

	line.SetXAxis(corrected.T).
		AddSeries("Raw", lineDataRaw).
		AddSeries("Corrected", lineDataCorrected)
	return line
}

// PlotCorrection renders an html file showing the raw input series, the
// corrected result of running it through a fitted model, and the correction
// delta applied at each timestamp.
func PlotCorrection(path string, m Model, x *timeseries.Series) error {
	corrected, err := m.Predict(x)
	if err != nil {
		return err
	}

	delta := make([]float64, corrected.Len())
	for i := 0; i < corrected.Len(); i++ {
		delta[i] = corrected.Y[i] - x.Y[i]
	}

	page := components.NewPage()
	page.AddCharts(
		LineCorrection(x, corrected),
		LineTSeries(
			"Correction Delta",
			[]string{"Delta"},
			corrected.T,
			[][]float64{delta},
		),
	)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(file)
}
