// Package report renders the forecast chart and the downloadable PDF report.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/cor0nius/meteomap/internal/forecast"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoRows is returned when there is nothing to plot.
var ErrNoRows = errors.New("no forecast rows to chart")

const (
	chartWidth  = 900
	chartHeight = 380
)

var (
	temperatureColor   = drawing.ColorFromHex("f97316")
	feelsLikeColor     = drawing.ColorFromHex("facc15")
	precipitationColor = drawing.ColorFromHex("38bdf8")
	windColor          = drawing.ColorFromHex("a78bfa")
)

// RenderChart draws temperature and feels-like on the primary axis and
// precipitation and wind on the secondary axis, as a PNG.
func RenderChart(w io.Writer, rows []forecast.Row) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	n := len(rows)
	xs := make([]float64, n)
	temps := make([]float64, n)
	feels := make([]float64, n)
	precs := make([]float64, n)
	winds := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i, r := range rows {
		xs[i] = float64(i)
		temps[i] = r.Temperature
		feels[i] = r.FeelsLike
		precs[i] = r.Precipitation
		winds[i] = r.Wind
		ticks[i] = chart.Tick{Value: float64(i), Label: r.HourLabel}
	}

	xRange := &chart.ContinuousRange{Min: 0, Max: float64(n - 1)}
	if n == 1 {
		// go-chart derives the x range from the ticks and rejects a zero
		// delta, so a single row is drawn across [-0.5, 0.5].
		xs = []float64{-0.5, 0.5}
		ticks = []chart.Tick{{Value: -0.5}, ticks[0], {Value: 0.5}}
		temps = append(temps, temps[0])
		feels = append(feels, feels[0])
		precs = append(precs, precs[0])
		winds = append(winds, winds[0])
		xRange = &chart.ContinuousRange{Min: -0.5, Max: 0.5}
	}

	tempDomain := forecast.TemperatureDomain(rows)
	secondary := forecast.SecondaryDomain(rows)

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: xRange,
		},
		YAxis: chart.YAxis{
			Name:  "°C",
			Range: &chart.ContinuousRange{Min: tempDomain[0], Max: tempDomain[1]},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "mm / km/h",
			Range: &chart.ContinuousRange{Min: secondary[0], Max: secondary[1]},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Temperatura",
				XValues: xs,
				YValues: temps,
				Style:   chart.Style{StrokeColor: temperatureColor, StrokeWidth: 3},
			},
			chart.ContinuousSeries{
				Name:    "Sensação",
				XValues: xs,
				YValues: feels,
				Style:   chart.Style{StrokeColor: feelsLikeColor, StrokeWidth: 2, StrokeDashArray: []float64{5, 5}},
			},
			chart.ContinuousSeries{
				Name:    "Precipitação",
				XValues: xs,
				YValues: precs,
				YAxis:   chart.YAxisSecondary,
				Style:   chart.Style{StrokeColor: precipitationColor, FillColor: precipitationColor.WithAlpha(64)},
			},
			chart.ContinuousSeries{
				Name:    "Vento",
				XValues: xs,
				YValues: winds,
				YAxis:   chart.YAxisSecondary,
				Style:   chart.Style{StrokeColor: windColor, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
