// Package panel assembles what the sidebar shows for the current selection:
// loading and error states, the narrative, averages, hourly rows and chart
// axes.
package panel

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cor0nius/meteomap/internal/forecast"
	"github.com/cor0nius/meteomap/internal/forecastclient"
	"github.com/cor0nius/meteomap/internal/report"
	"github.com/cor0nius/meteomap/internal/selection"
)

// ErrNotReady is returned for chart and report requests when there is no
// successful forecast to render.
var ErrNotReady = errors.New("no forecast loaded")

// Status is the panel's display mode.
type Status string

const (
	StatusClosed  Status = "closed"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type SelectionView struct {
	Lat       string `json:"lat"`
	Lng       string `json:"lng"`
	Date      string `json:"date"`
	PlaceName string `json:"placeName,omitempty"`
}

type HourView struct {
	forecast.Row
	Icon string `json:"icon"`
}

type ChartView struct {
	TemperatureDomain forecast.Domain `json:"temperatureDomain"`
	SecondaryDomain   forecast.Domain `json:"secondaryDomain"`
}

type ErrorView struct {
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

// View is the JSON document the sidebar renders.
type View struct {
	Status    Status                     `json:"status"`
	Loading   bool                       `json:"loading"`
	Selection *SelectionView             `json:"selection,omitempty"`
	DateLabel string                     `json:"dateLabel,omitempty"`
	Narrative string                     `json:"narrative,omitempty"`
	Metrics   []Metric                   `json:"metrics,omitempty"`
	TempMin   *float64                   `json:"tempMin,omitempty"`
	TempMax   *float64                   `json:"tempMax,omitempty"`
	Hours     []HourView                 `json:"hours,omitempty"`
	Chart     *ChartView                 `json:"chart,omitempty"`
	Error     *ErrorView                 `json:"error,omitempty"`
	Source    *forecastclient.SourceMeta `json:"source,omitempty"`
}

// Panel keeps the selection being displayed and reads results from the
// forecast client.
type Panel struct {
	client *forecastclient.Client

	mu  sync.Mutex
	sel *selection.Selection
}

func New(client *forecastclient.Client) *Panel {
	return &Panel{client: client}
}

// Show retains sel and starts fetching its forecast. It is meant to be
// registered with selection.Controller.OnFinalize.
func (p *Panel) Show(sel selection.Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel = &sel
	p.client.Submit(sel)
}

// Close forgets the selection and the forecast outcome.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel = nil
	p.client.Reset()
}

// Selection returns the selection being displayed, if any.
func (p *Panel) Selection() (selection.Selection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sel == nil {
		return selection.Selection{}, false
	}
	return *p.sel, true
}

// Retry re-submits the selection after a failure.
func (p *Panel) Retry() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client.Retry()
}

// snapshot reads the displayed selection and the client outcome together.
// Selection changes go through p.mu, so the two cannot drift between reads.
func (p *Panel) snapshot() (*selection.Selection, forecastclient.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel, p.client.Outcome()
}

// owns reports whether out was produced for sel.
func owns(sel *selection.Selection, out forecastclient.Outcome) bool {
	return sel != nil && out.Selection != nil && out.Selection.Same(*sel)
}

// View renders the current state. A client left Idle shows as closed; an
// outcome that belongs to another selection shows as loading.
func (p *Panel) View() View {
	sel, out := p.snapshot()
	if sel == nil || out.State == forecastclient.Idle {
		return View{Status: StatusClosed}
	}

	v := View{Selection: selectionView(*sel)}
	if !owns(sel, out) {
		v.Status = StatusLoading
		v.Loading = true
		return v
	}

	switch out.State {
	case forecastclient.Success:
		v.Status = StatusSuccess
		v.DateLabel = forecast.BuildDateLabel(out.Rows)
		v.Narrative = Narrative(out.Summary)
		v.Metrics = Metrics(out.Summary)
		v.TempMin, v.TempMax = forecast.TemperatureRange(out.Rows)
		v.Hours = hourViews(out.Rows)
		v.Chart = &ChartView{
			TemperatureDomain: forecast.TemperatureDomain(out.Rows),
			SecondaryDomain:   forecast.SecondaryDomain(out.Rows),
		}
		v.Source = out.Meta
	case forecastclient.Failure:
		v.Status = StatusFailure
		v.Error = &ErrorView{
			Message:   UserMessage(out.Err),
			Kind:      string(forecastclient.KindOf(out.Err)),
			Retryable: true,
		}
	default:
		v.Status = StatusLoading
		v.Loading = true
	}
	return v
}

// Document returns the report contents for the loaded forecast.
func (p *Panel) Document() (report.Document, error) {
	sel, out := p.snapshot()
	if !owns(sel, out) || out.State != forecastclient.Success {
		return report.Document{}, ErrNotReady
	}
	metrics := Metrics(out.Summary)
	lines := make([]report.Metric, len(metrics))
	for i, m := range metrics {
		lines[i] = report.Metric{Label: m.Label, Value: m.Value + " " + m.Unit}
	}
	return report.Document{
		Selection: *sel,
		DateLabel: forecast.BuildDateLabel(out.Rows),
		Narrative: Narrative(out.Summary),
		Metrics:   lines,
		Rows:      out.Rows,
	}, nil
}

// ChartPNG writes the chart of the loaded forecast as a PNG image.
func (p *Panel) ChartPNG(w io.Writer) error {
	sel, out := p.snapshot()
	if !owns(sel, out) || out.State != forecastclient.Success {
		return ErrNotReady
	}
	return report.RenderChart(w, out.Rows)
}

// UserMessage turns a fetch error into the text shown in the error panel.
func UserMessage(err error) string {
	var httpErr *forecastclient.HTTPError
	switch forecastclient.KindOf(err) {
	case forecastclient.KindHTTP:
		if errors.As(err, &httpErr) {
			return fmt.Sprintf("Falha ao obter previsão (%d)", httpErr.StatusCode)
		}
	case forecastclient.KindBadContentType, forecastclient.KindMalformedJSON:
		return "A resposta não está no formato JSON esperado."
	case forecastclient.KindNetwork:
		return "Erro de conexão com o serviço de previsão."
	}
	return "Erro desconhecido"
}

func selectionView(sel selection.Selection) *SelectionView {
	return &SelectionView{
		Lat:       fmt.Sprintf("%.3f", sel.Coords.Lat),
		Lng:       fmt.Sprintf("%.3f", sel.Coords.Lng),
		Date:      sel.Date.String(),
		PlaceName: sel.PlaceName,
	}
}

func hourViews(rows []forecast.Row) []HourView {
	hours := make([]HourView, len(rows))
	for i, r := range rows {
		hours[i] = HourView{Row: r, Icon: Icon(r.Condition)}
	}
	return hours
}
