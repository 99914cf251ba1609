package report

import (
	"bytes"
	"image/png"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cor0nius/meteomap/internal/forecast"
	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []forecast.Row {
	return []forecast.Row{
		{ID: "09:00-0", HourLabel: "09:00", Hour: 9, Temperature: 19, FeelsLike: 18, Precipitation: 0, Wind: 8, Condition: forecast.Cloudy},
		{ID: "12:00-1", HourLabel: "12:00", Hour: 12, Temperature: 24.5, FeelsLike: 26, Precipitation: 0.4, Wind: 12, Condition: forecast.PartlyCloudyDay},
		{ID: "15:00-2", HourLabel: "15:00", Hour: 15, Temperature: 22, FeelsLike: 22, Precipitation: 2.1, Wind: 15, Condition: forecast.Rain},
	}
}

func TestRenderChart(t *testing.T) {
	testCases := []struct {
		name      string
		rows      []forecast.Row
		expectErr error
	}{
		{name: "several rows", rows: sampleRows()},
		{name: "single row", rows: sampleRows()[:1]},
		{name: "single flat row", rows: []forecast.Row{{HourLabel: "05:00", Temperature: 20, FeelsLike: 20}}},
		{name: "no rows", rows: nil, expectErr: ErrNoRows},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := RenderChart(&buf, tc.rows)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, chartWidth, img.Bounds().Dx())
		})
	}
}

func TestExporterWrite(t *testing.T) {
	var logs bytes.Buffer
	exporter := NewExporter(slog.New(slog.NewTextHandler(&logs, nil)))
	exporter.now = func() time.Time { return time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC) }

	doc := Document{
		Selection: selection.Selection{
			Coords:    selection.Coordinates{Lat: 38.7223, Lng: -9.1393},
			Date:      selection.DateKey{Year: 2025, Month: 10, Day: 5},
			PlaceName: "Lisboa",
		},
		DateLabel: "domingo, 5 de outubro",
		Narrative: "Está bem quente hoje! Lembre-se de se hidratar 💧.",
		Metrics:   []Metric{{Label: "Temperatura média", Value: "22.3 °C"}},
	}

	testCases := []struct {
		name      string
		rows      []forecast.Row
		wantChart bool
	}{
		{name: "with chart", rows: sampleRows(), wantChart: true},
		{name: "single row keeps the chart", rows: sampleRows()[:1], wantChart: true},
		{name: "without rows the chart is omitted", rows: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logs.Reset()
			d := doc
			d.Rows = tc.rows
			var buf bytes.Buffer
			require.NoError(t, exporter.Write(&buf, d))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.Equal(t, tc.wantChart, bytes.Contains(buf.Bytes(), []byte("/Subtype /Image")))
			assert.Equal(t, !tc.wantChart, strings.Contains(logs.String(), "omitting chart from report"))
		})
	}
}

func TestLatin(t *testing.T) {
	assert.Equal(t, "Está bem quente hoje! Lembre-se de se hidratar.", latin("Está bem quente hoje! Lembre-se de se hidratar 💧."))
	assert.Equal(t, "Nublado", latin("☁️🌙 Nublado"))
}
