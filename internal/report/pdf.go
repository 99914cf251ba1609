package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cor0nius/meteomap/internal/forecast"
	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/go-pdf/fpdf"
)

// Metric is a label and a formatted value for the summary table.
type Metric struct {
	Label string
	Value string
}

// Document is everything the PDF shows.
type Document struct {
	Selection selection.Selection
	DateLabel string
	Narrative string
	Metrics   []Metric
	Rows      []forecast.Row
}

// Exporter writes Documents as A4 PDFs.
type Exporter struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger, now: time.Now}
}

const chartImageName = "forecast-chart"

// Write renders doc to w. A chart that cannot be rendered is left out of
// the report.
func (e *Exporter) Write(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(latin(s)) }

	pdf.SetTitle(text("Previsão do tempo"), false)
	pdf.SetCreator("meteomap", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, text("Previsão do tempo"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	place := doc.Selection.Coords.String()
	if doc.Selection.PlaceName != "" {
		place = doc.Selection.PlaceName + " (" + place + ")"
	}
	pdf.CellFormat(0, 7, text("Local: "+place), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, text(fmt.Sprintf("Data: %s (%s)", doc.Selection.Date.String(), doc.DateLabel)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if doc.Narrative != "" {
		pdf.MultiCell(0, 6, text(doc.Narrative), "", "L", false)
		pdf.Ln(3)
	}

	if len(doc.Metrics) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		for _, m := range doc.Metrics {
			pdf.CellFormat(60, 8, text(m.Label), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 11)
		for _, m := range doc.Metrics {
			pdf.CellFormat(60, 8, text(m.Value), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(12)
	}

	e.addChart(pdf, doc.Rows)

	if len(doc.Rows) > 0 {
		e.addHourlyTable(pdf, doc.Rows, text)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 6, text("Gerado em "+e.now().UTC().Format("2006-01-02 15:04 UTC")), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func (e *Exporter) addChart(pdf *fpdf.Fpdf, rows []forecast.Row) {
	var buf bytes.Buffer
	if err := RenderChart(&buf, rows); err != nil {
		e.logger.Warn("omitting chart from report", "error", err)
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(chartImageName, opts, &buf)
	if !pdf.Ok() {
		e.logger.Warn("omitting chart from report", "error", pdf.Error())
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(chartImageName, pdf.GetX(), pdf.GetY(), 180, 0, true, opts, 0, "")
	pdf.Ln(4)
}

func (e *Exporter) addHourlyTable(pdf *fpdf.Fpdf, rows []forecast.Row, text func(string) string) {
	headers := []string{"Hora", "Temp. (°C)", "Sensação (°C)", "Precip. (mm)", "Vento (km/h)"}
	widths := []float64{30, 36, 38, 38, 38}

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, text(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		cells := []string{
			r.HourLabel,
			fmt.Sprintf("%.1f", r.Temperature),
			fmt.Sprintf("%.1f", r.FeelsLike),
			fmt.Sprintf("%.1f", r.Precipitation),
			fmt.Sprintf("%.1f", r.Wind),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, text(c), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// latin drops emoji and joiners, which the core PDF fonts cannot draw.
func latin(s string) string {
	s = strings.Map(func(r rune) rune {
		if r >= 0x2190 || r == 0x200D {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, " .", ".")
}
