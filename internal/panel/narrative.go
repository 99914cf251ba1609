package panel

import (
	"fmt"
	"strings"

	"github.com/cor0nius/meteomap/internal/forecast"
)

// Narrative builds the one-paragraph weather description for a summary.
// Each known field contributes one sentence; unknown fields are skipped.
func Narrative(s forecast.Summary) string {
	var parts []string
	if s.Temp != nil {
		parts = append(parts, temperatureSentence(*s.Temp))
	}
	if s.Prec != nil {
		parts = append(parts, precipitationSentence(*s.Prec))
	}
	if s.Wind != nil {
		parts = append(parts, windSentence(*s.Wind))
	}
	return strings.Join(parts, " ")
}

func temperatureSentence(temp float64) string {
	switch {
	case temp >= 30:
		return "Está bem quente hoje! Lembre-se de se hidratar 💧."
	case temp >= 24:
		return "O clima está agradável, perfeito para um passeio ao ar livre ☀️."
	case temp >= 18:
		return "O tempo está fresco, ideal para uma caminhada leve 🌤️."
	case temp >= 12:
		return "Está um pouco frio, talvez uma blusa caia bem 🧥."
	default:
		return "Bastante frio hoje! Melhor ficar quentinho em casa ☕."
	}
}

func precipitationSentence(prec float64) string {
	switch {
	case prec > 5:
		return "A chuva será forte, leve guarda-chuva e evite sair se puder ☔."
	case prec > 1:
		return "Pode chover um pouco, talvez um guarda-chuva seja útil 🌧️."
	default:
		return "Sem chuva prevista, ótimo para atividades ao ar livre 🌞."
	}
}

func windSentence(wind float64) string {
	switch {
	case wind > 40:
		return "O vento estará forte, cuidado com objetos soltos 🌪️."
	case wind > 20:
		return "Haverá vento moderado, mas nada que atrapalhe o dia 🍃."
	default:
		return "O vento está calmo, um dia tranquilo para sair 🌿."
	}
}

// Metric is one labelled average shown under the narrative.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Metrics formats the summary averages with one decimal, or "--" when a
// value is unknown.
func Metrics(s forecast.Summary) []Metric {
	return []Metric{
		{Label: "Temperatura média", Value: formatValue(s.Temp), Unit: "°C"},
		{Label: "Precipitação média", Value: formatValue(s.Prec), Unit: "mm"},
		{Label: "Vento médio", Value: formatValue(s.Wind), Unit: "km/h"},
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.1f", *v)
}

var conditionIcons = map[forecast.Condition]string{
	forecast.ClearDay:          "☀️",
	forecast.ClearNight:        "🌙",
	forecast.PartlyCloudyDay:   "⛅",
	forecast.PartlyCloudyNight: "☁️🌙",
	forecast.Cloudy:            "☁️",
	forecast.Rain:              "🌧️",
	forecast.Snow:              "❄️",
	forecast.Sleet:             "🌨️",
}

// Icon returns the emoji for a condition, defaulting to a cloud.
func Icon(c forecast.Condition) string {
	if icon, ok := conditionIcons[c]; ok {
		return icon
	}
	return "☁️"
}
