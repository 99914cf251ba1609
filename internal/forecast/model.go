// Package forecast turns the loosely typed payloads returned by the forecast
// API into canonical hourly rows and summary statistics.
//
// Every function in this package is pure. Payloads are expected to be decoded
// with json.Decoder.UseNumber, but plain float64 values are accepted too.
package forecast

// Payload is a decoded forecast response body: either an object carrying
// "medias" and "previsoes", or a bare array of entries.
type Payload = any

// Entry is a single raw hourly record as received from the API.
type Entry = map[string]any

// Row is the canonical hourly forecast record.
type Row struct {
	ID            string    `json:"id"`
	HourLabel     string    `json:"hourLabel"`
	Hour          int       `json:"hour"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feelsLike"`
	Precipitation float64   `json:"precipitation"`
	Wind          float64   `json:"wind"`
	Timestamp     *string   `json:"timestamp"`
	Condition     Condition `json:"condition"`
}

// Summary holds the daily averages. A nil field means the value is unknown.
type Summary struct {
	Temp *float64 `json:"temp"`
	Prec *float64 `json:"prec"`
	Wind *float64 `json:"wind"`
}

// Empty reports whether no field of the summary is known.
func (s Summary) Empty() bool {
	return s.Temp == nil && s.Prec == nil && s.Wind == nil
}

// Domain is an inclusive [min, max] axis range.
type Domain [2]float64

// Key precedence lists, first present key wins.
var (
	temperatureKeys   = []string{"temp", "temperature", "tempC"}
	feelsLikeKeys     = []string{"feelsLike", "sensacaoTermica", "aparente"}
	precipitationKeys = []string{"prec", "precipitacao", "rain"}
	windKeys          = []string{"vento", "windSpeed", "gustSpeed"}
	hourKeys          = []string{"hora", "hour"}
)

const (
	entriesKey = "previsoes"
	summaryKey = "medias"
	inputsKey  = "inputs"
)
