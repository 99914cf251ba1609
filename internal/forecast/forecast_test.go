package forecast

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) Payload {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var p Payload
	require.NoError(t, dec.Decode(&p))
	return p
}

func TestToNumber(t *testing.T) {
	testCases := []struct {
		name     string
		value    any
		fallback float64
		want     float64
	}{
		{"float", 3.5, 0, 3.5},
		{"json number", json.Number("2.5"), 0, 2.5},
		{"numeric string", " 4 ", 0, 4},
		{"empty string is zero", "", 7, 0},
		{"garbage string", "abc", 7, 7},
		{"nil", nil, 9, 9},
		{"true", true, 0, 1},
		{"false", false, 5, 0},
		{"NaN", math.NaN(), -1, -1},
		{"infinity", math.Inf(1), -1, -1},
		{"object", map[string]any{"a": 1}, 2, 2},
		{"int", 12, 0, 12},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToNumber(tc.value, tc.fallback))
		})
	}
}

func TestExtractHour(t *testing.T) {
	testCases := []struct {
		name  string
		entry Entry
		index int
		want  int
	}{
		{"hora", Entry{"hora": json.Number("5")}, 0, 5},
		{"hour", Entry{"hour": json.Number("14")}, 0, 14},
		{"hora wraps", Entry{"hora": json.Number("26")}, 0, 2},
		{"null hora falls through to hour", Entry{"hora": nil, "hour": json.Number("7")}, 0, 7},
		{"string hora ignored", Entry{"hora": "5"}, 3, 6},
		{"string hora does not hide numeric hour", Entry{"hora": "05", "hour": json.Number("7"), "temp": 20}, 3, 7},
		{"hora wins over timestamp", Entry{"hora": json.Number("3"), "timestamp": "2025-10-05T15:00:00Z"}, 0, 3},
		{"timestamp UTC", Entry{"timestamp": "2025-10-05T15:00:00Z"}, 0, 15},
		{"timestamp with offset", Entry{"timestamp": "2025-10-05T15:00:00-03:00"}, 0, 18},
		{"epoch millis", Entry{"timestamp": json.Number("1759676400000")}, 0, 15},
		{"bad timestamp uses index", Entry{"timestamp": "garbage"}, 13, 2},
		{"empty entry", Entry{}, 4, 8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractHour(tc.entry, tc.index)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 23)
		})
	}
}

func TestFormatHourLabel(t *testing.T) {
	testCases := []struct {
		name  string
		entry Entry
		index int
		want  string
	}{
		{"numeric hora", Entry{"hora": json.Number("5")}, 0, "05:00"},
		{"time string", Entry{"time": "13:30"}, 0, "13:30"},
		{"hora beats time", Entry{"hora": json.Number("9"), "time": "13:30"}, 0, "09:00"},
		{"string hora with numeric hour", Entry{"hora": "05", "hour": json.Number("7")}, 3, "07:00"},
		{"timestamp", Entry{"timestamp": "2025-10-05T09:45:00Z"}, 0, "09:45"},
		{"index fallback", Entry{}, 4, "08:00"},
		{"index fallback wraps", Entry{}, 13, "02:00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatHourLabel(tc.entry, tc.index))
		})
	}
}

func TestInferCondition(t *testing.T) {
	nan := math.NaN()
	testCases := []struct {
		name string
		in   ConditionInput
		want Condition
	}{
		{"rain beats snow", ConditionInput{Temperature: -5, Precipitation: 1, Hour: 12}, Rain},
		{"snow", ConditionInput{Temperature: 0, Hour: 12}, Snow},
		{"light precipitation day", ConditionInput{Temperature: 20, Precipitation: 0.3, Hour: 12}, PartlyCloudyDay},
		{"light precipitation night", ConditionInput{Temperature: 20, Precipitation: 0.3, Hour: 20}, PartlyCloudyNight},
		{"wind", ConditionInput{Temperature: 20, Wind: 6, Hour: 5}, PartlyCloudyNight},
		{"hot day", ConditionInput{Temperature: 30, Hour: 12}, ClearDay},
		{"hot night", ConditionInput{Temperature: 31, Hour: 23}, ClearNight},
		{"warm evening", ConditionInput{Temperature: 25, Hour: 19}, PartlyCloudyNight},
		{"cool day", ConditionInput{Temperature: 10, Hour: 12}, Cloudy},
		{"mild day", ConditionInput{Temperature: 20, Hour: 12}, Cloudy},
		{"mild night", ConditionInput{Temperature: 20, Hour: 2}, ClearNight},
		{"six is day", ConditionInput{Temperature: 30, Hour: 6}, ClearDay},
		{"eighteen is night", ConditionInput{Temperature: 30, Hour: 18}, ClearNight},
		{"non-finite readings", ConditionInput{Temperature: nan, Precipitation: nan, Wind: nan, Hour: 12}, Cloudy},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferCondition(tc.in))
			assert.Equal(t, InferCondition(tc.in), InferCondition(tc.in))
		})
	}
}

func TestDeriveRows(t *testing.T) {
	payload := decode(t, `{"previsoes": [
		{"temp": 20, "prec": 1, "vento": 10, "hora": 5},
		{"prec": 2},
		{"temperature": "abc"},
		{"tempC": 30, "sensacaoTermica": 33, "rain": "x", "windSpeed": null, "gustSpeed": 4,
		 "timestamp": "2025-10-05T12:00:00Z", "condition": "sleet"},
		{"temp": "18.5", "feelsLike": "n/a", "condition": "tornado", "hora": 13},
		"not an entry"
	]}`)

	rows := DeriveRows(payload)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{
		ID:            "05:00-0",
		HourLabel:     "05:00",
		Hour:          5,
		Temperature:   20,
		FeelsLike:     20,
		Precipitation: 1,
		Wind:          10,
		Condition:     Rain,
	}, rows[0])

	ts := "2025-10-05T12:00:00Z"
	assert.Equal(t, Row{
		ID:            ts,
		HourLabel:     "12:00",
		Hour:          12,
		Temperature:   30,
		FeelsLike:     33,
		Precipitation: 0,
		Wind:          4,
		Timestamp:     &ts,
		Condition:     Sleet,
	}, rows[1])

	assert.Equal(t, "13:00-4", rows[2].ID)
	assert.Equal(t, 18.5, rows[2].Temperature)
	assert.Equal(t, 18.5, rows[2].FeelsLike)
	assert.Equal(t, Cloudy, rows[2].Condition)

	for _, r := range rows {
		assert.False(t, math.IsNaN(r.Temperature))
		assert.True(t, isFinite(r.FeelsLike))
		assert.True(t, isFinite(r.Precipitation))
		assert.True(t, isFinite(r.Wind))
	}
}

func TestDeriveRowsShapes(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"temp": 1}, {"temp": 2}]`, 2},
		{"object without previsoes", `{"medias": {"temp": 3}}`, 0},
		{"previsoes not an array", `{"previsoes": {"temp": 3}}`, 0},
		{"scalar", `42`, 0},
		{"null", `null`, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, DeriveRows(decode(t, tc.body)), tc.want)
		})
	}
}

func TestDeriveSummary(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		wantTemp *float64
		wantPrec *float64
		wantWind *float64
	}{
		{
			name:     "server block wins",
			body:     `{"medias":{"temp":20,"prec":1,"vento":10},"previsoes":[{"temp":20,"prec":1,"vento":10,"hora":5}]}`,
			wantTemp: ptr(20), wantPrec: ptr(1), wantWind: ptr(10),
		},
		{
			name:     "server block beats different mean",
			body:     `{"medias":{"temp":22.3,"prec":0,"vento":5},"previsoes":[{"temp":10},{"temp":12}]}`,
			wantTemp: ptr(22.3), wantPrec: ptr(0), wantWind: ptr(5),
		},
		{
			name:     "partial server block",
			body:     `{"medias":{"temp":"17","prec":"abc","vento":null}}`,
			wantTemp: ptr(17),
		},
		{
			name:     "mean of rows",
			body:     `{"previsoes":[{"temp":10,"prec":1,"vento":4},{"temp":20,"prec":3,"vento":8}]}`,
			wantTemp: ptr(15), wantPrec: ptr(2), wantWind: ptr(6),
		},
		{
			name:     "null server block falls back to mean",
			body:     `{"medias":null,"previsoes":[{"temp":4}]}`,
			wantTemp: ptr(4), wantPrec: ptr(0), wantWind: ptr(0),
		},
		{
			name: "nothing",
			body: `{"previsoes":[]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := decode(t, tc.body)
			got := DeriveSummary(p, DeriveRows(p))
			assert.Equal(t, tc.wantTemp, got.Temp)
			assert.Equal(t, tc.wantPrec, got.Prec)
			assert.Equal(t, tc.wantWind, got.Wind)
		})
	}
}

func TestBuildDateLabel(t *testing.T) {
	ts := "2025-10-05T12:00:00Z"
	bad := "yesterday"
	testCases := []struct {
		name string
		rows []Row
		want string
	}{
		{"no rows", nil, NoDataLabel},
		{"no timestamps", []Row{{ID: "a"}, {ID: "b"}}, HourlyFallback},
		{"first timestamp used", []Row{{ID: "a"}, {ID: ts, Timestamp: &ts}}, "domingo, 5 de outubro"},
		{"unparseable timestamp", []Row{{ID: bad, Timestamp: &bad}}, HourlyFallback},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildDateLabel(tc.rows))
		})
	}
}

func TestComputeDomain(t *testing.T) {
	testCases := []struct {
		name    string
		values  []float64
		padding float64
		want    Domain
	}{
		{"empty", nil, 2, Domain{0, 1}},
		{"single value", []float64{5}, 2, Domain{3, 7}},
		{"equal values", []float64{1, 1}, 2, Domain{-1, 3}},
		{"equal fractional values", []float64{2.5}, 0, Domain{2, 3}},
		{"spread", []float64{1.5, 10.2}, 2, Domain{-1, 13}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeDomain(tc.values, tc.padding))
		})
	}
}

func TestSecondaryDomain(t *testing.T) {
	assert.Equal(t, Domain{0, 2}, SecondaryDomain(nil))
	assert.Equal(t, Domain{0, 11}, SecondaryDomain([]Row{
		{Precipitation: 3.2, Wind: 10},
		{Precipitation: 0.5, Wind: 2},
	}))
}

func TestTemperatureDomainIncludesFeelsLike(t *testing.T) {
	rows := []Row{{Temperature: 20, FeelsLike: 25}, {Temperature: 18, FeelsLike: 16}}
	assert.Equal(t, Domain{14, 27}, TemperatureDomain(rows))
}

func TestTemperatureRange(t *testing.T) {
	lo, hi := TemperatureRange(nil)
	assert.Nil(t, lo)
	assert.Nil(t, hi)

	lo, hi = TemperatureRange([]Row{{Temperature: 12}, {Temperature: -3}, {Temperature: 8}})
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, -3.0, *lo)
	assert.Equal(t, 12.0, *hi)
}

func TestExtractInputs(t *testing.T) {
	in, ok := ExtractInputs(decode(t, `{"inputs":{"lat":38.7,"lon":-9.1}}`))
	require.True(t, ok)
	assert.Equal(t, ptr(38.7), in.Lat)
	assert.Equal(t, ptr(-9.1), in.Lon)

	_, ok = ExtractInputs(decode(t, `[]`))
	assert.False(t, ok)
}
