package forecast

import (
	"encoding/json"
	"fmt"
	"math"
)

// Entries extracts the raw hourly entries from a payload. Objects contribute
// their "previsoes" array, bare arrays are used as-is, and anything else
// yields no entries. Elements that are not objects are skipped.
func Entries(p Payload) []Entry {
	var raw []any
	switch t := p.(type) {
	case map[string]any:
		raw, _ = t[entriesKey].([]any)
	case []any:
		raw = t
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		if e, ok := item.(map[string]any); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// DeriveRows normalizes a payload into canonical rows, preserving input order.
// Entries without a finite temperature are dropped.
func DeriveRows(p Payload) []Row {
	entries := Entries(p)
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		row, ok := deriveRow(e, i)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func deriveRow(e Entry, i int) (Row, bool) {
	rawTemp, ok := firstPresent(e, temperatureKeys)
	if !ok {
		return Row{}, false
	}
	temperature := ToNumber(rawTemp, math.NaN())
	if !isFinite(temperature) {
		return Row{}, false
	}

	feelsLike := temperature
	if v, ok := firstPresent(e, feelsLikeKeys); ok {
		feelsLike = ToNumber(v, temperature)
	}
	var precipitation, wind float64
	if v, ok := firstPresent(e, precipitationKeys); ok {
		precipitation = ToNumber(v, 0)
	}
	if v, ok := firstPresent(e, windKeys); ok {
		wind = ToNumber(v, 0)
	}

	label := FormatHourLabel(e, i)
	hour := ExtractHour(e, i)

	row := Row{
		ID:            fmt.Sprintf("%s-%d", label, i),
		HourLabel:     label,
		Hour:          hour,
		Temperature:   temperature,
		FeelsLike:     feelsLike,
		Precipitation: precipitation,
		Wind:          wind,
		Timestamp:     timestampString(e["timestamp"]),
	}
	if row.Timestamp != nil {
		row.ID = *row.Timestamp
	}

	if c, ok := e["condition"].(string); ok && Condition(c).Valid() {
		row.Condition = Condition(c)
	} else {
		row.Condition = InferCondition(ConditionInput{
			Temperature:   temperature,
			Precipitation: precipitation,
			Wind:          wind,
			Hour:          hour,
		})
	}
	return row, true
}

func timestampString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		s = t
	case json.Number:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return &s
}
