package forecast

import "math"

// DeriveSummary returns the server supplied "medias" block when present,
// coercing each field on its own. Otherwise it averages the rows. With no
// rows and no server block every field is nil.
func DeriveSummary(p Payload, rows []Row) Summary {
	if obj, ok := p.(map[string]any); ok {
		if m, ok := obj[summaryKey].(map[string]any); ok {
			return Summary{
				Temp: optionalNumber(m, "temp"),
				Prec: optionalNumber(m, "prec"),
				Wind: optionalNumber(m, "vento"),
			}
		}
	}

	if len(rows) == 0 {
		return Summary{}
	}

	var temp, prec, wind float64
	for _, r := range rows {
		temp += r.Temperature
		prec += r.Precipitation
		wind += r.Wind
	}
	n := float64(len(rows))
	return Summary{
		Temp: ptr(temp / n),
		Prec: ptr(prec / n),
		Wind: ptr(wind / n),
	}
}

func optionalNumber(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f := ToNumber(v, math.NaN())
	if !isFinite(f) {
		return nil
	}
	return &f
}

func ptr(f float64) *float64 {
	return &f
}

// TemperatureRange returns the lowest and highest row temperature, or nil
// when there are no rows.
func TemperatureRange(rows []Row) (lo, hi *float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	minT, maxT := rows[0].Temperature, rows[0].Temperature
	for _, r := range rows[1:] {
		minT = math.Min(minT, r.Temperature)
		maxT = math.Max(maxT, r.Temperature)
	}
	return &minT, &maxT
}

// Inputs is the request echo some API versions include in the response.
type Inputs struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// ExtractInputs reads the optional "inputs" block of a payload.
func ExtractInputs(p Payload) (Inputs, bool) {
	obj, ok := p.(map[string]any)
	if !ok {
		return Inputs{}, false
	}
	m, ok := obj[inputsKey].(map[string]any)
	if !ok {
		return Inputs{}, false
	}
	return Inputs{
		Lat: optionalNumber(m, "lat"),
		Lon: optionalNumber(m, "lon"),
	}, true
}
