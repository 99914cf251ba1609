package forecast

import "math"

// DefaultPadding is the axis padding used for temperature charts.
const DefaultPadding = 2

// ComputeDomain returns a padded axis range for values, rounded outward to
// whole numbers. Empty input yields [0,1].
func ComputeDomain(values []float64, padding float64) Domain {
	if len(values) == 0 {
		return Domain{0, 1}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return Domain{math.Floor(lo - padding), math.Ceil(hi + padding)}
}

// TemperatureDomain covers both temperature and feels-like values.
func TemperatureDomain(rows []Row) Domain {
	values := make([]float64, 0, 2*len(rows))
	for _, r := range rows {
		values = append(values, r.Temperature)
	}
	for _, r := range rows {
		values = append(values, r.FeelsLike)
	}
	return ComputeDomain(values, DefaultPadding)
}

// SecondaryDomain is the shared precipitation and wind axis. It starts at
// zero and ends at least at 2.
func SecondaryDomain(rows []Row) Domain {
	peak := 1.0
	for _, r := range rows {
		peak = math.Max(peak, math.Max(r.Precipitation, r.Wind))
	}
	return Domain{0, math.Ceil(peak + 0.5)}
}
