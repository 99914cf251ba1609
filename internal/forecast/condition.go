package forecast

// Condition is the sky condition shown for an hourly row.
type Condition string

const (
	ClearDay          Condition = "clear-day"
	ClearNight        Condition = "clear-night"
	PartlyCloudyDay   Condition = "partly-cloudy-day"
	PartlyCloudyNight Condition = "partly-cloudy-night"
	Cloudy            Condition = "cloudy"
	Rain              Condition = "rain"
	Snow              Condition = "snow"
	Sleet             Condition = "sleet"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ClearDay, ClearNight, PartlyCloudyDay, PartlyCloudyNight, Cloudy, Rain, Snow, Sleet:
		return true
	}
	return false
}

// ConditionInput carries the readings InferCondition works from.
type ConditionInput struct {
	Temperature   float64
	Precipitation float64
	Wind          float64
	Hour          int
}

// InferCondition derives a condition from the readings of one hour. Rules are
// evaluated in order and the first match wins. Non-finite readings never
// satisfy a threshold.
func InferCondition(in ConditionInput) Condition {
	night := in.Hour < 6 || in.Hour >= 18
	pick := func(nightC, dayC Condition) Condition {
		if night {
			return nightC
		}
		return dayC
	}

	temp, prec, wind := in.Temperature, in.Precipitation, in.Wind
	switch {
	case isFinite(prec) && prec >= 1:
		return Rain
	case isFinite(temp) && temp <= 0:
		return Snow
	case isFinite(prec) && prec >= 0.3:
		return pick(PartlyCloudyNight, PartlyCloudyDay)
	case isFinite(wind) && wind >= 6:
		return pick(PartlyCloudyNight, PartlyCloudyDay)
	case isFinite(temp) && temp >= 30:
		return pick(ClearNight, ClearDay)
	case isFinite(temp) && temp >= 24:
		return pick(PartlyCloudyNight, PartlyCloudyDay)
	case isFinite(temp) && temp <= 16:
		return pick(ClearNight, Cloudy)
	default:
		return pick(ClearNight, Cloudy)
	}
}
