// Package selection models the point and date a forecast is requested for,
// and the two-step confirmation flow that produces them.
package selection

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError reports input that cannot advance the selection flow. It
// is meant to be shown next to the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// controller's current state.
var ErrInvalidTransition = errors.New("operation not allowed in current selection state")

// Coordinates is a point on the map in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinates validates lat and lng ranges.
func NewCoordinates(lat, lng float64) (Coordinates, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinates{}, &ValidationError{Field: "lat", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Coordinates{}, &ValidationError{Field: "lng", Message: "must be between -180 and 180"}
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.3f, %.3f", c.Lat, c.Lng)
}

// DateKey is a calendar date as entered by the user. Values are not checked
// against the calendar, so 2025-02-31 is kept as-is.
type DateKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ParseDateKey parses "YYYY-MM-DD". Each of the three parts must be a
// non-empty integer.
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateKey{}, &ValidationError{Field: "date", Message: "a date is required"}
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return DateKey{}, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if p == "" || err != nil {
			return DateKey{}, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
		}
		nums[i] = n
	}
	return DateKey{Year: nums[0], Month: nums[1], Day: nums[2]}, nil
}

func (d DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Selection is a confirmed point and date. Two selections are the same
// request when their coordinates and date are equal; PlaceName is only a
// display hint.
type Selection struct {
	Coords    Coordinates `json:"coords"`
	Date      DateKey     `json:"date"`
	PlaceName string      `json:"placeName,omitempty"`
}

// Same reports whether s and other would produce the same forecast request.
func (s Selection) Same(other Selection) bool {
	return s.Coords == other.Coords && s.Date == other.Date
}
