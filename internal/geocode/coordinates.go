package geocode

import (
	"fmt"
	"regexp"
	"strconv"
)

var coordinatePattern = regexp.MustCompile(`^\s*(-?\d+\.?\d*)\s*,\s*(-?\d+\.?\d*)\s*$`)

// ParseCoordinates recognizes "lat, lng" literals such as "38.7223, -9.1393".
// Values outside the valid ranges are not treated as coordinates.
func ParseCoordinates(q string) (Place, bool) {
	m := coordinatePattern.FindStringSubmatch(q)
	if m == nil {
		return Place{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil || lat < -90 || lat > 90 {
		return Place{}, false
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil || lng < -180 || lng > 180 {
		return Place{}, false
	}
	return Place{Name: coordinateName(lat, lng), Lat: lat, Lng: lng}, true
}

func coordinateName(lat, lng float64) string {
	return fmt.Sprintf("Coordenadas: %.4f, %.4f", lat, lng)
}
