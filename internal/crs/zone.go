package crs

import (
	"fmt"
	"math"
)

const (
	// WGS84 is the EPSG code of the geographic WGS84 reference system
	WGS84 = 4326

	utmNorthBase = 32600
	utmSouthBase = 32700
	utmZones     = 60
)

// Point is a coordinate pair in (x, y) axis order: (lon, lat) for WGS84,
// (easting, northing) for UTM.
type Point struct {
	X float64
	Y float64
}

// UTMZone returns the UTM zone number in [1, 60] containing the given longitude.
// Longitude 180 wraps onto zone 1.
func UTMZone(lon float64) (int, error) {
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return 0, fmt.Errorf("%w: %g is outside [-180, 180]", ErrInvalidLongitude, lon)
	}
	return int(math.Floor((lon+180)/6))%utmZones + 1, nil
}

// EPSGCode returns the WGS84 / UTM EPSG code for the zone: 326zz for the
// northern hemisphere ("N"), 327zz for anything else.
func EPSGCode(zone int, hemisphere string) int {
	if hemisphere == "N" {
		return utmNorthBase + zone
	}
	return utmSouthBase + zone
}

// ParseEPSG splits a WGS84 / UTM EPSG code into its zone and hemisphere.
func ParseEPSG(code int) (zone int, north bool, err error) {
	switch {
	case code > utmNorthBase && code <= utmNorthBase+utmZones:
		return code - utmNorthBase, true, nil
	case code > utmSouthBase && code <= utmSouthBase+utmZones:
		return code - utmSouthBase, false, nil
	default:
		return 0, false, fmt.Errorf("%w: unsupported EPSG code %d", ErrTransform, code)
	}
}

// centralMeridian returns the central meridian of the zone in degrees
func centralMeridian(zone int) float64 {
	return float64(zone-1)*6 - 180 + 3
}
