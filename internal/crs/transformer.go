package crs

import (
	"fmt"
	"math"
)

// ProjectToLocal projects a WGS84 point (lon, lat) into the UTM grid of the
// given EPSG code, returning (easting, northing).
func ProjectToLocal(p Point, epsg int) (Point, error) {
	zone, north, err := ParseEPSG(epsg)
	if err != nil {
		return Point{}, err
	}

	if !finite(p.X) || !finite(p.Y) || p.Y < -90 || p.Y > 90 {
		return Point{}, fmt.Errorf("%w: invalid geographic point (%g, %g)", ErrTransform, p.X, p.Y)
	}

	dLon := normalizeLongitude(p.X - centralMeridian(zone))
	if math.Abs(dLon) >= 90 {
		return Point{}, fmt.Errorf("%w: longitude %g is too far from zone %d", ErrTransform, p.X, zone)
	}

	x, y := tm.forward(radians(p.Y), radians(dLon))

	out := Point{
		X: scaleFactor*x + falseEasting,
		Y: scaleFactor * y,
	}
	if !north {
		out.Y += falseNorthing
	}

	if !finite(out.X) || !finite(out.Y) {
		return Point{}, fmt.Errorf("%w: projection of (%g, %g) into EPSG:%d is not finite", ErrTransform, p.X, p.Y, epsg)
	}
	return out, nil
}

// ProjectToWGS84 maps a UTM point (easting, northing) of the given EPSG code
// back to WGS84 (lon, lat).
func ProjectToWGS84(p Point, epsg int) (Point, error) {
	zone, north, err := ParseEPSG(epsg)
	if err != nil {
		return Point{}, err
	}

	if !finite(p.X) || !finite(p.Y) {
		return Point{}, fmt.Errorf("%w: invalid grid point (%g, %g)", ErrTransform, p.X, p.Y)
	}

	x := (p.X - falseEasting) / scaleFactor
	y := p.Y
	if !north {
		y -= falseNorthing
	}
	y /= scaleFactor

	phi, lambda, err := tm.inverse(x, y)
	if err != nil {
		return Point{}, fmt.Errorf("inverting EPSG:%d point (%g, %g): %w", epsg, p.X, p.Y, err)
	}

	out := Point{
		X: normalizeLongitude(centralMeridian(zone) + degrees(lambda)),
		Y: degrees(phi),
	}
	if !finite(out.X) || !finite(out.Y) {
		return Point{}, fmt.Errorf("%w: inverse projection of (%g, %g) from EPSG:%d is not finite", ErrTransform, p.X, p.Y, epsg)
	}
	return out, nil
}

// Translate projects the drone position into the grid of epsg, applies the
// (dx, dy) offset in meters and maps the result back to WGS84.
func Translate(drone Point, epsg int, dx, dy float64) (Point, error) {
	local, err := ProjectToLocal(drone, epsg)
	if err != nil {
		return Point{}, fmt.Errorf("projecting drone position: %w", err)
	}

	local.X += dx
	local.Y += dy

	target, err := ProjectToWGS84(local, epsg)
	if err != nil {
		return Point{}, fmt.Errorf("projecting target position: %w", err)
	}
	return target, nil
}

// normalizeLongitude wraps a longitude difference into [-180, 180)
func normalizeLongitude(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
