package crs

import (
	"fmt"
	"math"
)

// WGS84 ellipsoid and UTM grid constants
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563

	scaleFactor   = 0.9996
	falseEasting  = 500000.0
	falseNorthing = 10000000.0

	newtonTolerance = 1e-12
	newtonMaxIter   = 20
)

// transverseMercator holds the 6th-order Krüger series coefficients for the
// WGS84 ellipsoid
type transverseMercator struct {
	e     float64    // first eccentricity
	a     float64    // 2πA is the meridian circumference
	alpha [6]float64 // forward series
	beta  [6]float64 // inverse series
}

var tm = newTransverseMercator(semiMajorAxis, flattening)

func newTransverseMercator(a, f float64) transverseMercator {
	n := f / (2 - f)
	n2, n3 := n*n, n*n*n
	n4, n5, n6 := n3*n, n3*n2, n3*n3

	return transverseMercator{
		e: math.Sqrt(f * (2 - f)),
		a: a / (1 + n) * (1 + n2/4 + n4/64 + n6/256),
		alpha: [6]float64{
			n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180 - 127*n5/288 + 7891*n6/37800,
			13*n2/48 - 3*n3/5 + 557*n4/1440 + 281*n5/630 - 1983433*n6/1935360,
			61*n3/240 - 103*n4/140 + 15061*n5/26880 + 167603*n6/181440,
			49561*n4/161280 - 179*n5/168 + 6601661*n6/7257600,
			34729*n5/80640 - 3418889*n6/1995840,
			212378941 * n6 / 319334400,
		},
		beta: [6]float64{
			n/2 - 2*n2/3 + 37*n3/96 - n4/360 - 81*n5/512 + 96199*n6/604800,
			n2/48 + n3/15 - 437*n4/1440 + 46*n5/105 - 1118711*n6/3870720,
			17*n3/480 - 37*n4/840 - 209*n5/4480 + 5569*n6/90720,
			4397*n4/161280 - 11*n5/504 - 830251*n6/7257600,
			4583*n5/161280 - 108847*n6/3991680,
			20648693 * n6 / 638668800,
		},
	}
}

// conformal returns τ' for the geodetic τ = tan φ
func (t transverseMercator) conformal(tau float64) float64 {
	sigma := math.Sinh(t.e * math.Atanh(t.e*tau/math.Sqrt(1+tau*tau)))
	return tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
}

// forward projects geodetic latitude and longitude difference from the central
// meridian (radians) to unscaled grid coordinates (x, y) in meters
func (t transverseMercator) forward(phi, lambda float64) (x, y float64) {
	tauP := t.conformal(math.Tan(phi))
	sinL, cosL := math.Sincos(lambda)

	xiP := math.Atan2(tauP, cosL)
	etaP := math.Asinh(sinL / math.Sqrt(tauP*tauP+cosL*cosL))

	xi, eta := xiP, etaP
	for j, alpha := range t.alpha {
		k := 2 * float64(j+1)
		xi += alpha * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += alpha * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	return t.a * eta, t.a * xi
}

// inverse maps unscaled grid coordinates back to geodetic latitude and
// longitude difference from the central meridian (radians)
func (t transverseMercator) inverse(x, y float64) (phi, lambda float64, err error) {
	xi, eta := y/t.a, x/t.a

	xiP, etaP := xi, eta
	for j, beta := range t.beta {
		k := 2 * float64(j+1)
		xiP -= beta * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= beta * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	sinhEtaP := math.Sinh(etaP)
	sinXiP, cosXiP := math.Sincos(xiP)
	tauP := sinXiP / math.Sqrt(sinhEtaP*sinhEtaP+cosXiP*cosXiP)

	e2 := t.e * t.e
	tau := tauP
	for i := 0; ; i++ {
		if i == newtonMaxIter {
			return 0, 0, fmt.Errorf("%w: latitude iteration did not converge", ErrTransform)
		}

		tauI := t.conformal(tau)
		delta := (tauP - tauI) / math.Sqrt(1+tauI*tauI) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Sqrt(1+tau*tau))
		tau += delta
		if math.Abs(delta) < newtonTolerance {
			break
		}
	}

	return math.Atan(tau), math.Atan2(sinhEtaP, cosXiP), nil
}
