package domain

import "math"

// NZTM2000 (EPSG:2193) transverse Mercator parameters on the GRS80 ellipsoid.
const (
	nztmSemiMajor       = 6378137.0
	nztmInvFlattening   = 298.257222101
	nztmCentralMeridian = 173.0
	nztmScaleFactor     = 0.9996
	nztmFalseEasting    = 1600000.0
	nztmFalseNorthing   = 10000000.0
)

// ChathamAuthority is the only authority whose grid coordinates are corrected.
const ChathamAuthority = "Chatham Islands"

// Chatham Islands rows are registered against the Chatham Islands grid
// origin (3,500,000 E, 10,000,000 N at 44S 176.5W) rather than NZTM. The
// offsets move that origin to its NZTM position.
const (
	ChathamEastingOffset  = -1058022.516
	ChathamNorthingOffset = -4925774.775
)

// GeoPoint is a WGS84-compatible longitude/latitude pair in degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RegionCorrection is an additive grid offset applied to one authority
// before the projection is inverted.
type RegionCorrection struct {
	Authority      string
	EastingOffset  float64
	NorthingOffset float64

	// NegateLongitude is false to match the published data set, which never
	// applied the negation its processing described.
	// TODO: confirm with the data owner whether Chatham longitudes should be
	// negated, then flip the default and regenerate the published layer.
	NegateLongitude bool
}

// DefaultRegionCorrection returns the Chatham Islands correction.
func DefaultRegionCorrection() RegionCorrection {
	return RegionCorrection{
		Authority:      ChathamAuthority,
		EastingOffset:  ChathamEastingOffset,
		NorthingOffset: ChathamNorthingOffset,
	}
}

// Locate converts NZTM easting/northing to a geographic point. Absent or
// zero coordinates are a data-entry defect and return nil.
func Locate(authority string, easting, northing *int, corr RegionCorrection) *GeoPoint {
	if easting == nil || northing == nil || *easting == 0 || *northing == 0 {
		return nil
	}
	e, n := float64(*easting), float64(*northing)

	applies := corr.Authority != "" && authority == corr.Authority
	if applies {
		e += corr.EastingOffset
		n += corr.NorthingOffset
	}

	lon, lat := NZTMToGeodetic(e, n)
	if applies && corr.NegateLongitude {
		lon = -lon
	}
	return &GeoPoint{Lon: lon, Lat: lat}
}

var nztm = newTransverseMercator(
	nztmSemiMajor, nztmInvFlattening, nztmCentralMeridian,
	nztmScaleFactor, nztmFalseEasting, nztmFalseNorthing,
)

// NZTMToGeodetic inverts the NZTM2000 projection, returning degrees.
func NZTMToGeodetic(easting, northing float64) (lon, lat float64) {
	return nztm.inverse(easting, northing)
}

// GeodeticToNZTM projects degrees to NZTM2000 easting/northing.
func GeodeticToNZTM(lon, lat float64) (easting, northing float64) {
	return nztm.forward(lon, lat)
}

// transverseMercator implements the LINZ series formulation.
type transverseMercator struct {
	a, e2          float64
	n              float64
	meridian       float64 // radians
	scale          float64
	falseE, falseN float64
	a0, a2, a4, a6 float64
	footG          float64
	f2, f4, f6, f8 float64
}

func newTransverseMercator(a, rf, cmDeg, scale, fe, fn float64) transverseMercator {
	f := 1 / rf
	e2 := 2*f - f*f
	e4 := e2 * e2
	e6 := e4 * e2
	n := f / (2 - f)
	n2, n3, n4 := n*n, n*n*n, n*n*n*n

	return transverseMercator{
		a:        a,
		e2:       e2,
		n:        n,
		meridian: cmDeg * math.Pi / 180,
		scale:    scale,
		falseE:   fe,
		falseN:   fn,
		a0:       1 - e2/4 - 3*e4/64 - 5*e6/256,
		a2:       3.0 / 8 * (e2 + e4/4 + 15*e6/128),
		a4:       15.0 / 256 * (e4 + 3*e6/4),
		a6:       35 * e6 / 3072,
		footG:    a * (1 - n) * (1 - n2) * (1 + 9*n2/4 + 225*n4/64),
		f2:       3*n/2 - 27*n3/32,
		f4:       21*n2/16 - 55*n4/32,
		f6:       151 * n3 / 96,
		f8:       1097 * n4 / 512,
	}
}

// meridianArc is the distance along the central meridian from the equator.
func (tm transverseMercator) meridianArc(lat float64) float64 {
	return tm.a * (tm.a0*lat - tm.a2*math.Sin(2*lat) + tm.a4*math.Sin(4*lat) - tm.a6*math.Sin(6*lat))
}

func (tm transverseMercator) footPointLat(m float64) float64 {
	sig := m / tm.footG
	return sig + tm.f2*math.Sin(2*sig) + tm.f4*math.Sin(4*sig) + tm.f6*math.Sin(6*sig) + tm.f8*math.Sin(8*sig)
}

func (tm transverseMercator) inverse(ce, cn float64) (lon, lat float64) {
	fphi := tm.footPointLat((cn - tm.falseN) / tm.scale)

	slt, clt := math.Sin(fphi), math.Cos(fphi)
	eslt := 1 - tm.e2*slt*slt
	eta := tm.a / math.Sqrt(eslt)
	rho := eta * (1 - tm.e2) / eslt
	psi := eta / rho

	e := ce - tm.falseE
	x := e / (eta * tm.scale)
	x2 := x * x

	t := slt / clt
	t2 := t * t
	t4 := t2 * t2

	trm1 := 0.5
	trm2 := ((-4*psi+9*(1-t2))*psi + 12*t2) / 24
	trm3 := ((((8*(11-24*t2)*psi-12*(21-71*t2))*psi+15*((15*t2-98)*t2+15))*psi+180*((-3*t2+5)*t2))*psi + 360*t4) / 720
	trm4 := (((1575*t2+4095)*t2+3633)*t2 + 1385) / 40320
	latRad := fphi + (t*x*e/(tm.scale*rho))*(((trm4*x2-trm3)*x2+trm2)*x2-trm1)

	trm1 = 1
	trm2 = (psi + 2*t2) / 6
	trm3 = (((-4*(1-6*t2)*psi+(9-68*t2))*psi+72*t2)*psi + 24*t4) / 120
	trm4 = (((720*t2+1320)*t2+662)*t2 + 61) / 5040
	lonRad := tm.meridian - (x/clt)*(((trm4*x2-trm3)*x2+trm2)*x2-trm1)

	return wrapLongitude(lonRad * 180 / math.Pi), latRad * 180 / math.Pi
}

// wrapLongitude folds degrees into [-180, 180).
func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func (tm transverseMercator) forward(lonDeg, latDeg float64) (ce, cn float64) {
	lat := latDeg * math.Pi / 180
	dlon := lonDeg*math.Pi/180 - tm.meridian
	for dlon > math.Pi {
		dlon -= 2 * math.Pi
	}
	for dlon < -math.Pi {
		dlon += 2 * math.Pi
	}

	m := tm.meridianArc(lat)
	slt, clt := math.Sin(lat), math.Cos(lat)
	eslt := 1 - tm.e2*slt*slt
	eta := tm.a / math.Sqrt(eslt)
	rho := eta * (1 - tm.e2) / eslt
	psi := eta / rho

	wc := clt * dlon
	wc2 := wc * wc
	t := slt / clt
	t2 := t * t
	t4 := t2 * t2
	t6 := t4 * t2

	trm1 := (psi - t2) / 6
	trm2 := (((4*(1-6*t2)*psi+(1+8*t2))*psi-2*t2)*psi + t4) / 120
	trm3 := (61 - 479*t2 + 179*t4 - t6) / 5040
	ce = tm.scale*eta*dlon*clt*(((trm3*wc2+trm2)*wc2+trm1)*wc2+1) + tm.falseE

	trm1 = 0.5
	trm2 = ((4*psi+1)*psi - t2) / 24
	trm3 = ((((8*(11-24*t2)*psi-28*(1-6*t2))*psi+(1-32*t2))*psi-2*t2)*psi + t4) / 720
	trm4 := (1385 - 3111*t2 + 543*t4 - t6) / 40320
	gcn := eta * t * ((((trm4*wc2+trm3)*wc2+trm2)*wc2 + trm1) * wc2)
	cn = (gcn+m)*tm.scale + tm.falseN

	return ce, cn
}
