// file: internals/features/attendance/geo/geo.go
package geo

import "math"

// EarthRadiusMeters = mean Earth radius (IUGG).
const EarthRadiusMeters = 6371008.8

// Coordinate adalah satu titik WGS84 dalam derajat desimal.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Valid: lat ∈ [-90,90], lng ∈ [-180,180], tidak NaN/Inf.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Normalize membulatkan ke 6 digit desimal (~0.1 m) supaya input dari
// jalur berbeda (GPS device vs EXIF) menghasilkan jarak yang sama.
func Normalize(c Coordinate) Coordinate {
	return Coordinate{Lat: round6(c.Lat), Lng: round6(c.Lng)}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance: jarak great-circle (haversine) dalam meter.
// Caller wajib memvalidasi koordinat lebih dulu.
func Distance(a, b Coordinate) float64 {
	φ1 := toRad(a.Lat)
	φ2 := toRad(b.Lat)
	dφ := toRad(b.Lat - a.Lat)
	dλ := toRad(b.Lng - a.Lng)

	sφ := math.Sin(dφ / 2)
	sλ := math.Sin(dλ / 2)
	h := sφ*sφ + math.Cos(φ1)*math.Cos(φ2)*sλ*sλ
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}
