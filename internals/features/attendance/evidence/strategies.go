// file: internals/features/attendance/evidence/strategies.go
package evidence

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"centerku_backend/internals/features/attendance/geo"
)

// Photo = input untuk strategi ekstraksi. EXIF sudah di-decode sekali oleh Ingestor.
type Photo struct {
	Data     []byte
	MIME     string
	EXIF     *exif.Exif
	Metadata map[string]string
}

// PhotoStrategy mengembalikan (coord, true) kalau berhasil dapat lat & lng.
type PhotoStrategy interface {
	Name() string
	Extract(p Photo) (geo.Coordinate, bool)
}

// DefaultStrategies: urutan prioritas. Yang pertama berhasil menang.
func DefaultStrategies() []PhotoStrategy {
	return []PhotoStrategy{
		ExifLatLong{},
		ExifRawGPS{},
		MetadataGPS{},
	}
}

func usable(c geo.Coordinate) bool {
	// 0,0 = kamera tanpa fix GPS
	return c.Valid() && !(c.Lat == 0 && c.Lng == 0)
}

/* =========================
   1) goexif LatLong (ref N/S/E/W ditangani library)
   ========================= */

type ExifLatLong struct{}

func (ExifLatLong) Name() string { return "exif_latlong" }

func (ExifLatLong) Extract(p Photo) (geo.Coordinate, bool) {
	if p.EXIF == nil {
		return geo.Coordinate{}, false
	}
	lat, lng, err := p.EXIF.LatLong()
	if err != nil {
		return geo.Coordinate{}, false
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	return c, usable(c)
}

/* =========================
   2) Tag GPS mentah (ref hilang / huruf kecil)
   ========================= */

type ExifRawGPS struct{}

func (ExifRawGPS) Name() string { return "exif_raw_gps" }

func (ExifRawGPS) Extract(p Photo) (geo.Coordinate, bool) {
	if p.EXIF == nil {
		return geo.Coordinate{}, false
	}
	lat, ok := rawAxis(p.EXIF, exif.GPSLatitude, exif.GPSLatitudeRef)
	if !ok {
		return geo.Coordinate{}, false
	}
	lng, ok := rawAxis(p.EXIF, exif.GPSLongitude, exif.GPSLongitudeRef)
	if !ok {
		return geo.Coordinate{}, false
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	return c, usable(c)
}

func rawAxis(x *exif.Exif, field, refField exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	v, ok := tagToDecimal(tag)
	if !ok {
		return 0, false
	}
	ref := ""
	if rt, err := x.Get(refField); err == nil {
		if s, err := rt.StringVal(); err == nil {
			ref = s
		}
	}
	return ApplyHemisphere(v, ref), true
}

func tagToDecimal(tag *tiff.Tag) (float64, bool) {
	if tag == nil || tag.Count == 0 {
		return 0, false
	}
	parts := make([]float64, 0, 3)
	for i := 0; i < int(tag.Count) && i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts = append(parts, float64(num)/float64(den))
	}
	for len(parts) < 3 {
		parts = append(parts, 0)
	}
	return DMSToDecimal(parts[0], parts[1], parts[2]), true
}

/* =========================
   3) Metadata dari transport (hasil ekstraksi di sisi klien)
   ========================= */

type MetadataGPS struct{}

func (MetadataGPS) Name() string { return "transport_metadata" }

var (
	latKeys = []string{"GPSLatitude", "latitude", "lat"}
	lngKeys = []string{"GPSLongitude", "longitude", "lng", "lon"}
)

func (MetadataGPS) Extract(p Photo) (geo.Coordinate, bool) {
	if len(p.Metadata) == 0 {
		return geo.Coordinate{}, false
	}
	lat, ok := metaAxis(p.Metadata, latKeys, "GPSLatitudeRef")
	if !ok {
		return geo.Coordinate{}, false
	}
	lng, ok := metaAxis(p.Metadata, lngKeys, "GPSLongitudeRef")
	if !ok {
		return geo.Coordinate{}, false
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	return c, usable(c)
}

func metaAxis(meta map[string]string, keys []string, refKey string) (float64, bool) {
	for _, k := range keys {
		raw, ok := meta[k]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := ParseDegrees(raw)
		if err != nil {
			return 0, false
		}
		return ApplyHemisphere(v, meta[refKey]), true
	}
	return 0, false
}

/* =========================
   helpers
   ========================= */

// ApplyHemisphere: ref S/W → magnitudo dinegatifkan; N/E → positif;
// kosong/tidak dikenal → nilai apa adanya.
func ApplyHemisphere(v float64, ref string) float64 {
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -math.Abs(v)
	case "N", "E":
		return math.Abs(v)
	default:
		return v
	}
}

func DMSToDecimal(deg, min, sec float64) float64 {
	sign := 1.0
	if deg < 0 {
		sign, deg = -1, -deg
	}
	return sign * (deg + min/60 + sec/3600)
}

// ParseDegrees menerima "28.6139", "28,36,50.04", "28 36 50.04",
// atau "28 deg 36' 50.04\"".
func ParseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	clean := strings.NewReplacer("deg", " ", "°", " ", "'", " ", "\"", " ", ",", " ").Replace(s)
	fields := strings.Fields(clean)
	if len(fields) == 0 || len(fields) > 3 {
		return 0, fmt.Errorf("unrecognised degrees %q", s)
	}
	parts := [3]float64{}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognised degrees %q", s)
		}
		parts[i] = v
	}
	return DMSToDecimal(parts[0], parts[1], parts[2]), nil
}

// decodeEXIF: JPEG/TIFF langsung, WebP lewat chunk EXIF.
func decodeEXIF(raw []byte) (*exif.Exif, error) {
	raw = bytes.TrimPrefix(raw, []byte("Exif\x00\x00"))
	return exif.Decode(bytes.NewReader(raw))
}
