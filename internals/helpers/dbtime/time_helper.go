// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone dipakai kalau APP_TIMEZONE kosong/invalid.
const DefaultTimezone = "Asia/Jakarta"

const DateLayout = "2006-01-02"

// LoadLocation:
// 1) nama zona dari config (misal "Asia/Kolkata")
// 2) fallback Asia/Jakarta
// 3) fallback terakhir UTC
func LoadLocation(name string) *time.Location {
	if s := strings.TrimSpace(name); s != "" {
		if loc, err := time.LoadLocation(s); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// In: konversi ke zona deployment. Zero time dikembalikan apa adanya.
func In(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() || loc == nil {
		return t
	}
	return t.In(loc)
}

// CalendarDate = tanggal lokal (YYYY-MM-DD) dari t di zona loc.
func CalendarDate(t time.Time, loc *time.Location) string {
	return In(t, loc).Format(DateLayout)
}

// MinuteOfDay dari t di zona loc (0..1439).
func MinuteOfDay(t time.Time, loc *time.Location) int {
	lt := In(t, loc)
	return lt.Hour()*60 + lt.Minute()
}
