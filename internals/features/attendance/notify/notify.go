// file: internals/features/attendance/notify/notify.go
package notify

import (
	"fmt"
	"math"
	"strings"

	"centerku_backend/internals/features/attendance/ledger/service"
)

type Lang string

const (
	LangEN Lang = "en"
	LangID Lang = "id"
)

// ParseLang: apa pun selain "id"/"id-ID" jatuh ke English.
func ParseLang(s string) Lang {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "id" || strings.HasPrefix(s, "id-") || strings.HasPrefix(s, "id_") {
		return LangID
	}
	return LangEN
}

// {center}, {distance}, {window}, {status} diganti saat render.
var messages = map[Lang]map[string]string{
	LangEN: {
		service.TextPresent:          "Check-in recorded at {center} ({distance} away). You're on time for {window}.",
		service.TextLate:             "Check-in recorded at {center} ({distance} away). You're late for {window}.",
		service.TextLateOutsideHours: "Check-in recorded at {center} outside operating hours. Marked late.",
		service.TextOutOfRange:       "You are {distance} from {center}, outside the allowed radius. Please check in from the center.",
		service.TextNoCenter:         "We couldn't match your location to any center you can check in at.",
		service.TextDeferred:         "Location received. We'll confirm your attendance shortly.",
		service.TextNoLocation:       "Photo received but it has no location. Please share your live location.",
		service.TextDuplicate:        "This message was already processed.",
		service.TextLocked:           "Your attendance for today was set by an administrator ({status}).",
		service.TextAlreadyRecorded:  "You're already checked in today ({status}).",
		service.TextInvalidLocation:  "We could not read your location. Please resend it.",
	},
	LangID: {
		service.TextPresent:          "Absen tercatat di {center} (jarak {distance}). Tepat waktu untuk sesi {window}.",
		service.TextLate:             "Absen tercatat di {center} (jarak {distance}). Terlambat untuk sesi {window}.",
		service.TextLateOutsideHours: "Absen tercatat di {center} di luar jam operasional. Dicatat terlambat.",
		service.TextOutOfRange:       "Lokasi kamu {distance} dari {center}, di luar radius. Silakan absen dari lokasi center.",
		service.TextNoCenter:         "Lokasi kamu tidak cocok dengan center mana pun yang boleh kamu gunakan.",
		service.TextDeferred:         "Lokasi diterima. Kehadiran akan dikonfirmasi sebentar lagi.",
		service.TextNoLocation:       "Foto diterima tapi tidak ada lokasinya. Silakan kirim share location.",
		service.TextDuplicate:        "Pesan ini sudah diproses.",
		service.TextLocked:           "Kehadiran hari ini sudah ditetapkan admin ({status}).",
		service.TextAlreadyRecorded:  "Kamu sudah absen hari ini ({status}).",
		service.TextInvalidLocation:  "Lokasi kamu tidak terbaca. Silakan kirim ulang.",
	},
}

// Params untuk placeholder; kosong → "-".
type Params struct {
	Center   string
	Distance *float64
	Window   string
	Status   string
}

func FromOutcome(o service.Outcome) Params {
	return Params{
		Center:   o.CenterName,
		Distance: o.Distance,
		Window:   o.WindowName,
		Status:   string(o.Status),
	}
}

// Render mengubah text key jadi pesan. Key tidak dikenal dikembalikan apa adanya.
func Render(key string, p Params, lang Lang) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[LangEN]
	}
	tpl, ok := table[key]
	if !ok {
		tpl, ok = messages[LangEN][key]
		if !ok {
			return key
		}
	}
	r := strings.NewReplacer(
		"{center}", orDash(p.Center),
		"{distance}", FormatDistance(p.Distance),
		"{window}", orDash(p.Window),
		"{status}", orDash(p.Status),
	)
	return r.Replace(tpl)
}

func RenderOutcome(o service.Outcome, lang Lang) string {
	return Render(o.TextKey, FromOutcome(o), lang)
}

// FormatDistance: < 1 km dalam meter bulat, selebihnya km 1 desimal.
func FormatDistance(d *float64) string {
	if d == nil || math.IsInf(*d, 0) || math.IsNaN(*d) {
		return "-"
	}
	if *d < 1000 {
		return fmt.Sprintf("%.0f m", *d)
	}
	return fmt.Sprintf("%.1f km", *d/1000)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
