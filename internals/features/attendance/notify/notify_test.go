package notify

import (
	"strings"
	"testing"

	"centerku_backend/internals/features/attendance/ledger/service"
)

func ptr(f float64) *float64 { return &f }

func TestRender_FillsPlaceholders(t *testing.T) {
	got := Render(service.TextPresent, Params{Center: "Main", Distance: ptr(156.4), Window: "morning"}, LangEN)
	want := "Check-in recorded at Main (156 m away). You're on time for morning."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestRender_Indonesian(t *testing.T) {
	got := Render(service.TextOutOfRange, Params{Center: "Main", Distance: ptr(15010)}, LangID)
	if !strings.Contains(got, "15.0 km") || !strings.Contains(got, "Main") {
		t.Errorf("got %q", got)
	}
}

func TestRender_UnknownKeyPassesThrough(t *testing.T) {
	if got := Render("nope.key", Params{}, LangID); got != "nope.key" {
		t.Errorf("got %q", got)
	}
}

func TestRender_EveryOutcomeKeyHasBothLanguages(t *testing.T) {
	keys := []string{
		service.TextPresent, service.TextLate, service.TextLateOutsideHours,
		service.TextOutOfRange, service.TextNoCenter, service.TextDeferred,
		service.TextNoLocation, service.TextDuplicate, service.TextLocked,
		service.TextAlreadyRecorded, service.TextInvalidLocation,
	}
	for _, lang := range []Lang{LangEN, LangID} {
		for _, k := range keys {
			if _, ok := messages[lang][k]; !ok {
				t.Errorf("%s: missing %s", lang, k)
			}
		}
	}
}

func TestParseLang(t *testing.T) {
	cases := map[string]Lang{"id": LangID, "id-ID": LangID, "en": LangEN, "": LangEN, "fr": LangEN}
	for in, want := range cases {
		if got := ParseLang(in); got != want {
			t.Errorf("ParseLang(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	if got := FormatDistance(nil); got != "-" {
		t.Errorf("nil → %q", got)
	}
	if got := FormatDistance(ptr(999.6)); got != "1000 m" {
		t.Errorf("999.6 → %q", got)
	}
	if got := FormatDistance(ptr(1200)); got != "1.2 km" {
		t.Errorf("1200 → %q", got)
	}
}
