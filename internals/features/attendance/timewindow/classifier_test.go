package timewindow

import (
	"errors"
	"testing"
	"time"

	"centerku_backend/internals/helpers/dbtime"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func at(hh, mm int) time.Time {
	return time.Date(2026, 5, 4, hh, mm, 0, 0, ist)
}

func mustWindow(t *testing.T, name, start, end string) Window {
	t.Helper()
	w, err := NewWindow(name, start, end)
	if err != nil {
		t.Fatalf("NewWindow(%s): %v", name, err)
	}
	return w
}

func TestClassify_InclusiveBounds(t *testing.T) {
	windows := []Window{mustWindow(t, "morning", "09:00", "13:00")}

	cases := []struct {
		name   string
		when   time.Time
		within bool
	}{
		{"before start", at(8, 59), false},
		{"at start", at(9, 0), true},
		{"inside", at(11, 30), true},
		{"at end", at(13, 0), true},
		{"after end", at(13, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(windows, tc.when, ist)
			if got.WithinHours != tc.within {
				t.Fatalf("WithinHours = %v, want %v", got.WithinHours, tc.within)
			}
			if tc.within && (got.Window == nil || got.Window.Name != "morning") {
				t.Errorf("expected morning window, got %+v", got.Window)
			}
			if !tc.within && got.Window != nil {
				t.Errorf("expected nil window, got %+v", got.Window)
			}
		})
	}
}

func TestClassify_OverlapFirstDeclaredWins(t *testing.T) {
	windows := []Window{
		mustWindow(t, "morning", "09:00", "13:00"),
		mustWindow(t, "midday", "12:00", "15:00"),
	}
	got := Classify(windows, at(12, 30), ist)
	if got.Window == nil || got.Window.Name != "morning" {
		t.Fatalf("expected first declared window to win, got %+v", got.Window)
	}

	reversed := []Window{windows[1], windows[0]}
	got = Classify(reversed, at(12, 30), ist)
	if got.Window == nil || got.Window.Name != "midday" {
		t.Fatalf("expected declared order to decide, got %+v", got.Window)
	}
}

func TestClassify_ConvertsToDeploymentZone(t *testing.T) {
	windows := []Window{mustWindow(t, "morning", "09:00", "13:00")}
	// 03:35 UTC = 09:05 IST
	got := Classify(windows, time.Date(2026, 5, 4, 3, 35, 0, 0, time.UTC), ist)
	if !got.WithinHours {
		t.Fatal("expected instant to be converted to IST before comparison")
	}
}

func TestIsLate_GraceBoundaryIsNotLate(t *testing.T) {
	start := dbtime.MustParse("09:00")
	cases := []struct {
		when time.Time
		late bool
	}{
		{at(9, 5), false},
		{at(9, 15), false},
		{at(9, 16), true},
		{at(9, 20), true},
		{at(8, 50), false},
	}
	for _, tc := range cases {
		if got := IsLate(start, tc.when, ist, 15); got != tc.late {
			t.Errorf("IsLate(%s) = %v, want %v", tc.when.Format("15:04"), got, tc.late)
		}
	}
}

func TestWindow_Validate(t *testing.T) {
	if _, err := NewWindow("evening", "18:00", "17:00"); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow for inverted window, got %v", err)
	}
	if _, err := NewWindow(" ", "09:00", "10:00"); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow for blank name, got %v", err)
	}
	if _, err := NewWindow("x", "9h", "10:00"); err == nil {
		t.Error("expected parse error")
	}
}

func TestOverlaps(t *testing.T) {
	windows := []Window{
		mustWindow(t, "morning", "09:00", "13:00"),
		mustWindow(t, "midday", "13:00", "15:00"),
		mustWindow(t, "evening", "17:00", "20:00"),
	}
	got := Overlaps(windows)
	if len(got) != 1 || got[0] != [2]string{"morning", "midday"} {
		t.Errorf("Overlaps = %v", got)
	}
}
