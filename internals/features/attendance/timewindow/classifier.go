// file: internals/features/attendance/timewindow/classifier.go
package timewindow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"centerku_backend/internals/helpers/dbtime"
)

// Window = satu jendela operasional center, misal morning 09:00–13:00.
type Window struct {
	Name  string     `json:"name"`
	Start dbtime.Tod `json:"start"`
	End   dbtime.Tod `json:"end"`
}

func NewWindow(name, start, end string) (Window, error) {
	s, err := dbtime.Parse(start)
	if err != nil {
		return Window{}, err
	}
	e, err := dbtime.Parse(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Name: strings.TrimSpace(name), Start: s, End: e}
	return w, w.Validate()
}

var ErrInvalidWindow = errors.New("timewindow: invalid window")

// Validate: nama wajib, start <= end (tidak melewati tengah malam).
func (w Window) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidWindow)
	}
	if w.Start.MinuteOfDay() > w.End.MinuteOfDay() {
		return fmt.Errorf("%w: %s starts after it ends (%s > %s)", ErrInvalidWindow, w.Name, w.Start, w.End)
	}
	return nil
}

func (w Window) contains(minute int) bool {
	return w.Start.MinuteOfDay() <= minute && minute <= w.End.MinuteOfDay()
}

// Result dari Classify. Window nil = di luar jam operasional.
type Result struct {
	Window      *Window
	WithinHours bool
}

// Classify mencari window yang memuat instant (inklusif di kedua ujung),
// dibandingkan per menit di zona loc. Kalau window saling overlap,
// yang pertama sesuai urutan deklarasi yang menang.
func Classify(windows []Window, instant time.Time, loc *time.Location) Result {
	minute := dbtime.MinuteOfDay(instant, loc)
	for i := range windows {
		if windows[i].contains(minute) {
			w := windows[i]
			return Result{Window: &w, WithinHours: true}
		}
	}
	return Result{}
}

// IsLate: (menit(instant) - menit(start)) > grace. Tepat di batas grace belum telat.
func IsLate(windowStart dbtime.Tod, instant time.Time, loc *time.Location, graceMinutes int) bool {
	return dbtime.MinuteOfDay(instant, loc)-windowStart.MinuteOfDay() > graceMinutes
}

// Overlaps mengembalikan pasangan nama window yang saling tumpang tindih.
// Tidak ditolak, hanya untuk peringatan saat directory dimuat.
func Overlaps(windows []Window) [][2]string {
	var out [][2]string
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			a, b := windows[i], windows[j]
			if a.Start.MinuteOfDay() <= b.End.MinuteOfDay() && b.Start.MinuteOfDay() <= a.End.MinuteOfDay() {
				out = append(out, [2]string{a.Name, b.Name})
			}
		}
	}
	return out
}
