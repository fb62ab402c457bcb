// file: internals/features/attendance/centers/directory/snapshot.go
package directory

import (
	"errors"
	"time"

	"centerku_backend/internals/features/attendance/centers/model"
	"centerku_backend/internals/features/attendance/timewindow"
)

// Snapshot = daftar center yang immutable. Resolusi yang sedang jalan
// tetap pakai snapshot yang ia ambil di awal walau ada refresh.
type Snapshot struct {
	Version  uint64
	LoadedAt time.Time
	Centers  []model.Center
	Excluded []model.ConfigurationError
	// nama center → pasangan window yang overlap (hanya peringatan)
	Overlaps map[string][][2]string
}

func NewSnapshot(version uint64, loadedAt time.Time, centers []model.Center) *Snapshot {
	s := &Snapshot{
		Version:  version,
		LoadedAt: loadedAt,
		Centers:  make([]model.Center, 0, len(centers)),
	}
	for _, c := range centers {
		if err := c.Validate(); err != nil {
			var ce *model.ConfigurationError
			if errors.As(err, &ce) {
				s.Excluded = append(s.Excluded, *ce)
			} else {
				s.Excluded = append(s.Excluded, model.ConfigurationError{CenterID: c.ID, Name: c.Name, Reason: err.Error()})
			}
			continue
		}
		if ov := timewindow.Overlaps(c.Windows); len(ov) > 0 {
			if s.Overlaps == nil {
				s.Overlaps = map[string][][2]string{}
			}
			s.Overlaps[c.Name] = ov
		}
		s.Centers = append(s.Centers, cloneCenter(c))
	}
	return s
}

func cloneCenter(c model.Center) model.Center {
	out := c
	if c.Windows != nil {
		out.Windows = append([]timewindow.Window(nil), c.Windows...)
	}
	if c.GraceMinutes != nil {
		g := *c.GraceMinutes
		out.GraceMinutes = &g
	}
	return out
}
