// file: internals/features/attendance/centers/directory/directory.go
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"centerku_backend/internals/features/attendance/centers/model"
)

var ErrUnavailable = errors.New("directory: center snapshot unavailable")

// Loader = configuration collaborator (DB / file / static).
type Loader interface {
	LoadCenters(ctx context.Context) ([]model.Center, error)
}

type Directory struct {
	loader  Loader
	timeout time.Duration
	log     *zap.Logger

	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	group   singleflight.Group
	now     func() time.Time
}

func New(loader Loader, timeout time.Duration, log *zap.Logger) *Directory {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{loader: loader, timeout: timeout, log: log, now: time.Now}
}

// Current: snapshot terakhir yang berhasil dimuat.
func (d *Directory) Current() (*Snapshot, error) {
	if s := d.current.Load(); s != nil {
		return s, nil
	}
	return nil, ErrUnavailable
}

// Publish memasang snapshot baru secara atomik.
func (d *Directory) Publish(centers []model.Center) *Snapshot {
	s := NewSnapshot(d.version.Add(1), d.now(), centers)
	d.current.Store(s)

	for _, ex := range s.Excluded {
		d.log.Warn("center excluded from resolution",
			zap.String("center_id", ex.CenterID.String()),
			zap.String("center_name", ex.Name),
			zap.String("reason", ex.Reason),
		)
	}
	for name, pairs := range s.Overlaps {
		d.log.Warn("overlapping time windows, first declared wins",
			zap.String("center_name", name),
			zap.Any("pairs", pairs),
		)
	}
	d.log.Info("center directory published",
		zap.Uint64("version", s.Version),
		zap.Int("centers", len(s.Centers)),
		zap.Int("excluded", len(s.Excluded)),
	)
	return s
}

// Refresh memuat ulang dari loader. Pemanggil yang bersamaan berbagi satu
// load. Kalau gagal, snapshot lama tetap dipakai.
func (d *Directory) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := d.group.Do("refresh", func() (any, error) {
		lctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		centers, err := d.loader.LoadCenters(lctx)
		if err != nil {
			return nil, err
		}
		return d.Publish(centers), nil
	})
	if err != nil {
		d.log.Error("center directory refresh failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v.(*Snapshot), nil
}

// StartCron menjadwalkan refresh berkala (SkipIfStillRunning).
func (d *Directory) StartCron(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() {
		// error sudah di-log di Refresh
		_, _ = d.Refresh(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("directory: add cron %q: %w", spec, err)
	}
	d.log.Info("[DIRECTORY] refresh scheduled", zap.String("schedule", spec))
	c.Start()
	return c, nil
}
