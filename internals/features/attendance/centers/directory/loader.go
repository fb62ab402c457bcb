// file: internals/features/attendance/centers/directory/loader.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"centerku_backend/internals/features/attendance/centers/model"
)

/* =========================
   Gorm loader (tabel centers)
   ========================= */

type GormLoader struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func (l GormLoader) LoadCenters(ctx context.Context) ([]model.Center, error) {
	var rows []model.CenterModel
	if err := l.DB.WithContext(ctx).
		Order("center_sort_order ASC, center_created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load centers: %w", err)
	}
	out := make([]model.Center, 0, len(rows))
	for _, r := range rows {
		c, err := r.ToCenter()
		if err != nil {
			// windows rusak → center di-skip, sisanya tetap dimuat
			if l.Log != nil {
				l.Log.Warn("center skipped", zap.String("center_id", r.CenterID.String()), zap.Error(err))
			}
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

/* =========================
   File loader (JSON, format seed)
   ========================= */

type FileLoader struct {
	Path string
}

func (l FileLoader) LoadCenters(ctx context.Context) ([]model.Center, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read centers file: %w", err)
	}
	var centers []model.Center
	if err := json.Unmarshal(raw, &centers); err != nil {
		return nil, fmt.Errorf("decode centers file: %w", err)
	}
	return centers, nil
}

/* =========================
   Static loader (test / embed)
   ========================= */

type StaticLoader []model.Center

func (s StaticLoader) LoadCenters(context.Context) ([]model.Center, error) {
	return append([]model.Center(nil), s...), nil
}
