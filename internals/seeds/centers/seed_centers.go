package centers

import (
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"centerku_backend/internals/features/attendance/centers/model"
)

// SeedCentersFromJSON: file berisi []model.Center (format sama dengan
// CENTERS_SEED_FILE mode memory). Center yang sudah ada dilewati.
func SeedCentersFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ Gagal membaca file JSON: %v", err)
	}

	var seeds []model.Center
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ Gagal decode JSON: %v", err)
	}

	var existingIDs []uuid.UUID
	if err := db.Model(&model.CenterModel{}).
		Pluck("center_id", &existingIDs).Error; err != nil {
		log.Fatalf("❌ Gagal ambil center_id yang sudah ada: %v", err)
	}
	existing := make(map[uuid.UUID]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	var rows []model.CenterModel
	for i, c := range seeds {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if existing[c.ID] {
			log.Printf("ℹ️ Center '%s' sudah ada, dilewati.", c.Name)
			continue
		}
		if err := c.Validate(); err != nil {
			// tetap disimpan; directory akan mengecualikan & mencatatnya
			log.Printf("⚠️ Center '%s' tidak valid: %v", c.Name, err)
		}
		row, err := model.FromCenter(c, i)
		if err != nil {
			log.Fatalf("❌ Gagal konversi center '%s': %v", c.Name, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		log.Println("ℹ️ Tidak ada center baru untuk diinsert.")
		return
	}
	if err := db.Create(&rows).Error; err != nil {
		log.Fatalf("❌ Gagal bulk insert centers: %v", err)
	}
	log.Printf("✅ Berhasil insert %d center", len(rows))
}
