package students

import (
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"centerku_backend/internals/features/students/model"
	"centerku_backend/internals/features/students/service"
)

// SeedStudentsFromJSON: file berisi []service.Student. chat_ref dinormalisasi,
// bentrok chat_ref/id dilewati (ON CONFLICT DO NOTHING).
func SeedStudentsFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ Gagal membaca file JSON: %v", err)
	}

	var seeds []service.Student
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ Gagal decode JSON: %v", err)
	}

	rows := make([]model.StudentModel, 0, len(seeds))
	for _, s := range seeds {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		ref := service.NormalizeRef(s.ChatRef)
		if ref == "" {
			log.Printf("⚠️ Student '%s' tanpa chat_ref, dilewati.", s.Name)
			continue
		}
		rows = append(rows, model.StudentModel{
			StudentID:               s.ID,
			StudentName:             s.Name,
			StudentChatRef:          ref,
			StudentAssignedCenterID: s.AssignedCenterID,
			StudentIsActive:         s.IsActive,
		})
	}

	if len(rows) == 0 {
		log.Println("ℹ️ Tidak ada student untuk diinsert.")
		return
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		log.Fatalf("❌ Gagal bulk insert students: %v", res.Error)
	}
	log.Printf("✅ Berhasil insert %d student (%d dilewati)", res.RowsAffected, int64(len(rows))-res.RowsAffected)
}
