package seeds

import (
	"log"

	"gorm.io/gorm"

	"centerku_backend/internals/seeds/centers"
	"centerku_backend/internals/seeds/students"
)

// RunAllSeeds: path kosong = dilewati. Centers dulu (student bisa assigned ke center).
func RunAllSeeds(db *gorm.DB, centersFile, studentsFile string) {
	if centersFile != "" {
		centers.SeedCentersFromJSON(db, centersFile)
	}
	if studentsFile != "" {
		students.SeedStudentsFromJSON(db, studentsFile)
	}
	if centersFile == "" && studentsFile == "" {
		log.Println("ℹ️ CENTERS_SEED_FILE & STUDENTS_SEED_FILE kosong, tidak ada yang di-seed.")
	}
}
