package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"centerku_backend/internals/configs"
	centerModel "centerku_backend/internals/features/attendance/centers/model"
	ledgerModel "centerku_backend/internals/features/attendance/ledger/model"
	studentModel "centerku_backend/internals/features/students/model"
)

var DB *gorm.DB

func ConnectDB(logger *zap.Logger) {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	// statement_timeout sedikit di bawah ATTENDANCE_PERSIST_TIMEOUT default
	// Catatan: kalau pakai PgBouncer, arahkan host/port ke PgBouncer dan biarkan PreferSimpleProtocol=true
	sslmode := getenv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=centerku&options=-c statement_timeout=2500",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(logger),
	})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate: tabel engine absensi. Unique (student, date) & (record, message)
// ikut dibuat dari tag gorm model.
func Migrate() {
	if err := DB.AutoMigrate(
		&centerModel.CenterModel{},
		&studentModel.StudentModel{},
		&ledgerModel.AttendanceRecordModel{},
		&ledgerModel.AttendanceEvidenceModel{},
	); err != nil {
		log.Fatalf("❌ Gagal migrasi: %v", err)
	}
	log.Println("✅ Migrasi selesai.")
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond) // beri waktu server naik
		if err := Ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
			return
		}
		// query paling sering: lookup record per (student, date)
		DB.Exec("SELECT 1 FROM attendance_records WHERE attendance_record_student_id IS NULL LIMIT 1")
	}()
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
