package model

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestStudentModel_InsertKeepsInactive(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, SkipDefaultTransaction: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	rows := []StudentModel{{
		StudentID:       uuid.New(),
		StudentName:     "Ana",
		StudentChatRef:  "62811",
		StudentIsActive: false,
	}}
	stmt := db.Create(&rows).Statement
	if sql := stmt.SQL.String(); !strings.Contains(sql, `"student_is_active"`) {
		t.Fatalf("INSERT does not write student_is_active: %s", sql)
	}
	for _, v := range stmt.Vars {
		if b, ok := v.(bool); ok && b {
			t.Errorf("inactive student inserted as active: %v", stmt.Vars)
		}
	}
}
