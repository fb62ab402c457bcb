package helper

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsDuplicateKey(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pgx unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgx fk", &pgconn.PgError{Code: "23503"}, false},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"message only", errors.New(`ERROR: duplicate key value violates unique constraint "uq_attendance_student_date"`), true},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicateKey(tc.err); got != tc.want {
				t.Errorf("IsDuplicateKey = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapPGError(t *testing.T) {
	if code, _ := MapPGError(&pgconn.PgError{Code: "23505"}); code != http.StatusConflict {
		t.Errorf("unique → %d", code)
	}
	if code, _ := MapPGError(&pq.Error{Code: "23503"}); code != http.StatusBadRequest {
		t.Errorf("fk → %d", code)
	}
	if code, _ := MapPGError(errors.New("boom")); code != http.StatusInternalServerError {
		t.Errorf("other → %d", code)
	}
}
