// file: internals/configs/engine.go
package configs

import (
	"log"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"centerku_backend/internals/helpers/dbtime"
)

// EngineConfig: pengaturan engine absensi dari ENV.
type EngineConfig struct {
	Location            *time.Location
	TimezoneName        string
	DefaultGraceMinutes int
	PersistTimeout      time.Duration
	MaxRetries          int
	RetryBackoff        time.Duration

	DirectoryRefreshCron string
	DirectoryLoadTimeout time.Duration
	ReconcileCron        string
	ReconcileBatch       int

	LedgerStore      string // postgres | memory
	CentersSeedFile  string
	StudentsSeedFile string
	Port             string
}

func LoadEngineConfig() EngineConfig {
	tz := envStr("APP_TIMEZONE", dbtime.DefaultTimezone)
	cfg := EngineConfig{
		TimezoneName:        tz,
		Location:            dbtime.LoadLocation(tz),
		DefaultGraceMinutes: envInt("ATTENDANCE_GRACE_MINUTES", 15, 0, 720),
		PersistTimeout:      envDuration("ATTENDANCE_PERSIST_TIMEOUT", 3*time.Second),
		MaxRetries:          envInt("ATTENDANCE_MAX_RETRIES", 4, 0, 50),
		RetryBackoff:        envDuration("ATTENDANCE_RETRY_BACKOFF", 50*time.Millisecond),

		DirectoryRefreshCron: envCron("DIRECTORY_REFRESH_CRON", "@every 1m"),
		DirectoryLoadTimeout: envDuration("DIRECTORY_LOAD_TIMEOUT", 5*time.Second),
		ReconcileCron:        envCron("RECONCILE_CRON", "*/5 * * * *"),
		ReconcileBatch:       envInt("RECONCILE_BATCH", 200, 1, 10000),

		LedgerStore:      envStr("LEDGER_STORE", "postgres"),
		CentersSeedFile:  GetEnv("CENTERS_SEED_FILE"),
		StudentsSeedFile: GetEnv("STUDENTS_SEED_FILE"),
		Port:             envStr("PORT", "3000"),
	}
	if cfg.LedgerStore != "postgres" && cfg.LedgerStore != "memory" {
		log.Printf("⚠️ LEDGER_STORE=%q tidak dikenal, pakai postgres", cfg.LedgerStore)
		cfg.LedgerStore = "postgres"
	}
	if cfg.Location.String() != tz {
		log.Printf("⚠️ APP_TIMEZONE=%q tidak valid, pakai %s", tz, cfg.Location)
		cfg.TimezoneName = cfg.Location.String()
	}
	return cfg
}

// envStr: kosong dianggap tidak diset.
func envStr(key, def string) string {
	if v := GetEnv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def, min, max int) int {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		log.Printf("⚠️ %s=%q tidak valid (%d..%d), pakai default %d", key, raw, min, max, def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("⚠️ %s=%q bukan durasi valid, pakai default %s", key, raw, def)
		return def
	}
	return v
}

func envCron(key, def string) string {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	if _, err := cron.ParseStandard(raw); err != nil {
		log.Printf("⚠️ %s=%q bukan jadwal cron valid, pakai default %q", key, raw, def)
		return def
	}
	return raw
}
