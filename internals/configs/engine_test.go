package configs

import (
	"testing"
	"time"
)

func TestLoadEngineConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"APP_TIMEZONE", "ATTENDANCE_GRACE_MINUTES", "ATTENDANCE_PERSIST_TIMEOUT",
		"ATTENDANCE_MAX_RETRIES", "ATTENDANCE_RETRY_BACKOFF", "DIRECTORY_REFRESH_CRON",
		"RECONCILE_CRON", "RECONCILE_BATCH", "LEDGER_STORE", "PORT",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadEngineConfig()
	if cfg.TimezoneName != "Asia/Jakarta" {
		t.Errorf("timezone = %s", cfg.TimezoneName)
	}
	if cfg.DefaultGraceMinutes != 15 || cfg.MaxRetries != 4 {
		t.Errorf("grace=%d retries=%d", cfg.DefaultGraceMinutes, cfg.MaxRetries)
	}
	if cfg.PersistTimeout != 3*time.Second || cfg.RetryBackoff != 50*time.Millisecond {
		t.Errorf("timeout=%s backoff=%s", cfg.PersistTimeout, cfg.RetryBackoff)
	}
	if cfg.DirectoryRefreshCron != "@every 1m" || cfg.ReconcileCron != "*/5 * * * *" {
		t.Errorf("crons = %q %q", cfg.DirectoryRefreshCron, cfg.ReconcileCron)
	}
	if cfg.LedgerStore != "postgres" || cfg.Port != "3000" {
		t.Errorf("store=%s port=%s", cfg.LedgerStore, cfg.Port)
	}
}

func TestLoadEngineConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	t.Setenv("ATTENDANCE_GRACE_MINUTES", "-3")
	t.Setenv("ATTENDANCE_PERSIST_TIMEOUT", "soon")
	t.Setenv("RECONCILE_CRON", "every tuesday")
	t.Setenv("LEDGER_STORE", "redis")

	cfg := LoadEngineConfig()
	if cfg.DefaultGraceMinutes != 15 {
		t.Errorf("grace = %d", cfg.DefaultGraceMinutes)
	}
	if cfg.PersistTimeout != 3*time.Second {
		t.Errorf("timeout = %s", cfg.PersistTimeout)
	}
	if cfg.ReconcileCron != "*/5 * * * *" {
		t.Errorf("cron = %q", cfg.ReconcileCron)
	}
	if cfg.LedgerStore != "postgres" {
		t.Errorf("store = %s", cfg.LedgerStore)
	}
	if cfg.TimezoneName == "Mars/Olympus" {
		t.Errorf("invalid timezone kept")
	}
}

func TestLoadEngineConfig_Overrides(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Asia/Kolkata")
	t.Setenv("ATTENDANCE_GRACE_MINUTES", "10")
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("DIRECTORY_REFRESH_CRON", "@every 30s")

	cfg := LoadEngineConfig()
	if cfg.Location.String() != "Asia/Kolkata" || cfg.DefaultGraceMinutes != 10 {
		t.Errorf("tz=%s grace=%d", cfg.Location, cfg.DefaultGraceMinutes)
	}
	if cfg.LedgerStore != "memory" || cfg.DirectoryRefreshCron != "@every 30s" {
		t.Errorf("store=%s cron=%s", cfg.LedgerStore, cfg.DirectoryRefreshCron)
	}
}
