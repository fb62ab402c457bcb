// file: internals/configs/logger.go
package configs

import (
	"errors"
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	helper "centerku_backend/internals/helpers"
)

// NewLogger: JSON (production) kecuali APP_ENV=development.
// log.Printf bawaan ikut diarahkan ke zap supaya tag [DIRECTORY]/[RECONCILE]
// masuk ke sink yang sama.
func NewLogger() *zap.Logger {
	var cfg zap.Config
	if strings.EqualFold(GetEnv("APP_ENV"), "development") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl := GetEnv("LOG_LEVEL"); lvl != "" {
		if l, err := zapcore.ParseLevel(lvl); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(l)
		} else {
			log.Printf("⚠️ LOG_LEVEL=%q tidak valid, pakai %s", lvl, cfg.Level)
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Printf("⚠️ gagal membuat zap logger: %v, pakai nop", err)
		return zap.NewNop()
	}
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)
	return logger
}

func isExpected(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || helper.IsDuplicateKey(err)
}
