package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"centerku_backend/internals/configs"
	database "centerku_backend/internals/databases"
	"centerku_backend/internals/features/attendance/centers/directory"
	"centerku_backend/internals/features/attendance/evidence"
	attendanceRoute "centerku_backend/internals/features/attendance/ledger/route"
	ledgerService "centerku_backend/internals/features/attendance/ledger/service"
	studentsService "centerku_backend/internals/features/students/service"
	helper "centerku_backend/internals/helpers"
	middlewares "centerku_backend/internals/middlewares"
	routes "centerku_backend/internals/route"
	"centerku_backend/internals/seeds"
)

type studentSource interface {
	studentsService.Directory
	ledgerService.EligibilityProvider
}

func main() {
	configs.LoadEnv()
	logger := configs.NewLogger()
	defer func() { _ = logger.Sync() }()

	cfg := configs.LoadEngineConfig()

	// `go run . seed` → isi tabel centers/students dari file JSON lalu keluar
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		db := configs.InitSeederDB(logger)
		seeds.RunAllSeeds(db, cfg.CentersSeedFile, cfg.StudentsSeedFile)
		return
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.FromFiberError,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR proxy
	})

	middlewares.SetupMiddlewares(app, logger, cfg.TimezoneName, 5*time.Second)

	// 🔌 storage: postgres (default) atau memory (dev/demo)
	var (
		loader   directory.Loader
		store    ledgerService.Store
		students studentSource
		ping     routes.Pinger
	)
	switch cfg.LedgerStore {
	case "memory":
		if cfg.CentersSeedFile == "" {
			logger.Fatal("CENTERS_SEED_FILE wajib diisi untuk LEDGER_STORE=memory")
		}
		loader = directory.FileLoader{Path: cfg.CentersSeedFile}
		store = ledgerService.NewMemoryStore()
		dir := studentsService.NewStaticDirectory()
		if cfg.StudentsSeedFile != "" {
			loaded, err := studentsService.LoadStaticDirectory(cfg.StudentsSeedFile)
			if err != nil {
				logger.Fatal("gagal load students", zap.Error(err))
			}
			dir = loaded
		}
		students = dir
		log.Println("⚠️ LEDGER_STORE=memory: data hilang saat restart")
	default:
		database.ConnectDB(logger)
		database.TunePool()
		database.Migrate()
		database.WarmUpQueries()
		if configs.GetEnv("SEED_ON_START") == "true" {
			seeds.RunAllSeeds(database.DB, cfg.CentersSeedFile, cfg.StudentsSeedFile)
		}
		loader = directory.GormLoader{DB: database.DB, Log: logger}
		store = ledgerService.NewGormStore(database.DB)
		students = studentsService.GormDirectory{DB: database.DB}
		ping = database.Ping
	}

	// 🗺️ center directory: load awal + refresh berkala
	centers := directory.New(loader, cfg.DirectoryLoadTimeout, logger)
	if _, err := centers.Refresh(context.Background()); err != nil {
		// engine tetap jalan; check-in ditandai deferred sampai directory tersedia
		logger.Warn("initial directory load failed", zap.Error(err))
	}
	dirCron, err := centers.StartCron(cfg.DirectoryRefreshCron)
	if err != nil {
		logger.Fatal("directory cron", zap.Error(err))
	}

	ledger := ledgerService.New(store, centers, ledgerService.Config{
		Location:            cfg.Location,
		DefaultGraceMinutes: cfg.DefaultGraceMinutes,
		PersistTimeout:      cfg.PersistTimeout,
		MaxRetries:          cfg.MaxRetries,
		RetryBackoff:        cfg.RetryBackoff,
	}, logger)

	reconciler := &ledgerService.Reconciler{
		Ledger:   ledger,
		Students: students,
		Batch:    cfg.ReconcileBatch,
		Log:      logger,
	}
	recCron, err := reconciler.Start(cfg.ReconcileCron, time.Minute)
	if err != nil {
		logger.Fatal("reconcile cron", zap.Error(err))
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Options{
		Attendance: attendanceRoute.Deps{
			Ledger:   ledger,
			Ingestor: evidence.NewIngestor(logger),
			Students: students,
			Log:      logger,
		},
		Directory: centers,
		Ping:      ping,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s (store=%s, tz=%s)", cfg.Port, cfg.LedgerStore, cfg.TimezoneName)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop cron, tunggu job jalan, tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	stopCron(ctx, dirCron, recCron)

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log.Println("👋 Shutdown selesai")
}

func stopCron(ctx context.Context, crons ...*cron.Cron) {
	for _, c := range crons {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
			return
		}
	}
}
