package routes

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"centerku_backend/internals/features/attendance/centers/directory"
)

// Pinger: nil = mode memory (tanpa DB).
type Pinger func() error

func BaseRoutes(app *fiber.App, ping Pinger, dir *directory.Directory) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Attendance verification engine is running 🚀")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if ping == nil {
			dbStatus = "Not used (memory store)"
		} else if err := ping(); err != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		// directory down tidak membuat service DOWN: evidence tetap diterima (deferred)
		dirInfo := fiber.Map{"status": "unavailable"}
		if snap, err := dir.Current(); err == nil {
			dirInfo = fiber.Map{
				"status":    "ok",
				"version":   snap.Version,
				"loaded_at": snap.LoadedAt.Format(time.RFC3339),
				"centers":   len(snap.Centers),
				"excluded":  len(snap.Excluded),
			}
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"directory":      dirInfo,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}
