// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"centerku_backend/internals/features/attendance/centers/directory"
	attendanceRoute "centerku_backend/internals/features/attendance/ledger/route"
	"centerku_backend/internals/middlewares"
)

var startTime time.Time

type Options struct {
	Attendance attendanceRoute.Deps
	Directory  *directory.Directory
	Ping       Pinger
}

func SetupRoutes(app *fiber.App, opt Options) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, opt.Ping, opt.Directory)

	// ===================== WEBHOOK (transport) =====================
	log.Println("[INFO] Setting up WEBHOOK group...")
	webhook := app.Group("/api/webhook", middlewares.WebhookRateLimiter())
	attendanceRoute.AttendanceWebhookRoutes(webhook, opt.Attendance)

	// ===================== ADMIN =====================
	// Auth ada di gateway/CRUD layer; di sini hanya rate limit.
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a", middlewares.GlobalRateLimiter())
	attendanceRoute.AttendanceAdminRoutes(admin, opt.Attendance)
}
