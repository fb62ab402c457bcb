// file: internals/features/attendance/ledger/route/attendance_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/features/attendance/ledger/controller"
	"centerku_backend/internals/features/attendance/ledger/service"
	studentsService "centerku_backend/internals/features/students/service"
)

type Deps struct {
	Ledger   *service.Ledger
	Ingestor *evidence.Ingestor
	Students studentsService.Directory
	Log      *zap.Logger
}

// Inbound transport (mis. adapter WhatsApp/Telegram) → engine
func AttendanceWebhookRoutes(webhook fiber.Router, d Deps) {
	ctl := controller.NewWebhookController(d.Ingestor, d.Ledger, d.Students, d.Log)

	webhook.Post("/checkins", ctl.ReceiveCheckIn)
}

// Administrative collaborator: lookup + manual verify/reset
func AttendanceAdminRoutes(admin fiber.Router, d Deps) {
	ctl := controller.NewAdminController(d.Ledger)

	att := admin.Group("/attendance")
	att.Get("/records/deferred", ctl.ListDeferred)
	att.Get("/records/:id", ctl.GetRecord)
	att.Post("/records/:id/verify", ctl.ManualVerify)
	att.Post("/records/:id/reset", ctl.ResetManual)
	att.Get("/students/:student_id/records/:date", ctl.GetStudentRecord)
}
