// file: internals/features/attendance/ledger/controller/webhook_controller.go
package controller

import (
	"encoding/base64"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/features/attendance/ledger/dto"
	"centerku_backend/internals/features/attendance/ledger/service"
	"centerku_backend/internals/features/attendance/notify"
	studentsService "centerku_backend/internals/features/students/service"
	helper "centerku_backend/internals/helpers"
)

type WebhookController struct {
	Ingestor *evidence.Ingestor
	Ledger   *service.Ledger
	Students studentsService.Directory
	Validate *validator.Validate
	Log      *zap.Logger
}

func NewWebhookController(in *evidence.Ingestor, l *service.Ledger, students studentsService.Directory, log *zap.Logger) *WebhookController {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookController{
		Ingestor: in,
		Ledger:   l,
		Students: students,
		Validate: helper.NewValidator(),
		Log:      log,
	}
}

// =========================
// POST /api/webhook/checkins
// =========================
func (ctl *WebhookController) ReceiveCheckIn(c *fiber.Ctx) error {
	var req dto.CheckInWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	lang := notify.ParseLang(req.Lang)
	if req.Lang == "" {
		lang = notify.ParseLang(c.Get(fiber.HeaderAcceptLanguage))
	}

	ctx := c.UserContext()
	student, err := ctl.Students.BySenderRef(ctx, req.SenderRef)
	if err != nil {
		return ledgerError(c, err)
	}
	if !student.IsActive {
		return ledgerError(c, studentsService.ErrStudentInactive)
	}

	ev, err := ctl.toEvidence(req)
	if err != nil {
		var ie *evidence.InputError
		if errors.As(err, &ie) {
			// dijawab ke siswa, bukan dianggap gagal transport
			return helper.JsonError(c, fiber.StatusUnprocessableEntity,
				notify.Render(service.TextInvalidLocation, notify.Params{}, lang))
		}
		return ledgerError(c, err)
	}

	out, err := ctl.Ledger.ApplyEvidence(ctx, student.ID, student.Eligibility(), ev)
	if err != nil {
		if errors.Is(err, service.ErrRetriesExhausted) {
			ctl.Log.Error("check-in not persisted, asking transport to redeliver",
				zap.String("source_message_id", req.MessageID),
				zap.String("student_id", student.ID.String()),
				zap.Error(err),
			)
		}
		return ledgerError(c, err)
	}

	return helper.JsonOK(c, "check-in processed", dto.FromOutcome(out, notify.RenderOutcome(out, lang)))
}

// Location share diutamakan (presisi device); foto hanya dipakai kalau
// pesan tidak membawa location.
func (ctl *WebhookController) toEvidence(req dto.CheckInWebhookRequest) (evidence.Evidence, error) {
	if req.Location != nil {
		return ctl.Ingestor.FromLocation(req.ToLocationShare())
	}
	data, err := base64.StdEncoding.DecodeString(req.Photo.Data)
	if err != nil {
		return evidence.Evidence{}, &evidence.InputError{Field: "photo", Reason: "not base64"}
	}
	return ctl.Ingestor.FromPhoto(req.ToPhotoMessage(data))
}
