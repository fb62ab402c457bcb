// file: internals/features/attendance/ledger/controller/admin_controller.go
package controller

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"centerku_backend/internals/features/attendance/ledger/dto"
	"centerku_backend/internals/features/attendance/ledger/service"
	helper "centerku_backend/internals/helpers"
	"centerku_backend/internals/helpers/dbtime"
)

type AdminController struct {
	Ledger   *service.Ledger
	Validate *validator.Validate
}

func NewAdminController(l *service.Ledger) *AdminController {
	return &AdminController{Ledger: l, Validate: helper.NewValidator()}
}

// GET /api/a/attendance/records/:id
func (ctl *AdminController) GetRecord(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid record id")
	}
	rec, err := ctl.Ledger.Get(c.UserContext(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return helper.JsonOK(c, "ok", rec)
}

// GET /api/a/attendance/records/deferred?limit=
func (ctl *AdminController) ListDeferred(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 1000 {
		return helper.JsonError(c, fiber.StatusBadRequest, "limit must be 1..1000")
	}
	recs, err := ctl.Ledger.ListDeferred(c.UserContext(), limit)
	if err != nil {
		return ledgerError(c, err)
	}
	return helper.JsonList(c, "ok", recs, len(recs))
}

// GET /api/a/attendance/students/:student_id/records/:date
func (ctl *AdminController) GetStudentRecord(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("student_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid student id")
	}
	date := c.Params("date")
	if _, err := time.Parse(dbtime.DateLayout, date); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Date must be YYYY-MM-DD")
	}
	rec, err := ctl.Ledger.GetByKey(c.UserContext(), studentID, date)
	if err != nil {
		return ledgerError(c, err)
	}
	return helper.JsonOK(c, "ok", rec)
}

// POST /api/a/attendance/records/:id/verify
func (ctl *AdminController) ManualVerify(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid record id")
	}
	var body dto.ManualVerifyRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(body); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ctl.Ledger.ManualVerify(c.UserContext(), id, service.Status(body.Status), body.Notes, body.AdminID)
	if err != nil {
		return ledgerError(c, err)
	}
	return helper.JsonUpdated(c, "attendance verified manually", rec)
}

// POST /api/a/attendance/records/:id/reset
func (ctl *AdminController) ResetManual(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid record id")
	}
	var body dto.ResetManualRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := ctl.Validate.Struct(body); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ctl.Ledger.ResetManual(c.UserContext(), id, body.Notes, body.AdminID)
	if err != nil {
		return ledgerError(c, err)
	}
	return helper.JsonUpdated(c, "manual verification reset", rec)
}
