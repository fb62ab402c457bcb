// file: internals/features/attendance/ledger/controller/errors.go
package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"centerku_backend/internals/features/attendance/evidence"
	"centerku_backend/internals/features/attendance/ledger/service"
	studentsService "centerku_backend/internals/features/students/service"
	helper "centerku_backend/internals/helpers"
)

// ledgerError memetakan error engine ke envelope JSON.
// Retries habis → 503 supaya transport mengirim ulang (at-least-once).
func ledgerError(c *fiber.Ctx, err error) error {
	var ie *evidence.InputError
	switch {
	case errors.As(err, &ie):
		return helper.JsonValidationError(c, map[string][]string{ie.Field: {ie.Reason}})
	case errors.Is(err, service.ErrRecordNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Attendance record not found")
	case errors.Is(err, service.ErrInvalidManualStatus):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, studentsService.ErrStudentNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Sender is not a registered student")
	case errors.Is(err, studentsService.ErrStudentInactive):
		return helper.JsonError(c, fiber.StatusForbidden, "Student is inactive")
	case errors.Is(err, service.ErrRetriesExhausted),
		errors.Is(err, context.DeadlineExceeded):
		c.Set(fiber.HeaderRetryAfter, "5")
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Attendance storage busy, retry later")
	default:
		// FK / unique / error driver lain dari store postgres
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}
}
