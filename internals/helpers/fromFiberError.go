// file: internals/helpers/fromFiberError.go
package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError: dipakai sebagai fiber ErrorHandler. *fiber.Error → status
// aslinya, error lain → 500, semuanya lewat envelope JsonError.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}
