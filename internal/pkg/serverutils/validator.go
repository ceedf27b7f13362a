package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks struct tags and turns the first violation into a 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var errs validator.ValidationErrors
		if ok := errors.As(err, &errs); ok && len(errs) > 0 {
			fe := errs[0]
			msg := fmt.Sprintf("field '%s' failed on '%s' rule", strings.ToLower(fe.Field()), fe.Tag())
			return fiber.NewError(fiber.StatusBadRequest, msg)
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
