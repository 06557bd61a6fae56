package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest returns validator.ValidationErrors for an invalid struct;
// ErrorHandlerMiddleware turns them into a 400 envelope.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
