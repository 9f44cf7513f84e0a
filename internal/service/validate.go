package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "messenger/pkg/errors"
)

var validate = validator.New()

// validateInput runs struct tag validation and reports failures as
// ErrValidation naming the offending fields.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid %s: %w", strings.Join(fields, ", "), apperrors.ErrValidation)
	}
	return fmt.Errorf("%v: %w", err, apperrors.ErrValidation)
}
