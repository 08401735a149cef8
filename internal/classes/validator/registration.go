package validator

import (
	"errors"
	"fmt"
	"strings"

	"fitbook/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// RegisterRequest is the validated input of the class registration workflow.
// Member ids arrive pre-authenticated from the gateway and are treated as
// opaque; schedule ids must be store ids.
type RegisterRequest struct {
	MemberID   string `json:"member_id" validate:"required,min=1,max=64"`
	ScheduleID string `json:"schedule_id" validate:"required,mongodb"`
}

type CancelRequest struct {
	MemberID string `json:"member_id" validate:"required,min=1,max=64"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RegistrationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRegistrationValidator(log *logger.Logger) *RegistrationValidator {
	return &RegistrationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *RegistrationValidator) ValidateRegister(req *RegisterRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *RegistrationValidator) ValidateCancel(req *CancelRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *RegistrationValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var translated ValidationErrors
	for _, fieldErr := range validationErrs {
		message := fieldErr.Error()
		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldErr.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", fieldErr.Field(), fieldErr.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", fieldErr.Field())
		}
		translated = append(translated, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return translated
}
