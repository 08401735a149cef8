package validator

import (
	"errors"
	"fmt"
	"strings"

	"fitbook/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// SessionRequest is the validated input of a session booking. StartTime is
// RFC 3339; duration bounds beyond min=1 are enforced by the service against
// its configured maximum.
type SessionRequest struct {
	MemberID        string `json:"member_id" validate:"required,min=1,max=64"`
	TrainerID       string `json:"trainer_id" validate:"required,min=1,max=64"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
}

type DecisionRequest struct {
	TrainerID string `json:"trainer_id" validate:"required,min=1,max=64"`
	Reason    string `json:"reason,omitempty" validate:"max=500"`
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

type SessionValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSessionValidator(log *logger.Logger) *SessionValidator {
	return &SessionValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *SessionValidator) ValidateRequest(req *SessionRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *SessionValidator) ValidateDecision(req *DecisionRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *SessionValidator) translate(err error) error {
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
			message = fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
		}
		translated = append(translated, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return translated
}
