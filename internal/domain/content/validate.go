package content

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"seopro/app/internal/domain/failure"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects requests whose kind or candidate count is malformed.
func (r GenerationRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !eris.As(err, &fieldErrors) {
		return failure.InvalidRequest("invalid generation request", err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		messages = append(messages, describeFieldError(fieldErr))
	}

	return failure.InvalidRequest(strings.Join(messages, "; "), err)
}

func describeFieldError(fieldErr validator.FieldError) string {
	switch fieldErr.Field() {
	case "Kind":
		return fmt.Sprintf("invalid kind %q: must be \"title\" or \"description\"", fieldErr.Value())
	case "CandidateCount":
		return fmt.Sprintf("candidate count %v out of range [%d,%d]", fieldErr.Value(), MinCandidateCount, MaxCandidateCount)
	case "Tone":
		return "tone is required"
	default:
		return fmt.Sprintf("%s failed %s validation", fieldErr.Field(), fieldErr.Tag())
	}
}
