package http

import (
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const (
	codeInternalError = "INTERNAL_ERROR"
	invalidBodyPrefix = "Invalid request body"
)

func init() {
	huma.NewError = newEnvelopeError
}

// envelopeError renders errors raised by Huma itself (body decoding, schema
// validation) in the same shape as every other API response.
type envelopeError struct {
	envelope
	status int
}

func (e *envelopeError) Error() string {
	return e.envelope.Error
}

func (e *envelopeError) GetStatus() int {
	return e.status
}

func newEnvelopeError(status int, msg string, errs ...error) huma.StatusError {
	if status == stdhttp.StatusUnprocessableEntity {
		status = stdhttp.StatusBadRequest
	}

	code := codeInvalidRequest
	if status >= stdhttp.StatusInternalServerError {
		code = codeInternalError
	}

	return &envelopeError{
		envelope: envelope{
			Success: false,
			Error:   describeHumaError(status, msg, errs),
			Code:    code,
		},
		status: status,
	}
}

func describeHumaError(status int, msg string, errs []error) string {
	if status >= stdhttp.StatusInternalServerError {
		return internalErrorMessage
	}

	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}

	message := invalidBodyPrefix
	if msg != "" && len(details) == 0 {
		message += ": " + msg
	}
	if len(details) > 0 {
		message += ": " + strings.Join(details, "; ")
	}
	return message
}
