package token

import (
	"errors"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

var (
	ErrNotFound     = errors.New("token not found")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError names the offending field; errors.Is(err, ErrInvalidInput) holds.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &InputError{Field: field, Msg: msg}
}

// ValidationError is a rejected token, carrying the stable reason code.
type ValidationError struct {
	Reason  models.FailureReason
	Message string
}

func (e *ValidationError) Error() string {
	return "token rejected: " + string(e.Reason)
}
