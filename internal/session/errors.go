package session

import (
	"errors"

	httperrors "github.com/pollwave/pollwave/pkg/http/errors"
)

// Engine errors are all client input errors: they are reported to the
// offending connection only and never change session state.
var (
	ErrAlreadyJoined    = errors.New("already joined")
	ErrNoActiveQuestion = errors.New("no active question")
	ErrDuplicateAnswer  = errors.New("you already answered")
	ErrNotJoined        = errors.New("you must join first")
	ErrInvalidAnswer    = errors.New("invalid answer")
)

// ErrorCode maps an engine error to its wire error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyJoined):
		return httperrors.ErrCodeAlreadyJoined
	case errors.Is(err, ErrNoActiveQuestion):
		return httperrors.ErrCodeNoActiveQuestion
	case errors.Is(err, ErrDuplicateAnswer):
		return httperrors.ErrCodeDuplicateAnswer
	case errors.Is(err, ErrNotJoined):
		return httperrors.ErrCodeNotJoined
	case errors.Is(err, ErrInvalidAnswer):
		return httperrors.ErrCodeInvalidAnswer
	default:
		return httperrors.ErrCodeInternalError
	}
}
