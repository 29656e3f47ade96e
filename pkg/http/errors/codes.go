package errors

// Error codes for standardized error responses. The first block mirrors the
// engine's client-input error taxonomy; every one of those is reported only to
// the offending connection and never changes session state.
const (
	// Session engine errors
	ErrCodeAlreadyJoined    = "already_joined"
	ErrCodeNoActiveQuestion = "no_active_question"
	ErrCodeDuplicateAnswer  = "duplicate_answer"
	ErrCodeNotJoined        = "not_joined"
	ErrCodeInvalidAnswer    = "invalid_answer"

	// WebSocket protocol errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeHistoryFetchFailed = "history_fetch_failed"
)
