package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrNameRequired       ErrCode = "NAME_REQUIRED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrEmptySelection     ErrCode = "EMPTY_SELECTION"
	ErrUnknownOption      ErrCode = "UNKNOWN_OPTION"
	ErrAlreadyAnswered    ErrCode = "ALREADY_ANSWERED"
	ErrInvalidTransition  ErrCode = "INVALID_STATE_TRANSITION"
	ErrExamNotFinished    ErrCode = "EXAM_NOT_FINISHED"
	ErrConfigurationError ErrCode = "CONFIGURATION_ERROR"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Incorrect password."
	case ErrNameRequired:
		return "Please enter your full name."
	case ErrTokenRequired:
		return "An exam session token is required."
	case ErrTokenInvalid:
		return "The exam session token is invalid or has expired."
	case ErrSessionNotFound:
		return "No exam session is active. Please log in again."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrEmptySelection:
		return "Select an option before confirming."
	case ErrUnknownOption:
		return "The selected option does not belong to this question."
	case ErrAlreadyAnswered:
		return "This question has already been answered."
	case ErrInvalidTransition:
		return "This action is not allowed in the current exam state."
	case ErrExamNotFinished:
		return "The report is available once the exam is finished."
	case ErrConfigurationError:
		return "The exam is not configured correctly. Please contact the organizer."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrNotFound:
		return "The requested resource was not found."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
