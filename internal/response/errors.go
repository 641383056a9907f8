package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrTooManySets    ErrCode = "TOO_MANY_SETS"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound  ErrCode = "NOT_FOUND"
	ErrEmptyPool ErrCode = "EMPTY_POOL"

	// ─── Assembly ──────────────────────────────────────────────────────
	ErrInsufficientPool ErrCode = "INSUFFICIENT_POOL"
	ErrStructural       ErrCode = "STRUCTURAL_ERROR"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrTooManySets:
		return "Too many sets requested in one generation."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrEmptyPool:
		return "This course has no questions in its pool."

	// ─── Assembly ──────────────────────────────────────────────────────
	case ErrInsufficientPool:
		return "The question pool cannot satisfy the requested paper."
	case ErrStructural:
		return "No pair of written questions adds up to the required marks."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	case ErrServiceUnavailable:
		return "A required dependency is unavailable."
	default:
		return "An unexpected error occurred."
	}
}
