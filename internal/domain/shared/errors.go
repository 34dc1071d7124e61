package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that
// errors.Is(err, ErrNotFound) matches any NOT_FOUND error regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidState         = "INVALID_STATE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeOptimisticLockFailed = "OPTIMISTIC_LOCK_FAILED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidQuantity     = NewDomainError(CodeInvalidQuantity, "Quantity must be positive")
	ErrInvalidAmount       = NewDomainError(CodeInvalidAmount, "Invalid monetary amount")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Authentication required")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")

	// ErrOptimisticLockFailed is raised by storage when a versioned write loses a race.
	// Application services retry on it and surface ErrConcurrencyConflict once retries run out.
	ErrOptimisticLockFailed = NewDomainError(CodeOptimisticLockFailed, "Resource was modified by another transaction")
)
