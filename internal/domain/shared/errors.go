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

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient balance available")
	ErrOverpayment         = NewDomainError("OVERPAYMENT", "Payment exceeds the outstanding amount")
	ErrPaymentsExist       = NewDomainError("PAYMENTS_EXIST", "Operation not allowed once payments have been recorded")
	ErrSameMember          = NewDomainError("SAME_MEMBER", "Target member is the same as the current owner")
	ErrAlreadyActive       = NewDomainError("ALREADY_ACTIVE", "An active process already exists for this resource")
	ErrExternalCall        = NewDomainError("EXTERNAL_CALL_FAILED", "External service call failed")
)
