package workflow

import "fmt"

// ValidationError rejects an operation locally: the document is unchanged
// and the message is safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError rejects an operation because the acting user is not
// allowed to perform it (wrong role, out-of-turn approver, non-owner).
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// NewAuthorizationError creates an AuthorizationError with a formatted message.
func NewAuthorizationError(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError signals that the document changed since it was last read;
// the caller should refresh and retry. No partial write happened.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a ConflictError with a formatted message.
func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// CascadeError signals that a cascading close could not complete for every
// linked document. The whole operation is rolled back when it is returned.
type CascadeError struct {
	Message string
	Failed  []string // kode of the documents that failed to close
}

func (e *CascadeError) Error() string {
	if len(e.Failed) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Failed)
}
