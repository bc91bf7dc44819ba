package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInsufficientBalance indicates not enough wallet balance for the operation.
type ErrInsufficientBalance struct {
	Available float64
	Required  float64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: available=%.2f required=%.2f", e.Available, e.Required)
}

// ErrGroupFull indicates the group has no open seats left.
type ErrGroupFull struct {
	GroupID    string
	MaxMembers int
}

func (e *ErrGroupFull) Error() string {
	return fmt.Sprintf("group full: %s (max %d members)", e.GroupID, e.MaxMembers)
}

// ErrAlreadyMember indicates the user already occupies a seat in the group.
type ErrAlreadyMember struct {
	GroupID string
	UserID  string
}

func (e *ErrAlreadyMember) Error() string {
	return fmt.Sprintf("user %s is already a member of group %s", e.UserID, e.GroupID)
}

// ErrDuplicate indicates a duplicate operation (idempotency check).
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate operation: %s", e.Key)
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrAccountLocked indicates the account is temporarily locked after
// repeated failed login attempts.
type ErrAccountLocked struct {
	Status string
}

func (e *ErrAccountLocked) Error() string {
	return "Conta bloqueada"
}

// ErrConflict indicates a resource already exists or a concurrent
// update lost the race (e.g. two joins racing for the last seat).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
