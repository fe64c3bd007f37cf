package services

import (
	"errors"
	"fmt"
)

// Engine error kinds. Match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrInternal          = errors.New("internal invariant violation")
	ErrUnauthorized      = errors.New("unauthorized")
)

// TransferError is a failure the engine recognizes. Reason is the
// human-readable text stored as a rejection reason or shown to callers.
type TransferError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *TransferError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func fail(kind error, format string, args ...any) *TransferError {
	return &TransferError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindLabel returns a stable label for err, used for metrics and API codes.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal_error"
	}
}

const (
	msgSameAccount         = "Cannot send money to the same account."
	msgOriginNotFound      = "Origin account with ID %d not found."
	msgDestNotFound        = "Destination account with ID %d not found."
	msgInsufficient        = "Insufficient balance."
	msgPendingExists       = "There is already a pending transaction from this origin. Please wait."
	msgNegativeBalance     = "Origin account balance became negative. Transaction aborted."
	msgUnexpected          = "An unexpected internal error occurred: "
	msgTransferNotFound    = "Transfer with ID %d not found."
	msgOnlyPendingApprove  = "Only pending transfers can be approved."
	msgOnlyPendingReject   = "Only pending transfers can be rejected."
	msgApproveInsufficient = "Insufficient balance in origin account to approve transfer."
	msgApproveNegative     = "Origin account balance became negative during approval. Transaction aborted."
	msgApproveMissing      = "Origin or destination account not found during approval."
	msgApproveFailed       = "Failed to approve transfer."
	msgAccountNotFound     = "Account with ID %d not found."
	msgRejectFailed        = "Failed to reject transfer."
	msgInternalFallback    = "Internal processing error."
)
