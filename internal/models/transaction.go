package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferConfirmed TransferStatus = "confirmed"
	TransferRejected  TransferStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s TransferStatus) Terminal() bool {
	return s == TransferConfirmed || s == TransferRejected
}

// TransferRequest is the persisted record of one transfer attempt.
type TransferRequest struct {
	ID             int64           `json:"id"`
	Reference      uuid.UUID       `json:"reference"`
	OriginID       int64           `json:"origin_id"`
	DestinationID  int64           `json:"destination_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         TransferStatus  `json:"status"`
	RejectedReason *string         `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`

	Origin      *AccountSummary `json:"origin,omitempty"`
	Destination *AccountSummary `json:"destination,omitempty"`
}

// Reject marks the request rejected, recording reason when it is non-empty.
func (t *TransferRequest) Reject(reason string) {
	t.Status = TransferRejected
	if reason != "" {
		t.RejectedReason = &reason
	}
}
