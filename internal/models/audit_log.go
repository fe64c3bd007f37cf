package models

import "time"

const (
	AuditEntityTransfer = "transfer_request"

	AuditActionCreated   = "created"
	AuditActionConfirmed = "confirmed"
	AuditActionRejected  = "rejected"
)

type AuditLog struct {
	ID         int64          `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}
