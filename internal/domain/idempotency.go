package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (scope, key). It enables safe retries for POST operations by
// returning the originally produced response without re-executing side
// effects (for example, creating a second gateway order for one checkout).
//
// Fingerprint is a SHA-256 hex digest of the canonical request that produced
// the stored response. A retry under the same key only replays when its
// fingerprint matches; a key reused for a different request is a conflict.
type Idempotency struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Scope       string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_idempotency_scope_key,priority:1"`
	Key         string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idempotency_scope_key,priority:2"`
	Fingerprint string    `gorm:"type:varchar(64);not null;default:''"`
	Status      int       `gorm:"not null"`
	Body        []byte    `gorm:"column:body"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Matches reports whether fingerprint identifies the request this record
// was stored for.
func (r *Idempotency) Matches(fingerprint string) bool {
	return r != nil && r.Fingerprint == fingerprint
}
