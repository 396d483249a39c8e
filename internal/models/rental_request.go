// internal/models/rental_request.go
package models

import "time"

// PoolStatus is the pool-membership state of a rental request. ACTIVE is the
// only non-terminal state; exactly one terminal transition ends membership.
type PoolStatus string

const (
	PoolStatusActive    PoolStatus = "ACTIVE"
	PoolStatusMatched   PoolStatus = "MATCHED"
	PoolStatusExpired   PoolStatus = "EXPIRED"
	PoolStatusCancelled PoolStatus = "CANCELLED"
)

// IsTerminal reports whether the status ends pool membership.
func (s PoolStatus) IsTerminal() bool {
	return s == PoolStatusMatched || s == PoolStatusExpired || s == PoolStatusCancelled
}

type RentalRequest struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	Location   string     `json:"location"`
	Budget     float64    `json:"budget"`
	MoveInDate time.Time  `json:"moveInDate"`
	PoolStatus PoolStatus `json:"poolStatus"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	ViewCount  int        `json:"viewCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
