// internal/models/match.go
package models

import "time"

// MatchStatus tracks the landlord's response to a match.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "PENDING"
	MatchStatusOffered  MatchStatus = "OFFERED"
	MatchStatusDeclined MatchStatus = "DECLINED"
)

// LandlordRequestMatch is a candidate pairing between one landlord and one
// rental request. At most one row exists per (LandlordID, RentalRequestID).
type LandlordRequestMatch struct {
	ID              string      `json:"id"`
	LandlordID      string      `json:"landlordId"`
	RentalRequestID string      `json:"rentalRequestId"`
	MatchScore      int         `json:"matchScore"`
	MatchReason     string      `json:"matchReason"`
	IsViewed        bool        `json:"isViewed"`
	IsResponded     bool        `json:"isResponded"`
	Status          MatchStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// LandlordRequestView is a match joined with its rental request, as shown in
// the landlord's request listing.
type LandlordRequestView struct {
	MatchID         string    `json:"matchId"`
	RentalRequestID string    `json:"rentalRequestId"`
	MatchScore      int       `json:"matchScore"`
	MatchReason     string    `json:"matchReason"`
	Location        string    `json:"location"`
	Budget          float64   `json:"budget"`
	MoveInDate      time.Time `json:"moveInDate"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Pagination describes an offset-paginated result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
