// internal/models/landlord.go
package models

import "time"

// LandlordCandidate is a landlord row joined with its profile, as returned by
// the matching query. Budget bounds are nil when the landlord has no bound.
type LandlordCandidate struct {
	ID                  string    `json:"id"`
	ActiveContracts     int       `json:"activeContracts"`
	TotalCapacity       int       `json:"totalCapacity"`
	LastActiveAt        time.Time `json:"lastActiveAt"`
	PreferredLocations  []string  `json:"preferredLocations"`
	MinBudget           *float64  `json:"minBudget,omitempty"`
	MaxBudget           *float64  `json:"maxBudget,omitempty"`
	AcceptanceRate      float64   `json:"acceptanceRate"`
	AvgResponseTimeMins int       `json:"avgResponseTimeMins"`
}

// SpareCapacityFraction returns the free share of the landlord's capacity.
func (c LandlordCandidate) SpareCapacityFraction() float64 {
	if c.TotalCapacity <= 0 {
		return 0
	}
	return 1 - float64(c.ActiveContracts)/float64(c.TotalCapacity)
}
