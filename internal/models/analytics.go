// internal/models/analytics.go
package models

import "time"

// PoolAnalytics is an append-only per-location snapshot of pool activity.
// Used for observability, not correctness.
type PoolAnalytics struct {
	ID              string    `json:"id"`
	Location        string    `json:"location"`
	TotalRequests   int       `json:"totalRequests"`
	ActiveRequests  int       `json:"activeRequests"`
	MatchedRequests int       `json:"matchedRequests"`
	ExpiredRequests int       `json:"expiredRequests"`
	LandlordCount   int       `json:"landlordCount"`
	Date            time.Time `json:"date"`
}

// PoolStats is the read-only dashboard aggregate for the whole pool.
type PoolStats struct {
	ActiveRequests     int `json:"activeRequests"`
	AvailableLandlords int `json:"availableLandlords"`
	RecentMatches      int `json:"recentMatches"`
}
