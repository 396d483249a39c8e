// internal/notify/notifier.go
package notify

import "context"

// MatchCreatedEvent is published after a request is admitted and matched. Its
// shape is a contract for downstream consumers (push, email, CRM), which are
// external to this service.
type MatchCreatedEvent struct {
	EventType   string   `json:"eventType"`
	RequestID   string   `json:"requestId"`
	Location    string   `json:"location"`
	LandlordIDs []string `json:"landlordIds"`
	MatchCount  int      `json:"matchCount"`
	CreatedAt   string   `json:"createdAt"`
}

const EventTypeMatchCreated = "pool.match.created"

// MatchNotifier publishes match events. Publishing is always best-effort from
// the caller's point of view: the pool never fails an admission over it.
type MatchNotifier interface {
	PublishMatchCreated(ctx context.Context, event MatchCreatedEvent) error
}

// NopNotifier is the default when no notification transport is configured.
type NopNotifier struct{}

func NewNopNotifier() NopNotifier { return NopNotifier{} }

func (NopNotifier) PublishMatchCreated(context.Context, MatchCreatedEvent) error { return nil }
