// internal/notify/sns.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"rental-pool/internal/common/aws"
	commonerrors "rental-pool/internal/common/errors"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/common/validation"
)

// matchCreatedSchema is the published contract for pool.match.created events.
// Payloads are validated before publishing so a code change cannot silently
// break consumers.
var matchCreatedSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"eventType":   map[string]interface{}{"type": "string", "enum": []string{EventTypeMatchCreated}},
		"requestId":   map[string]interface{}{"type": "string", "minLength": 1},
		"location":    map[string]interface{}{"type": "string", "minLength": 1},
		"landlordIds": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"matchCount":  map[string]interface{}{"type": "integer", "minimum": 0},
		"createdAt":   map[string]interface{}{"type": "string"},
	},
	"required": []string{"eventType", "requestId", "location", "landlordIds", "matchCount", "createdAt"},
}

// SNSNotifier publishes match events to an SNS topic.
type SNSNotifier struct {
	sns      *aws.SNSClient
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(sns *aws.SNSClient, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{
		sns:      sns,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *SNSNotifier) PublishMatchCreated(ctx context.Context, event MatchCreatedEvent) error {
	event.EventType = EventTypeMatchCreated

	if err := validation.ValidateAgainstSchema(event, matchCreatedSchema); err != nil {
		return commonerrors.NewNotificationError(fmt.Sprintf("invalid event payload: %v", err))
	}

	body, err := json.Marshal(event)
	if err != nil {
		return commonerrors.NewNotificationError(fmt.Sprintf("marshal event: %v", err))
	}

	msgID, err := n.sns.PublishMessage(ctx, n.topicARN, string(body))
	if err != nil {
		return commonerrors.NewNotificationError(err.Error())
	}

	n.logger.Debug("match event published", map[string]interface{}{
		"requestId": event.RequestID,
		"messageId": msgID,
	})
	return nil
}
