package notifier

import (
	"context"
	"fmt"

	"dayslot/pkg/kafka"
	"dayslot/pkg/model"
)

const (
	EventJustificationSubmitted = "booking.justification_submitted"
	schemaVersion               = "1"
)

// Publisher is the part of kafka.Producer the notifier depends on.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier hands justification notices to the message bus. Delivery to
// approvers is owned by the consumers of the topic.
type KafkaNotifier struct {
	publisher Publisher
	source    string
}

func NewKafkaNotifier(publisher Publisher, source string) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		source:    source,
	}
}

// JustificationSubmitted publishes notice keyed by owner email so notices for
// one user keep their order.
func (n *KafkaNotifier) JustificationSubmitted(ctx context.Context, notice *model.JustificationNotice) error {
	msg, err := kafka.NewMessage().
		WithKey(notice.OwnerEmail).
		WithValue(notice).
		WithEventType(EventJustificationSubmitted).
		WithCorrelationID(notice.OwnerEmail + "/" + notice.BookingID).
		WithSchemaVersion(schemaVersion).
		WithSource(n.source).
		WithTimestamp(notice.CreatedAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build justification notice: %w", err)
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish justification notice: %w", err)
	}
	return nil
}
