// Package notify delivers emergency-contact messages. Delivery is handed to
// a downstream messaging pipeline over Kafka; the actual SMS/phone gateway
// consumes from the topic.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"consentledger/internal/platform/kafka/producer"
	dErrors "consentledger/pkg/domain-errors"
	"consentledger/pkg/requestcontext"
)

type messageProducer interface {
	ProduceAsync(msg *producer.Message) error
}

type notificationPayload struct {
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Message      string `json:"message"`
	Channel      string `json:"channel"`
}

// KafkaNotifier enqueues emergency-contact notifications on a Kafka topic.
type KafkaNotifier struct {
	producer messageProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaNotifier(p messageProducer, topic string, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: p, topic: topic, logger: logger}
}

func (n *KafkaNotifier) NotifyEmergencyContact(ctx context.Context, contactName, contactPhone, message string) error {
	payload, err := json.Marshal(notificationPayload{
		ContactName:  contactName,
		ContactPhone: contactPhone,
		Message:      message,
		Channel:      "sms",
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode notification")
	}

	headers := map[string]string{}
	if cid := requestcontext.CorrelationID(ctx); cid != "" {
		headers["correlation_id"] = cid
	}

	if err := n.producer.ProduceAsync(&producer.Message{
		Topic:   n.topic,
		Key:     []byte(contactPhone),
		Value:   payload,
		Headers: headers,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "enqueue notification")
	}

	n.logger.InfoContext(ctx, "emergency contact notification enqueued",
		slog.String("topic", n.topic),
	)
	return nil
}

// LogNotifier writes notifications to the log only. Used when no broker is
// configured, typically in local development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyEmergencyContact(ctx context.Context, contactName, contactPhone, message string) error {
	// Contact details and the message body are PHI; the log carries only the
	// fact that a delivery was recorded.
	n.logger.InfoContext(ctx, "emergency contact notification recorded",
		slog.Int("message_length", len(message)),
	)
	return nil
}
