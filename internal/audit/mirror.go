package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"consentledger/internal/platform/kafka/producer"
)

// KafkaMirror publishes appended records to a Kafka topic for downstream
// consumers (SIEM, long-term archival). Records are keyed by patient
// reference so per-patient ordering survives partitioning. The mirror never
// substitutes for the synchronous store write.
type KafkaMirror struct {
	producer *producer.Producer
	topic    string
}

// NewKafkaMirror wires a mirror onto an existing producer.
func NewKafkaMirror(p *producer.Producer, topic string) *KafkaMirror {
	return &KafkaMirror{producer: p, topic: topic}
}

// mirrorPayload is the JSON shape published to the mirror topic.
type mirrorPayload struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	EventType     string `json:"event_type"`
	PatientRef    string `json:"patient_ref"`
	Details       string `json:"details"`
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (m *KafkaMirror) Publish(record Record) error {
	payload, err := json.Marshal(mirrorPayload{
		ID:            record.ID.String(),
		Timestamp:     record.Timestamp.Format(time.RFC3339Nano),
		EventType:     string(record.EventType),
		PatientRef:    record.PatientRef,
		Details:       record.Details,
		UserID:        record.UserID,
		CorrelationID: record.CorrelationID,
	})
	if err != nil {
		return fmt.Errorf("marshal mirror payload: %w", err)
	}
	return m.producer.ProduceAsync(&producer.Message{
		Topic: m.topic,
		Key:   []byte(record.PatientRef),
		Value: payload,
	})
}
