package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentledger/internal/platform/kafka/producer"
	"consentledger/internal/platform/logger"
	"consentledger/pkg/requestcontext"
)

type capturingProducer struct {
	err      error
	messages []*producer.Message
}

func (p *capturingProducer) ProduceAsync(msg *producer.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func TestKafkaNotifierPublishesPayload(t *testing.T) {
	prod := &capturingProducer{}
	n := NewKafkaNotifier(prod, "notifications.outbound", logger.New("error"))

	ctx := requestcontext.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, n.NotifyEmergencyContact(ctx, "Sam Doe", "+15550100", "please call"))

	require.Len(t, prod.messages, 1)
	msg := prod.messages[0]
	assert.Equal(t, "notifications.outbound", msg.Topic)
	assert.Equal(t, []byte("+15550100"), msg.Key)
	assert.Equal(t, "corr-1", msg.Headers["correlation_id"])

	var payload notificationPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "Sam Doe", payload.ContactName)
	assert.Equal(t, "please call", payload.Message)
	assert.Equal(t, "sms", payload.Channel)
}

func TestNotifiersKeepContactDetailsOutOfLogs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	kafka := NewKafkaNotifier(&capturingProducer{}, "notifications.outbound", log)
	require.NoError(t, kafka.NotifyEmergencyContact(context.Background(), "Sam Doe", "+15550100", "please call"))

	logOnly := NewLogNotifier(log)
	require.NoError(t, logOnly.NotifyEmergencyContact(context.Background(), "Sam Doe", "+15550100", "please call"))

	out := buf.String()
	assert.NotContains(t, out, "Sam Doe")
	assert.NotContains(t, out, "+15550100")
	assert.NotContains(t, out, "please call")
}

func TestKafkaNotifierSurfacesProducerFailure(t *testing.T) {
	prod := &capturingProducer{err: errors.New("broker down")}
	n := NewKafkaNotifier(prod, "notifications.outbound", logger.New("error"))

	err := n.NotifyEmergencyContact(context.Background(), "Sam Doe", "+15550100", "msg")
	assert.Error(t, err)
}
