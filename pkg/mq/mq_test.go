package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) Close() error { return nil }

func TestDeadLetterQueueWrapsOriginal(t *testing.T) {
	rec := &recordingSender{}
	dlq := NewDeadLetterQueue(rec, "pizzashop.dlq")

	orig := Message{ID: "evt-1", Topic: "order.created", Key: "order-1", Value: []byte(`{"total":"25.98"}`)}
	require.NoError(t, dlq.Send(context.Background(), orig, "max attempts exceeded", errors.New("broker down")))

	require.Len(t, rec.sent, 1)
	got := rec.sent[0]
	assert.Equal(t, "pizzashop.dlq", got.Topic)
	assert.Equal(t, "order-1", got.Key)

	var body map[string]any
	require.NoError(t, got.UnmarshalPayload(&body))
	assert.Equal(t, "order.created", body["original_topic"])
	assert.Equal(t, "broker down", body["failure_error"])
	assert.JSONEq(t, `{"total":"25.98"}`, body["original_value"].(string))
}

func TestNoopSenderAcceptsEverything(t *testing.T) {
	var s Sender = NoopSender{}
	payload, _ := json.Marshal(map[string]string{"a": "b"})
	assert.NoError(t, s.Send(context.Background(), Message{Topic: "cart.cleared", Value: payload}))
	assert.NoError(t, s.Close())
}
