package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(context.Background(), nil, "topic")
	require.Error(t, err)
}

func TestToRecord(t *testing.T) {
	rec := toRecord("mxt.interactions", Message{
		Key:     []byte("entity-1"),
		Value:   []byte(`{"id":1}`),
		Headers: map[string]string{"event_type": "CLIENT_CREATED"},
	})

	assert.Equal(t, "mxt.interactions", rec.Topic)
	assert.Equal(t, []byte("entity-1"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, []byte("CLIENT_CREATED"), rec.Headers[0].Value)
}
