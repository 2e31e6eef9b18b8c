package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockMessageWriter struct {
	mock.Mock
}

func (m *MockMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *MockMessageWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaForwarder_Handle(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	event := newPostedInvoice(t).GetDomainEvents()[0]
	tenantID := event.TenantID().String()

	t.Run("writes keyed message with headers", func(t *testing.T) {
		writer := new(MockMessageWriter)
		var sent []kafka.Message
		writer.On("WriteMessages", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
			Return(nil)
		forwarder := NewKafkaForwarder(writer, serializer, time.Second, zap.NewNop())

		require.NoError(t, forwarder.Handle(context.Background(), event))

		require.Len(t, sent, 1)
		assert.Equal(t, tenantID, string(sent[0].Key))
		assert.Contains(t, sent[0].Headers, kafka.Header{Key: HeaderEventType, Value: []byte("InvoicePosted")})
		decoded, err := serializer.Deserialize(sent[0].Value)
		require.NoError(t, err)
		assert.Equal(t, event.EventID(), decoded.EventID())
	})

	t.Run("cancelled request context still delivers", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)
		forwarder := NewKafkaForwarder(writer, serializer, time.Second, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, forwarder.Handle(ctx, event))
		writer.AssertExpectations(t)
	})

	t.Run("write failure is returned", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		forwarder := NewKafkaForwarder(writer, serializer, 0, zap.NewNop())

		err := forwarder.Handle(context.Background(), event)
		assert.ErrorContains(t, err, "broker down")
	})

	t.Run("receives every event through the bus", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.Subscribe(NewKafkaForwarder(writer, serializer, time.Second, zap.NewNop()))

		require.NoError(t, bus.Publish(context.Background(), event, newTestEvent("Other", uuid.New())))
		writer.AssertNumberOfCalls(t, "WriteMessages", 2)
	})
}

func TestNewKafkaWriter(t *testing.T) {
	_, err := NewKafkaWriter(config.EventConfig{})
	assert.Error(t, err)

	w, err := NewKafkaWriter(config.EventConfig{KafkaBrokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, w.Topic)
}
