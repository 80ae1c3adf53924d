package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

type ChannelMock struct{ mock.Mock }

func (m *ChannelMock) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func TestPublisher_Publish(t *testing.T) {
	ch := new(ChannelMock)
	p := NewPublisher(ch, "notifications", "subscription.extended")

	ev := models.SubscriptionEvent{
		ID:              "evt-1",
		UserID:          "42",
		Kind:            models.EventPaid,
		SubscriptionEnd: "2024-11-10",
		Months:          6,
		Devices:         3,
		Price:           1620,
		OccurredAt:      time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}

	ch.On("Publish", "notifications", "subscription.extended", false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got models.SubscriptionEvent
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return msg.ContentType == "application/json" &&
				msg.MessageId == "evt-1" &&
				msg.DeliveryMode == amqp.Persistent &&
				got.UserID == "42" && got.Price == 1620
		})).Return(nil).Once()

	require.NoError(t, p.Publish(context.Background(), ev))
	ch.AssertExpectations(t)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := new(ChannelMock)
	ch.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).Return(errors.New("channel closed"))

	err := NewPublisher(ch, "notifications", "subscription.extended").Publish(context.Background(), models.SubscriptionEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}

func TestPublisher_CanceledContext(t *testing.T) {
	ch := new(ChannelMock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPublisher(ch, "notifications", "subscription.extended").Publish(ctx, models.SubscriptionEvent{})
	assert.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishMessage_MarshalError(t *testing.T) {
	ch := new(ChannelMock)
	badMsg := struct {
		Ch chan int `json:"ch"`
	}{
		Ch: make(chan int),
	}

	err := PublishMessage(ch, "", "q", "id", badMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), models.SubscriptionEvent{}))
}

func TestSubscriptionQueues(t *testing.T) {
	assert.Equal(t, []QueueConfig{{QueueName: "bot.subscription.extended", RoutingKey: "subscription.extended"}},
		SubscriptionQueues("subscription.extended"))
}
