package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing_PersistentJSON(t *testing.T) {
	msg, err := newPublishing("order-1", map[string]string{"event_type": "OrderPaid"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.JSONEq(t, `{"event_type":"OrderPaid"}`, string(msg.Body))
	assert.Equal(t, "order-1", msg.Headers["aggregate_id"])
}

func TestAggregateKey(t *testing.T) {
	withHeader := amqp.Delivery{Headers: amqp.Table{"aggregate_id": "cart-u1"}, RoutingKey: "ignored"}
	withoutHeader := amqp.Delivery{RoutingKey: "order-9"}

	assert.Equal(t, "cart-u1", aggregateKey(withHeader))
	assert.Equal(t, "order-9", aggregateKey(withoutHeader))
}
