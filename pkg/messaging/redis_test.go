package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_Disabled(t *testing.T) {
	pub, err := NewPublisher(RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, pub)

	assert.NoError(t, pub.Publish(context.Background(), ChannelPaymentPaid, map[string]string{"id": "in_1"}))
	assert.NoError(t, pub.Close())
}

func TestRedisPublisher_PublishUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	pub := newRedisPublisher(client, "selt.")
	defer pub.Close()

	err := pub.Publish(context.Background(), ChannelPaymentPaid, map[string]string{"id": "in_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selt.payment.paid")
}

func TestRedisPublisher_UnserializableMessage(t *testing.T) {
	pub := newRedisPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer pub.Close()

	err := pub.Publish(context.Background(), ChannelPaymentPaid, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "직렬화")
}
