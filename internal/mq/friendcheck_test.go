package mq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendCheckTopologyNames(t *testing.T) {
	assert.Equal(t, "friendcheck.exchange", FriendChecks.Exchange)
	assert.Equal(t, "friendcheck.retry.queue", FriendChecks.RetryQueue)
	assert.Equal(t, "friendcheck.dlq", FriendChecks.DeadKey)

	bindings := FriendChecks.bindings()
	require.Len(t, bindings, 3)
	retry := bindings[1]
	assert.Equal(t, FriendChecks.RetryQueue, retry.queue)
	assert.Equal(t, FriendChecks.Exchange, retry.args["x-dead-letter-exchange"])
	assert.Equal(t, FriendChecks.Key, retry.args["x-dead-letter-routing-key"])
	assert.Nil(t, bindings[0].args)
}

func TestDecodeCheck(t *testing.T) {
	check, err := DecodeCheck([]byte(`{"link_id":7,"attempt":2}`))
	require.NoError(t, err)
	assert.Equal(t, LinkCheck{LinkID: 7, Attempt: 2}, check)

	for _, body := range []string{`{`, `{}`, `{"link_id":7,"attempt":-1}`} {
		_, err = DecodeCheck([]byte(body))
		assert.ErrorIs(t, err, ErrBadCheck, body)
	}
}

func TestRetryExpiration(t *testing.T) {
	assert.Equal(t, "30000", retryExpiration(30*time.Second))
	assert.Equal(t, "0", retryExpiration(-time.Second))
}
