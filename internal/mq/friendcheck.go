package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// FriendChecks carries friend link availability checks.
var FriendChecks = NewTopology("friendcheck")

const checkConsumerTag = "friend-checker"

// LinkCheck asks a worker to probe one friend link. Attempt counts the
// persistence retries already spent on it.
type LinkCheck struct {
	LinkID  uint64 `json:"link_id"`
	Attempt int    `json:"attempt"`
}

// FailedCheck is parked in the dead-letter queue once retries run out.
type FailedCheck struct {
	LinkID   uint64    `json:"link_id"`
	Attempt  int       `json:"attempt"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// ErrBadCheck marks a delivery that cannot be a LinkCheck.
var ErrBadCheck = errors.New("malformed link check")

// DecodeCheck parses a delivery body.
func DecodeCheck(body []byte) (LinkCheck, error) {
	var check LinkCheck
	if err := json.Unmarshal(body, &check); err != nil {
		return LinkCheck{}, fmt.Errorf("%w: %v", ErrBadCheck, err)
	}
	if check.LinkID == 0 || check.Attempt < 0 {
		return LinkCheck{}, fmt.Errorf("%w: link %d attempt %d", ErrBadCheck, check.LinkID, check.Attempt)
	}
	return check, nil
}

// retryExpiration renders delay as the per-message TTL of the retry queue.
func retryExpiration(delay time.Duration) string {
	if delay < 0 {
		delay = 0
	}
	return strconv.FormatInt(delay.Milliseconds(), 10)
}

func (c *Client) PublishCheck(ctx context.Context, check LinkCheck) error {
	body, err := json.Marshal(check)
	if err != nil {
		return err
	}
	return c.publish(ctx, FriendChecks.Exchange, FriendChecks.Key, body, "")
}

// RetryCheck parks check in the retry queue; it reappears on the main queue
// after delay.
func (c *Client) RetryCheck(ctx context.Context, check LinkCheck, delay time.Duration) error {
	body, err := json.Marshal(check)
	if err != nil {
		return err
	}
	return c.publish(ctx, FriendChecks.RetryExchange, FriendChecks.RetryKey, body, retryExpiration(delay))
}

func (c *Client) DeadLetterCheck(ctx context.Context, failed FailedCheck) error {
	body, err := json.Marshal(failed)
	if err != nil {
		return err
	}
	return c.publish(ctx, FriendChecks.DeadExchange, FriendChecks.DeadKey, body, "")
}

// ConsumeChecks declares the topology, limits unacked deliveries to
// prefetch and starts a manual-ack consumer on the check queue.
func (c *Client) ConsumeChecks(prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.Declare(FriendChecks); err != nil {
		return nil, err
	}
	if err := c.Channel.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.Channel.Consume(FriendChecks.Queue, checkConsumerTag, false, false, false, false, nil)
}
