package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the exchanges and queues of one job kind. Jobs flow
// main -> retry (per-message TTL, dead-lettered back to main) -> dead.
type Topology struct {
	Exchange      string
	RetryExchange string
	DeadExchange  string

	Queue      string
	RetryQueue string
	DeadQueue  string

	Key      string
	RetryKey string
	DeadKey  string
}

// NewTopology derives every name from kind, e.g. "friendcheck.retry.queue".
func NewTopology(kind string) Topology {
	return Topology{
		Exchange:      kind + ".exchange",
		RetryExchange: kind + ".retry.exchange",
		DeadExchange:  kind + ".dlq.exchange",
		Queue:         kind + ".queue",
		RetryQueue:    kind + ".retry.queue",
		DeadQueue:     kind + ".dlq.queue",
		Key:           kind,
		RetryKey:      kind + ".retry",
		DeadKey:       kind + ".dlq",
	}
}

type binding struct {
	queue    string
	exchange string
	key      string
	args     amqp.Table
}

func (t Topology) bindings() []binding {
	return []binding{
		{queue: t.Queue, exchange: t.Exchange, key: t.Key},
		{queue: t.RetryQueue, exchange: t.RetryExchange, key: t.RetryKey, args: amqp.Table{
			"x-dead-letter-exchange":    t.Exchange,
			"x-dead-letter-routing-key": t.Key,
		}},
		{queue: t.DeadQueue, exchange: t.DeadExchange, key: t.DeadKey},
	}
}

// Declare creates the durable exchanges, queues and bindings of t. It is
// idempotent.
func (c *Client) Declare(t Topology) error {
	for _, exchange := range []string{t.Exchange, t.RetryExchange, t.DeadExchange} {
		if err := c.Channel.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}
	for _, b := range t.bindings() {
		if _, err := c.Channel.QueueDeclare(b.queue, true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := c.Channel.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}
