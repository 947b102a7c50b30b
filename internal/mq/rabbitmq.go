package mq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client is one AMQP connection with a single channel. Publishes are
// serialized because amqp channels are not safe for concurrent publishing.
type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func (c *Client) closed() bool {
	return c.Conn.IsClosed() || c.Channel.IsClosed()
}

func (c *Client) publish(ctx context.Context, exchange, key string, body []byte, expiration string) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	return c.Channel.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Expiration:   expiration,
	})
}

// Publisher is the scheduler side of the friend check queue. It keeps one
// client and redials it when the broker drops the connection between rounds.
type Publisher struct {
	url    string
	mu     sync.Mutex
	client *Client
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

func (p *Publisher) get() (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil && !p.client.closed() {
		return p.client, nil
	}
	p.client.Close()
	p.client = nil

	client, err := Dial(p.url)
	if err != nil {
		return nil, err
	}
	if err := client.Declare(FriendChecks); err != nil {
		client.Close()
		return nil, err
	}
	p.client = client
	return client, nil
}

// PublishCheck enqueues one link check.
func (p *Publisher) PublishCheck(ctx context.Context, check LinkCheck) error {
	client, err := p.get()
	if err != nil {
		return err
	}
	return client.PublishCheck(ctx, check)
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client.Close()
	p.client = nil
}
