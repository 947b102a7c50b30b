// Package task defines the friend link availability check carried over
// RabbitMQ.
package task

import (
	"Go_Blog/internal/mq"
	"Go_Blog/internal/service"
	"Go_Blog/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// CheckPublisher enqueues link checks.
type CheckPublisher interface {
	PublishCheck(ctx context.Context, check mq.LinkCheck) error
}

// LinkStore reads friend links and stores probe results.
type LinkStore interface {
	List(ctx context.Context) ([]model.FriendLink, error)
	Get(ctx context.Context, id uint64) (*model.FriendLink, error)
	RecordCheck(ctx context.Context, id uint64, available bool, at time.Time) error
}

// EnqueueAll publishes one check per stored link and returns how many were
// published.
func EnqueueAll(ctx context.Context, links LinkStore, pub CheckPublisher) (int, error) {
	all, err := links.List(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, link := range all {
		if err := pub.PublishCheck(ctx, mq.LinkCheck{LinkID: link.ID}); err != nil {
			return sent, fmt.Errorf("publish check for link %d: %w", link.ID, err)
		}
		sent++
	}
	return sent, nil
}

// Prober issues availability requests. A link is available when any of
// the attempts answers 2xx or 3xx. Attempts run back to back.
type Prober struct {
	client   *http.Client
	attempts int
}

func NewProber(timeout time.Duration, attempts int) *Prober {
	if attempts <= 0 {
		attempts = 3
	}
	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		attempts: attempts,
	}
}

// Check probes url and reports whether it is reachable. Only context
// cancellation is returned as an error.
func (p *Prober) Check(ctx context.Context, url string) (bool, error) {
	for i := 0; i < p.attempts; i++ {
		ok, err := p.try(ctx, url)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if ok {
			return true, nil
		}
		if err != nil {
			log.Printf("friend check: %s attempt %d: %v", url, i+1, err)
		}
	}
	return false, nil
}

func (p *Prober) try(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", "Go_Blog friend-link checker")
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, nil
	}
	return false, fmt.Errorf("status %d", resp.StatusCode)
}

// ErrLinkGone marks a message whose link was deleted after enqueueing.
var ErrLinkGone = errors.New("friend link no longer exists")

// ProcessFriendCheck probes one link and stores the result.
func ProcessFriendCheck(ctx context.Context, links LinkStore, prober *Prober, msg mq.LinkCheck) error {
	link, err := links.Get(ctx, msg.LinkID)
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrLinkGone, msg.LinkID)
	}
	if err != nil {
		return err
	}
	available, err := prober.Check(ctx, link.URL)
	if err != nil {
		return err
	}
	if err = links.RecordCheck(ctx, link.ID, available, time.Now().UTC()); err != nil {
		return fmt.Errorf("record check of link %d: %w", link.ID, err)
	}
	return nil
}
