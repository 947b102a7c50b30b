package worker

import (
	"Go_Blog/config"
	"Go_Blog/internal/metrics"
	"Go_Blog/internal/mq"
	"Go_Blog/internal/task"
	"context"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
)

// requeuer sends checks that failed to persist back through the broker.
type requeuer interface {
	RetryCheck(ctx context.Context, check mq.LinkCheck, delay time.Duration) error
	DeadLetterCheck(ctx context.Context, failed mq.FailedCheck) error
}

// FriendWorker consumes friend link checks.
type FriendWorker struct {
	links       task.LinkStore
	prober      *task.Prober
	limiter     *rate.Limiter
	concurrency int
	prefetch    int
	retryMax    int
	retryDelays []time.Duration
}

func NewFriendWorker(cfg *config.Config, links task.LinkStore) *FriendWorker {
	burst := cfg.FriendCheckBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Inf, burst)
	if cfg.FriendCheckRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.FriendCheckRate), burst)
	}
	return &FriendWorker{
		links:       links,
		prober:      task.NewProber(cfg.FriendCheckTimeout, cfg.FriendCheckAttempts),
		limiter:     limiter,
		concurrency: max(cfg.FriendCheckConcurrency, 1),
		prefetch:    max(cfg.RabbitMQPrefetch, 1),
		retryMax:    max(cfg.FriendRetryMax, 0),
		retryDelays: cfg.FriendRetryDelays,
	}
}

// Run consumes checks from RabbitMQ until ctx is done. At most concurrency
// checks are probed at once.
func (w *FriendWorker) Run(ctx context.Context, client *mq.Client) error {
	deliveries, err := client.ConsumeChecks(w.prefetch)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, w.concurrency)
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("friend worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				w.handleDelivery(ctx, client, d)
			}(delivery)
		}
	}
}

// handleDelivery acks every outcome except cancellation and a failed
// requeue, which go back to the queue.
func (w *FriendWorker) handleDelivery(ctx context.Context, rq requeuer, delivery amqp.Delivery) {
	check, err := mq.DecodeCheck(delivery.Body)
	if err != nil {
		log.Printf("friend worker: drop delivery: %v", err)
		metrics.FriendChecks.WithLabelValues("malformed").Inc()
		_ = delivery.Ack(false)
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		_ = delivery.Nack(false, true)
		return
	}

	err = task.ProcessFriendCheck(ctx, w.links, w.prober, check)
	switch {
	case err == nil:
		metrics.FriendChecks.WithLabelValues("checked").Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		_ = delivery.Nack(false, true)
		return
	case errors.Is(err, task.ErrLinkGone):
		metrics.FriendChecks.WithLabelValues("gone").Inc()
	default:
		if rqErr := w.requeue(ctx, rq, check, err); rqErr != nil {
			log.Printf("friend worker: requeue link %d: %v", check.LinkID, rqErr)
			_ = delivery.Nack(false, true)
			return
		}
	}
	_ = delivery.Ack(false)
}

// requeue schedules another attempt for check, or parks it in the
// dead-letter queue once retryMax attempts are spent.
func (w *FriendWorker) requeue(ctx context.Context, rq requeuer, check mq.LinkCheck, cause error) error {
	next := check.Attempt + 1
	if w.retryMax == 0 || next > w.retryMax {
		metrics.FriendChecks.WithLabelValues("failed").Inc()
		log.Printf("friend worker: link %d gave up after %d attempts: %v", check.LinkID, check.Attempt, cause)
		if err := rq.DeadLetterCheck(ctx, mq.FailedCheck{
			LinkID:   check.LinkID,
			Attempt:  check.Attempt,
			Error:    cause.Error(),
			FailedAt: time.Now().UTC(),
		}); err != nil {
			log.Printf("friend worker: dead-letter link %d: %v", check.LinkID, err)
		}
		return nil
	}

	delay := pickRetryDelay(next, w.retryDelays)
	metrics.FriendChecks.WithLabelValues("retried").Inc()
	log.Printf("friend worker: link %d attempt %d failed, retry in %s: %v", check.LinkID, next, delay, cause)
	return rq.RetryCheck(ctx, mq.LinkCheck{LinkID: check.LinkID, Attempt: next}, delay)
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
