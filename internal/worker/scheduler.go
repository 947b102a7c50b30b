package worker

import (
	"Go_Blog/internal/repo"
	"Go_Blog/internal/task"
	"context"
	"errors"
	"log"
	"time"
)

// Locker guards one scheduling round across worker instances.
type Locker interface {
	Lock(ctx context.Context) error
}

// Scheduler enqueues a check for every friend link once per interval. The
// round lock is left to expire so that other instances skip the round.
type Scheduler struct {
	interval time.Duration
	lock     Locker
	links    task.LinkStore
	pub      task.CheckPublisher
}

func NewScheduler(interval time.Duration, lock Locker, links task.LinkStore, pub task.CheckPublisher) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{interval: interval, lock: lock, links: links, pub: pub}
}

// Run enqueues a round immediately and then on every tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.round(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) round(ctx context.Context) int {
	if s.lock != nil {
		err := s.lock.Lock(ctx)
		if errors.Is(err, repo.ErrLockBusy) {
			return 0
		}
		if err != nil {
			log.Printf("friend scheduler: lock: %v", err)
			return 0
		}
	}
	n, err := task.EnqueueAll(ctx, s.links, s.pub)
	if err != nil {
		log.Printf("friend scheduler: enqueued %d checks: %v", n, err)
		return n
	}
	log.Printf("friend scheduler: enqueued %d checks", n)
	return n
}
