package main

import (
	"Go_Blog/config"
	"Go_Blog/internal/mq"
	"Go_Blog/internal/repo"
	"Go_Blog/internal/service"
	"Go_Blog/internal/worker"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	friends := service.NewFriendService(repo.NewTables(db).Friends)

	var lock worker.Locker
	rdb, err := repo.NewRedis(ctx, cfg)
	if err != nil {
		log.Printf("redis unavailable, scheduling without a lock: %v", err)
	} else {
		defer rdb.Close()
		lock = repo.NewRedisLock(rdb, "lock:friendcheck", cfg.FriendCheckInterval/2)
	}

	publisher := mq.NewPublisher(cfg.RabbitMQURL)
	defer publisher.Close()
	go worker.NewScheduler(cfg.FriendCheckInterval, lock, friends, publisher).Run(ctx)

	client, err := mq.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("dial rabbitmq: %v", err)
	}
	defer client.Close()

	log.Println("friend check worker started")
	if err := worker.NewFriendWorker(cfg, friends).Run(ctx, client); err != nil {
		log.Fatalf("friend check worker stopped: %v", err)
	}
}
