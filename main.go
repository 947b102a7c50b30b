package main

import (
	"Go_Blog/config"
	"Go_Blog/internal/feed"
	"Go_Blog/internal/handler"
	"Go_Blog/internal/repo"
	"Go_Blog/internal/service"
	"Go_Blog/internal/storage"
	"Go_Blog/router"
	"Go_Blog/utils"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main initializes services and starts the HTTP server.
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
	tables := repo.NewTables(db)

	var cache utils.Cache
	rdb, err := repo.NewRedis(ctx, cfg)
	if err != nil {
		log.Printf("redis unavailable, running without cache: %v", err)
	} else {
		defer rdb.Close()
		cache = utils.NewRedisCache(rdb)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("init asset storage: %v", err)
	}
	chunks, err := storage.NewChunkStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("init chunk storage: %v", err)
	}

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.GitHubClientID, time.Duration(cfg.TokenExpireDays)*24*time.Hour)
	users := service.NewUserService(tables.Users, cache, cfg.CacheTTL)
	articles := service.NewArticleService(tables.Articles, cache, cfg.CacheTTL, cfg.ArticlePageSize)
	uploads := service.NewUploadManager(service.UploadOptionsFromConfig(cfg), chunks, store, tables.Assets)
	defer uploads.Shutdown()

	var notifier service.CommentNotifier
	if mailer := utils.NewSMTPMailer(cfg); mailer != nil {
		notifier = service.NewMailNotifier(mailer, cfg.NotifyEmail, cfg.SiteURL)
	}
	tree := service.NewCommentTree(service.NewTableCommentStore(tables.Comments), cfg.CommentMaxDepth)

	h := handler.New(handler.Deps{
		Config:        cfg,
		Users:         users,
		Auth:          service.NewAuthService(cfg, users, issuer),
		Articles:      articles,
		Comments:      service.NewCommentService(tree, tables.Comments, tables.Articles, notifier, cfg.CommentPageSize),
		Uploads:       uploads,
		Assets:        service.NewAssetService(tables.Assets, store, uploads),
		Friends:       service.NewFriendService(tables.Friends),
		Notifications: service.NewNotificationService(tables.Comments, users),
		Feed: feed.NewGenerator(articles, cache, cfg.CacheTTL, feed.Site{
			Title:       cfg.SiteTitle,
			Description: cfg.SiteDescription,
			URL:         cfg.SiteURL,
			Author:      cfg.SiteAuthor,
		}),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.InitRouter(cfg, h, issuer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("blog server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
