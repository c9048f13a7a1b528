package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	api "lifehub-backend/cmd/api"
	chatDelivery "lifehub-backend/internal/chat/delivery"
	chatDomain "lifehub-backend/internal/chat/domain"
	chatRepo "lifehub-backend/internal/chat/repository"
	chatUsecase "lifehub-backend/internal/chat/usecase"
	notiDelivery "lifehub-backend/internal/notification/delivery"
	"lifehub-backend/internal/notification/dispatcher"
	notiDomain "lifehub-backend/internal/notification/domain"
	"lifehub-backend/internal/notification/queue"
	notiRepo "lifehub-backend/internal/notification/repository"
	"lifehub-backend/internal/notification/worker"
	"lifehub-backend/internal/presence"
	"lifehub-backend/internal/realtime"
	"lifehub-backend/pkg/config"
	"lifehub-backend/pkg/database"
	"lifehub-backend/pkg/fcm"
	"lifehub-backend/pkg/identity"
	"lifehub-backend/pkg/keepalive"
	"lifehub-backend/pkg/logger"
	"lifehub-backend/pkg/storage"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Environment != "production")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		runServer(cfg, log)
	case "worker":
		runWorker(cfg, log)
	case "migrate":
		runMigrations(cfg, log)
	default:
		log.Fatalf("unknown command %q (expected serve, worker or migrate)", cmd)
	}
}

func runServer(cfg *config.Config, log *zap.SugaredLogger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	tokenRepo := notiRepo.NewTokenRepository(db)
	chatRepository := chatRepo.NewChatRepository(db)

	transport := newPushTransport(cfg, log)
	pushDispatcher := dispatcher.New(tokenRepo, transport, log)

	// Presence and the delivery queue ride on Redis when configured.
	// Without it both fall back to in-process state, which only works
	// for a single server instance, and the push worker runs inline
	// because a separate worker process could not see the queue.
	var presenceStore presence.Store
	var pushQueue queue.Queue
	inlineWorker := false
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		presenceStore = presence.NewRedisStore(redisClient, log)
		pushQueue = queue.NewRedisQueue(redisClient)
	} else {
		log.Warn("[Init] REDIS_URL not set, using in-process presence and queue (single instance only)")
		presenceStore = presence.NewMemoryStore()
		pushQueue = queue.NewMemoryQueue()
		inlineWorker = true
	}

	var mediaStore storage.Store
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			log.Fatalf("failed to initialize media storage: %v", err)
		}
		mediaStore = s3Store
	} else {
		log.Warn("[Init] S3_BUCKET not set, media uploads disabled")
	}

	var verifier identity.Verifier
	if cfg.IdentityURL != "" {
		verifier = identity.NewHTTPVerifier(cfg.IdentityURL, cfg.IdentityAPIKey)
	} else {
		log.Warn("[Init] IDENTITY_URL not set, falling back to local JWT verification")
		verifier = identity.NewJWTVerifier(cfg.JWTSecret)
	}

	hub := realtime.NewHub(log)
	gateway := realtime.NewGateway(hub, presenceStore, log)

	chatUC := chatUsecase.NewChatUsecase(chatRepository, mediaStore, presenceStore, pushQueue, hub, log)
	chatHandler := chatDelivery.NewChatHandler(chatUC, log)
	notiHandler := notiDelivery.NewNotificationHandler(tokenRepo, pushDispatcher, log)

	if inlineWorker {
		w := worker.New(pushQueue, pushDispatcher, log, cfg.WorkerPollInterval, cfg.PushSendTimeout)
		go w.Run(ctx)
	}

	keepalive.NewPinger(cfg.APIURL, cfg.KeepAliveInterval, log).Start(ctx)

	handler := api.NewHandler(chatHandler, notiHandler, gateway, verifier, cfg, log)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Engine(),
	}

	go func() {
		log.Infof("[Init] server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("[Shutdown] signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[Shutdown] server shutdown: %v", err)
	}
	log.Info("[Shutdown] done")
}

func runWorker(cfg *config.Config, log *zap.SugaredLogger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RedisURL == "" {
		log.Fatal("worker requires REDIS_URL (the in-process queue is not shared across processes)")
	}

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	tokenRepo := notiRepo.NewTokenRepository(db)
	transport := newPushTransport(cfg, log)
	pushDispatcher := dispatcher.New(tokenRepo, transport, log)

	w := worker.New(queue.NewRedisQueue(redisClient), pushDispatcher, log, cfg.WorkerPollInterval, cfg.PushSendTimeout)
	log.Info("[Worker] push worker started")
	w.Run(ctx)
	log.Info("[Worker] stopped")
}

func runMigrations(cfg *config.Config, log *zap.SugaredLogger) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Info("[Migrate] schema up to date")
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&chatDomain.Chat{},
		&chatDomain.Message{},
		&notiDomain.PushToken{},
	)
}

func newRedisClient(rawURL string) (redis.UniversalClient, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// newPushTransport returns the FCM client, or a transport that rejects
// every send when Firebase credentials are not configured.
func newPushTransport(cfg *config.Config, log *zap.SugaredLogger) dispatcher.Transport {
	if cfg.FirebaseCredentials == "" {
		log.Warn("[Init] FIREBASE_CREDENTIALS not set, push delivery disabled")
		return disabledTransport{}
	}
	client, err := fcm.NewClient(cfg.FirebaseCredentials)
	if err != nil {
		log.Warnf("[Init] failed to initialize FCM client, push delivery disabled: %v", err)
		return disabledTransport{}
	}
	return client
}

type disabledTransport struct{}

func (disabledTransport) Send(ctx context.Context, tokens []string, payload fcm.Payload, opts fcm.Options, onInvalid func(token string)) (*fcm.BatchResult, error) {
	return nil, errors.New("push transport not configured")
}
