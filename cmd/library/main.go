package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Cleamaster322/library/internal/blacklist"
	"github.com/Cleamaster322/library/internal/config"
	"github.com/Cleamaster322/library/internal/httpserver"
	"github.com/Cleamaster322/library/internal/notify"
	"github.com/Cleamaster322/library/internal/repo"
	"github.com/Cleamaster322/library/internal/service"
	"github.com/Cleamaster322/library/internal/transport"
	pkgdb "github.com/Cleamaster322/library/pkg/db"
	"github.com/Cleamaster322/library/pkg/logging"
	"github.com/Cleamaster322/library/pkg/tokens"
)

func main() {
	cfg, err := config.Load(config.Getenv("ENV_FILE", ".env"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	store, redisClient, err := openBlacklist(cfg, db)
	if err != nil {
		log.Fatalf("blacklist: %v", err)
	}

	issuer := tokens.NewIssuer([]byte(cfg.JWT.AccessSecret), []byte(cfg.JWT.RefreshSecret), cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	validator := transport.NewValidator()
	gormRepo := &repo.GormRepo{DB: db}

	hub := notify.NewHub(notify.Options{
		PingInterval:   cfg.WebSocket.PingInterval,
		PongTimeout:    cfg.WebSocket.PongTimeout,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		SendBuffer:     cfg.WebSocket.SendBuffer,
	}, logger)

	publishers := notify.Fanout{hub}
	var kafkaPub *notify.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		publishers = append(publishers, kafkaPub)
		logger.Info("kafka_mirror_enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	authSvc := &service.AuthService{Repo: gormRepo, Tokens: issuer, Blacklist: store, Validator: validator}
	catalogSvc := &service.CatalogService{Repo: gormRepo, Validator: validator, Publisher: publishers}

	if cfg.AdminSeedEnabled() {
		ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
		_, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		cancel()
		if err != nil {
			log.Fatalf("admin seed: %v", err)
		}
	}

	e := httpserver.New(&httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		WSHandler:      &httpserver.WSHTTP{Hub: hub},
		Issuer:         issuer,
		Validator:      validator,
		DB:             db,
		Logger:         logger,
		AuthRate:       cfg.RateLimit.Rate,
		AuthBurst:      cfg.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "db_driver", cfg.Database.Driver, "blacklist", cfg.Blacklist.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// hijacked websocket connections are not tracked by Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

func openBlacklist(cfg *config.Config, db *gorm.DB) (blacklist.Store, *redis.Client, error) {
	switch cfg.Blacklist.Backend {
	case config.BlacklistRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := blacklist.DialRedis(ctx, cfg.Blacklist.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return blacklist.NewRedis(client), client, nil
	case config.BlacklistDB:
		return blacklist.NewGorm(db), nil, nil
	default:
		return blacklist.NewMemory(), nil, nil
	}
}
