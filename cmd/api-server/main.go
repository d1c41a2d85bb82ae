// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mortgage-api/internal/api"
	"mortgage-api/internal/common/auth"
	"mortgage-api/internal/common/aws"
	"mortgage-api/internal/common/config"
	"mortgage-api/internal/common/database"
	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/common/observability"
	"mortgage-api/internal/common/validation"
	"mortgage-api/internal/events"
	"mortgage-api/internal/notify"
	"mortgage-api/internal/service"
	"mortgage-api/internal/store"
	"mortgage-api/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting api server", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"port":        cfg.Server.Port,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := connectPostgres(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("postgres unavailable", nil)
		os.Exit(1)
	}
	defer pg.Close()

	redisClient, err := connectRedis(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("redis unavailable", nil)
		os.Exit(1)
	}
	defer redisClient.Close()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown(context.Background())

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("event publisher setup failed", nil)
		os.Exit(1)
	}

	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("notifier setup failed", nil)
		os.Exit(1)
	}

	blob, err := aws.NewS3Client(ctx, cfg.AWS.Region)
	if err != nil {
		log.WithError(err).Error("s3 client setup failed", nil)
		os.Exit(1)
	}

	validator, err := validation.NewValidator(validation.ApplicationSubmissionSchema)
	if err != nil {
		log.WithError(err).Error("submission schema invalid", nil)
		os.Exit(1)
	}

	appStore := store.NewApplicationStore(pg.DB, log)
	decisionStore := store.NewDecisionStore(pg.DB, log)
	userStore := store.NewUserStore(pg.DB, log)

	tokens := auth.NewTokenProvider(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.Issuer,
		time.Duration(cfg.Auth.JWT.TTLHours)*time.Hour,
	)

	applications := service.NewApplicationService(
		appStore, validator, blob, redisClient.Client, publisher,
		service.ApplicationOptions{
			Bucket:        cfg.AWS.S3.Bucket,
			KeyPrefix:     cfg.AWS.S3.KeyPrefix + "/",
			PresignTTL:    time.Duration(cfg.AWS.S3.PresignTTLDays) * 24 * time.Hour,
			CacheTTL:      time.Duration(cfg.Database.Redis.CacheTTL) * time.Second,
			PublishOnRead: cfg.Events.PublishOnRead,
		},
		log,
	)
	decisions := service.NewDecisionEngine(
		appStore, decisionStore, userStore, redisClient.Client, publisher, notifier, log,
	)
	users := service.NewUserService(userStore, tokens, log)

	handlers := api.NewHandlers(applications, decisions, users, log)
	router := api.NewRouter(handlers, tokens, log, obs)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": server.Addr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received", nil)
	case err := <-errCh:
		log.WithError(err).Error("http server failed", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete", nil)
	}
	log.Info("server stopped", nil)
}

// connectPostgres retries the initial connection so the service survives a
// database that comes up a little later.
func connectPostgres(ctx context.Context, cfg *config.Config, log logger.Logger) (*database.PostgresClient, error) {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}

	err = retryWithBackoff(ctx, 5, 2*time.Second, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, log, "postgres")
	if err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*database.RedisClient, error) {
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, err
	}

	err = retryWithBackoff(ctx, 5, 2*time.Second, func() error {
		return rdb.Ping(ctx)
	}, log, "redis")
	if err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// buildPublisher assembles the SNS publisher with its Elasticsearch audit
// sink, or a no-op publisher when SNS is disabled.
func buildPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (events.Publisher, error) {
	if !cfg.AWS.SNS.Enabled {
		log.Warn("event publishing disabled", nil)
		return events.NopPublisher{}, nil
	}

	snsClient, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}

	reg, err := loadRegistry(cfg.Events.RegistryPath)
	if err != nil {
		return nil, err
	}

	var audit *events.AuditSink
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		if err := es.Ping(); err != nil {
			log.WithError(err).Warn("elasticsearch unreachable, audit sink disabled", nil)
		} else {
			audit = events.NewAuditSink(es.Client, cfg.Events.AuditIndex, log)
		}
	}

	return events.NewSNSPublisher(
		snsClient,
		cfg.AWS.SNS.TopicARN,
		cfg.Events.Topic,
		reg,
		audit,
		time.Duration(cfg.Events.TimeoutMillis)*time.Millisecond,
		log,
	), nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.New()
	}
	return registry.Load(path)
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.EmailNotifier, error) {
	if !cfg.AWS.SES.Enabled {
		return nil, nil
	}
	sesClient, err := aws.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}
	return notify.NewEmailNotifier(sesClient, cfg.AWS.SES.FromEmail, true, log), nil
}

func retryWithBackoff(ctx context.Context, attempts int, initial time.Duration, fn func() error, log logger.Logger, name string) error {
	delay := initial
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.WithError(err).Warn("connection attempt failed, retrying", map[string]interface{}{
			"target":  name,
			"attempt": i,
			"delay":   delay.String(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
