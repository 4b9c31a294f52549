package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chat-digest-mailer/internal/adapters/repo"
	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/infra/config"
	"chat-digest-mailer/internal/infra/db"
	infralog "chat-digest-mailer/internal/infra/log"
	"chat-digest-mailer/internal/infra/metrics"
	"chat-digest-mailer/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	log.Logger = infralog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.With().Str("component", "scheduler").Logger()
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	jobs, err := buildQueue(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler: не удалось создать очередь")
	}

	window := time.Duration(cfg.Digest.WindowHours) * time.Hour
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	logger.Info().Dur("window", window).Msg("scheduler: запущен")
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			enqueueAll(ctx, logger, repoAdapter, jobs, now.UTC(), window)
		}
	}
}

func enqueueAll(ctx context.Context, logger zerolog.Logger, users domain.UserRepo, jobs domain.DigestQueue, now time.Time, window time.Duration) {
	recipients, err := users.ListDigestRecipients(now)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: ошибка выборки пользователей")
		return
	}
	cutoff := now.Add(-window).Unix()
	for _, user := range recipients {
		job := domain.DigestJob{ID: uuid.NewString(), UserID: user.ID, Cutoff: cutoff}
		if err := jobs.Enqueue(ctx, job); err != nil {
			logger.Error().Err(err).Int64("user", user.ID).Msg("scheduler: не удалось поставить задачу")
			continue
		}
		metrics.DigestJobsEnqueued.Inc()
	}
}

func buildQueue(cfg config.AppConfig) (domain.DigestQueue, error) {
	if cfg.AMQPURL != "" {
		return queue.NewRabbitDigestQueue(cfg.AMQPURL, cfg.Digest.QueueName)
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return queue.NewRedisDigestQueue(client, cfg.Digest.QueueName), nil
}
