package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"chat-digest-mailer/internal/adapters/mailer"
	"chat-digest-mailer/internal/adapters/render"
	"chat-digest-mailer/internal/adapters/repo"
	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/infra/cache"
	"chat-digest-mailer/internal/infra/config"
	"chat-digest-mailer/internal/infra/db"
	infralog "chat-digest-mailer/internal/infra/log"
	"chat-digest-mailer/internal/infra/metrics"
	"chat-digest-mailer/internal/infra/queue"
	"chat-digest-mailer/internal/usecase/digest"
)

// onceTTL ограничивает окно, в котором повторная задача (user, cutoff)
// считается дубликатом.
const onceTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	log.Logger = infralog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.With().Str("component", "worker").Logger()
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("worker: нет подключения к БД")
	}
	defer pool.Close()

	renderer, err := render.New()
	if err != nil {
		log.Fatal().Err(err).Msg("worker: шаблоны не загрузились")
	}

	smtp, err := mailer.NewSMTP(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("worker: smtp недоступен")
	}

	repoAdapter := repo.NewPostgres(pool)
	service := digest.NewService(repoAdapter, repoAdapter, repoAdapter, repoAdapter, renderer, smtp, cfg.Digest.BaseURL)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	onceLock := cache.NewRedis(redisClient)

	jobs, err := buildQueue(cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("worker: не удалось создать очередь")
	}

	logger.Info().Msg("worker: запущен")
	for {
		job, err := jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Msg("worker: ошибка чтения очереди")
			continue
		}

		key := fmt.Sprintf("digest:sent:%d:%d", job.UserID, job.Cutoff)
		err = onceLock.Once(key, onceTTL, func() error {
			return service.HandleDigestEmail(job.UserID, job.Cutoff)
		})
		if err != nil {
			logger.Error().Err(err).Str("job", job.ID).Int64("user", job.UserID).Msg("worker: дайджест не отправлен")
		}
	}
}

func buildQueue(cfg config.AppConfig, redisClient *redis.Client) (domain.DigestQueue, error) {
	if cfg.AMQPURL != "" {
		return queue.NewRabbitDigestQueue(cfg.AMQPURL, cfg.Digest.QueueName)
	}
	return queue.NewRedisDigestQueue(redisClient, cfg.Digest.QueueName), nil
}
