package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/infra/config"
	httpinfra "chat-digest-mailer/internal/infra/http"
	infralog "chat-digest-mailer/internal/infra/log"
	"chat-digest-mailer/internal/infra/metrics"
	"chat-digest-mailer/internal/infra/queue"
)

type enqueueRequest struct {
	UserID int64 `json:"user_id"`
	Cutoff int64 `json:"cutoff"`
}

func main() {
	cfg := config.Load()
	log.Logger = infralog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs, err := buildQueue(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("api: не удалось создать очередь")
	}

	server := httpinfra.NewServer(log.With().Str("component", "api").Logger())
	server.Router.Post("/api/v1/digests", func(w http.ResponseWriter, r *http.Request) {
		var req enqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "некорректное тело запроса")
			return
		}
		if req.UserID <= 0 || req.Cutoff <= 0 {
			writeError(w, http.StatusBadRequest, "user_id и cutoff обязательны")
			return
		}
		job := domain.DigestJob{ID: uuid.NewString(), UserID: req.UserID, Cutoff: req.Cutoff}
		if err := jobs.Enqueue(r.Context(), job); err != nil {
			log.Error().Err(err).Int64("user", req.UserID).Msg("api: не удалось поставить задачу")
			writeError(w, http.StatusInternalServerError, "очередь недоступна")
			return
		}
		metrics.DigestJobsEnqueued.Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": job.ID})
	})

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("api: сервер остановлен")
	}
}

func buildQueue(cfg config.AppConfig) (domain.DigestQueue, error) {
	if cfg.AMQPURL != "" {
		return queue.NewRabbitDigestQueue(cfg.AMQPURL, cfg.Digest.QueueName)
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return queue.NewRedisDigestQueue(client, cfg.Digest.QueueName), nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
