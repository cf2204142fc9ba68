package scheduler

import (
	"context"
	"fmt"

	ingestionservice "autohaul_crm_backend/internal/ingestion/service"
	"autohaul_crm_backend/platform/config"
	"autohaul_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	ingestion *ingestionservice.Service
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, ingestion *ingestionservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		ingestion: ingestion,
		log:       log,
	}

	mux.HandleFunc(TaskIngestionPoll, w.handleIngestionPoll)

	return w, nil
}

func (w *Worker) handleIngestionPoll(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIngestionPollPayload(task)
	if err != nil {
		return err
	}

	w.log.Info("polling ingestion feeds", "requestedAt", payload.RequestedAt)
	return w.ingestion.PollFeeds(ctx)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
