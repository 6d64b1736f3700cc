package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/queue"
)

// HistoryStore persists chat exchanges processed by the worker.
type HistoryStore interface {
	Append(ctx context.Context, e *models.ChatExchange) error
}

// HistoryWriter consumes history_append jobs and writes exchanges to the store.
type HistoryWriter struct {
	store    HistoryStore
	jobQueue queue.JobQueue
	log      *zap.Logger
}

// NewHistoryWriter creates a new history writer.
func NewHistoryWriter(store HistoryStore, jobQueue queue.JobQueue, log *zap.Logger) *HistoryWriter {
	return &HistoryWriter{
		store:    store,
		jobQueue: jobQueue,
		log:      log,
	}
}

// ProcessJob handles a single history_append job.
func (w *HistoryWriter) ProcessJob(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeHistoryAppend {
		return fmt.Errorf("unexpected job type: %s", job.Type)
	}
	if job.Message == "" && job.Response == "" {
		return fmt.Errorf("empty exchange payload")
	}

	exchange := &models.ChatExchange{
		ID:        job.ExchangeID,
		Message:   job.Message,
		Response:  job.Response,
		CreatedAt: job.CreatedAt,
	}
	if err := w.store.Append(ctx, exchange); err != nil {
		return fmt.Errorf("append exchange: %w", err)
	}

	w.log.Debug("history_exchange_written",
		zap.String("exchange_id", job.ExchangeID.String()))
	return nil
}

// Run consumes jobs from the queue until ctx is cancelled.
// Failed jobs are retried up to Job.MaxRetries, then dead-lettered.
func (w *HistoryWriter) Run(ctx context.Context, prefetchCount int) error {
	msgChan, errChan, err := w.jobQueue.Consume(ctx, prefetchCount)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.log.Info("history_writer_started", zap.Int("prefetch", prefetchCount))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case consumeErr, ok := <-errChan:
			if !ok {
				return nil
			}
			w.log.Error("queue_consume_error", zap.Error(consumeErr))

		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *HistoryWriter) handleMessage(ctx context.Context, msg *queue.Message) {
	job := msg.GetJob()

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := w.ProcessJob(jobCtx, job); err != nil {
		if job.CanRetry() {
			job.IncrementRetry()
			w.log.Warn("history_job_retrying",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Error(err))
			if ackErr := msg.Ack(); ackErr != nil {
				w.log.Error("history_job_ack_failed", zap.Error(ackErr))
				return
			}
			if enqErr := w.jobQueue.Enqueue(ctx, job); enqErr != nil {
				w.log.Error("history_job_requeue_failed",
					zap.String("job_id", job.ID.String()),
					zap.Error(enqErr))
			}
			return
		}

		w.log.Error("history_job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
		if nackErr := msg.Nack(false); nackErr != nil {
			w.log.Error("history_job_nack_failed", zap.Error(nackErr))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		w.log.Error("history_job_ack_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
}
