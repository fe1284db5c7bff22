package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"travelbook/services/support-api/internal/domain/autoreply"
	"travelbook/services/support-api/internal/domain/messaging"
	"travelbook/services/support-api/internal/domain/retry"
	"travelbook/services/support-api/internal/infrastructure/metrics"
	"travelbook/services/support-api/internal/infrastructure/observability"
	"travelbook/services/support-api/internal/infrastructure/queue"
	"travelbook/services/support-api/internal/webhook"
)

// Worker processes auto-reply jobs from the queue.
type Worker struct {
	id          int
	queue       queue.TaskQueue
	trigger     *autoreply.Trigger
	messaging   *messaging.Service
	notifier    webhook.Service
	retryPolicy retry.Policy
	taskTimeout time.Duration
	log         zerolog.Logger
	stopChan    chan struct{}
}

// NewWorker creates a new background worker.
func NewWorker(
	id int,
	queue queue.TaskQueue,
	trigger *autoreply.Trigger,
	messagingService *messaging.Service,
	notifier webhook.Service,
	taskTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:          id,
		queue:       queue,
		trigger:     trigger,
		messaging:   messagingService,
		notifier:    notifier,
		retryPolicy: retry.ConservativePolicy(),
		taskTimeout: taskTimeout,
		log:         log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start begins processing jobs from the queue.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(2 * time.Second) // Poll every 2 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.processNextJob(ctx)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextJob(ctx context.Context) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to dequeue job")
		return
	}

	if task == nil {
		// No jobs available
		return
	}

	w.log.Info().
		Uint("job_id", task.JobID).
		Uint("conversation_id", task.ConversationID).
		Msg("processing auto-reply job")

	if err := w.queue.MarkProcessing(ctx, task.JobID); err != nil {
		w.log.Error().Err(err).Uint("job_id", task.JobID).Msg("failed to mark processing")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	if err := w.executeJob(jobCtx, task); err != nil {
		w.log.Error().Err(err).Uint("job_id", task.JobID).Msg("job execution failed")
		metrics.RecordReplyJob("failed")
		if markErr := w.queue.MarkFailed(ctx, task.JobID, err); markErr != nil {
			w.log.Error().Err(markErr).Uint("job_id", task.JobID).Msg("failed to mark job as failed")
		}
		w.notifyFailure(ctx, task, err)
		return
	}

	if err := w.queue.MarkCompleted(ctx, task.JobID); err != nil {
		w.log.Error().Err(err).Uint("job_id", task.JobID).Msg("failed to mark job as completed")
		return
	}

	metrics.RecordReplyJob("completed")
	w.log.Info().Uint("job_id", task.JobID).Msg("job completed successfully")
}

func (w *Worker) executeJob(ctx context.Context, task *queue.Task) error {
	ctx, span := observability.StartReplyJobSpan(ctx, task.JobID, task.Language)
	defer span.End()

	body, err := retry.ExecuteWithResult(ctx, w.retryPolicy, func(ctx context.Context, attempt int) (string, error) {
		return w.trigger.BuildReply(ctx, task.TriggerBody, task.Language)
	})
	if err != nil {
		observability.RecordError(span, err)
		return err
	}

	if _, err := w.messaging.SendSystemReply(ctx, task.ConversationID, body); err != nil {
		observability.RecordError(span, err)
		return err
	}
	return nil
}

func (w *Worker) notifyFailure(ctx context.Context, task *queue.Task, jobErr error) {
	if w.notifier == nil {
		return
	}
	publicID, err := w.messaging.ConversationPublicID(ctx, task.ConversationID)
	if err != nil {
		w.log.Error().Err(err).Uint("job_id", task.JobID).Msg("failed to resolve conversation for failure notice")
		return
	}
	if err := w.notifier.NotifyReplyFailed(ctx, publicID, task.JobID, jobErr.Error()); err != nil {
		w.log.Error().Err(err).Uint("job_id", task.JobID).Msg("failed to deliver failure notice")
	}
}
