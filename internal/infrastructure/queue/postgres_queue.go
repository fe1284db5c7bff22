package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"travelbook/services/support-api/internal/infrastructure/database/entities"
)

// PostgresQueue implements TaskQueue on the reply_jobs table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed task queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-queue").Logger(),
	}
}

// Enqueue inserts a queued reply job.
func (q *PostgresQueue) Enqueue(ctx context.Context, task *Task) error {
	entity := entities.ReplyJob{
		ConversationID: task.ConversationID,
		MessageID:      task.MessageID,
		Status:         entities.ReplyJobQueued,
		TriggerBody:    task.TriggerBody,
		Language:       task.Language,
		QueuedAt:       time.Now(),
	}

	if err := q.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("enqueue reply job: %w", err)
	}

	task.JobID = entity.ID
	task.QueuedAt = entity.QueuedAt
	return nil
}

// Dequeue fetches the next queued job using FOR UPDATE SKIP LOCKED.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Task, error) {
	var entity entities.ReplyJob

	err := q.db.WithContext(ctx).
		Raw("SELECT * FROM reply_jobs WHERE status = ? ORDER BY queued_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED", "queued").
		Scan(&entity).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // No jobs available
		}
		return nil, fmt.Errorf("dequeue reply job: %w", err)
	}

	// Check if no rows were returned (entity.ID will be 0)
	if entity.ID == 0 {
		return nil, nil // No jobs available
	}

	task := &Task{
		JobID:          entity.ID,
		ConversationID: entity.ConversationID,
		MessageID:      entity.MessageID,
		TriggerBody:    entity.TriggerBody,
		Language:       entity.Language,
		QueuedAt:       entity.QueuedAt,
	}

	return task, nil
}

// MarkProcessing updates the job status to in_progress.
func (q *PostgresQueue) MarkProcessing(ctx context.Context, jobID uint) error {
	now := time.Now()
	result := q.db.WithContext(ctx).
		Model(&entities.ReplyJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":     "in_progress",
			"started_at": now,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("mark processing: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("reply job not found: %d", jobID)
	}

	return nil
}

// MarkCompleted updates the job status to completed.
func (q *PostgresQueue) MarkCompleted(ctx context.Context, jobID uint) error {
	now := time.Now()
	result := q.db.WithContext(ctx).
		Model(&entities.ReplyJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": now,
			"updated_at":   now,
		})

	if result.Error != nil {
		return fmt.Errorf("mark completed: %w", result.Error)
	}

	return nil
}

// MarkFailed updates the job status to failed and records the error.
func (q *PostgresQueue) MarkFailed(ctx context.Context, jobID uint, taskErr error) error {
	now := time.Now()
	errorJSON, _ := json.Marshal(map[string]interface{}{
		"code":    "reply_job_failed",
		"message": taskErr.Error(),
	})

	result := q.db.WithContext(ctx).
		Model(&entities.ReplyJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":     "failed",
			"error":      errorJSON,
			"failed_at":  now,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("mark failed: %w", result.Error)
	}

	return nil
}

// GetQueueDepth returns the number of queued jobs.
func (q *PostgresQueue) GetQueueDepth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&entities.ReplyJob{}).
		Where("status = ?", "queued").
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("get queue depth: %w", err)
	}

	return count, nil
}
