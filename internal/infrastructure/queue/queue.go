package queue

import (
	"context"
	"time"
)

// Task represents a queued auto-reply job.
type Task struct {
	JobID          uint
	ConversationID uint
	MessageID      uint
	TriggerBody    string
	Language       string
	QueuedAt       time.Time
}

// TaskQueue defines the interface for the durable auto-reply queue.
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(ctx context.Context, task *Task) error

	// Dequeue fetches the next available task using SELECT FOR UPDATE SKIP LOCKED
	Dequeue(ctx context.Context) (*Task, error)

	// MarkProcessing updates task status to in_progress
	MarkProcessing(ctx context.Context, jobID uint) error

	// MarkCompleted updates task status to completed
	MarkCompleted(ctx context.Context, jobID uint) error

	// MarkFailed updates task status to failed
	MarkFailed(ctx context.Context, jobID uint, err error) error

	// GetQueueDepth returns the number of queued tasks
	GetQueueDepth(ctx context.Context) (int64, error)
}
