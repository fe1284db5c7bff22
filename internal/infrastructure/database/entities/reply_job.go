package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ReplyJobStatus tracks a job through the durable auto-reply queue.
type ReplyJobStatus string

const (
	ReplyJobQueued     ReplyJobStatus = "queued"
	ReplyJobInProgress ReplyJobStatus = "in_progress"
	ReplyJobCompleted  ReplyJobStatus = "completed"
	ReplyJobFailed     ReplyJobStatus = "failed"
)

// ReplyJob represents the database schema for queued auto-reply work.
// Rows double as an audit trail: completed and failed jobs are kept.
type ReplyJob struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ConversationID uint           `gorm:"index:idx_reply_job_conversation;not null"`
	MessageID      uint           `gorm:"not null"`
	Status         ReplyJobStatus `gorm:"type:varchar(20);index:idx_reply_job_status;not null;default:'queued'"`
	TriggerBody    string         `gorm:"type:varchar(2000);not null"`
	Language       string         `gorm:"type:varchar(8);not null;default:'en'"`

	QueuedAt    time.Time  `gorm:"not null"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
	Error       datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for ReplyJob.
func (ReplyJob) TableName() string {
	return "reply_jobs"
}
