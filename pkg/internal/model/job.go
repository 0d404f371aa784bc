package model

import (
	"time"
)

// JobState 处理任务状态机：waiting → active → {completed, failed_retrying → waiting, failed}.
type JobState string

const (
	JobStateWaiting        JobState = "waiting"
	JobStateActive         JobState = "active"
	JobStateCompleted      JobState = "completed"
	JobStateFailedRetrying JobState = "failed_retrying"
	JobStateFailed         JobState = "failed"
)

// ProcessingJob 任务队列的持久化状态.
// 消息本体走 JetStream，本行承载进度、心跳与重试簿记，
// 供状态查询、失联回收与保留清理使用.
type ProcessingJob struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	VideoID     string   `gorm:"size:26;index"      json:"video_id"`
	State       JobState `gorm:"size:24;index"      json:"state"`
	Priority    int      `json:"priority"`
	Attempt     int      `json:"attempt"`
	MaxAttempts int      `json:"max_attempts"`
	Progress    int      `json:"progress"`

	Result        string `gorm:"type:text" json:"result,omitempty"`
	FailureReason string `gorm:"type:text" json:"failure_reason,omitempty"`

	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	NextRetryAt *time.Time `gorm:"index" json:"next_retry_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"index" json:"heartbeat_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
