package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// VideoRef 标识一条视频及其租户归属，所有视频事件都携带.
type VideoRef struct {
	VideoID        string `json:"video_id"`
	OrganizationID string `json:"organization_id"`
	StorageKey     string `json:"storage_key,omitempty"`
}

// -------------------------- 视频生命周期 --------------------------

// VideoUploadedPayload 原片写入对象存储并落库后发布.
type VideoUploadedPayload struct {
	Video      VideoRef `json:"video"`
	UploadedBy string   `json:"uploaded_by,omitempty"`
	FileName   string   `json:"file_name,omitempty"`
	FileSize   int64    `json:"file_size,omitempty"`
	Format     string   `json:"format,omitempty"`
}

// VideoDeletedPayload 视频删除（包含被清理的对象键）.
type VideoDeletedPayload struct {
	Video        VideoRef `json:"video"`
	ThumbnailKey string   `json:"thumbnail_key,omitempty"`
}

// VideoViewedPayload 视频被播放.
type VideoViewedPayload struct {
	Video    VideoRef `json:"video"`
	ViewerID string   `json:"viewer_id,omitempty"`
}

// -------------------------- 后台处理流水线 --------------------------

// ProcessRequestedPayload 请求执行处理流水线，JobID 关联队列状态行.
type ProcessRequestedPayload struct {
	Video      VideoRef  `json:"video"`
	JobID      string    `json:"job_id"`
	Attempt    int       `json:"attempt,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// VideoProgressPayload 处理进行中，进度与阶段按序发布.
type VideoProgressPayload struct {
	Video    VideoRef `json:"video"`
	JobID    string   `json:"job_id,omitempty"`
	Progress int      `json:"progress"` // 0-100
	Stage    string   `json:"stage,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// VideoProcessedPayload 处理完成，携带客户端刷新视图需要的最终状态.
type VideoProcessedPayload struct {
	Video             VideoRef `json:"video"`
	JobID             string   `json:"job_id,omitempty"`
	Status            string   `json:"status"`
	SensitivityStatus string   `json:"sensitivity_status,omitempty"`
	SensitivityLevel  string   `json:"sensitivity_level,omitempty"`
	ThumbnailKey      string   `json:"thumbnail_key,omitempty"`
	DurationSeconds   float64  `json:"duration_seconds,omitempty"`
	Width             int      `json:"width,omitempty"`
	Height            int      `json:"height,omitempty"`
}

// VideoProcessFailedPayload 处理失败.
type VideoProcessFailedPayload struct {
	Video    VideoRef `json:"video"`
	JobID    string   `json:"job_id,omitempty"`
	Attempt  int      `json:"attempt,omitempty"`
	Terminal bool     `json:"terminal,omitempty"`
	Error    string   `json:"error"`
}
