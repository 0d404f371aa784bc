package hub

import (
	"context"

	mqc "github.com/yeisme/vidvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/queue"
)

// progressEvent 下发给客户端的进度负载.
type progressEvent struct {
	VideoID  string `json:"video_id"`
	Progress int    `json:"progress"`
	Stage    string `json:"stage,omitempty"`
	Message  string `json:"message,omitempty"`
}

// completeEvent 下发给客户端的完成负载.
type completeEvent struct {
	VideoID     string `json:"video_id"`
	Status      string `json:"status"`
	Sensitivity struct {
		Status string `json:"status,omitempty"`
		Level  string `json:"level,omitempty"`
	} `json:"sensitivity"`
	ThumbnailKey string  `json:"thumbnail_key,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Resolution   struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"resolution"`
}

// failedEvent 下发给客户端的失败负载.
type failedEvent struct {
	VideoID string `json:"video_id"`
	Error   string `json:"error"`
}

// RunBridge 订阅处理流水线的事件主题，将其扇出到对应的租户/视频房间.
// 阻塞直到 ctx 取消. Worker 先落库再发布，客户端收到 complete 后回读必然看到终态.
func (h *Hub) RunBridge(ctx context.Context, mq *mqc.Client) error {
	progressCh, err := mq.Subscribe(ctx, queue.TopicVideoProgress)
	if err != nil {
		return err
	}

	completedCh, err := mq.Subscribe(ctx, queue.TopicVideoProcessed)
	if err != nil {
		return err
	}

	failedCh, err := mq.Subscribe(ctx, queue.TopicVideoProcessFailed)
	if err != nil {
		return err
	}

	l := nlog.Logger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-progressCh:
			if !ok {
				return nil
			}

			env, err := queue.ParseVideoProgress(msg)
			if err != nil {
				l.Warn().Err(err).Msg("drop unparsable progress event")
				msg.Ack()

				continue
			}

			data := progressEvent{
				VideoID:  env.Payload.Video.VideoID,
				Progress: env.Payload.Progress,
				Stage:    env.Payload.Stage,
				Message:  env.Payload.Message,
			}

			h.Emit(OrgRoom(env.Payload.Video.OrganizationID), EventVideoProgress, data)
			h.Emit(VideoRoom(env.Payload.Video.VideoID), EventVideoProgress, data)
			msg.Ack()

		case msg, ok := <-completedCh:
			if !ok {
				return nil
			}

			env, err := queue.ParseVideoProcessed(msg)
			if err != nil {
				l.Warn().Err(err).Msg("drop unparsable completed event")
				msg.Ack()

				continue
			}

			data := completeEvent{
				VideoID:      env.Payload.Video.VideoID,
				Status:       env.Payload.Status,
				ThumbnailKey: env.Payload.ThumbnailKey,
				Duration:     env.Payload.DurationSeconds,
			}
			data.Sensitivity.Status = env.Payload.SensitivityStatus
			data.Sensitivity.Level = env.Payload.SensitivityLevel
			data.Resolution.Width = env.Payload.Width
			data.Resolution.Height = env.Payload.Height

			h.Emit(OrgRoom(env.Payload.Video.OrganizationID), EventVideoComplete, data)
			h.Emit(VideoRoom(env.Payload.Video.VideoID), EventVideoComplete, data)
			msg.Ack()

		case msg, ok := <-failedCh:
			if !ok {
				return nil
			}

			env, err := queue.ParseVideoProcessFailed(msg)
			if err != nil {
				l.Warn().Err(err).Msg("drop unparsable failed event")
				msg.Ack()

				continue
			}

			// 非终态失败还会重试，不向用户下发失败事件
			if !env.Payload.Terminal {
				msg.Ack()
				continue
			}

			data := failedEvent{
				VideoID: env.Payload.Video.VideoID,
				Error:   env.Payload.Error,
			}

			h.Emit(OrgRoom(env.Payload.Video.OrganizationID), EventVideoFailed, data)
			h.Emit(VideoRoom(env.Payload.Video.VideoID), EventVideoFailed, data)
			msg.Ack()
		}
	}
}
