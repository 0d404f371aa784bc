package service

import (
	"context"
	"fmt"
	"io"
	"time"

	minio "github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/yeisme/vidvault/pkg/cache"
	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/queue"
)

const thumbnailCacheTTL = time.Hour

// GetForStreaming 加载视频并执行租户/可见性检查，再要求处理已完成.
// 未完成返回 ErrNotReady（同时返回行，调用方读进度），失败返回 ErrProcessingFailed.
func (s *VideoService) GetForStreaming(ctx context.Context, principal *types.Principal, id string) (*model.Video, error) {
	video, err := s.GetForViewer(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	switch video.Status {
	case model.VideoStatusCompleted:
		return video, nil
	case model.VideoStatusFailed:
		return video, ErrProcessingFailed
	default:
		return video, ErrNotReady
	}
}

// OpenRange 以定位读打开原片的 [start, end] 字节区间（闭区间）.
// 返回的 ReadCloser 只覆盖该区间；取消 ctx 会中断后续读取.
func (s *VideoService) OpenRange(ctx context.Context, video *model.Video, start, end int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end); err != nil {
		return nil, fmt.Errorf("set range: %w", err)
	}

	obj, err := s.s3Client.GetObject(ctx, s.s3Client.VideoBucket(), video.StorageKey, opts)
	if err != nil {
		return nil, fmt.Errorf("open object range: %w", err)
	}

	return obj, nil
}

// OpenFull 打开整个原片.
func (s *VideoService) OpenFull(ctx context.Context, video *model.Video) (io.ReadCloser, error) {
	obj, err := s.s3Client.GetObject(ctx, s.s3Client.VideoBucket(), video.StorageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}

	return obj, nil
}

// Thumbnail 返回封面 JPEG 字节. 封面是小对象，经 KV 缓存一小时.
func (s *VideoService) Thumbnail(ctx context.Context, principal *types.Principal, id string) ([]byte, error) {
	video, err := s.GetForViewer(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if video.ThumbnailKey == "" {
		return nil, ErrNoThumbnail
	}

	fetch := func() ([]byte, error) {
		obj, err := s.s3Client.GetObject(ctx, s.s3Client.ThumbnailBucket(), video.ThumbnailKey, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("open thumbnail: %w", err)
		}
		defer func() { _ = obj.Close() }()

		data, err := io.ReadAll(obj)
		if err != nil {
			return nil, fmt.Errorf("read thumbnail: %w", err)
		}

		return data, nil
	}

	if s.kvClient == nil {
		return fetch()
	}

	return cache.GetOrSet(ctx, cache.NewCache(s.kvClient), "thumb:"+video.ID, fetch, thumbnailCacheTTL)
}

// RecordView 异步的观看计数：view_count 原子自增并刷新 last_viewed_at.
// 尽力而为，失败不影响已经开始的传输.
func (s *VideoService) RecordView(ctx context.Context, video *model.Video, viewerID string) {
	now := time.Now().UTC()

	if err := s.dbClient.WithContext(ctx).Model(&model.Video{}).
		Where("id = ?", video.ID).
		Updates(map[string]any{
			"view_count":     gorm.Expr("view_count + 1"),
			"last_viewed_at": now,
		}).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("video", video.ID).Msg("record view failed")
		return
	}

	if eventsEnabled(func(c configs.VideoEventsConfig) bool { return c.Viewed }) {
		if err := queue.PublishVideoViewed(s.mqClient.Publisher(), queue.VideoViewedPayload{
			Video: queue.VideoRef{
				VideoID:        video.ID,
				OrganizationID: video.OrganizationID,
			},
			ViewerID: viewerID,
		}); err != nil {
			nlog.Logger().Debug().Err(err).Str("video", video.ID).Msg("publish viewed event failed")
		}
	}
}
