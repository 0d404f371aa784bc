package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/queue"
)

// loadVideo 按 ID 加载视频行.
func (s *VideoService) loadVideo(ctx context.Context, id string) (*model.Video, error) {
	var video model.Video

	err := s.dbClient.WithContext(ctx).First(&video, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("load video: %w", err)
	}

	return &video, nil
}

// GetForViewer 加载视频并执行租户与可见性检查.
//   - public：任何人（含匿名）可读
//   - 其余：要求已认证且租户一致；跨租户一律按不存在处理，避免探测
//   - private：再要求 上传者本人 / 同租户管理员 / 在额外授权列表中
func (s *VideoService) GetForViewer(ctx context.Context, principal *types.Principal, id string) (*model.Video, error) {
	video, err := s.loadVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if video.Visibility == model.VisibilityPublic {
		return video, nil
	}

	if principal == nil || principal.TenantID != video.OrganizationID {
		return nil, ErrNotFound
	}

	if video.Visibility == model.VisibilityPrivate {
		if principal.SubjectID != video.UploadedBy && !principal.IsAdmin() && !video.UserAllowed(principal.SubjectID) {
			return nil, ErrForbidden
		}
	}

	return video, nil
}

// getForOwner 加载视频，要求 上传者本人 或 同租户管理员.
func (s *VideoService) getForOwner(ctx context.Context, principal *types.Principal, id string) (*model.Video, error) {
	video, err := s.loadVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if principal == nil || principal.TenantID != video.OrganizationID {
		return nil, ErrNotFound
	}

	if principal.SubjectID != video.UploadedBy && !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	return video, nil
}

// Update 修改标题/描述/可见性.
func (s *VideoService) Update(ctx context.Context, principal *types.Principal, id string, req *types.UpdateVideoRequest) (*model.Video, error) {
	video, err := s.getForOwner(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}

	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}

	if req.Visibility != nil {
		updates["visibility"] = model.Visibility(strings.ToLower(*req.Visibility))
	}

	if len(updates) == 0 {
		return video, nil
	}

	if err := s.dbClient.WithContext(ctx).Model(&model.Video{}).
		Where("id = ?", video.ID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	return s.loadVideo(ctx, id)
}

// Delete 删除视频：清理原片与封面对象，再删行（软删除）.
// 重复删除按 ErrNotFound 暴露，对象最多被清理一次.
func (s *VideoService) Delete(ctx context.Context, principal *types.Principal, id string) error {
	video, err := s.getForOwner(ctx, principal, id)
	if err != nil {
		return err
	}

	s.removeBlob(ctx, s.s3Client.VideoBucket(), video.StorageKey)

	if video.ThumbnailKey != "" {
		s.removeBlob(ctx, s.s3Client.ThumbnailBucket(), video.ThumbnailKey)

		if s.kvClient != nil {
			_ = s.kvClient.Delete(ctx, "thumb:"+video.ID)
		}
	}

	if err := s.dbClient.WithContext(ctx).Delete(&model.Video{}, "id = ?", video.ID).Error; err != nil {
		return fmt.Errorf("delete video row: %w", err)
	}

	if eventsEnabled(func(c configs.VideoEventsConfig) bool { return c.Deleted }) {
		if err := queue.PublishVideoDeleted(s.mqClient.Publisher(), queue.VideoDeletedPayload{
			Video: queue.VideoRef{
				VideoID:        video.ID,
				OrganizationID: video.OrganizationID,
				StorageKey:     video.StorageKey,
			},
			ThumbnailKey: video.ThumbnailKey,
		}); err != nil {
			nlog.Logger().Warn().Err(err).Str("video", video.ID).Msg("publish deleted event failed")
		}
	}

	nlog.Logger().Info().Str("video", video.ID).Str("org", video.OrganizationID).Msg("video deleted")

	return nil
}

// Status 返回处理状态摘要.
func (s *VideoService) Status(ctx context.Context, principal *types.Principal, id string) (*types.VideoStatusResponse, error) {
	video, err := s.GetForViewer(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	return &types.VideoStatusResponse{
		Status:            video.Status,
		Progress:          video.ProcessingProgress,
		SensitivityStatus: video.Sensitivity.Status,
	}, nil
}
