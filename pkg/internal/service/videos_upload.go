package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/types"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/metrics"
	"github.com/yeisme/vidvault/pkg/queue"
)

// Upload 接收一个已通过表单校验的上传：
//  1. 按组织设置校验内容类型与大小
//  2. 写入对象存储（videos/<key>）
//  3. 落库 Video 行（status=processing, progress=0）
//  4. 入队处理任务
//
// 第 2 步之后任何一步失败都尽力删除已写入的对象，保证"拒绝的上传不留痕".
func (s *VideoService) Upload(ctx context.Context, principal *types.Principal,
	form *types.UploadVideoForm, file *multipart.FileHeader) (*model.Video, error) {
	org, err := s.loadOrganization(ctx, principal.TenantID)
	if err != nil {
		return nil, err
	}

	contentType := file.Header.Get("Content-Type")
	if !s.formatAllowed(org, contentType) {
		return nil, ErrFormatNotAllowed
	}

	if file.Size > s.maxVideoSizeBytes(org) {
		return nil, ErrFileTooLarge
	}

	visibility := model.VisibilityPrivate
	if form.Visibility != "" {
		visibility = model.Visibility(strings.ToLower(form.Visibility))
	}

	videoID := model.NewID()
	storageKey := buildStorageKey(videoID, file.Filename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	bucket := s.s3Client.VideoBucket()

	if _, err := s.s3Client.PutObject(ctx, bucket, storageKey, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	video := &model.Video{
		ID:               videoID,
		Title:            strings.TrimSpace(form.Title),
		Description:      strings.TrimSpace(form.Description),
		OriginalFilename: filepath.Base(file.Filename),
		StorageKey:       storageKey,
		FileSize:         file.Size,
		Format:           contentType,
		OrganizationID:   principal.TenantID,
		UploadedBy:       principal.SubjectID,
		Visibility:       visibility,
		Status:           model.VideoStatusProcessing,
		Sensitivity: model.SensitivityInfo{
			Status: model.SensitivityPending,
			Level:  model.SensitivityUnknown,
		},
	}

	if err := s.dbClient.WithContext(ctx).Create(video).Error; err != nil {
		s.removeBlob(ctx, bucket, storageKey)
		return nil, fmt.Errorf("create video row: %w", err)
	}

	if _, err := s.jobs.Enqueue(ctx, video.ID, video.OrganizationID, video.StorageKey, jobqueue.Options{}); err != nil {
		s.removeBlob(ctx, bucket, storageKey)
		s.dbClient.WithContext(ctx).Unscoped().Delete(&model.Video{}, "id = ?", video.ID)

		return nil, fmt.Errorf("enqueue processing job: %w", err)
	}

	if eventsEnabled(func(c configs.VideoEventsConfig) bool { return c.Uploaded }) {
		if err := queue.PublishVideoUploaded(s.mqClient.Publisher(), queue.VideoUploadedPayload{
			Video: queue.VideoRef{
				VideoID:        video.ID,
				OrganizationID: video.OrganizationID,
				StorageKey:     video.StorageKey,
			},
			UploadedBy: video.UploadedBy,
			FileName:   video.OriginalFilename,
			FileSize:   video.FileSize,
			Format:     video.Format,
		}); err != nil {
			nlog.Logger().Warn().Err(err).Str("video", video.ID).Msg("publish uploaded event failed")
		}
	}

	metrics.UploadCounter.WithLabelValues(video.OrganizationID).Inc()

	nlog.Logger().Info().
		Str("video", video.ID).
		Str("org", video.OrganizationID).
		Int64("size", video.FileSize).
		Str("format", video.Format).
		Msg("video accepted for processing")

	return video, nil
}

// loadOrganization 加载组织行（限额来源）.
func (s *VideoService) loadOrganization(ctx context.Context, orgID string) (*model.Organization, error) {
	var org model.Organization
	if err := s.dbClient.WithContext(ctx).First(&org, "id = ?", orgID).Error; err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}

	return &org, nil
}

// formatAllowed 组织级允许列表优先，其次全局配置.
func (s *VideoService) formatAllowed(org *model.Organization, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	if formats := org.Settings.AllowedFormats(); len(formats) > 0 {
		for _, f := range formats {
			if strings.EqualFold(f, ct) {
				return true
			}
		}

		return false
	}

	return configs.GetConfig().Upload.FormatAllowed(ct)
}

// maxVideoSizeBytes 组织级大小上限优先，其次全局配置.
func (s *VideoService) maxVideoSizeBytes(org *model.Organization) int64 {
	if org.Settings.MaxVideoSizeMB > 0 {
		return org.Settings.MaxVideoSizeMB * 1024 * 1024
	}

	return configs.GetConfig().Upload.MaxVideoSizeBytes()
}

// buildStorageKey 生成不透明的对象键：videos/<ulid><ext>.
func buildStorageKey(videoID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	return "videos/" + videoID + ext
}

// removeBlob 尽力删除对象，失败只记日志.
func (s *VideoService) removeBlob(ctx context.Context, bucket, key string) {
	if err := s.s3Client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("cleanup blob failed")
	}
}
