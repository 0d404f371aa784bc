package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	minio "github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/analyzer"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/metrics"
	"github.com/yeisme/vidvault/pkg/queue"
)

const thumbnailAt = time.Second

// process 执行一次处理尝试：
//  1. 加载视频行，置 status=processing、progress=0，发布 progress(0,"starting")
//  2. 探测元数据并落库，发布 progress(15)
//  3. 生成并上传封面（失败非致命），发布 progress(30)
//  4. 敏感度评分并落库，发布 progress(80)
//  5. status=completed、progress=100 落库后，发布 complete 事件
//
// 返回错误即本次尝试失败：视频行被置为 failed、进度清零，队列决定是否重试.
func (w *Worker) process(ctx context.Context, jc *jobqueue.JobContext) error {
	l := nlog.Logger().With().Str("job", jc.Job.ID).Str("video", jc.Job.VideoID).Logger()

	err := w.runStages(ctx, jc)
	if err == nil {
		return nil
	}

	// 任一阶段失败：视频行进入 failed，等待重试或终态
	if markErr := w.mgr.DB.WithContext(ctx).Model(&model.Video{}).
		Where("id = ?", jc.Job.VideoID).
		Updates(map[string]any{
			"status":              model.VideoStatusFailed,
			"processing_progress": 0,
		}).Error; markErr != nil {
		l.Error().Err(markErr).Msg("mark video failed failed")
	}

	metrics.ProcessedCounter.WithLabelValues(string(model.VideoStatusFailed)).Inc()
	l.Warn().Err(err).Msg("processing attempt failed")

	return err
}

// runStages 顺序执行五个阶段.
func (w *Worker) runStages(ctx context.Context, jc *jobqueue.JobContext) error {
	db := w.mgr.DB.WithContext(ctx)

	// 阶段 1：加载
	var video model.Video
	if err := db.First(&video, "id = ?", jc.Job.VideoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 行已不存在（上传后被删除），重试不可能成功
			return jobqueue.Permanent(fmt.Errorf("video %s not found", jc.Job.VideoID))
		}

		return fmt.Errorf("load video: %w", err)
	}

	ref := queue.VideoRef{
		VideoID:        video.ID,
		OrganizationID: video.OrganizationID,
		StorageKey:     video.StorageKey,
	}

	if err := db.Model(&model.Video{}).Where("id = ?", video.ID).
		Updates(map[string]any{
			"status":              model.VideoStatusProcessing,
			"processing_progress": progressStarting,
		}).Error; err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	_ = jc.Progress(ctx, progressStarting)
	w.publishProgress(ref, jc.Job.ID, progressStarting, "starting", "processing started")

	// 原片拉到本地临时文件，探测与抽帧都在其上进行
	localPath, cleanup, err := w.download(ctx, &video)
	if err != nil {
		return err
	}
	defer cleanup()

	// 阶段 2：探测元数据
	probe, probeErr := w.tools.Probe(ctx, localPath)
	if probeErr != nil {
		return fmt.Errorf("probe metadata: %w", probeErr)
	}

	if err := db.Model(&model.Video{}).Where("id = ?", video.ID).
		Updates(map[string]any{
			"meta_duration_seconds": probe.DurationSeconds,
			"meta_width":            probe.Width,
			"meta_height":           probe.Height,
			"meta_codec":            probe.Codec,
			"meta_bitrate":          probe.Bitrate,
			"meta_frame_rate":       probe.FrameRate,
			"meta_audio_codec":      probe.AudioCodec,
			"meta_format":           probe.Format,
			"processing_progress":   progressProbed,
		}).Error; err != nil {
		return fmt.Errorf("store metadata: %w", err)
	}

	_ = jc.Progress(ctx, progressProbed)
	w.publishProgress(ref, jc.Job.ID, progressProbed, "metadata", "metadata extracted")

	// 阶段 3：封面（非致命）
	thumbKey := w.generateThumbnail(ctx, &video, localPath)
	if thumbKey != "" {
		if err := db.Model(&model.Video{}).Where("id = ?", video.ID).
			Updates(map[string]any{
				"thumbnail_key":       thumbKey,
				"processing_progress": progressThumbnail,
			}).Error; err != nil {
			return fmt.Errorf("store thumbnail key: %w", err)
		}
	}

	_ = jc.Progress(ctx, progressThumbnail)
	w.publishProgress(ref, jc.Job.ID, progressThumbnail, "thumbnail", "thumbnail generated")

	// 阶段 4：敏感度评分
	result := analyzer.Analyze(&analyzer.Input{
		DurationSeconds: probe.DurationSeconds,
		Width:           probe.Width,
		Height:          probe.Height,
		Codec:           probe.Codec,
		Bitrate:         probe.Bitrate,
		FrameRate:       probe.FrameRate,
		AudioCodec:      probe.AudioCodec,
		Container:       probe.Format,
		FileSize:        video.FileSize,
		Filename:        video.OriginalFilename,
	})

	sens := model.SensitivityInfo{
		Level:           model.SensitivityLevel(result.Level),
		Score:           result.Score,
		Status:          model.SensitivityStatus(result.Status),
		AnalysisDetails: result.Details,
	}
	sens.SetCategories(result.Categories)

	analyzedAt := time.Now().UTC()

	if err := db.Model(&model.Video{}).Where("id = ?", video.ID).
		Updates(map[string]any{
			"sensitivity_level":            sens.Level,
			"sensitivity_score":            sens.Score,
			"sensitivity_status":           sens.Status,
			"sensitivity_categories_json":  sens.CategoriesJSON,
			"sensitivity_analysis_details": sens.AnalysisDetails,
			"sensitivity_analyzed_at":      analyzedAt,
			"processing_progress":          progressAnalyzed,
		}).Error; err != nil {
		return fmt.Errorf("store sensitivity: %w", err)
	}

	_ = jc.Progress(ctx, progressAnalyzed)
	w.publishProgress(ref, jc.Job.ID, progressAnalyzed, "analysis", "sensitivity analyzed")

	// 阶段 5：终态. 先落库，再发布 complete，订阅方回读必然看到 completed
	if err := db.Model(&model.Video{}).Where("id = ?", video.ID).
		Updates(map[string]any{
			"status":              model.VideoStatusCompleted,
			"processing_progress": progressDone,
		}).Error; err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	_ = jc.Progress(ctx, progressDone)
	w.publishProgress(ref, jc.Job.ID, progressDone, "completed", "processing completed")

	eventsCfg := configs.GetConfig().Events
	if eventsCfg.Enabled && eventsCfg.Video.Complete {
		if err := queue.PublishVideoProcessed(w.mgr.MQ.Publisher(), queue.VideoProcessedPayload{
			Video:             ref,
			JobID:             jc.Job.ID,
			Status:            string(model.VideoStatusCompleted),
			SensitivityStatus: string(sens.Status),
			SensitivityLevel:  string(sens.Level),
			ThumbnailKey:      thumbKey,
			DurationSeconds:   probe.DurationSeconds,
			Width:             probe.Width,
			Height:            probe.Height,
		}); err != nil {
			nlog.Logger().Warn().Err(err).Str("video", video.ID).Msg("publish complete event failed")
		}
	}

	metrics.ProcessedCounter.WithLabelValues(string(model.VideoStatusCompleted)).Inc()

	nlog.Logger().Info().
		Str("video", video.ID).
		Str("sensitivity", string(sens.Status)).
		Float64("score", sens.Score).
		Msg("video processed")

	return nil
}

// download 把原片对象拉到本地临时文件，返回路径与清理函数.
func (w *Worker) download(ctx context.Context, video *model.Video) (string, func(), error) {
	mediaCfg := configs.GetConfig().Media

	tmp, err := os.CreateTemp(mediaCfg.TempDir, "vidvault-*"+filepath.Ext(video.StorageKey))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	obj, err := w.mgr.S3.GetObject(ctx, w.mgr.S3.VideoBucket(), video.StorageKey, minio.GetObjectOptions{})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("open original: %w", err)
	}
	defer func() { _ = obj.Close() }()

	if _, err := io.Copy(tmp, obj); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("download original: %w", err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("flush temp file: %w", err)
	}

	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}

// generateThumbnail 生成并上传封面，失败只记日志并返回空键（非致命）.
// 键按视频 ID 派生，重试时覆盖写安全.
func (w *Worker) generateThumbnail(ctx context.Context, video *model.Video, localPath string) string {
	l := nlog.Logger()

	thumbPath := localPath + ".jpg"
	defer func() { _ = os.Remove(thumbPath) }()

	if err := w.tools.Thumbnail(ctx, localPath, thumbnailAt, thumbPath); err != nil {
		l.Warn().Err(err).Str("video", video.ID).Msg("thumbnail generation failed, continuing")
		return ""
	}

	key := "thumbnails/" + video.ID + ".jpg"

	if _, err := w.mgr.S3.FPutObject(ctx, w.mgr.S3.ThumbnailBucket(), key, thumbPath, minio.PutObjectOptions{
		ContentType: "image/jpeg",
	}); err != nil {
		l.Warn().Err(err).Str("video", video.ID).Msg("thumbnail upload failed, continuing")
		return ""
	}

	return key
}
