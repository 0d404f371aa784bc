// Package jobqueue 提供持久化的后台任务队列.
//
// 消息本体经由 JetStream 投递（见 internal/storage/mq），每个任务同时在数据库
// 维护一行簿记（internal/model.ProcessingJob），承载状态机、进度、心跳与重试
// 计数. 状态机：waiting → active → {completed, failed_retrying → waiting, failed}.
//
//   - 重试：第 k 次重试前等待 backoff_base·2^(k-1)，到期后重新发布消息
//   - 失联回收：active 任务心跳超过阈值未更新，由 ReapStalled 拉回 waiting
//   - 保留：已完成/已失败的任务行只保留最近 N/M 条，由 PruneFinished 清理
//   - 终态失败：发布持久化的 vv.video.process.failed 事件（Terminal=true）
package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	dbc "github.com/yeisme/vidvault/pkg/internal/storage/db"
	mqc "github.com/yeisme/vidvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/queue"
)

// PermanentError 包装不可重试的错误：队列直接进入终态失败，不再消耗剩余尝试次数.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent 将错误标记为不可重试.
func Permanent(err error) error { return &PermanentError{Err: err} }

// Queue 持久化任务队列.
type Queue struct {
	db  *dbc.Client
	mq  *mqc.Client
	cfg configs.WorkerConfig
}

// New 创建任务队列.
func New(db *dbc.Client, mq *mqc.Client, cfg configs.WorkerConfig) *Queue {
	return &Queue{db: db, mq: mq, cfg: cfg}
}

// Options 入队可选项，零值沿用配置默认.
type Options struct {
	Priority    int
	MaxAttempts int
}

// Enqueue 插入任务簿记行并发布处理请求消息.
func (q *Queue) Enqueue(ctx context.Context, videoID, organizationID, storageKey string, opts Options) (*model.ProcessingJob, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.cfg.MaxAttempts
	}

	job := &model.ProcessingJob{
		ID:          uuid.NewString(),
		VideoID:     videoID,
		State:       model.JobStateWaiting,
		Priority:    opts.Priority,
		MaxAttempts: maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}

	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create job row: %w", err)
	}

	payload := queue.ProcessRequestedPayload{
		Video: queue.VideoRef{
			VideoID:        videoID,
			OrganizationID: organizationID,
			StorageKey:     storageKey,
		},
		JobID:      job.ID,
		Attempt:    1,
		EnqueuedAt: job.EnqueuedAt,
	}

	if err := queue.PublishProcessRequested(q.mq.Publisher(), payload); err != nil {
		return nil, fmt.Errorf("publish process request: %w", err)
	}

	return job, nil
}

// JobContext 传给处理函数的任务上下文.
type JobContext struct {
	q   *Queue
	Job *model.ProcessingJob
	Ref queue.VideoRef
}

// Progress 持久化任务进度并刷新心跳.
func (jc *JobContext) Progress(ctx context.Context, percent int) error {
	now := time.Now().UTC()

	return jc.q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
		Where("id = ?", jc.Job.ID).
		Updates(map[string]any{
			"progress":     percent,
			"heartbeat_at": now,
		}).Error
}

// Heartbeat 只刷新心跳，长阶段（外部工具调用）期间定期调用.
func (jc *JobContext) Heartbeat(ctx context.Context) error {
	now := time.Now().UTC()

	return jc.q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
		Where("id = ?", jc.Job.ID).
		Update("heartbeat_at", now).Error
}

// Handler 任务处理函数. 返回 nil 视为成功；返回错误触发重试或终态失败.
type Handler func(ctx context.Context, jc *JobContext) error

// Consume 以有界并发消费处理请求，阻塞直到 ctx 取消或订阅通道关闭.
func (q *Queue) Consume(ctx context.Context, handler Handler, concurrency int) error {
	if concurrency <= 0 {
		concurrency = q.cfg.Concurrency
	}

	msgs, err := q.mq.Subscribe(ctx, queue.TopicVideoProcessRequested)
	if err != nil {
		return fmt.Errorf("subscribe process requests: %w", err)
	}

	sem := semaphore.NewWeighted(int64(concurrency))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				msg.Nack()
				return err
			}

			go func() {
				defer sem.Release(1)
				q.handleMessage(ctx, msg, handler)
			}()
		}
	}
}

// handleMessage 处理单条队列消息. 重试由本包自行重新发布，
// 因此无论结果如何都 Ack，避免 JetStream 的盲目重投与退避策略打架.
func (q *Queue) handleMessage(ctx context.Context, msg *message.Message, handler Handler) {
	l := nlog.Logger()

	env, err := queue.ParseProcessRequested(msg)
	if err != nil {
		l.Warn().Err(err).Msg("drop unparsable job message")
		msg.Ack()

		return
	}

	defer msg.Ack()

	jobID := env.Payload.JobID

	var job model.ProcessingJob
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn().Str("job", jobID).Msg("job row missing, dropping message")
			return
		}

		l.Error().Err(err).Str("job", jobID).Msg("load job row failed")

		return
	}

	// 认领：只有 waiting / failed_retrying 可进入 active，重复投递在这里被挡下
	now := time.Now().UTC()
	claim := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
		Where("id = ? AND state IN ?", jobID, []model.JobState{model.JobStateWaiting, model.JobStateFailedRetrying}).
		Updates(map[string]any{
			"state":        model.JobStateActive,
			"attempt":      gorm.Expr("attempt + 1"),
			"progress":     0,
			"started_at":   now,
			"heartbeat_at": now,
		})
	if claim.Error != nil {
		l.Error().Err(claim.Error).Str("job", jobID).Msg("claim job failed")
		return
	}

	if claim.RowsAffected == 0 {
		l.Debug().Str("job", jobID).Msg("job already claimed or finished, skipping")
		return
	}

	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		l.Error().Err(err).Str("job", jobID).Msg("reload job row failed")
		return
	}

	jc := &JobContext{q: q, Job: &job, Ref: env.Payload.Video}

	attemptCtx, cancel := context.WithTimeout(ctx, q.cfg.AttemptTimeout())
	defer cancel()

	if err := handler(attemptCtx, jc); err != nil {
		q.handleFailure(ctx, &job, env.Payload.Video, err)
		return
	}

	finished := time.Now().UTC()
	if err := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"state":       model.JobStateCompleted,
			"progress":    100,
			"finished_at": finished,
		}).Error; err != nil {
		l.Error().Err(err).Str("job", job.ID).Msg("mark job completed failed")
	}
}

// handleFailure 根据剩余尝试次数决定退避重试或终态失败.
func (q *Queue) handleFailure(ctx context.Context, job *model.ProcessingJob, ref queue.VideoRef, cause error) {
	l := nlog.Logger()

	var perm *PermanentError

	if errors.As(cause, &perm) || job.Attempt >= job.MaxAttempts {
		finished := time.Now().UTC()
		if err := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"state":          model.JobStateFailed,
				"failure_reason": cause.Error(),
				"finished_at":    finished,
			}).Error; err != nil {
			l.Error().Err(err).Str("job", job.ID).Msg("mark job failed failed")
		}

		// 终态失败事件必须发出，消费方以此驱动用户可见的失败通知
		if err := queue.PublishVideoProcessFailed(q.mq.Publisher(), queue.VideoProcessFailedPayload{
			Video:    ref,
			JobID:    job.ID,
			Attempt:  job.Attempt,
			Terminal: true,
			Error:    cause.Error(),
		}); err != nil {
			l.Error().Err(err).Str("job", job.ID).Msg("publish terminal failure failed")
		}

		l.Error().Err(cause).Str("job", job.ID).Int("attempt", job.Attempt).Msg("job failed terminally")

		return
	}

	backoff := q.cfg.BackoffBase() << uint(job.Attempt-1)
	next := time.Now().UTC().Add(backoff)

	if err := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"state":          model.JobStateFailedRetrying,
			"failure_reason": cause.Error(),
			"progress":       0,
			"next_retry_at":  next,
		}).Error; err != nil {
		l.Error().Err(err).Str("job", job.ID).Msg("mark job retrying failed")
	}

	l.Warn().Err(cause).
		Str("job", job.ID).
		Int("attempt", job.Attempt).
		Dur("backoff", backoff).
		Msg("job failed, scheduling retry")

	attempt := job.Attempt
	jobID := job.ID
	enqueuedAt := job.EnqueuedAt

	// 到期重新发布；进程在等待期间退出时由 ReapStalled 兜底补发
	time.AfterFunc(backoff, func() {
		payload := queue.ProcessRequestedPayload{
			Video:      ref,
			JobID:      jobID,
			Attempt:    attempt + 1,
			EnqueuedAt: enqueuedAt,
		}

		if err := queue.PublishProcessRequested(q.mq.Publisher(), payload); err != nil {
			nlog.Logger().Error().Err(err).Str("job", jobID).Msg("republish retry failed")
		}
	})
}

// Status 返回任务簿记行.
func (q *Queue) Status(ctx context.Context, jobID string) (*model.ProcessingJob, error) {
	var job model.ProcessingJob
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, err
	}

	return &job, nil
}

// LatestByVideo 返回某视频最近一次任务的簿记行.
func (q *Queue) LatestByVideo(ctx context.Context, videoID string) (*model.ProcessingJob, error) {
	var job model.ProcessingJob
	if err := q.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("enqueued_at DESC").
		First(&job).Error; err != nil {
		return nil, err
	}

	return &job, nil
}

// Stats 队列各状态的任务计数.
type Stats struct {
	Waiting        int64 `json:"waiting"`
	Active         int64 `json:"active"`
	Completed      int64 `json:"completed"`
	FailedRetrying int64 `json:"failed_retrying"`
	Failed         int64 `json:"failed"`
}

// GetStats 统计各状态任务数.
func (q *Queue) GetStats(ctx context.Context) (*Stats, error) {
	type row struct {
		State model.JobState
		N     int64
	}

	var rows []row
	if err := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
		Select("state, count(*) as n").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &Stats{}

	for _, r := range rows {
		switch r.State {
		case model.JobStateWaiting:
			stats.Waiting = r.N
		case model.JobStateActive:
			stats.Active = r.N
		case model.JobStateCompleted:
			stats.Completed = r.N
		case model.JobStateFailedRetrying:
			stats.FailedRetrying = r.N
		case model.JobStateFailed:
			stats.Failed = r.N
		}
	}

	return stats, nil
}

// ReapStalled 回收两类滞留任务：
//   - active 且心跳超过失联阈值：工作槽崩溃或网络分区，拉回 waiting 并补发消息
//   - failed_retrying 且重试时间已过：进程重启丢失了 AfterFunc 定时器，补发消息
func (q *Queue) ReapStalled(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	stalledBefore := now.Add(-q.cfg.StallThreshold())

	var stalled []model.ProcessingJob
	if err := q.db.WithContext(ctx).
		Where("state = ? AND heartbeat_at < ?", model.JobStateActive, stalledBefore).
		Find(&stalled).Error; err != nil {
		return 0, err
	}

	var overdue []model.ProcessingJob
	if err := q.db.WithContext(ctx).
		Where("state = ? AND next_retry_at < ?", model.JobStateFailedRetrying, now.Add(-q.cfg.StallThreshold())).
		Find(&overdue).Error; err != nil {
		return 0, err
	}

	requeued := 0

	for _, job := range append(stalled, overdue...) {
		res := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
			Where("id = ? AND state = ?", job.ID, job.State).
			Updates(map[string]any{
				"state":    model.JobStateWaiting,
				"progress": 0,
			})
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}

		payload := queue.ProcessRequestedPayload{
			Video:      queue.VideoRef{VideoID: job.VideoID},
			JobID:      job.ID,
			Attempt:    job.Attempt + 1,
			EnqueuedAt: job.EnqueuedAt,
		}

		if err := queue.PublishProcessRequested(q.mq.Publisher(), payload); err != nil {
			nlog.Logger().Error().Err(err).Str("job", job.ID).Msg("requeue stalled job failed")
			continue
		}

		requeued++
	}

	return requeued, nil
}

// PruneFinished 按保留策略清理已完成/已失败的任务行.
func (q *Queue) PruneFinished(ctx context.Context) (int64, error) {
	var pruned int64

	for state, keep := range map[model.JobState]int{
		model.JobStateCompleted: q.cfg.KeepCompleted,
		model.JobStateFailed:    q.cfg.KeepFailed,
	} {
		var keepIDs []string
		if err := q.db.WithContext(ctx).Model(&model.ProcessingJob{}).
			Where("state = ?", state).
			Order("finished_at DESC").
			Limit(keep).
			Pluck("id", &keepIDs).Error; err != nil {
			return pruned, err
		}

		del := q.db.WithContext(ctx).Where("state = ?", state)
		if len(keepIDs) > 0 {
			del = del.Where("id NOT IN ?", keepIDs)
		}

		res := del.Delete(&model.ProcessingJob{})
		if res.Error != nil {
			return pruned, res.Error
		}

		pruned += res.RowsAffected
	}

	return pruned, nil
}
