// Package worker 实现后台处理流水线：探测 → 封面 → 敏感度评分 → 终态落库.
//
// 每个任务一次尝试完整跑完五个阶段；任一阶段出错即本次尝试失败，
// 由任务队列按退避策略决定重试或终态. 每次尝试都从头开始并把进度清零.
// 进度事件经消息队列发布，由实时推送桥接扇出到租户房间.
package worker

import (
	"context"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/media"
	"github.com/yeisme/vidvault/pkg/internal/storage"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/queue"
)

// 各阶段完成后的进度检查点.
const (
	progressStarting  = 0
	progressProbed    = 15
	progressThumbnail = 30
	progressAnalyzed  = 80
	progressDone      = 100
)

// Worker 处理流水线消费者.
type Worker struct {
	jobs  *jobqueue.Queue
	mgr   *storage.Manager
	tools *media.Toolchain
	cfg   configs.WorkerConfig
}

// New 创建 Worker.
func New(jobs *jobqueue.Queue, mgr *storage.Manager, tools *media.Toolchain, cfg configs.WorkerConfig) *Worker {
	return &Worker{jobs: jobs, mgr: mgr, tools: tools, cfg: cfg}
}

// Run 以配置的并发槽数消费队列，阻塞直到 ctx 取消.
func (w *Worker) Run(ctx context.Context) error {
	nlog.Logger().Info().Int("concurrency", w.cfg.Concurrency).Msg("processing worker started")

	return w.jobs.Consume(ctx, w.process, w.cfg.Concurrency)
}

// publishProgress 发布进度事件. 同一次尝试内按检查点递增发布.
func (w *Worker) publishProgress(ref queue.VideoRef, jobID string, progress int, stage, message string) {
	cfg := configs.GetConfig().Events
	if !cfg.Enabled || !cfg.Video.Progress {
		return
	}

	if err := queue.PublishVideoProgress(w.mgr.MQ.Publisher(), queue.VideoProgressPayload{
		Video:    ref,
		JobID:    jobID,
		Progress: progress,
		Stage:    stage,
		Message:  message,
	}); err != nil {
		nlog.Logger().Warn().Err(err).Str("video", ref.VideoID).Msg("publish progress failed")
	}
}
