// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/storage"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	"github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每分钟回收失联的处理任务（心跳超时 / 重试定时器丢失）
//   - 每小时按保留策略清理已完成/已失败的任务行
//   - 每天清理停用用户残留的刷新令牌槽
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, q *jobqueue.Queue) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil || q == nil {
		return fmt.Errorf("storage manager or job queue is nil")
	}

	baseCtx := context.Background()

	_ = sched.AddCron(JobQueueReapStalled, CronQueueReapStalled, func(ctx context.Context) {
		runReapStalled(ctx, q)
	}, baseCtx)

	_ = sched.AddCron(JobQueuePruneFinished, CronQueuePruneFinished, func(ctx context.Context) {
		runPruneFinished(ctx, q)
	}, baseCtx)

	_ = sched.AddCron(JobRefreshSlotSweep, CronRefreshSlotSweep, func(ctx context.Context) {
		runRefreshSlotSweep(ctx, mgr)
	}, baseCtx)

	return nil
}

// runReapStalled 回收失联任务.
func runReapStalled(ctx context.Context, q *jobqueue.Queue) {
	l := log.Logger().With().Str("job", JobQueueReapStalled).Logger()

	n, err := q.ReapStalled(ctx)
	if err != nil {
		l.Error().Err(err).Msg("reap stalled jobs failed")
		return
	}

	if n > 0 {
		l.Info().Int("requeued", n).Msg("requeued stalled jobs")
	}
}

// runPruneFinished 按保留策略清理任务行.
func runPruneFinished(ctx context.Context, q *jobqueue.Queue) {
	l := log.Logger().With().Str("job", JobQueuePruneFinished).Logger()

	n, err := q.PruneFinished(ctx)
	if err != nil {
		l.Error().Err(err).Msg("prune finished jobs failed")
		return
	}

	if n > 0 {
		l.Info().Int64("pruned", n).Msg("pruned finished job rows")
	}
}

// runRefreshSlotSweep 清空停用用户的刷新令牌槽，避免停用后令牌继续可刷.
func runRefreshSlotSweep(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobRefreshSlotSweep).Logger()

	res := mgr.DB.WithContext(ctx).Model(&model.User{}).
		Where("active = ? AND refresh_token_current <> ''", false).
		Update("refresh_token_current", "")
	if res.Error != nil {
		l.Error().Err(res.Error).Msg("refresh slot sweep failed")
		return
	}

	if res.RowsAffected > 0 {
		l.Info().Int64("cleared", res.RowsAffected).Msg("cleared refresh slots of inactive users")
	}
}
