package jobs

// 定时任务名称与 cron 表达式.
const (
	JobQueueReapStalled  = "queue.reap_stalled"
	CronQueueReapStalled = "* * * * *" // 每分钟回收失联任务

	JobQueuePruneFinished  = "queue.prune_finished"
	CronQueuePruneFinished = "20 * * * *" // 每小时按保留策略清理任务行

	JobRefreshSlotSweep  = "auth.refresh_slot_sweep"
	CronRefreshSlotSweep = "40 3 * * *" // 每天清理停用用户残留的刷新令牌槽
)
