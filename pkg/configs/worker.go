package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultWorkerConcurrency   = 3   // 默认并发处理槽数
	DefaultWorkerMaxAttempts   = 3   // 默认单任务最大尝试次数
	DefaultWorkerBackoffBaseS  = 5   // 默认退避基数（秒），第 k 次重试等待 base·2^(k-1)
	DefaultWorkerTimeoutS      = 300 // 默认单次尝试超时（秒）
	DefaultWorkerStallS        = 120 // 默认心跳失联阈值（秒）
	DefaultWorkerKeepCompleted = 100 // 默认保留的已完成任务数
	DefaultWorkerKeepFailed    = 500 // 默认保留的已失败任务数
)

// WorkerConfig 处理流水线与任务队列配置.
type WorkerConfig struct {
	Concurrency   int `mapstructure:"concurrency"    rule:"min=1,max=64"`
	MaxAttempts   int `mapstructure:"max_attempts"   rule:"min=1,max=10"`
	BackoffBaseS  int `mapstructure:"backoff_base_s" rule:"min=1"`
	TimeoutS      int `mapstructure:"timeout_s"      rule:"min=1"`
	StallS        int `mapstructure:"stall_s"        rule:"min=10"`
	KeepCompleted int `mapstructure:"keep_completed" rule:"min=0"`
	KeepFailed    int `mapstructure:"keep_failed"    rule:"min=0"`
}

// BackoffBase 返回重试退避基数.
func (c *WorkerConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseS) * time.Second
}

// AttemptTimeout 返回单次尝试超时.
func (c *WorkerConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// StallThreshold 返回心跳失联阈值.
func (c *WorkerConfig) StallThreshold() time.Duration {
	return time.Duration(c.StallS) * time.Second
}

func (c *WorkerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("worker.concurrency", DefaultWorkerConcurrency)
	v.SetDefault("worker.max_attempts", DefaultWorkerMaxAttempts)
	v.SetDefault("worker.backoff_base_s", DefaultWorkerBackoffBaseS)
	v.SetDefault("worker.timeout_s", DefaultWorkerTimeoutS)
	v.SetDefault("worker.stall_s", DefaultWorkerStallS)
	v.SetDefault("worker.keep_completed", DefaultWorkerKeepCompleted)
	v.SetDefault("worker.keep_failed", DefaultWorkerKeepFailed)
}
