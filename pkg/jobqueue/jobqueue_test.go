package jobqueue_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	dbc "github.com/yeisme/vidvault/pkg/internal/storage/db"
	mqc "github.com/yeisme/vidvault/pkg/internal/storage/mq"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	"github.com/yeisme/vidvault/pkg/queue"
)

func testWorkerConfig() configs.WorkerConfig {
	return configs.WorkerConfig{
		Concurrency:   2,
		MaxAttempts:   3,
		BackoffBaseS:  0, // 测试里立即重试
		TimeoutS:      5,
		StallS:        60,
		KeepCompleted: 2,
		KeepFailed:    2,
	}
}

func newTestQueue(t *testing.T) (*jobqueue.Queue, *mqc.Client, *dbc.Client) {
	t.Helper()

	g, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:jobq-%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := g.AutoMigrate(&model.ProcessingJob{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	mq := mqc.NewFromPubSub(pubsub, pubsub)
	db := &dbc.Client{DB: g}

	return jobqueue.New(db, mq, testWorkerConfig()), mq, db
}

// waitForState 轮询直到任务达到期望状态.
func waitForState(t *testing.T, q *jobqueue.Queue, jobID string, want model.JobState) *model.ProcessingJob {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		job, err := q.Status(context.Background(), jobID)
		if err == nil && job.State == want {
			return job
		}

		time.Sleep(20 * time.Millisecond)
	}

	job, _ := q.Status(context.Background(), jobID)
	t.Fatalf("job %s did not reach state %s (current: %+v)", jobID, want, job)

	return nil
}

// TestEnqueueCreatesRow 入队插入 waiting 状态的簿记行.
func TestEnqueueCreatesRow(t *testing.T) {
	q, _, _ := newTestQueue(t)

	job, err := q.Enqueue(context.Background(), "video-1", "org-1", "videos/k1", jobqueue.Options{})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if job.State != model.JobStateWaiting {
		t.Errorf("state = %s, want waiting", job.State)
	}

	if job.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3 (config default)", job.MaxAttempts)
	}
}

// TestConsumeSuccess 处理成功的任务进入 completed，进度 100.
func TestConsumeSuccess(t *testing.T) {
	q, _, _ := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = q.Consume(ctx, func(ctx context.Context, jc *jobqueue.JobContext) error {
			_ = jc.Progress(ctx, 50)
			return nil
		}, 1)
	}()

	time.Sleep(50 * time.Millisecond) // 等订阅建立

	job, err := q.Enqueue(context.Background(), "video-ok", "org-1", "videos/ok", jobqueue.Options{})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := waitForState(t, q, job.ID, model.JobStateCompleted)

	if done.Progress != 100 {
		t.Errorf("progress = %d, want 100", done.Progress)
	}

	if done.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", done.Attempt)
	}
}

// TestConsumeRetriesThenFails 持续失败的任务耗尽尝试次数后终态失败，
// 且发布终态失败事件.
func TestConsumeRetriesThenFails(t *testing.T) {
	q, mq, _ := newTestQueue(t)

	failedCh, err := mq.Subscribe(context.Background(), queue.TopicVideoProcessFailed)
	if err != nil {
		t.Fatalf("subscribe failed topic: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0

	go func() {
		_ = q.Consume(ctx, func(ctx context.Context, jc *jobqueue.JobContext) error {
			attempts++
			return errors.New("boom")
		}, 1)
	}()

	time.Sleep(50 * time.Millisecond)

	job, err := q.Enqueue(context.Background(), "video-bad", "org-1", "videos/bad", jobqueue.Options{})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := waitForState(t, q, job.ID, model.JobStateFailed)

	if done.Attempt != 3 {
		t.Errorf("attempt = %d, want 3", done.Attempt)
	}

	if done.FailureReason == "" {
		t.Error("expected failure reason to be recorded")
	}

	select {
	case msg := <-failedCh:
		env, err := queue.ParseVideoProcessFailed(msg)
		if err != nil {
			t.Fatalf("parse failed event: %v", err)
		}

		if !env.Payload.Terminal {
			t.Error("expected terminal failure event")
		}

		msg.Ack()
	case <-time.After(3 * time.Second):
		t.Fatal("terminal failure event not published")
	}
}

// TestPermanentErrorSkipsRetry 不可重试错误第一次就终态失败.
func TestPermanentErrorSkipsRetry(t *testing.T) {
	q, _, _ := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = q.Consume(ctx, func(ctx context.Context, jc *jobqueue.JobContext) error {
			return jobqueue.Permanent(errors.New("video row gone"))
		}, 1)
	}()

	time.Sleep(50 * time.Millisecond)

	job, err := q.Enqueue(context.Background(), "video-gone", "org-1", "videos/gone", jobqueue.Options{})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := waitForState(t, q, job.ID, model.JobStateFailed)

	if done.Attempt != 1 {
		t.Errorf("attempt = %d, want 1 (no retry for permanent errors)", done.Attempt)
	}
}

// TestStats 各状态计数.
func TestStats(t *testing.T) {
	q, _, db := newTestQueue(t)

	for i, state := range []model.JobState{
		model.JobStateWaiting, model.JobStateCompleted, model.JobStateCompleted, model.JobStateFailed,
	} {
		db.Create(&model.ProcessingJob{
			ID:          fmt.Sprintf("job-%d", i),
			VideoID:     "v",
			State:       state,
			MaxAttempts: 3,
			EnqueuedAt:  time.Now(),
		})
	}

	stats, err := q.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	if stats.Waiting != 1 || stats.Completed != 2 || stats.Failed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

// TestPruneFinished 保留策略只留最近 N/M 条.
func TestPruneFinished(t *testing.T) {
	q, _, db := newTestQueue(t)

	now := time.Now().UTC()

	for i := range 5 {
		finished := now.Add(time.Duration(i) * time.Minute)
		db.Create(&model.ProcessingJob{
			ID:          fmt.Sprintf("done-%d", i),
			VideoID:     "v",
			State:       model.JobStateCompleted,
			MaxAttempts: 3,
			EnqueuedAt:  now,
			FinishedAt:  &finished,
		})
	}

	pruned, err := q.PruneFinished(context.Background())
	if err != nil {
		t.Fatalf("PruneFinished: %v", err)
	}

	if pruned != 3 { // keep_completed = 2
		t.Errorf("pruned = %d, want 3", pruned)
	}

	stats, _ := q.GetStats(context.Background())
	if stats.Completed != 2 {
		t.Errorf("remaining completed = %d, want 2", stats.Completed)
	}
}
