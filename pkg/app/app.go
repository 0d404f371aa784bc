// Package app 提供应用程序的初始化和装配：配置、日志、追踪、指标、存储、
// 令牌服务、任务队列、处理 Worker、实时推送 Hub、定时任务与 HTTP 引擎.
// 进程级依赖在这里构造一次并显式传递，不使用隐藏的全局量.
package app

import (
	contextPkg "context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/vidvault/pkg/api"
	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/handle"
	"github.com/yeisme/vidvault/pkg/internal/hub"
	"github.com/yeisme/vidvault/pkg/internal/jobs"
	"github.com/yeisme/vidvault/pkg/internal/media"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/router"
	"github.com/yeisme/vidvault/pkg/internal/storage"
	"github.com/yeisme/vidvault/pkg/internal/worker"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	"github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/metrics"
	"github.com/yeisme/vidvault/pkg/middleware"
	"github.com/yeisme/vidvault/pkg/scheduler"
	"github.com/yeisme/vidvault/pkg/token"
	"github.com/yeisme/vidvault/pkg/tracing"
)

// 请求体上限在最大视频尺寸外留出的表单开销.
const bodyLimitSlack = 10 * 1024 * 1024

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	manager *storage.Manager
	hub     *hub.Hub
	worker  *worker.Worker
	sched   *scheduler.Scheduler
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	if err := manager.DB.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.Video{},
		&model.ProcessingJob{},
	); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	tokens, err := token.NewService(&config.Auth)
	if err != nil {
		fmt.Printf("Error initializing token service: %v\n", err)
		os.Exit(1)
	}

	jobQueue := jobqueue.New(manager.DB, manager.MQ, config.Worker)
	tools := media.NewToolchain(config.Media)
	processingWorker := worker.New(jobQueue, manager, tools, config.Worker)
	realtimeHub := hub.NewHub()

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager, jobQueue); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine.Use(
		middleware.RecoveryMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.CORS),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.BodyLimitMiddleware(config.Upload.MaxVideoSizeBytes()+bodyLimitSlack),
		middleware.GlobalRateLimitMiddleware(config.RateLimit.Global),
	)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	api.RegisterGroup(engine, &router.Handlers{
		Auth:   &handle.AuthHandlers{Tokens: tokens},
		Videos: &handle.VideoHandlers{Jobs: jobQueue},
		Stream: &handle.StreamHandlers{},
		WS:     &handle.WSHandlers{Hub: realtimeHub, Tokens: tokens},
		Tokens: tokens,
		KV:     manager.KV,
	})

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		hub:     realtimeHub,
		worker:  processingWorker,
		sched:   sched,
	}
}

// Run 启动 HTTP 服务、处理 Worker、实时桥接与定时任务，
// 收到 SIGINT/SIGTERM 后优雅退出.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(contextPkg.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := log.Logger()

	// Worker 与实时桥接在各自的任务中运行
	go func() {
		if err := a.worker.Run(ctx); err != nil && ctx.Err() == nil {
			l.Error().Err(err).Msg("worker stopped unexpectedly")
		}
	}()

	go func() {
		if err := a.hub.RunBridge(ctx, a.manager.MQ); err != nil && ctx.Err() == nil {
			l.Error().Err(err).Msg("realtime bridge stopped unexpectedly")
		}
	}()

	a.sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")

	shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.Background(), a.config.Server.GetTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("http server shutdown failed")
	}

	a.hub.CloseAll()

	if err := a.sched.Stop(); err != nil {
		l.Warn().Err(err).Msg("scheduler shutdown failed")
	}

	if err := a.manager.MQ.Close(); err != nil {
		l.Warn().Err(err).Msg("mq shutdown failed")
	}

	if err := tracing.ShutdownTracer(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("tracer shutdown failed")
	}

	return nil
}
