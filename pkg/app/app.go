// Package app 提供应用程序的初始化、组装与生命周期管理.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/ingestvault/pkg/configs"
	ctxPkg "github.com/yeisme/ingestvault/pkg/context"
	"github.com/yeisme/ingestvault/pkg/internal/jobs"
	"github.com/yeisme/ingestvault/pkg/internal/router"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/metrics"
	"github.com/yeisme/ingestvault/pkg/middleware"
	"github.com/yeisme/ingestvault/pkg/scheduler"
	"github.com/yeisme/ingestvault/pkg/tracing"
)

// App 持有 HTTP 引擎、存储、业务服务与调度器.
type App struct {
	Engine    *gin.Engine
	Manager   *storage.Manager
	Services  *service.Services
	Jobs      jobs.Jobs
	Scheduler *scheduler.Scheduler

	config *configs.AppConfig
	clock  clockwork.Clock
}

// Bootstrap 初始化配置、日志、追踪与指标，供 serve 与各子命令共用.
func Bootstrap(ctx context.Context, configPath string, debug bool) (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()
	if debug {
		config.Server.Debug = true
	}

	log.Init()

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return config, nil
}

// New 打开存储并组装服务；调用方负责 Close.
func New(ctx context.Context, config *configs.AppConfig, clock clockwork.Clock) (*App, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	manager, err := storage.Init(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if config.DB.AutoMigrate {
		if err := manager.DB.Migrate(ctx); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	svcs := service.New(manager, config, clock)

	a := &App{
		Manager:  manager,
		Services: svcs,
		Jobs:     NewJobs(manager, svcs, config, clock),
		config:   config,
		clock:    clock,
	}

	return a, nil
}

// NewJobs 构造后台任务；分区维护只在 PostgreSQL 且开启时存在.
func NewJobs(manager *storage.Manager, svcs *service.Services, config *configs.AppConfig, clock clockwork.Clock) jobs.Jobs {
	j := jobs.Jobs{Timeout: jobs.NewBatchTimeoutScheduler(svcs.Batches, config.Batch, clock)}

	if config.Partition.Enabled && manager.DB.IsPostgres() {
		j.Partitions = jobs.NewPartitionScheduler(db.NewPartitionRepo(manager.DB), config.Partition, clock)
	}

	return j
}

// Run 启动调度器与 HTTP 服务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	if a.Jobs.Partitions != nil && a.config.Partition.InitOnStartup {
		a.Jobs.Partitions.InitializePartitions(ctx)
	}

	sched, err := scheduler.NewScheduler(a.clock)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	// 后台任务共用的 context 带上存储管理器
	jobCtx := ctxPkg.WithStorageManager(ctx, a.Manager)
	if err := jobs.RegisterCronJobs(jobCtx, sched, a.Jobs, a.config); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}

	a.Scheduler = sched
	a.Engine = NewEngine(a.config, a.Manager, a.Services, sched)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		sched.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.config.Server.GetShutdownTimeout())
		defer cancel()

		l.Info().Msg("shutting down")

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}

		if err := sched.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}

		if err := tracing.ShutdownTracer(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}

// Close 释放存储资源.
func (a *App) Close() error {
	return a.Manager.Close()
}

// NewEngine 构造 gin 引擎并注册中间件与路由.
func NewEngine(config *configs.AppConfig, manager *storage.Manager, svcs *service.Services, sched *scheduler.Scheduler) *gin.Engine {
	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.MaxMultipartMemory = config.Server.GetUploadMemory()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Auth),
		middleware.IdentityMiddleware(config.Auth),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.ServicesMiddleware(svcs),
		middleware.SchedulerMiddleware(sched),
	)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	router.Register(engine)

	return engine
}
