package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/ledger"
	"Gin_postgres_redis_library/report"
	"Gin_postgres_redis_library/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// memQueueSize bounds the in-process queue used when Redis is disabled.
const memQueueSize = 256

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client // nil when REDIS_ADDR is empty
	Config config.Config
	Log    *slog.Logger

	Repo    *db.Repo
	Ledger  *ledger.Ledger
	Reports *report.Runner
	Trigger *scheduler.Trigger
	Worker  *scheduler.Worker
}

func MustNew(cfg config.Config, log *slog.Logger) *App {
	a, err := New(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	return a
}

func New(cfg config.Config, log *slog.Logger) (*App, error) {
	// --- DB ---
	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	repo := db.NewRepo(dbConn)

	a := &App{DB: dbConn, Config: cfg, Log: log, Repo: repo}

	// --- Redis：可选，未配置时队列和报表都放在进程内 ---
	var (
		queue   scheduler.Queue
		reports report.Store
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.RDB = rdb
		queue = scheduler.NewRedisQueue(rdb, scheduler.DefaultQueueKey)
		reports = report.NewRedisStore(rdb, cfg.Report.History)
	} else {
		log.Warn("REDIS_ADDR not set, using in-process job queue and report store")
		queue = scheduler.NewMemoryQueue(memQueueSize)
		reports = report.NewMemoryStore(cfg.Report.History)
	}

	// --- 借还 ---
	a.Ledger = ledger.New(ledger.NewStore(repo), ledger.NewAccountant(log), log)

	// --- 报表任务 ---
	a.Reports = report.NewRunner(report.NewAggregator(repo, cfg.Report.TopN, log), reports, log)
	a.Trigger = scheduler.NewTrigger(queue, log)
	if err := a.Trigger.Register(scheduler.Schedule{
		Job:         report.JobName,
		Interval:    cfg.Report.Interval,
		StartOffset: cfg.Report.StartOffset,
	}); err != nil {
		a.Close()
		return nil, err
	}
	a.Worker = scheduler.NewWorker(queue, cfg.Worker.Concurrency, log)
	a.Worker.Handle(report.JobName, func(ctx context.Context, job scheduler.Job) error {
		_, err := a.Reports.Run(ctx, job.ID, job.Payload)
		return err
	})

	// --- Gin ---
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	useCORS(r, cfg.WebOrigin)
	a.Router = r
	return a, nil
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
