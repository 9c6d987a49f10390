package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	sqliteadapter "github.com/autoqliq/autoqliq/internal/adapters/sqlite"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/driver"
	"github.com/autoqliq/autoqliq/internal/driver/seleniumdriver"
	"github.com/autoqliq/autoqliq/internal/runner"
	"github.com/autoqliq/autoqliq/internal/scheduler"
	"github.com/autoqliq/autoqliq/pkg/config"
	"github.com/autoqliq/autoqliq/pkg/logger"
)

func main() {
	cfg, err := config.Load("autoqliqd")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logger.ToLoggerConfig())

	db, err := gorm.Open(sqlite.Open(cfg.Engine.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to open workflow database", "error", err)
	}
	if err := sqliteadapter.Open(db); err != nil {
		log.Fatal("failed to migrate workflow database", "error", err)
	}

	factory := action.NewFactory()
	workflows := sqliteadapter.NewWorkflowRepository(db, factory)
	templates := sqliteadapter.NewTemplateRepository(db, factory)
	credentials := sqliteadapter.NewCredentialRepository(db)

	lifecycle := driver.NewLifecycleManager(pathAwareFactory{inner: seleniumdriver.Factory{}, cfg: cfg.Engine}, driver.LifecycleConfig{}, log)

	wfRunner := runner.New(workflows, credentials, templates, lifecycle, action.StopOnError, log)

	leaderCfg := scheduler.LeaderConfig{}
	if cfg.Scheduler.RedisAddr != "" {
		leaderCfg.RedisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Scheduler.RedisAddr,
			Password: cfg.Scheduler.RedisPassword,
			DB:       cfg.Scheduler.RedisDB,
		})
		leaderCfg.LockKey = cfg.Scheduler.LockKey
		leaderCfg.TTL = time.Duration(cfg.Scheduler.LockTTLSecs) * time.Second
	}
	sched := scheduler.New(wfRunner, leaderCfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}

	log.Info("autoqliqd started", "db_path", cfg.Engine.DBPath)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down autoqliqd...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("scheduler forced to stop", "error", err)
	}
	log.Info("autoqliqd exited")
}

// pathAwareFactory fills in a browser's configured driver endpoint before
// delegating to the real driver.Factory, so workflows never have to name a
// driver path themselves.
type pathAwareFactory struct {
	inner driver.Factory
	cfg   config.EngineConfig
}

func (f pathAwareFactory) Create(ctx context.Context, opts driver.Options) (driver.Driver, error) {
	if opts.DriverPath == "" {
		if path, ok := f.cfg.DriverPath(string(opts.BrowserType)); ok {
			opts.DriverPath = path
		}
	}
	return f.inner.Create(ctx, opts)
}
