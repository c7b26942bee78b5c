package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/notice/internal/clock"
	"github.com/MrSnakeDoc/notice/internal/config"
	"github.com/MrSnakeDoc/notice/internal/errlog"
	"github.com/MrSnakeDoc/notice/internal/httpserver"
	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/ratelimit"
	"github.com/MrSnakeDoc/notice/internal/redis"
	"github.com/MrSnakeDoc/notice/internal/scheduler"
	"github.com/MrSnakeDoc/notice/internal/store/messages"
	redisstore "github.com/MrSnakeDoc/notice/internal/store/redis"
	"github.com/MrSnakeDoc/notice/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sweeper     *scheduler.WindowSweeper
}

// New loads configuration and state and wires the server. A message file that
// cannot be parsed is returned as an error: the service must not start over it.
func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	errorLog, err := errlog.New(cfg.LogDir, clk, loggerClient)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", cfg.StorageDir, err)
	}
	store := messages.New(filepath.Join(cfg.StorageDir, messages.FileName))
	if err := store.Load(); err != nil {
		loggerClient.Error("refusing to start with unreadable message file",
			logger.String("file", store.Path()),
			logger.Error(err))
		return nil, err
	}
	loggerClient.Info("message store loaded",
		logger.String("file", store.Path()),
		logger.Int("bytes", len(store.Read())))

	a := &App{cfg: cfg, logger: loggerClient}

	// Rate limit windows: shared through Redis when configured, otherwise in memory.
	var windows ratelimit.Store
	if cfg.RedisAddr != "" {
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		windows = redisstore.NewWindowStore(client)
		loggerClient.Info("rate limit windows stored in redis")
	} else {
		mem := ratelimit.NewMemoryStore()
		a.sweeper = scheduler.NewWindowSweeper(mem, loggerClient, cfg.SweepInterval)
		windows = mem
	}

	limiter := ratelimit.New(ratelimit.Policy{
		Limit:  cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	}, windows)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		Token:          cfg.Token,
		Clock:          clk,
		Store:          store,
		ErrorLog:       errorLog,
		Limiter:        limiter,
		FaviconFile:    cfg.FaviconFile,
		RevisionFile:   cfg.RevisionFile,
		MTimeFile:      cfg.MTimeFile,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		MetricsEnabled: cfg.MetricsEnabled,
	}

	loggerClient.Info("server configured",
		logger.String("timezone", clk.Location().String()),
		logger.Bool("trust_proxy", cfg.TrustProxy),
		logger.Bool("metrics_enabled", cfg.MetricsEnabled),
		logger.Time("started_at", d.StartTime))

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenPort)
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start window sweeper: %w", err)
		}
		a.logger.Info("window sweeper started",
			logger.Duration("interval", a.cfg.SweepInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ notice stopped cleanly")
	return nil
}
