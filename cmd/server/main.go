package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/glow/internal/api"
	"github.com/mcoot/glow/internal/factory"
	"github.com/mcoot/glow/internal/notify"
	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/services/chat"
	"github.com/mcoot/glow/internal/services/matcher"
	redisstorage "github.com/mcoot/glow/internal/storage/redis"
	sqlitestorage "github.com/mcoot/glow/internal/storage/sqlite"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	routerCfg := api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		ChatController: app.ChatController,
		ChatManager:    app.ChatManager,
	}
	if app.MatcherService != nil {
		routerCfg.Matcher = app.MatcherService
	} else {
		logger.Warn("matcher disabled: set GEMINI_API_KEY to enable it")
	}

	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Error("invalid PORT", slog.String("port", port))
			os.Exit(1)
		}
		serverConfig.Port = p
	}
	server := api.NewServer(api.NewRouter(routerCfg), serverConfig, logger)

	logger.Info("server starting",
		slog.String("addr", server.Addr()),
		slog.String("storage", orDefault(cfg.StorageType, factory.StorageTypeMemory)),
		slog.String("oracle", orDefault(cfg.OracleType, factory.OracleTypeGuide)),
		slog.String("notifier", orDefault(cfg.NotifierType, factory.NotifierTypeLog)),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	g.Go(func() error {
		return app.RunBackground(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// configFromEnv builds the factory config from environment variables
func configFromEnv(logger *slog.Logger) (factory.Config, error) {
	cfg := factory.Config{
		Logger:       logger,
		StorageType:  os.Getenv("STORAGE_TYPE"),
		OracleType:   os.Getenv("ORACLE_TYPE"),
		NotifierType: os.Getenv("NOTIFIER_TYPE"),
	}

	switch cfg.StorageType {
	case factory.StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if path := os.Getenv("SQLITE_PATH"); path != "" {
			sqliteCfg.Path = path
		}
		cfg.SQLiteConfig = &sqliteCfg
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errRequired("REDIS_URL", "STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	genaiCfg := oracle.DefaultGenAIConfig()
	genaiCfg.APIKey = os.Getenv("GEMINI_API_KEY")
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		genaiCfg.Model = model
	}
	cfg.GenAIConfig = genaiCfg
	if cfg.OracleType == factory.OracleTypeGenAI && genaiCfg.APIKey == "" {
		return cfg, errRequired("GEMINI_API_KEY", "ORACLE_TYPE=genai")
	}
	cfg.EmbeddingModel = orDefault(os.Getenv("EMBEDDING_MODEL"), matcher.DefaultEmbeddingModel)

	if cfg.NotifierType == factory.NotifierTypeSMTP {
		smtpCfg := notify.DefaultSMTPConfig()
		smtpCfg.From = os.Getenv("GLOW_EMAIL")
		smtpCfg.Password = os.Getenv("GLOW_EMAIL_PASSWORD")
		if addr := os.Getenv("SMTP_ADDR"); addr != "" {
			smtpCfg.Addr = addr
		}
		cfg.SMTPConfig = &smtpCfg
	}

	chatCfg := chat.DefaultConfig()
	if idle := os.Getenv("SESSION_IDLE_TIMEOUT"); idle != "" {
		d, err := time.ParseDuration(idle)
		if err != nil {
			return cfg, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %w", err)
		}
		chatCfg.SessionIdleTimeout = d
	}
	cfg.ChatConfig = chatCfg

	return cfg, nil
}

func errRequired(name, when string) error {
	return fmt.Errorf("%s required when %s", name, when)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
