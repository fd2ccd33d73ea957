package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/glow/internal/dependencies/clock"
	"github.com/mcoot/glow/internal/dependencies/random"
	"github.com/mcoot/glow/internal/model"
	"github.com/mcoot/glow/internal/notify"
	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/services/auth"
	"github.com/mcoot/glow/internal/services/chat"
	"github.com/mcoot/glow/internal/services/matcher"
	"github.com/mcoot/glow/internal/services/validator"
	"github.com/mcoot/glow/internal/storage"
	"github.com/mcoot/glow/internal/storage/memory"
	redisstorage "github.com/mcoot/glow/internal/storage/redis"
	sqlitestorage "github.com/mcoot/glow/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
	StorageTypeRedis  = "redis"
)

// Oracle type constants
const (
	OracleTypeGuide = "guide"
	OracleTypeGenAI = "genai"
)

// Notifier type constants
const (
	NotifierTypeLog  = "log"
	NotifierTypeSMTP = "smtp"
)

// DefaultSweepInterval is how often idle conversations are dropped
const DefaultSweepInterval = time.Minute

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock    clock.Clock
	Random   random.Random
	Notifier notify.Notifier
	Oracle   oracle.Oracle

	// Services
	AuthService      *auth.Service
	ValidatorService *validator.Service
	ChatManager      *chat.Manager
	ChatController   *chat.Controller
	// MatcherService is nil when no embedder is configured
	MatcherService *matcher.Service

	sweepInterval time.Duration
	logger        *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	// StorageType selects the storage backend ("memory", "sqlite" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// SQLiteConfig holds database settings (optional for "sqlite")
	SQLiteConfig *sqlitestorage.Config
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	// OracleType selects the dialogue oracle ("guide" or "genai")
	// If empty, defaults to "guide"
	OracleType string
	// GenAIConfig holds Gemini settings, used by the genai oracle and the matcher
	GenAIConfig oracle.GenAIConfig
	// EmbeddingModel enables the matcher when set together with a Gemini API key
	EmbeddingModel string

	// NotifierType selects email delivery ("log" or "smtp")
	// If empty, defaults to "log"
	NotifierType string
	// SMTPConfig holds mail settings (required if NotifierType is "smtp")
	SMTPConfig *notify.SMTPConfig

	// Service configs (optional, zero values use defaults)
	AuthConfig      auth.Config
	ValidatorConfig validator.Config
	ChatConfig      chat.Config
	MatcherConfig   matcher.Config
	SweepInterval   time.Duration
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	orc, err := newOracle(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var embedder matcher.Embedder
	if cfg.EmbeddingModel != "" && cfg.GenAIConfig.APIKey != "" {
		embedder, err = matcher.NewGenAIEmbedder(ctx, cfg.GenAIConfig.APIKey, cfg.EmbeddingModel)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	deps := dependencies{
		store:    store,
		clock:    clock.New(),
		random:   random.New(),
		notifier: notifier,
		oracle:   orc,
		embedder: embedder,
		profiles: matcher.DefaultProfiles(),
	}
	return newWithDependencies(deps, cfg, authCfg, logger), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if cfg.SQLiteConfig != nil {
			sqliteCfg = *cfg.SQLiteConfig
		}
		return sqlitestorage.New(sqliteCfg)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'sqlite' or 'redis'", storageType)
	}
}

func newNotifier(cfg Config, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.NotifierType {
	case "", NotifierTypeLog:
		return notify.NewLog(logger), nil
	case NotifierTypeSMTP:
		if cfg.SMTPConfig == nil {
			return nil, errors.New("SMTPConfig required when NotifierType is smtp")
		}
		return notify.NewSMTP(*cfg.SMTPConfig), nil
	default:
		return nil, fmt.Errorf("invalid NotifierType %q: must be 'log' or 'smtp'", cfg.NotifierType)
	}
}

func newOracle(ctx context.Context, cfg Config, logger *slog.Logger) (oracle.Oracle, error) {
	switch cfg.OracleType {
	case "", OracleTypeGuide:
		return oracle.NewGuide(), nil
	case OracleTypeGenAI:
		return oracle.NewGenAI(ctx, cfg.GenAIConfig, logger)
	default:
		return nil, fmt.Errorf("invalid OracleType %q: must be 'guide' or 'genai'", cfg.OracleType)
	}
}

// dependencies are the externally-facing pieces an App is built from
type dependencies struct {
	store    storage.Storage
	clock    clock.Clock
	random   random.Random
	notifier notify.Notifier
	oracle   oracle.Oracle
	embedder matcher.Embedder
	profiles []model.Profile
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg Config, authCfg auth.Config, logger *slog.Logger) *App {
	authService := auth.New(deps.store, deps.clock, authCfg)

	validatorCfg := cfg.ValidatorConfig
	if validatorCfg.CodeTTL == 0 {
		validatorCfg = validator.DefaultConfig()
	}
	validatorService := validator.New(deps.store, authService, deps.notifier, deps.random, deps.clock, validatorCfg, logger)

	chatManager := chat.NewManager(deps.clock, cfg.ChatConfig, logger)
	chatController := chat.NewController(chatManager, validatorService, deps.oracle, deps.clock, cfg.ChatConfig, logger)

	var matcherService *matcher.Service
	if deps.embedder != nil {
		matcherService = matcher.New(deps.embedder, deps.profiles, deps.store, deps.clock, cfg.MatcherConfig, logger)
	}

	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	return &App{
		Storage:          deps.store,
		Clock:            deps.clock,
		Random:           deps.random,
		Notifier:         deps.notifier,
		Oracle:           deps.oracle,
		AuthService:      authService,
		ValidatorService: validatorService,
		ChatManager:      chatManager,
		ChatController:   chatController,
		MatcherService:   matcherService,
		sweepInterval:    sweepInterval,
		logger:           logger,
	}
}

// RunBackground runs periodic maintenance until ctx is done
func (a *App) RunBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.ChatManager.Run(ctx, a.sweepInterval)
	})
	g.Go(func() error {
		ticker := time.NewTicker(a.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				a.AuthService.CleanExpiredSessions()
			}
		}
	})
	return g.Wait()
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
