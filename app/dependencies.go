package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codetrack/ai-gateway/auth"
	"github.com/codetrack/ai-gateway/config"
	"github.com/codetrack/ai-gateway/middleware"
	"github.com/codetrack/ai-gateway/repositories"
	"github.com/codetrack/ai-gateway/repositories/postgres"
	"github.com/codetrack/ai-gateway/services/fallback"
	"github.com/codetrack/ai-gateway/services/flashcards"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/codetrack/ai-gateway/services/providers/gemini"
	"github.com/codetrack/ai-gateway/services/providers/huggingface"
	"github.com/codetrack/ai-gateway/services/providers/openaicompat"
	"github.com/codetrack/ai-gateway/services/ratelimit"
	"github.com/codetrack/ai-gateway/services/router"
	"github.com/codetrack/ai-gateway/services/tutor"
	"github.com/codetrack/ai-gateway/services/usage"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Usage bookkeeping
	UsageRepo     repositories.UsageRepository
	UsageRecorder usage.Recorder
	usageService  *usage.Service

	// Core services
	Router     *router.Service
	Flashcards *flashcards.Service
	Tutor      *tutor.Service

	// Auth; nil when no secret is configured (open API)
	AuthMiddleware *middleware.AuthMiddleware

	// Rate limiting; nil when no limits are configured
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initUsage()
	deps.initRouter(cfg)
	deps.initAuth(cfg)
	deps.initRateLimit(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the optional usage database.
// A missing database disables usage recording, it never fails startup wiring.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("no database configured, usage recording disabled")
		return nil
	}

	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	return nil
}

// initUsage initializes the usage recorder, backed by postgres when available
func (d *Dependencies) initUsage() {
	if d.DB == nil {
		d.UsageRecorder = usage.NopRecorder{}
		return
	}

	d.UsageRepo = postgres.NewUsageRepository(d.DB, d.Logger)
	d.usageService = usage.NewService(d.UsageRepo, d.Logger, usage.DefaultConfig())
	d.UsageRecorder = d.usageService
}

// Start starts background workers
func (d *Dependencies) Start() error {
	if d.usageService != nil {
		if err := d.usageService.Start(); err != nil {
			return err
		}
	}
	return nil
}

// initRouter builds the provider chain and the routing service.
// Providers without a credential are excluded entirely, never deprioritized.
func (d *Dependencies) initRouter(cfg *config.Config) {
	var candidates []router.Candidate

	if cfg.Providers.OpenAI.Configured() {
		candidates = append(candidates, router.Candidate{
			Provider: openaicompat.New(openaicompat.Config{
				Name:    "openai",
				APIKey:  cfg.Providers.OpenAI.APIKey,
				BaseURL: cfg.Providers.OpenAI.BaseURL,
				Model:   cfg.Providers.OpenAI.Model,
				Timeout: cfg.Providers.OpenAI.Timeout,
			}),
			Rank:       1,
			Capability: providers.CapabilityGeneral,
			Timeout:    cfg.Providers.OpenAI.Timeout,
		})
	}

	if cfg.Providers.DeepSeek.Configured() {
		candidates = append(candidates, router.Candidate{
			Provider: openaicompat.New(openaicompat.Config{
				Name:    "deepseek",
				APIKey:  cfg.Providers.DeepSeek.APIKey,
				BaseURL: cfg.Providers.DeepSeek.BaseURL,
				Model:   cfg.Providers.DeepSeek.Model,
				Timeout: cfg.Providers.DeepSeek.Timeout,
			}),
			Rank:       2,
			Capability: providers.CapabilityCode,
			Timeout:    cfg.Providers.DeepSeek.Timeout,
		})
	}

	if cfg.Providers.Gemini.Configured() {
		candidates = append(candidates, router.Candidate{
			Provider: gemini.New(gemini.Config{
				APIKey:  cfg.Providers.Gemini.APIKey,
				BaseURL: cfg.Providers.Gemini.BaseURL,
				Model:   cfg.Providers.Gemini.Model,
				Timeout: cfg.Providers.Gemini.Timeout,
			}),
			Rank:       3,
			Capability: providers.CapabilityGeneral,
			Timeout:    cfg.Providers.Gemini.Timeout,
		})
	}

	if cfg.Providers.OpenRouter.Configured() {
		candidates = append(candidates, router.Candidate{
			Provider: openaicompat.New(openaicompat.Config{
				Name:    "openrouter",
				APIKey:  cfg.Providers.OpenRouter.APIKey,
				BaseURL: cfg.Providers.OpenRouter.BaseURL,
				Model:   cfg.Providers.OpenRouter.Model,
				Timeout: cfg.Providers.OpenRouter.Timeout,
			}),
			Rank:       4,
			Capability: providers.CapabilityCode,
			Timeout:    cfg.Providers.OpenRouter.Timeout,
		})
	}

	if cfg.Providers.HuggingFace.Configured() {
		candidates = append(candidates, router.Candidate{
			Provider: huggingface.New(huggingface.Config{
				APIKey:  cfg.Providers.HuggingFace.APIKey,
				BaseURL: cfg.Providers.HuggingFace.BaseURL,
				Model:   cfg.Providers.HuggingFace.Model,
				Timeout: cfg.Providers.HuggingFace.Timeout,
			}),
			Rank:       5,
			Capability: providers.CapabilityGeneral,
			Timeout:    cfg.Providers.HuggingFace.Timeout,
		})
	}

	if len(candidates) == 0 {
		d.Logger.Warn("no AI providers configured, all requests will use the local fallback")
	}

	d.Router = router.NewService(candidates, fallback.NewCatalog(), d.Logger)
	d.Flashcards = flashcards.NewService(d.Router, d.UsageRecorder, d.Logger)
	d.Tutor = tutor.NewService(d.Router, d.UsageRecorder, d.Logger)

	d.Logger.Info("router initialized", zap.Int("providers", len(candidates)))
}

// initAuth initializes bearer token authentication when a secret is configured
func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("no auth secret configured, API endpoints are unauthenticated")
		return
	}

	validator := auth.NewValidator(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("auth middleware initialized", zap.String("issuer", cfg.Auth.Issuer))
}

// initRateLimit initializes the in-memory rate limiter when limits are configured
func (d *Dependencies) initRateLimit(cfg *config.Config) {
	if !cfg.RateLimit.Enabled() {
		return
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		RequestsPerHour:   cfg.RateLimit.RequestsPerHour,
	}, d.Logger)
	d.RateLimitMiddleware = middleware.NewRateLimitMiddleware(limiter, d.Logger)

	d.Logger.Info("rate limiting initialized",
		zap.Int("requests_per_minute", cfg.RateLimit.RequestsPerMinute),
		zap.Int("requests_per_hour", cfg.RateLimit.RequestsPerHour))
}

// SQLDB returns the raw database handle, or nil when none is configured
func (d *Dependencies) SQLDB() *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.usageService != nil {
		if err := d.usageService.Stop(10 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop usage recorder: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
