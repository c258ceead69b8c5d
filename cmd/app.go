package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/llm"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/questiongen"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/SAP-F-2025/adaptive-assessment-service/pkg"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// application holds everything a command needs. close releases it in
// reverse order of acquisition.
type application struct {
	cfg       *config.Config
	logger    utils.Logger
	db        *gorm.DB
	repo      repositories.Repository
	settings  *config.AnalyticsStore
	publisher events.EventPublisher
	redis     *redis.Client
	services  services.ServiceManager
}

// newApplication loads configuration and connects the database. Redis,
// the LLM provider and the event publisher are wired by wireServices.
func newApplication(cmd *cobra.Command) (*application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if path, _ := cmd.Flags().GetString("analytics-config"); path != "" {
		cfg.AnalyticsConfigPath = path
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	settings, err := config.NewAnalyticsStore(cfg.AnalyticsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load analytics settings: %w", err)
	}

	return &application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		repo:     postgres.NewRepository(db),
		settings: settings,
	}, nil
}

func (a *application) wireServices(ctx context.Context) error {
	slogger := a.logger.Slog()

	deps := services.Dependencies{
		Repo:     a.repo,
		Settings: a.settings,
		Logger:   slogger,
	}

	if a.cfg.RedisEnabled {
		client, err := pkg.NewRedisClient(ctx, a.cfg)
		if err != nil {
			a.logger.Warn("Redis unavailable, caching disabled", "error", err)
		} else {
			a.redis = client
			deps.Cache = cache.NewRedisCache(client, slogger)
			deps.Index = cache.NewFingerprintIndex(client)
		}
	}

	llmCfg := llm.ConfigFromEnv()
	provider, err := llm.NewProvider(ctx, llmCfg, slogger)
	if err != nil {
		return fmt.Errorf("init llm provider: %w", err)
	}
	if mock, ok := provider.(*llm.MockProvider); ok {
		a.logger.Warn("Using mock LLM provider with sample questions")
		mock.Responder = questiongen.SampleResponder
	}
	deps.Generator = questiongen.NewGenerator(provider, llmCfg.Timeout, slogger)

	publisher, err := a.cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return fmt.Errorf("init event publisher: %w", err)
	}
	a.publisher = publisher
	deps.Publisher = publisher

	a.services = services.NewServiceManager(deps)
	return nil
}

func (a *application) close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	return errors.Join(errs...)
}
