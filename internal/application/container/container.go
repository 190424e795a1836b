// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	domainservices "github.com/AtRiskMedia/faq-jsonld-go/internal/domain/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	contentrepo "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/faqs"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/queue"
	settingsrepo "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/settings"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

const healthStreamInterval = 5 * time.Second

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	SettingsService *services.SettingsService
	IndexService    *services.IndexService
	QueueService    *services.QueueService
	RenderService   *services.RenderService
	ContentService  *services.ContentService
	AuthService     *services.AuthService

	// Domain Services
	RuleCompiler *domainservices.RuleCompiler
	Resolver     *services.InvalidationResolver

	// Infrastructure Dependencies
	Config      *config.Config
	Logger      *logging.ChanneledLogger
	DB          *database.DB
	RenderStore *stores.RenderStore
	Broadcaster *messaging.HealthBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer(cfg *config.Config, logger *logging.ChanneledLogger, db *database.DB) (*Container, error) {
	contentRepo := contentrepo.NewContentRepository(db, logger)
	faqRepo := faqs.NewFAQRepository(db, logger)
	mappingRepo := faqs.NewMappingRepository(db, logger)
	queueRepo := queue.NewQueueRepository(db, logger)
	runLogRepo := queue.NewRunLogRepository(db, logger)
	settingsRepo := settingsrepo.NewSettingsRepository(db, logger)

	compiler, err := domainservices.NewRuleCompiler(cfg.Site.URL, contentRepo, logger.Index())
	if err != nil {
		return nil, err
	}

	seed := faq.Settings{
		CacheTTL:   cfg.Defaults.CacheTTL,
		BatchSize:  cfg.Defaults.BatchSize,
		OutputType: faq.OutputType(cfg.Defaults.OutputType),
	}
	if ot, ok := faq.ParseOutputType(cfg.Defaults.OutputType); ok {
		seed.OutputType = ot
	}

	authService, err := services.NewAuthService(cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	renderStore := stores.NewRenderStore(cfg.Cache.MaxEntries)
	settingsService := services.NewSettingsService(settingsRepo, seed, logger)
	resolver := services.NewInvalidationResolver(contentRepo, queueRepo, renderStore, logger)
	queueService := services.NewQueueService(queueRepo, runLogRepo, renderStore, settingsService, cfg.Queue, logger)

	c := &Container{
		SettingsService: settingsService,
		IndexService:    services.NewIndexService(faqRepo, mappingRepo, compiler, resolver, settingsService, logger),
		QueueService:    queueService,
		RenderService:   services.NewRenderService(contentRepo, mappingRepo, faqRepo, compiler, renderStore, settingsService, logger),
		ContentService:  services.NewContentService(contentRepo, compiler, renderStore, logger),
		AuthService:     authService,

		RuleCompiler: compiler,
		Resolver:     resolver,

		Config:      cfg,
		Logger:      logger,
		DB:          db,
		RenderStore: renderStore,
	}
	c.Broadcaster = messaging.NewHealthBroadcaster(func(ctx context.Context) (any, error) {
		return queueService.Health(ctx)
	}, healthStreamInterval, logger)
	return c, nil
}
