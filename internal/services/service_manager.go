package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/adaptive"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/events"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/questiongen"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/validator"
)

// ServiceManager hands out the services the handlers and commands use
type ServiceManager interface {
	Session() SessionService
	Telemetry() TelemetryService
	Analytics() AnalyticsService
	Export() ExportService
	Events() EventService
}

// Dependencies are the collaborators shared by every service. Index may be
// nil; Cache defaults to a no-op cache and Rand to a clock-seeded source.
type Dependencies struct {
	Repo      repositories.Repository
	Generator questiongen.QuestionGenerator
	Publisher events.EventPublisher
	Cache     cache.CacheService
	Index     *cache.FingerprintIndex
	Settings  *config.AnalyticsStore
	Rand      adaptive.RandSource
	Validator *validator.Validator
	Logger    *slog.Logger
}

type serviceManager struct {
	session   SessionService
	telemetry TelemetryService
	analytics AnalyticsService
	export    ExportService
	events    EventService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopCache()
	}
	if deps.Rand == nil {
		deps.Rand = adaptive.NewClockSource()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Settings == nil {
		deps.Settings = config.NewStaticAnalyticsStore(config.DefaultAnalyticsSettings())
	}

	settings := deps.Settings
	reports := cache.NewReportCache(deps.Cache, func() time.Duration {
		return settings.Current().ReportCacheTTL.Std()
	}, deps.Logger)

	eventService := NewEventService(deps.Publisher, deps.Logger)
	analytics := NewAnalyticsService(deps.Repo, deps.Index, reports, eventService, settings, deps.Logger)

	return &serviceManager{
		session:   NewSessionService(deps.Repo, deps.Generator, analytics, eventService, settings, deps.Rand, deps.Logger, deps.Validator),
		telemetry: NewTelemetryService(deps.Repo, deps.Logger, deps.Validator),
		analytics: analytics,
		export:    NewExportService(deps.Repo, deps.Logger),
		events:    eventService,
	}
}

func (m *serviceManager) Session() SessionService     { return m.session }
func (m *serviceManager) Telemetry() TelemetryService { return m.telemetry }
func (m *serviceManager) Analytics() AnalyticsService { return m.analytics }
func (m *serviceManager) Export() ExportService       { return m.export }
func (m *serviceManager) Events() EventService        { return m.events }
