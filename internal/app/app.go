package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/handlers"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/services/dedup"
	"github.com/ternarybob/sentio/internal/services/embeddings"
	"github.com/ternarybob/sentio/internal/services/events"
	"github.com/ternarybob/sentio/internal/services/extractor"
	"github.com/ternarybob/sentio/internal/services/markets"
	"github.com/ternarybob/sentio/internal/services/ner"
	"github.com/ternarybob/sentio/internal/services/pipeline"
	"github.com/ternarybob/sentio/internal/services/query"
	"github.com/ternarybob/sentio/internal/services/scheduler"
	"github.com/ternarybob/sentio/internal/storage"
)

// App holds the wired application: configuration, storage, the ingestion
// and query services, and the HTTP handlers the server routes to.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Market knowledge
	Dictionaries *common.Dictionaries
	Normalizer   *markets.Normalizer

	// Storage
	StorageManager interfaces.StorageManager

	// Core services
	EventService     interfaces.EventService
	EmbeddingService interfaces.EmbeddingService
	NERService       interfaces.NERService
	DedupService     interfaces.DedupService
	ExtractorService interfaces.ExtractorService
	PipelineService  interfaces.PipelineService
	QueryService     interfaces.QueryService
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	NewsHandler   *handlers.NewsHandler
	QueryHandler  *handlers.QueryHandler
	StoryHandler  *handlers.StoryHandler
	StatusHandler *handlers.StatusHandler
	WSHandler     *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize WebSocket handler early so services created later can
	// publish events that reach connected clients
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Str("embeddings_mode", cfg.Embeddings.Mode).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
//
// PIPELINE ARCHITECTURE:
// 1. Dictionaries + Normalizer - Market knowledge every classifier shares
// 2. NER - Entity span recognition over the dictionary gazetteer
// 3. Embeddings - Vector provider selected by config (local/gemini/mock)
// 4. Dedup - Clusters article batches against themselves and stored history
// 5. Extractor - Entity sets and stock impacts for consolidated stories
// 6. Pipeline - Orchestrates validation, dedup, extraction, persistence
// 7. Query - Natural-language retrieval over the story corpus
// 8. Scheduler - Recurring store maintenance (value-log GC, corpus stats)
func (a *App) initServices() error {
	var err error

	// 1. Load market dictionaries (compiled-in defaults, optional YAML overlay)
	a.Dictionaries, err = common.LoadDictionaries(a.Config.Markets.DictionaryFile)
	if err != nil {
		return fmt.Errorf("failed to load market dictionaries: %w", err)
	}
	a.Normalizer = markets.NewNormalizer(a.Dictionaries)
	a.Logger.Debug().
		Int("sectors", len(a.Dictionaries.Sectors)).
		Msg("Market dictionaries loaded")

	// 2. Initialize entity recognition over the dictionary gazetteer
	a.NERService = ner.NewService(a.Normalizer)

	// 3. Initialize embedding provider
	a.EmbeddingService, err = embeddings.NewEmbeddingService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding service: %w", err)
	}

	// 4. Initialize deduplication service
	a.DedupService = dedup.NewService(
		a.EmbeddingService,
		a.StorageManager.StoryStorage(),
		a.Config.Pipeline.SimilarityThreshold,
		a.Logger,
	)
	a.Logger.Debug().
		Float64("similarity_threshold", a.Config.Pipeline.SimilarityThreshold).
		Msg("Deduplication service initialized")

	// 5. Initialize entity extraction
	a.ExtractorService = extractor.NewService(
		a.NERService,
		a.Normalizer,
		a.Dictionaries.Confidence,
		a.Config.Markets.FanoutEnabled,
		a.Logger,
	)

	// 6. Initialize ingestion pipeline
	a.PipelineService = pipeline.NewService(
		a.DedupService,
		a.ExtractorService,
		a.StorageManager.StoryStorage(),
		a.EventService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Ingestion pipeline initialized")

	// 7. Initialize query service
	a.QueryService = query.NewService(
		a.EmbeddingService,
		a.StorageManager.StoryStorage(),
		a.Normalizer,
		a.EventService,
		&a.Config.Pipeline,
		a.Logger,
	)
	a.Logger.Debug().Msg("Query service initialized")

	// 8. Initialize scheduler with store maintenance jobs
	if a.Config.Scheduler.Enabled {
		if err := a.initScheduler(); err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
	} else {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
	}

	return nil
}

// initScheduler registers the recurring store maintenance jobs and starts
// the scheduler.
func (a *App) initScheduler() error {
	a.SchedulerService = scheduler.NewService(a.Logger)

	gcRatio := a.Config.Storage.Badger.GCDiscardRatio
	err := a.SchedulerService.RegisterJob("store-gc", a.Config.Scheduler.StoreGCSchedule, func() error {
		return a.StorageManager.RunValueLogGC(gcRatio)
	})
	if err != nil {
		return err
	}

	err = a.SchedulerService.RegisterJob("corpus-stats", a.Config.Scheduler.StatsSchedule, func() error {
		stats, err := a.StorageManager.StoryStorage().GetStats(context.Background())
		if err != nil {
			return err
		}
		a.Logger.Info().
			Int("total_stories", stats.TotalStories).
			Int("total_impacts", stats.TotalImpacts).
			Int("vector_dimension", stats.VectorDimension).
			Msg("Corpus statistics")
		return nil
	})
	if err != nil {
		return err
	}

	if err := a.SchedulerService.Start(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
	} else {
		a.Logger.Debug().Msg("Scheduler service started")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	// WSHandler already initialized in New() before services so event
	// subscriptions exist ahead of the first published event

	a.NewsHandler = handlers.NewNewsHandler(a.PipelineService, a.Logger)

	a.QueryHandler = handlers.NewQueryHandler(a.QueryService, a.Logger)

	a.StoryHandler = handlers.NewStoryHandler(a.StorageManager.StoryStorage(), a.Logger)

	a.StatusHandler = handlers.NewStatusHandler(
		a.StorageManager.StoryStorage(),
		a.EmbeddingService,
		a.SchedulerService,
		a.Logger,
	)

	a.Logger.Debug().Msg("HTTP handlers initialized")

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler service
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	// Close embedding provider
	if a.EmbeddingService != nil {
		if err := a.EmbeddingService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close embedding service")
		}
	}

	// Close event service
	if a.EventService != nil {
		a.EventService.Close()
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
