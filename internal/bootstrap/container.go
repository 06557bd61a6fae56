package bootstrap

import (
	"context"
	"log"
	"time"

	"plant-doctor-be/internal/config"
	"plant-doctor-be/internal/controller"
	"plant-doctor-be/internal/metrics"
	"plant-doctor-be/internal/pkg/logger"
	"plant-doctor-be/internal/pkg/ratelimit"
	"plant-doctor-be/internal/repository/memory"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/internal/service"
	"plant-doctor-be/pkg/advisory"
	"plant-doctor-be/pkg/diagnosis"
	llmFactory "plant-doctor-be/pkg/llm/factory"
	plantidFactory "plant-doctor-be/pkg/plantid/factory"
	"plant-doctor-be/pkg/treatment"

	pktNats "plant-doctor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DiagnosisController controller.IDiagnosisController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Served at /metrics
	Registry *prometheus.Registry

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	diagLogger := logger.NewIsolatedLogger(cfg.Diagnosis.LogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = diagLogger.Sync() }, func() { _ = sysLogger.Sync() })

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	rateStore := newRateLimitStore(cfg, c)

	// Metrics
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	diagMetrics, err := metrics.NewDiagnosis(c.Registry)
	if err != nil {
		log.Fatalf("[FATAL] Failed to register metrics: %v", err)
	}

	// 4. Upstream Providers
	identifier, err := plantidFactory.NewIdentifier(
		cfg.Keys.PlantIDVia,
		cfg.Keys.PlantID,
		cfg.Keys.PlantIDURL,
		cfg.Keys.PlantIDLang,
		cfg.Diagnosis.IdentifyTimeout,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize plant identifier: %v", err)
	}
	log.Printf("[INFO] Using Plant Identifier: %s", cfg.Keys.PlantIDVia)

	llmProvider, err := llmFactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Keys.HuggingFace,
		cfg.Ai.LLMTimeout,
	)
	if err != nil {
		// Advisories fall back to the deterministic template.
		log.Printf("[WARN] Failed to initialize LLM Provider: %v", err)
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	}

	// 5. Pipeline
	nameCache := memory.NewNameCache(10 * time.Minute)
	aggregator := treatment.NewAggregator(service.NewKnowledgeStore(uowFactory))
	synthesizer := advisory.NewSynthesizer(
		llmProvider,
		cfg.Diagnosis.AdvisoryTimeout,
		advisory.WithCatalog(service.NewItemCatalog(uowFactory, nameCache)),
	)
	orchestrator := diagnosis.NewOrchestrator(
		identifier,
		aggregator,
		synthesizer,
		diagnosis.Config{
			RequestTimeout:       cfg.Diagnosis.RequestTimeout,
			IdentifyTimeout:      cfg.Diagnosis.IdentifyTimeout,
			MinDiseaseConfidence: cfg.Diagnosis.MinDiseaseConfidence,
			MaxDiseases:          cfg.Diagnosis.MaxDiseases,
			EmitProgress:         cfg.Diagnosis.EmitProgress,
		},
		diagLogger,
		diagMetrics,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.ResultTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Keys.ResultTopic,
		uowFactory,
		eventPublisher,
		sysLogger,
	)

	diagnosisService := service.NewDiagnosisService(orchestrator, publisherService, sysLogger)
	knowledgeService := service.NewKnowledgeService(uowFactory, aggregator, nameCache)
	historyService := service.NewHistoryService(uowFactory)

	limiter := ratelimit.Middleware(rateStore, ratelimit.Config{
		Prefix: "ratelimit:diagnosis",
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	}, sysLogger)

	// 7. Controllers
	c.DiagnosisController = controller.NewDiagnosisController(
		diagnosisService,
		knowledgeService,
		historyService,
		limiter,
		cfg.Diagnosis.Heartbeat,
	)

	return c
}

func newRateLimitStore(cfg *config.Config, c *Container) ratelimit.Store {
	if cfg.RateLimit.Backend != "redis" {
		log.Printf("[INFO] Using in-memory rate limit store")
		return ratelimit.NewMemoryStore(cfg.RateLimit.Window)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	log.Printf("[INFO] Using Redis rate limit store")
	return ratelimit.NewRedisStore(rdb)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
