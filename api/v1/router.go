package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/admin"
	"simulacred/simulation-portal/simulation-portal-backend/internal/config"
	"simulacred/simulation-portal/simulation-portal-backend/internal/database"
	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
	"simulacred/simulation-portal/simulation-portal-backend/internal/fgts"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing"
	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/internal/metrics"
	"simulacred/simulation-portal/simulation-portal-backend/internal/middleware"
	"simulacred/simulation-portal/simulation-portal-backend/internal/notifications/websocket"
	"simulacred/simulation-portal/simulation-portal-backend/internal/proposals"
	"simulacred/simulation-portal/simulation-portal-backend/internal/simulations"
	"simulacred/simulation-portal/simulation-portal-backend/internal/vehicles"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/security"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/storage"
)

// MemoryBucket is used when no S3 bucket is configured
const MemoryBucket = "simulation-portal"

// Dependencies are the resources built by the entry point
type Dependencies struct {
	Config   *config.Config
	DB       *database.DB
	Storage  storage.S3Client
	Cache    admin.Cache
	Notifier proposals.Notifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// API holds the services and handlers of the portal
type API struct {
	Simulations *simulations.Service
	Vehicles    *vehicles.Service
	FGTS        *fgts.Service
	Proposals   *proposals.Service
	Aggregator  *admin.Aggregator
	Exporter    *admin.Exporter
	LiveFeed    *websocket.Manager
	RateLimiter *middleware.RateLimiter

	handlers []routeRegistrar
	config   *config.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup, createMiddleware ...gin.HandlerFunc)
}

// registrarFunc adapts handlers without rate limited routes
type registrarFunc func(router *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(router *gin.RouterGroup, _ ...gin.HandlerFunc) {
	f(router)
}

// NewCalculator builds the calculator with the configured vehicle rates
func NewCalculator(cfg config.FinancingConfig, observer calculation.Observer, logger *zap.Logger) (*calculation.Calculator, error) {
	opts := []calculation.Option{calculation.WithObserver(observer)}
	if len(cfg.VehicleRates) > 0 {
		table, err := calculation.NewRateTable(cfg.VehicleRates)
		if err != nil {
			return nil, fmt.Errorf("invalid vehicle rates: %w", err)
		}
		opts = append(opts, calculation.WithVehicleRates(table))
	}
	return calculation.NewCalculator(logger, opts...), nil
}

// NewStorage returns the S3 client, or an in-memory store when no bucket is configured
func NewStorage(ctx context.Context, cfg config.StorageConfig) (storage.S3Client, string, error) {
	if cfg.Bucket == "" {
		return storage.NewMemoryClient("memory://"), MemoryBucket, nil
	}
	client, err := storage.NewS3Client(ctx, storage.Options{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UsePathStyle:    cfg.UsePathStyle,
	})
	if err != nil {
		return nil, "", err
	}
	return client, cfg.Bucket, nil
}

// Setup wires repositories, services and handlers
func Setup(deps Dependencies) (*API, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Cache == nil {
		deps.Cache = admin.NewMemoryCache(time.Minute)
	}
	if deps.Storage == nil {
		deps.Storage = storage.NewMemoryClient("memory://")
	}

	calculator, err := NewCalculator(cfg.Financing, deps.Metrics, logger)
	if err != nil {
		return nil, err
	}

	bucket := cfg.Storage.Bucket
	if bucket == "" {
		bucket = MemoryBucket
	}

	liveFeed := websocket.NewManager(cfg.Server.AllowedOrigins, logger)

	aggregator := admin.NewAggregator(
		admin.NewSQLStore(deps.DB.SQL),
		deps.Cache,
		admin.NewGormAggregateRepository(deps.DB.Gorm),
		deps.Metrics,
		logger,
		admin.AggregatorConfig{CacheTTL: cfg.Cache.TTL},
	)
	exporter := admin.NewExporter(admin.NewSQLStore(deps.DB.SQL), logger)

	publisher := events.Multi{
		liveFeed,
		aggregator,
		events.PublisherFunc(func(_ context.Context, event events.Event) {
			if event.Type == events.TypeSimulationCreated {
				deps.Metrics.SimulationCreated(event.Product)
			}
		}),
	}

	simulationService := simulations.NewService(simulations.NewPostgresRepository(deps.DB.SQL), calculator, publisher, logger)
	vehicleService := vehicles.NewService(vehicles.NewGormRepository(deps.DB.Gorm), calculator, publisher, logger)
	fgtsService := fgts.NewService(fgts.NewGormRepository(deps.DB.Gorm), publisher, logger)
	proposalService := proposals.NewService(
		simulationService,
		proposals.NewGenerator(proposals.DefaultGeneratorOptions()),
		security.NewValidator(),
		deps.Storage,
		deps.Notifier,
		proposals.Config{Bucket: bucket, PresignTTL: cfg.Storage.PresignTTL},
		logger,
	)

	api := &API{
		Simulations: simulationService,
		Vehicles:    vehicleService,
		FGTS:        fgtsService,
		Proposals:   proposalService,
		Aggregator:  aggregator,
		Exporter:    exporter,
		LiveFeed:    liveFeed,
		config:      cfg,
		metrics:     deps.Metrics,
		logger:      logger,
	}
	if cfg.RateLimit.Enabled {
		api.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
	}

	adminHandler := admin.NewHandler(aggregator, exporter, logger)
	proposalHandler := proposals.NewHandler(proposalService, logger)
	api.handlers = []routeRegistrar{
		financing.NewHandler(calculator, logger),
		simulations.NewHandler(simulationService, logger),
		vehicles.NewHandler(vehicleService, logger),
		fgts.NewHandler(fgtsService, logger),
		registrarFunc(proposalHandler.RegisterRoutes),
		registrarFunc(adminHandler.RegisterRoutes),
		registrarFunc(liveFeed.RegisterRoutes),
	}
	return api, nil
}

// Router builds the gin engine with middleware, health and metrics endpoints
func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(a.config.Server.AllowedOrigins))
	router.Use(middleware.Metrics(a.metrics))

	var createMiddleware []gin.HandlerFunc
	if a.RateLimiter != nil {
		createMiddleware = append(createMiddleware, middleware.RateLimit(a.RateLimiter))
	}

	v1 := router.Group("/api/v1")
	for _, h := range a.handlers {
		h.RegisterRoutes(v1, createMiddleware...)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":                "healthy",
			"timestamp":             time.Now(),
			"live_feed_connections": a.LiveFeed.GetConnectionCount(),
		})
	})
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	return router
}

// Close stops background goroutines owned by the API
func (a *API) Close() {
	a.LiveFeed.Close()
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
}
