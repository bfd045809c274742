package runtime

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-sim-worker/internal/app/router"
	"credit-sim-worker/internal/pkg/batchlock"
	"credit-sim-worker/internal/pkg/cleanup"
	"credit-sim-worker/internal/pkg/config"
	"credit-sim-worker/internal/pkg/db/mongo"
	"credit-sim-worker/internal/pkg/db/redis"
	"credit-sim-worker/internal/pkg/log_messages"
	"credit-sim-worker/internal/pkg/logger"
	"credit-sim-worker/internal/pkg/policy"
	"credit-sim-worker/internal/pkg/pubsub"
	"credit-sim-worker/internal/pkg/store/impl/facts"
	"credit-sim-worker/internal/pkg/store/impl/loans"
	"credit-sim-worker/internal/pkg/store/impl/macro"
	"credit-sim-worker/internal/service/simulation"
)

var (
	connectMongoDB = mongo.ConnectToMongoDB
	connectRedisDB = func(ctx context.Context, cfg config.RedisConfig) (*redis.RedisClient, error) {
		return redis.ConnectToRedis(ctx, cfg, nil)
	}
)

// PubSubPublisher defines the contract for any PubSub publisher
type PubSubPublisher interface {
	Close() error
	Publish(ctx context.Context, topic string, msg []byte) error
}

// App encapsulates application resources and lifecycle.
type App struct {
	Cfg             *config.AppConfig
	Policy          *policy.CollectionsPolicy
	PubSubPublisher PubSubPublisher
	MongoClient     *mongo.MongoClient
	RedisClient     *redis.RedisClient
	HTTPServer      *http.Server
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadFromConfig()
	if err != nil {
		logger.CtxError(ctx, log_messages.FailedLoadingConfiguration, err)
		return nil, err
	}
	logger.Init(cfg.Logging.LogLevel)

	pol, err := policy.Load(cfg.Simulation.PolicyPath)
	if err != nil {
		logger.CtxError(ctx, log_messages.ErrorLoadingCollectionsPolicy, err)
		return nil, err
	}

	var pubsubPublisher PubSubPublisher
	if cfg.PubSub.ProjectID != "" {
		publisher, err := pubsub.NewPubSubPublisher(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.CtxError(ctx, "Failure in PubSub publisher creation", err)
			return nil, err
		}
		pubsubPublisher = publisher
	}

	mClient, err := connectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		logger.CtxError(ctx, "Failed to connect to MongoDB", err)
		return nil, err
	}

	rClient, err := connectRedisDB(ctx, cfg.Redis)
	if err != nil {
		logger.CtxError(ctx, "Failed to connect to Redis", err)
		return nil, err
	}

	return &App{
		Cfg:             cfg,
		Policy:          pol,
		PubSubPublisher: pubsubPublisher,
		MongoClient:     mClient,
		RedisClient:     rClient,
	}, nil
}

// buildOrchestrator wires the store, lock and notification layers into
// a batch orchestrator. Called at Run time so New stays connectable
// with stubbed clients.
func (a *App) buildOrchestrator() *simulation.Orchestrator {
	return simulation.NewOrchestrator(
		a.Cfg.Simulation,
		a.Policy,
		loans.NewLoanPortfolioRepository(a.MongoClient),
		macro.NewMacroTimelineRepository(a.MongoClient),
		facts.NewFactHistoryRepository(a.MongoClient),
		batchlock.New(a.RedisClient.Client, a.Cfg.Simulation.BatchLockTTL),
		a.PubSubPublisher,
		a.Cfg.PubSub.NotificationTopic,
	)
}

// Run starts the HTTP server, optionally kicks off a startup batch,
// then blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	orchestrator := a.buildOrchestrator()

	if a.Cfg.Simulation.RunOnStart {
		go func() {
			if _, err := orchestrator.RunBatch(ctx, ""); err != nil {
				logger.CtxError(ctx, "Startup simulation batch failed", err)
			}
		}()
	}

	engine := router.SetupRouter(ctx, orchestrator)
	a.HTTPServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.CtxError(ctx, log_messages.ServerStartFailure, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Shutdown(ctx)
	logger.CtxInfo(ctx, log_messages.ServerExiting)
	return nil
}

// Shutdown gracefully closes all resources with bounded timeouts.
func (a *App) Shutdown(ctx context.Context) {
	cleanup.CleanupResources(ctx,
		a.PubSubPublisher,
		a.MongoClient,
		a.RedisClient,
		a.HTTPServer,
	)
}
