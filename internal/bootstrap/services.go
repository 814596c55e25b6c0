package bootstrap

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/assets"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/blobstore"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/blocktree"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/builderio"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/database"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/events"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/ingest"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/mirror"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/modelcache"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/queue"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/resolver"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/symbols"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/telemetry"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/webhook"
	"github.com/redis/go-redis/v9"
)

// App holds every wired component. Commands use the parts they need.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Telemetry *telemetry.Provider

	DB    *sqlx.DB
	Redis *redis.Client
	Blobs blobstore.Store

	Contents *database.ContentRepository
	Webhooks *database.WebhookRepository

	Client    *builderio.Client
	Models    *modelcache.Cache
	Ingestor  *ingest.Ingestor
	Resolver  *resolver.Engine
	Producer  *queue.Producer
	Lifecycle *webhook.Lifecycle
	Syncer    *mirror.Syncer
}

// NewApp connects to every backing service and wires the components.
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log, Telemetry: telemetry.NewProvider()}

	db, err := SetupDatabase(cfg)
	if err != nil {
		return nil, err
	}
	app.DB = db
	log.Info("Database connection established")

	app.Redis, err = SetupRedis(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	log.Info("Redis connection established", logger.String("redis_address", cfg.Redis.Address))

	app.Blobs, err = SetupBlobStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err = app.wire(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire() error {
	cfg := a.Config

	registry, err := SetupRegistry(cfg, a.Logger)
	if err != nil {
		return err
	}
	walker := blocktree.NewWalker(registry)

	a.Contents = database.NewContentRepository(a.DB)
	a.Webhooks = database.NewWebhookRepository(a.DB)

	a.Client = builderio.NewClient(builderio.Config{
		APIKey:     cfg.Builder.APIKey,
		PrivateKey: cfg.Builder.PrivateKey,
		CDNURL:     cfg.Builder.CDNURL,
		AdminURL:   cfg.Builder.AdminURL,
		Timeout:    cfg.Builder.RequestTimeout,
	})
	a.Models = modelcache.New(a.Redis, a.Client, cfg.Redis.ModelCacheKey, a.Logger)

	cache := assets.NewCache(a.Blobs, a.Client, cfg.Storage.Folder, a.Telemetry, a.Logger)
	localizer := assets.NewLocalizer(walker, cache, assets.Options{
		LocalizeTextImages: cfg.Assets.LocalizeTextImages,
	})

	a.Ingestor = ingest.New(ingest.Deps{
		Models:    a.Models,
		Store:     a.Contents,
		Symbols:   symbols.NewResolver(walker, a.Contents, a.Client, a.Telemetry, a.Logger),
		Assets:    localizer,
		Events:    events.NewPublisher(a.Redis, cfg.Redis.EventStream, cfg.Redis.EventStreamLen, a.Logger),
		Telemetry: a.Telemetry,
		Logger:    a.Logger,
	})

	a.Resolver = resolver.NewEngine(a.Contents, cfg.Builder.PageModel, resolver.Locale{
		Locale:          cfg.Locale.Default,
		Fallback:        cfg.Locale.Fallback,
		FallbackEnabled: cfg.Locale.FallbackEnabled,
	}, a.Telemetry)

	a.Producer = queue.NewProducer(a.Redis, cfg.Redis.WebhookStream, 0)
	a.Lifecycle = webhook.New(webhook.Deps{
		Store:     a.Webhooks,
		Queue:     a.Producer,
		Ingester:  a.Ingestor,
		Telemetry: a.Telemetry,
		Logger:    a.Logger,
	})

	a.Syncer = mirror.New(mirror.Deps{
		Source:   a.Client,
		Catalog:  a.Models,
		Records:  a.Contents,
		Ingester: a.Ingestor,
		PageSize: cfg.Builder.FetchPageSize,
		Logger:   a.Logger,
	})
	return nil
}

// NewConsumer creates a webhook worker named consumerID.
func (a *App) NewConsumer(consumerID string) (*queue.Consumer, error) {
	return queue.NewConsumer(a.Redis, queue.ConsumerConfig{
		Stream:     a.Config.Redis.WebhookStream,
		Group:      a.Config.Redis.WebhookGroup,
		ConsumerID: consumerID,
	}, a.Logger)
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("Failed to close connections", logger.Error(err))
	}
}
