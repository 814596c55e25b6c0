package bootstrap

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/api"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/server"
)

const storageRoute = "/storage"

// SetupHTTPServer creates the HTTP server with every handler wired.
func SetupHTTPServer(app *App) *server.Server {
	cfg := app.Config

	handler := api.NewHandler(api.Deps{
		Webhooks:     app.Lifecycle,
		Resolver:     app.Resolver,
		WebhookStore: app.Webhooks,
		ContentStore: app.Contents,
		WebhookToken: cfg.Builder.WebhookToken,
		APIKey:       cfg.Builder.APIKey,
		Logger:       app.Logger,
	})

	return server.New(server.Options{
		Config: server.Config{
			Port:           cfg.Service.Port,
			Debug:          cfg.Service.Debug,
			ReadTimeout:    cfg.Service.ReadTimeout,
			WriteTimeout:   cfg.Service.WriteTimeout,
			IdleTimeout:    cfg.Service.IdleTimeout,
			CORSOrigins:    cfg.Service.CORSOrigins,
			ServiceName:    cfg.Service.Name,
			ServiceVersion: cfg.Service.Version,
		},
		Logger:       app.Logger,
		HealthChecks: healthChecks(app),
		Routes: func(router *gin.Engine) {
			router.GET("/metrics", gin.WrapH(app.Telemetry.Handler()))
			if cfg.Storage.Driver == config.StorageDriverFilesystem {
				router.Static(storageRoute, cfg.Storage.Root)
			}
			handler.Register(router, cfg.Auth.JWTSecret)
		},
	})
}

func healthChecks(app *App) []server.HealthCheck {
	return []server.HealthCheck{
		{Name: "database", Critical: true, Ping: app.Contents.Ping},
		{Name: "redis", Critical: false, Ping: func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}},
	}
}
