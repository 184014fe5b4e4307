package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/davidemms/widgethub/internal/auth"
	"github.com/davidemms/widgethub/internal/config"
	"github.com/davidemms/widgethub/internal/http/handlers"
	"github.com/davidemms/widgethub/internal/http/middlewares"
	"github.com/davidemms/widgethub/internal/modules"
	"github.com/davidemms/widgethub/internal/observability"
	"github.com/davidemms/widgethub/internal/repo/postgres"
	"github.com/davidemms/widgethub/internal/secrets"
	"github.com/davidemms/widgethub/internal/security"
	"github.com/davidemms/widgethub/internal/weather"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, box *security.SecretBox) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("widgethub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool)
	modulesRepo := postgres.NewModulesRepo(pool, prom)
	devicesRepo := postgres.NewDevicesRepo(pool)
	layoutsRepo := postgres.NewLayoutsRepo(pool)
	settingsRepo := postgres.NewSettingsRepo(pool)
	apiKeysRepo := postgres.NewAPIKeysRepo(pool)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)

	// services

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	secretsSvc := secrets.NewService(apiKeysRepo, box, log)
	provider := weather.NewClient(cfg.WeatherBaseURL)
	resolver := modules.NewResolver(secretsSvc, provider, prom)

	// handlers

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, settingsRepo, jwtManager, refreshRepo, cfg, log)
	modulesHandler := handlers.NewModulesHandler(modulesRepo, resolver)
	itemsHandler := handlers.NewItemsHandler(modulesRepo)
	devicesHandler := handlers.NewDevicesHandler(devicesRepo)
	layoutsHandler := handlers.NewLayoutsHandler(layoutsRepo, devicesRepo)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo, usersRepo, secretsSvc)

	authMw := middlewares.NewAuthMiddleware(jwtManager, devicesRepo)
	subMw := middlewares.NewSubscriptionMiddleware(usersRepo, log)
	loginLimiter := middlewares.NewLoginRateLimiter(rdb, 10, time.Minute, log)

	// routes

	authGroup := r.Group("/auth")
	authGroup.POST("/register", loginLimiter.Middleware(), authHandler.Register)
	authGroup.POST("/login", loginLimiter.Middleware(), authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)

	// module data also serves device-key callers (iot)
	data := r.Group("/modules")
	data.Use(authMw.RequireAuthOrDeviceKey(), subMw.CheckSubscription())
	data.GET("/:id/data", modulesHandler.GetData)

	api := r.Group("/")
	api.Use(authMw.RequireAuth(), subMw.CheckSubscription())

	api.GET("/modules", modulesHandler.List)
	api.POST("/modules", modulesHandler.Create)
	api.PUT("/modules/:id/config", modulesHandler.UpdateConfig)
	api.DELETE("/modules/:id", modulesHandler.Delete)

	api.POST("/modules/:id/items", itemsHandler.AddItem)
	api.POST("/modules/:id/items/:itemID/toggle", itemsHandler.ToggleItem)
	api.DELETE("/modules/:id/items/:itemID", itemsHandler.RemoveItem)

	api.GET("/devices", devicesHandler.List)
	api.POST("/devices", devicesHandler.Register)
	api.PUT("/devices/:id", devicesHandler.Rename)
	api.DELETE("/devices/:id", devicesHandler.Delete)

	api.GET("/layouts/:deviceType", layoutsHandler.Get)
	api.PUT("/layouts/:deviceType", layoutsHandler.Save)

	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Update)

	api.GET("/settings/api-keys", settingsHandler.ListAPIKeys)
	api.POST("/settings/api-keys", settingsHandler.CreateAPIKey)
	api.DELETE("/settings/api-keys/:service", settingsHandler.DeleteAPIKey)

	api.GET("/subscription", settingsHandler.GetSubscription)
	api.PUT("/subscription", settingsHandler.UpdateSubscription)

	return r
}
