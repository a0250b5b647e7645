// server/internal/api/routes/routes.go
package routes

import (
	"log/slog"
	"time"

	"coldchain-freight-api-server/config"
	"coldchain-freight-api-server/internal/api/handlers"
	"coldchain-freight-api-server/internal/api/middleware"
	"coldchain-freight-api-server/internal/auth"
	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/matching"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"
	"coldchain-freight-api-server/internal/socket"
	"coldchain-freight-api-server/internal/telemetry"
	"coldchain-freight-api-server/internal/vetting"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the components the router hands to its handlers.
type Dependencies struct {
	Config      config.Config
	Repo        repository.Repository
	Tokens      *auth.TokenIssuer
	Vetting     *vetting.Engine
	Matching    *matching.Engine
	Telemetry   *telemetry.Loop
	Hub         *socket.Hub[models.ShipmentUpdate]
	RateLimiter *middleware.RateLimiter
	Clock       clock.Clock
	Logger      *slog.Logger
}

// SetupRouter wires every handler under /api/v1.
func SetupRouter(d Dependencies) *gin.Engine {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RateLimiter == nil {
		d.RateLimiter = middleware.NewRateLimiter(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst)
	}
	httpLogger := d.Logger.With("component", "http")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(httpLogger))
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))

	userHandler := &handlers.UserHandler{Users: d.Repo, Tokens: d.Tokens, Logger: httpLogger}
	carrierHandler := &handlers.CarrierHandler{Carriers: d.Repo, Vetting: d.Vetting, Clock: d.Clock, Logger: httpLogger}
	loadHandler := &handlers.LoadHandler{
		Loads:     d.Repo,
		Bids:      d.Repo,
		Shippers:  d.Repo,
		Carriers:  d.Repo,
		Shipments: d.Repo,
		Matching:  d.Matching,
		Clock:     d.Clock,
		Logger:    httpLogger,
	}
	bidHandler := &handlers.BidHandler{Loads: d.Repo, Bids: d.Repo, Carriers: d.Repo, Clock: d.Clock, Logger: httpLogger}
	shipperHandler := &handlers.ShipperHandler{Shippers: d.Repo, Clock: d.Clock, Logger: httpLogger}
	reviewHandler := &handlers.ReviewHandler{Reviews: d.Repo, Shipments: d.Repo, Clock: d.Clock, Logger: httpLogger}
	adminHandler := &handlers.AdminHandler{Users: d.Repo, Logger: httpLogger}
	shipmentHandler := &handlers.ShipmentHandler{Shipments: d.Repo, Telemetry: d.Telemetry, Clock: d.Clock, Logger: httpLogger}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens, Logger: d.Logger.With("component", "websocket")}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/health", handlers.Health)
		// The token is checked inside the handler, see ServeWs.
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/login", userHandler.Login)
		}

		// Every route below requires a valid token.
		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(d.Tokens))
		protected.Use(middleware.Authorize(models.RoleAdmin, models.RoleShipper, models.RoleCarrier))
		{
			protected.GET("/auth/me", userHandler.Me)

			admin := protected.Group("/admin")
			admin.Use(middleware.Authorize(models.RoleAdmin))
			{
				admin.GET("/users", adminHandler.ListUsers)
				admin.POST("/users", adminHandler.RegisterUser)
			}

			shippers := protected.Group("/shippers")
			{
				shippers.GET("", shipperHandler.GetAllShippers)
				shippers.GET("/:id", shipperHandler.GetShipperByID)
				shippers.POST("", middleware.Authorize(models.RoleAdmin, models.RoleShipper), shipperHandler.CreateShipper)
			}

			carriers := protected.Group("/carriers")
			{
				carriers.GET("", carrierHandler.GetAllCarriers)
				carriers.GET("/:id", carrierHandler.GetCarrierByID)
				carriers.POST("", middleware.Authorize(models.RoleAdmin, models.RoleCarrier), carrierHandler.CreateCarrier)
				carriers.POST("/:id/vetting", middleware.Authorize(models.RoleAdmin), carrierHandler.RunVetting)
			}

			loads := protected.Group("/loads")
			{
				loads.GET("", loadHandler.GetAllLoads)
				loads.GET("/:id", loadHandler.GetLoadByID)
				loads.GET("/:id/matches", middleware.Authorize(models.RoleAdmin, models.RoleShipper), loadHandler.GetMatches)
				loads.POST("", middleware.Authorize(models.RoleAdmin, models.RoleShipper), loadHandler.CreateLoad)
				loads.POST("/:id/assign", middleware.Authorize(models.RoleAdmin, models.RoleShipper), loadHandler.AssignLoad)
				loads.GET("/:id/bids", bidHandler.GetBids)
				loads.POST("/:id/bids", middleware.Authorize(models.RoleAdmin, models.RoleCarrier), bidHandler.SubmitBid)
			}

			shipments := protected.Group("/shipments")
			{
				shipments.GET("", shipmentHandler.GetAllShipments)
				shipments.GET("/:id", shipmentHandler.GetShipment)
				shipments.GET("/:id/compliance", shipmentHandler.GetCompliance)

				carrierActions := shipments.Group("/")
				carrierActions.Use(middleware.Authorize(models.RoleAdmin, models.RoleCarrier))
				{
					carrierActions.POST("/:id/pickup", shipmentHandler.ConfirmPickup)
					carrierActions.POST("/:id/deliver", shipmentHandler.ConfirmDelivery)
					carrierActions.POST("/:id/iot-data", d.RateLimiter.Middleware(), shipmentHandler.AddIoTData)
				}

				shipments.POST("/:id/issues/:issueId/resolve", middleware.Authorize(models.RoleAdmin), shipmentHandler.ResolveIssue)
			}

			reviews := protected.Group("/reviews")
			{
				reviews.GET("", reviewHandler.GetReviews)
				reviews.POST("", middleware.Authorize(models.RoleShipper, models.RoleCarrier), reviewHandler.CreateReview)
			}
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
