package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/catalog"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/enrichment"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/location"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/nearby"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/reviews"
	database "github.com/FACorreiaa/go-tunisia-guide/internal/db"
)

// Dependencies are the long-lived services the handlers are built from.
type Dependencies struct {
	DB       database.Querier
	Auth     auth.AuthService
	Registry *interactions.Registry
	Catalog  *catalog.Service
	Looker   enrichment.Looker
	Location *location.Service
}

type AppHandlers struct {
	Auth         *auth.AuthHandlers
	Catalog      *catalog.Handler
	Interactions *interactions.Handler
	Location     *location.Handler
	Nearby       *nearby.Handler
	Reviews      *reviews.Handler
	registry     *interactions.Registry
}

func Setup(r *gin.Engine, deps *Dependencies, log *zap.Logger) {
	setupRouter(r, setupDependencies(deps, log))
}

func setupDependencies(deps *Dependencies, log *zap.Logger) *AppHandlers {
	decorator := enrichment.NewDecorator(deps.Looker, log)

	reviewsRepo := reviews.NewPostgresRepository(deps.DB, log)
	reviewsService := reviews.NewService(reviewsRepo, deps.Catalog, log)

	return &AppHandlers{
		Auth:         auth.NewAuthHandlers(deps.Auth, log),
		Catalog:      catalog.NewHandler(deps.Catalog, decorator, log),
		Interactions: interactions.NewHandler(log),
		Location:     location.NewHandler(deps.Location, log),
		Nearby:       nearby.NewHandler(deps.Catalog, decorator, log),
		Reviews:      reviews.NewHandler(reviewsService, log),
		registry:     deps.Registry,
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.registry.Len()})
	})

	api := r.Group("/api")
	{
		api.GET("/location", h.Location.GetLocation)
		api.GET("/nearby", h.Catalog.Nearby)

		api.GET("/catalog/:category", h.Catalog.Search)
		api.GET("/catalog/:category/:id", h.Catalog.Detail)

		api.GET("/favorites", h.Interactions.ListFavorites)
		api.POST("/favorites/:id", h.Interactions.ToggleFavorite)
		api.GET("/ratings/:id", h.Interactions.GetRating)
		api.PUT("/ratings/:id", h.Interactions.PutRating)
		api.GET("/comments/:id", h.Interactions.ListComments)
		api.POST("/comments/:id", h.Interactions.AddComment)
		api.DELETE("/comments/:id/:commentID", h.Interactions.RemoveComment)

		api.GET("/reviews/:id", h.Reviews.List)
		api.PUT("/reviews/:id", h.Reviews.Upsert)
		api.DELETE("/reviews/:id/:reviewID", h.Reviews.Delete)

		api.PUT("/profile", h.Auth.UpdateProfile)
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.SignUp)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.POST("/reset", h.Auth.RequestReset)
		authGroup.POST("/reset/confirm", h.Auth.ConfirmReset)
	}

	r.GET("/ws/nearby", h.Nearby.HandleWebSocket)
}
