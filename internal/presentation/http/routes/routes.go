// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/container"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestID(container.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware(container.Config.Server.AllowedOrigins))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Initialize handlers
	renderHandlers := handlers.NewRenderHandlers(container.RenderService, container.Logger)
	faqHandlers := handlers.NewFAQHandlers(container.IndexService, container.Logger)
	contentHandlers := handlers.NewContentHandlers(container.ContentService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	settingsHandlers := handlers.NewSettingsHandlers(container.SettingsService, container.Logger)
	opsHandlers := handlers.NewOpsHandlers(container.QueueService, container.IndexService, container.Broadcaster, container.Logger)

	requireEditor := middleware.RequireRole(container.AuthService, security.RoleEditor, container.Logger)
	requireOperator := middleware.RequireRole(container.AuthService, security.RoleOperator, container.Logger)

	api := r.Group("/api/v1")
	{
		// Public page-view endpoints
		api.GET("/render/:contentId", renderHandlers.GetRender)
		api.GET("/jsonld/:contentId", renderHandlers.GetJSONLD)

		api.POST("/auth/login", authHandlers.PostLogin)

		faqs := api.Group("/faqs", requireEditor)
		{
			faqs.GET("", faqHandlers.GetFAQs)
			faqs.POST("", faqHandlers.PostFAQ)
			faqs.GET("/:id", faqHandlers.GetFAQ)
			faqs.PUT("/:id", faqHandlers.PutFAQ)
			faqs.DELETE("/:id", faqHandlers.DeleteFAQ)
		}

		contentAPI := api.Group("/content", requireEditor)
		{
			contentAPI.GET("/:id", contentHandlers.GetContent)
			contentAPI.PUT("/:id", contentHandlers.PutContent)
			contentAPI.DELETE("/:id", contentHandlers.DeleteContent)
		}

		search := api.Group("", requireEditor)
		{
			search.GET("/search/content", contentHandlers.SearchContent)
			search.GET("/search/terms", contentHandlers.SearchTerms)
			search.GET("/post-types", contentHandlers.GetPostTypes)
		}

		settingsAPI := api.Group("/settings", requireOperator)
		{
			settingsAPI.GET("", settingsHandlers.GetSettings)
			settingsAPI.PUT("", settingsHandlers.PutSettings)
		}

		ops := api.Group("/ops", requireOperator)
		{
			ops.POST("/drain", opsHandlers.PostDrain)
			ops.POST("/purge", opsHandlers.PostPurge)
			ops.GET("/health", opsHandlers.GetHealth)
			ops.GET("/health/stream", opsHandlers.GetHealthStream)
			ops.DELETE("/log", opsHandlers.DeleteLog)
			ops.POST("/reindex", opsHandlers.PostReindex)
			ops.GET("/logs/levels", opsHandlers.GetLogLevels)
			ops.POST("/logs/levels", opsHandlers.PostLogLevel)
		}
	}

	return r
}
