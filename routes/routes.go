package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/controllers"
	"github.com/kendall-kelly/chillas-api/metrics"
	"github.com/kendall-kelly/chillas-api/middleware"
)

// NewRouter builds the engine with logging, recovery, CORS and metrics, then
// registers every route. authMiddleware validates admin tokens; tests pass a
// stub in its place.
func NewRouter(cfg *config.Config, authMiddleware gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(metrics.Middleware())

	RegisterRoutes(router, authMiddleware)
	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	if cfg != nil && len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.MaxAge = 12 * time.Hour
	return corsCfg
}

// RegisterRoutes mounts the public API, the admin API and /metrics
func RegisterRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)
		v1.GET("/uploads/*key", controllers.GetUploadedImage)

		// Public site
		v1.GET("/site", controllers.GetSite)
		v1.GET("/menu", controllers.GetMenu)
		v1.GET("/menu/featured", controllers.GetFeaturedItems)
		v1.GET("/categories", controllers.GetCategories)

		// Checkout and order tracking
		v1.POST("/orders", controllers.PlaceOrder)
		v1.GET("/orders/:number", controllers.TrackOrder)
	}

	admin := v1.Group("/admin", authMiddleware, middleware.RequireScope(middleware.AdminScope))
	{
		admin.GET("/me", controllers.GetAdminProfile)
		admin.GET("/dashboard", controllers.Dashboard)

		admin.GET("/menu-items", controllers.ListMenuItems)
		admin.POST("/menu-items", controllers.CreateMenuItem)
		admin.GET("/menu-items/low-stock", controllers.ListLowStockItems)
		admin.GET("/menu-items/:id", controllers.GetMenuItem)
		admin.PUT("/menu-items/:id", controllers.UpdateMenuItem)
		admin.DELETE("/menu-items/:id", controllers.DeleteMenuItem)
		admin.POST("/menu-items/:id/reduce-stock", controllers.ReduceStock)
		admin.POST("/menu-items/:id/image", controllers.UploadMenuItemImage)

		admin.GET("/categories", controllers.ListAdminCategories)
		admin.POST("/categories", controllers.CreateCategory)
		admin.PUT("/categories/:id", controllers.UpdateCategory)
		admin.DELETE("/categories/:id", controllers.DeleteCategory)
		admin.POST("/categories/:id/image", controllers.UploadCategoryImage)

		admin.GET("/orders", controllers.ListOrders)
		admin.POST("/orders", controllers.AdminCreateOrder)
		admin.GET("/orders/:id", controllers.GetOrder)
		admin.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
		admin.PATCH("/orders/:id/payment-status", controllers.UpdatePaymentStatus)
		admin.DELETE("/orders/:id", controllers.DeleteOrder)

		admin.GET("/settings", controllers.GetSettings)
		admin.PUT("/settings", controllers.UpdateSettings)
		admin.POST("/settings/:image", controllers.UploadSettingsImage)

		admin.GET("/content-sections", controllers.ListContentSections)
		admin.PUT("/content-sections/:section", controllers.UpdateContentSection)
		admin.POST("/content-sections/:section/image", controllers.UploadSectionImage)

		admin.GET("/site-images", controllers.ListSiteImages)
		admin.POST("/site-images", controllers.CreateSiteImage)
		admin.DELETE("/site-images/:id", controllers.DeleteSiteImage)
	}
}
