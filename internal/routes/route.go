package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/peerlend/api/internal/container"
	"github.com/peerlend/api/internal/handlers"
	"github.com/peerlend/api/internal/middleware"
	"github.com/peerlend/api/internal/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{c.Config.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(200, gin.H{
				"status":  "OK",
				"service": "peerlend-api",
			})
		})

		// Browsing the directory needs no identity.
		v1.GET("/items", handlers.ListItems(c.ItemService))
		v1.GET("/reviews/item/:itemId", handlers.ListItemReviews(c.ReviewService))
		v1.GET("/reviews/user/:userId", handlers.ListUserReviews(c.ReviewService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(c.Logger))

	itemRoutes := protected.Group("/items")
	{
		itemRoutes.GET("/my-items", middleware.RequireRole(models.RoleLender), handlers.ListMyItems(c.ItemService))
		itemRoutes.GET("/:id", handlers.GetItem(c.ItemService))
		itemRoutes.POST("/", middleware.RequireRole(models.RoleLender), handlers.CreateItem(c.ItemService))
		itemRoutes.PUT("/:id", middleware.RequireRole(models.RoleLender), handlers.UpdateItem(c.ItemService))
		itemRoutes.DELETE("/:id", middleware.RequireRole(models.RoleLender), handlers.RemoveItem(c.ItemService))
	}

	bookingRoutes := protected.Group("/bookings")
	{
		bookingRoutes.POST("/", middleware.RequireRole(models.RoleBorrower), handlers.CreateBooking(c.BookingService))
		bookingRoutes.GET("/my-bookings", handlers.ListMyBookings(c.BookingService))
		bookingRoutes.GET("/:id", handlers.GetBooking(c.BookingService))
		bookingRoutes.PUT("/:id/status", middleware.RequireRole(models.RoleLender), handlers.UpdateBookingStatus(c.BookingService))
		bookingRoutes.PUT("/:id/cancel", handlers.CancelBooking(c.BookingService))
		bookingRoutes.PUT("/:id/payment", middleware.RequireRole(models.RoleAdmin), handlers.UpdateBookingPayment(c.BookingService))
		bookingRoutes.POST("/:id/messages", handlers.SendBookingMessage(c.RelayService))
	}

	reviewRoutes := protected.Group("/reviews")
	{
		reviewRoutes.POST("/", middleware.RequireRole(models.RoleBorrower), handlers.CreateReview(c.ReviewService))
	}

	return r
}
