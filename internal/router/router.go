package router

import (
	"net/http"

	_ "warcalendar/backend/docs" // registers the OpenAPI document with swag

	"warcalendar/backend/internal/auth"
	"warcalendar/backend/internal/handler"
	"warcalendar/backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// New builds the HTTP route table. Reads are public; every create, update
// and delete passes the API key gate first.
func New(h *handler.Handler, v *auth.Verifier, m *metrics.Metrics, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(log), m.Middleware())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/stream", h.Stream)

	admin := auth.APIKeyMiddleware(v, true)

	// Tokens are only handed out for the API key itself.
	router.POST("/auth/token", auth.APIKeyMiddleware(v, false), h.IssueToken)

	tags := router.Group("/tags")
	{
		tags.GET("/", h.GetTags)
		tags.POST("/", admin, h.CreateTag)
		tags.PUT("/:id", admin, h.UpdateTag)
		tags.DELETE("/:id", admin, h.DeleteTag)
	}

	events := router.Group("/events")
	{
		events.GET("/", h.GetEvents)
		events.GET("/:id", h.GetEventByID)
		events.POST("/", admin, h.CreateEvent)
		events.PUT("/:id", admin, h.UpdateEvent)
		events.DELETE("/:id", admin, h.DeleteEvent)
	}

	return router
}
