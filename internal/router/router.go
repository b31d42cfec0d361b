package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"dayplan/internal/handler"
	"dayplan/internal/middleware"
)

func New(
	scheduleHandler *handler.ScheduleHandler,
	itemHandler *handler.ItemHandler,
	logger zerolog.Logger,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	schedules := api.Group("/schedules")
	schedules.POST("/breakdown", scheduleHandler.Breakdown)
	schedules.POST("", scheduleHandler.Create)
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.DELETE("/:id", scheduleHandler.Delete)
	schedules.PUT("/:id/confirm", scheduleHandler.Confirm)
	schedules.GET("/:id/progress", scheduleHandler.Progress)
	schedules.GET("/:id/tips", scheduleHandler.Tips)

	items := api.Group("/items")
	items.POST("/:id/start", itemHandler.Start)
	items.POST("/:id/pause", itemHandler.Pause)
	items.POST("/:id/resume", itemHandler.Resume)
	items.POST("/:id/complete", itemHandler.Complete)
	items.PUT("/:id/elapsed", itemHandler.ReportElapsed)
	items.GET("/:id/summary", itemHandler.Summary)

	return engine
}
