package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers - 라우터에 연결할 핸들러 묶음
type Handlers struct {
	Health  *HealthHandler
	Traffic *TrafficHandler
	Alerts  *AlertHandler
	Stream  *StreamHandler
}

// RegisterRoutes - /api/v1 아래 라우트는 AuthMiddleware 적용
func RegisterRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	router.GET("/ping", Ping)
	router.GET("/", Root)
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/openapi.json", OpenAPIDoc)

	api := router.Group("/api/v1", AuthMiddleware(jwtSecret))

	traffic := api.Group("/traffic")
	traffic.GET("/live", h.Traffic.Live)
	traffic.POST("/collect", h.Traffic.Collect)
	traffic.GET("/recent", h.Traffic.Recent)
	traffic.GET("/history", h.Traffic.History)
	traffic.GET("/summary/daily", h.Traffic.DailySummary)
	traffic.GET("/summary/hourly", h.Traffic.HourlySummary)

	alerts := api.Group("/alerts")
	alerts.POST("/detect", h.Alerts.Detect)
	alerts.GET("", h.Alerts.List)
	alerts.POST("", h.Alerts.Create)
	alerts.GET("/unresolved", h.Alerts.Unresolved)
	alerts.GET("/summary", h.Alerts.Summary)
	alerts.GET("/:id", h.Alerts.Get)
	alerts.POST("/:id/resolve", h.Alerts.Resolve)

	api.GET("/stream", h.Stream.Stream)
	api.POST("/stream/events", h.Stream.PublishEvent)
}
