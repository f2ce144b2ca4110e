package http

import (
	"github.com/gin-gonic/gin"

	"docuquery/internal/bootstrap"
	"docuquery/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.Ingest, app.Config.Ingest.MaxUploadBytes)
	queryHandler := handler.NewQueryHandler(app.Query)
	settingHandler := handler.NewSettingHandler(app.Settings)

	v1 := router.Group("/api/v1")

	docGroup := v1.Group("/documents")
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/:id", documentHandler.Status)
	docGroup.DELETE("/:id", documentHandler.Delete)

	queryGroup := v1.Group("/query")
	queryGroup.POST("", queryHandler.Ask)
	queryGroup.GET("/history", queryHandler.History)

	settingGroup := v1.Group("/settings")
	settingGroup.GET("", settingHandler.List)
	settingGroup.GET("/:key", settingHandler.Get)
	settingGroup.PUT("/:key", settingHandler.Update)

	return router
}
