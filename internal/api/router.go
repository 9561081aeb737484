package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nanichang/employee-import-engine/internal/api/handler"
	"github.com/nanichang/employee-import-engine/internal/service"
)

// SetupRouter configures every employee-import route (§4.12).
func SetupRouter(svc *service.ImportService) *gin.Engine {
	router := gin.Default()

	h := handler.NewImportHandler(svc)

	router.GET("/health", h.Health)

	imports := router.Group("/employee-import")
	imports.POST("/upload", h.Upload)
	imports.GET("/:id/progress", h.Progress)
	imports.GET("/:id/errors", h.Errors)
	imports.GET("/:id/summary", h.Summary)

	return router
}
