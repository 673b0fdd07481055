package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Chat      *ChatHandler
	Health    *HealthHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/documents/upload", deps.Documents.Upload)
	api.GET("/documents", deps.Documents.List)
	api.DELETE("/documents/:id", deps.Documents.Delete)

	api.POST("/chat/ask", deps.Chat.Ask)

	api.GET("/health", deps.Health.Check)
}
