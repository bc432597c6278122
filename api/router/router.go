package router

import (
	"github.com/gin-gonic/gin"

	"sumulas-rag/api/handler"
)

func RegisterRoutes(r *gin.Engine, h *handler.SumulaHandler) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		chat := api.Group("/chat")
		{
			chat.POST("/stream", h.ChatStream)
		}
		retrieval := api.Group("/retrieval")
		{
			retrieval.POST("/search", h.Search)
		}
		summaries := api.Group("/summaries")
		{
			summaries.GET("", h.ListSummaries)
			summaries.POST("/upload", h.Upload)
		}
	}
}
