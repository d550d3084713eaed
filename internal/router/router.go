package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/agentcrew/backend/config"
	"github.com/agentcrew/backend/internal/handler"
)

func Setup(
	cfg *config.Config,
	collabHandler *handler.CollaborationHandler,
	videoHandler *handler.VideoHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// SSE 事件流不能压缩，按路径排除
	r.Use(gzip.Gzip(gzip.BestCompression, gzip.WithExcludedPathsRegexs([]string{`.*/events$`})))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/available-agents", collabHandler.ListPersonas)

		collaborations := api.Group("/collaborations")
		{
			collaborations.POST("", collabHandler.Start)
			collaborations.GET("", collabHandler.List)
			collaborations.GET("/:id", collabHandler.Status)
			collaborations.GET("/:id/result", collabHandler.Result)
			collaborations.GET("/:id/events", collabHandler.Events)
			collaborations.POST("/:id/feedback", collabHandler.Feedback)
			collaborations.POST("/:id/cancel", collabHandler.Cancel)
			collaborations.POST("/:id/video", videoHandler.Generate)
			collaborations.GET("/:id/videos", videoHandler.List)
		}
	}

	return r
}
