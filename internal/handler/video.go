package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentcrew/backend/internal/repository"
	"github.com/agentcrew/backend/internal/service/project"
	"github.com/agentcrew/backend/internal/service/video"
)

type VideoHandler struct {
	videoService   *video.Service
	projectService *project.Service
}

func NewVideoHandler(videoService *video.Service, projectService *project.Service) *VideoHandler {
	return &VideoHandler{
		videoService:   videoService,
		projectService: projectService,
	}
}

// Generate 为已完成的协作生成营销视频任务
func (h *VideoHandler) Generate(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := h.projectService.Result(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, project.ErrSessionNotDone), errors.Is(err, project.ErrSessionFailed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status, err := h.projectService.Status(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	job, err := h.videoService.CreateJob(c.Request.Context(), sessionID, status.Context, result.Deliverables, result.AgentsInvolved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// List 查询某会话的视频任务
func (h *VideoHandler) List(c *gin.Context) {
	sessionID := c.Param("id")

	jobs, err := h.videoService.JobsBySession(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}
