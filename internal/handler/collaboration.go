package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/pkg/personas"
	"github.com/agentcrew/backend/internal/repository"
	"github.com/agentcrew/backend/internal/service/project"
)

type CollaborationHandler struct {
	service *project.Service
	bus     *eventbus.Bus
}

func NewCollaborationHandler(service *project.Service, bus *eventbus.Bus) *CollaborationHandler {
	return &CollaborationHandler{
		service: service,
		bus:     bus,
	}
}

// ListPersonas 列出可选的 agent 人设
func (h *CollaborationHandler) ListPersonas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": personas.List()})
}

// Start 创建并启动一次协作
func (h *CollaborationHandler) Start(c *gin.Context) {
	var req StartCollaborationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, err := h.service.StartCollaboration(req.ProjectGoal, req.SelectedAgents)
	if err != nil {
		switch {
		case errors.Is(err, personas.ErrUnknownPersona):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": sessionID,
		"status":     "started",
		"events_url": "/api/collaborations/" + sessionID + "/events",
	})
}

// List 列出全部项目
func (h *CollaborationHandler) List(c *gin.Context) {
	projects, err := h.service.ListProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Status 查询会话状态
func (h *CollaborationHandler) Status(c *gin.Context) {
	sessionID := c.Param("id")

	status, err := h.service.Status(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Result 获取协作产出
func (h *CollaborationHandler) Result(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := h.service.Result(sessionID)
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
	c.JSON(http.StatusOK, result)
}

// Feedback 提交用户反馈触发迭代
func (h *CollaborationHandler) Feedback(c *gin.Context) {
	sessionID := c.Param("id")

	var req UserFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.service.ProcessFeedback(c.Request.Context(), sessionID, req.Feedback, req.RequestedChanges)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, project.ErrSessionNotDone):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "feedback_processed",
		"deliverables": snapshot,
	})
}

// Cancel 取消执行中的会话
func (h *CollaborationHandler) Cancel(c *gin.Context) {
	sessionID := c.Param("id")

	if !h.service.Cancel(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "canceled"})
}

// Events SSE 推送会话事件流
// 慢消费者的事件直接丢弃，不阻塞协作
func (h *CollaborationHandler) Events(c *gin.Context) {
	sessionID := c.Param("id")

	events := make(chan eventbus.CollabEvent, 64)
	unsubscribe := h.bus.SubscribeAll(func(ctx context.Context, event eventbus.CollabEvent) error {
		if event.SessionID != sessionID {
			return nil
		}
		select {
		case events <- event:
		default:
			klog.V(6).Infof("SSE 缓冲已满，丢弃事件: session=%s, type=%s", sessionID, event.Type)
		}
		return nil
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			klog.V(6).Infof("SSE 连接断开: session=%s", sessionID)
			return false
		}
	})
}
