package eventbus

import (
	"context"
	"time"
)

type CollabEventType string

const (
	CollabEventPhaseChange         CollabEventType = "phase_change"
	CollabEventAgentThinking       CollabEventType = "agent_thinking"
	CollabEventThinkingComplete    CollabEventType = "thinking_complete"
	CollabEventAgentMessage        CollabEventType = "agent_message"
	CollabEventUserMessage         CollabEventType = "user_message"
	CollabEventFeedbackProcessing  CollabEventType = "user_feedback_processing"
	CollabEventDeliverablesUpdated CollabEventType = "deliverables_updated"
	CollabEventComplete            CollabEventType = "collaboration_complete"
	CollabEventVideoReady          CollabEventType = "video_ready"
)

type CollabEvent struct {
	Type      CollabEventType `json:"type"`
	SessionID string          `json:"session_id"`
	Data      any             `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type CollabEventHandler = func(ctx context.Context, event CollabEvent) error
