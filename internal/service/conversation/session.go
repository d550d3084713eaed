package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/config"
	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/pkg/deliverables"
	"github.com/agentcrew/backend/internal/pkg/llm"
	"github.com/agentcrew/backend/internal/pkg/personas"
	"github.com/agentcrew/backend/internal/pkg/topics"
	"github.com/agentcrew/backend/internal/service/statemachine"
)

// 消息类型，对应会话记录里的 message_type 字段
const (
	MessageTypeIntroduction     = "introduction"
	MessageTypeResponse         = "response"
	MessageTypeDebateResponse   = "debate_response"
	MessageTypeExpertAnswer     = "expert_answer"
	MessageTypeBuildOnIdea      = "build_on_idea"
	MessageTypeNewInsight       = "new_insight"
	MessageTypeFeedback         = "feedback"
	MessageTypeFeedbackResponse = "feedback_response"
	MessageTypeFinalDeliverable = "final_deliverable"
	MessageTypeSystem           = "system"
)

// TranscriptEntry 会话记录里的一条消息
// Content 对 agent 消息是 personas.TurnResult，对系统消息和最终交付物是 map
type TranscriptEntry struct {
	AgentName    string    `json:"agent_name"`
	AgentRole    string    `json:"agent_role"`
	MessageType  string    `json:"message_type"`
	Content      any       `json:"content"`
	RespondingTo string    `json:"responding_to,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Round        int       `json:"round"`
}

// AgentInfo 参与协作的 agent 概要
type AgentInfo struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Result 协作产出
type Result struct {
	SessionID       string                   `json:"session_id"`
	ConversationLog []TranscriptEntry        `json:"conversation_log"`
	ThinkingLog     []personas.ThinkingEntry `json:"thinking_log"`
	Deliverables    map[string]any           `json:"deliverables"`
	AgentsInvolved  []AgentInfo              `json:"agents_involved"`
	TotalRounds     int                      `json:"total_rounds"`
}

// Session 一次多 agent 协作会话
// StartCollaboration 只允许调用一次；ProcessUserFeedback 可在完成后多次调用
type Session struct {
	ID             string
	projectContext string
	agents         []*personas.Agent
	cfg            config.CollaborationConfig

	bus     *eventbus.Bus
	tracker *topics.Tracker
	merger  *deliverables.Merger
	machine *statemachine.PhaseStateMachine

	mu          sync.RWMutex
	phase       statemachine.Phase
	transcript  []TranscriptEntry
	thinkingLog []personas.ThinkingEntry
	rounds      int
}

// NewSession 按人设 ID 列表创建协作会话
// 任一 ID 未知时返回 personas.ErrUnknownPersona，不做部分构造
func NewSession(personaIDs []string, projectContext string, provider llm.Provider, bus *eventbus.Bus, cfg config.CollaborationConfig) (*Session, error) {
	agents := make([]*personas.Agent, 0, len(personaIDs))
	for _, id := range personaIDs {
		agent, err := personas.NewAgent(id, provider)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}

	return &Session{
		ID:             uuid.NewString(),
		projectContext: projectContext,
		agents:         agents,
		cfg:            cfg,
		bus:            bus,
		tracker:        topics.NewTracker(),
		merger:         deliverables.NewMerger(),
		machine:        statemachine.NewPhaseStateMachine(),
		phase:          statemachine.PhasePending,
	}, nil
}

// Phase 返回当前协作阶段
func (s *Session) Phase() statemachine.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Transcript 返回会话记录快照
func (s *Session) Transcript() []TranscriptEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TranscriptEntry(nil), s.transcript...)
}

// Rounds 返回已完成的对话轮数
func (s *Session) Rounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds
}

// Deliverables 返回当前交付物快照
func (s *Session) Deliverables() map[string]any {
	return s.merger.Snapshot()
}

// Agents 返回参与者概要
func (s *Session) Agents() []AgentInfo {
	infos := make([]AgentInfo, 0, len(s.agents))
	for _, agent := range s.agents {
		infos = append(infos, AgentInfo{Name: agent.Name, Role: agent.Role})
	}
	return infos
}

// Result 汇总当前状态为协作产出
func (s *Session) Result() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Result{
		SessionID:       s.ID,
		ConversationLog: append([]TranscriptEntry(nil), s.transcript...),
		ThinkingLog:     append([]personas.ThinkingEntry(nil), s.thinkingLog...),
		Deliverables:    s.merger.Snapshot(),
		AgentsInvolved:  s.Agents(),
		TotalRounds:     s.rounds,
	}
}

// transition 执行阶段迁移并广播 phase_change 事件
func (s *Session) transition(ctx context.Context, to statemachine.Phase, message string) error {
	s.mu.Lock()
	from := s.phase
	if err := s.machine.Transition(from, to, s.ID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.phase = to
	s.mu.Unlock()

	s.publish(ctx, eventbus.CollabEventPhaseChange, map[string]any{
		"phase":   string(to),
		"message": message,
	})
	return nil
}

// publish 广播事件，订阅方出错只记日志不中断协作
func (s *Session) publish(ctx context.Context, eventType eventbus.CollabEventType, data any) {
	if s.bus == nil {
		return
	}
	event := eventbus.CollabEvent{
		Type:      eventType,
		SessionID: s.ID,
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		klog.V(6).Infof("事件广播失败: session=%s, type=%s, err=%v", s.ID, eventType, err)
	}
}

// appendEntry 追加一条会话记录并广播
func (s *Session) appendEntry(ctx context.Context, entry TranscriptEntry, eventType eventbus.CollabEventType) {
	s.mu.Lock()
	s.transcript = append(s.transcript, entry)
	s.mu.Unlock()

	s.publish(ctx, eventType, entry)
}

// logSystemMessage 记录编排器的系统消息
func (s *Session) logSystemMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, TranscriptEntry{
		AgentName:   "System",
		AgentRole:   "Orchestrator",
		MessageType: MessageTypeSystem,
		Content:     map[string]any{"message": message},
		Timestamp:   time.Now(),
		Round:       s.rounds,
	})
}

// history 把会话记录转成 agent prompt 用的历史片段
func (s *Session) history() []personas.HistoryMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]personas.HistoryMessage, 0, len(s.transcript))
	for _, entry := range s.transcript {
		messages = append(messages, personas.HistoryMessage{
			Speaker: entry.AgentName,
			Message: entryMessage(entry),
			Stance:  entryStance(entry),
		})
	}
	return messages
}

// entryMessage 提取一条记录的消息正文
func entryMessage(entry TranscriptEntry) string {
	switch content := entry.Content.(type) {
	case personas.TurnResult:
		return content.Message
	case map[string]any:
		if msg, ok := content["message"].(string); ok {
			return msg
		}
	}
	return ""
}

// entryStance 提取一条记录的立场（仅 agent 回应消息有）
func entryStance(entry TranscriptEntry) string {
	if content, ok := entry.Content.(personas.TurnResult); ok {
		return content.Stance
	}
	return ""
}

// entryContribution 提取一条记录声明的贡献点
func entryContribution(entry TranscriptEntry) string {
	if content, ok := entry.Content.(personas.TurnResult); ok {
		return content.Contribution
	}
	return ""
}

// entryQuestions 提取一条记录里抛给团队的问题
func entryQuestions(entry TranscriptEntry) []string {
	if content, ok := entry.Content.(personas.TurnResult); ok {
		return content.QuestionsForTeam
	}
	return nil
}

// sleepCtx 可被取消的停顿
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
