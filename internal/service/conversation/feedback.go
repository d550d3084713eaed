package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/pkg/deliverables"
	"github.com/agentcrew/backend/internal/pkg/personas"
	"github.com/agentcrew/backend/internal/service/statemachine"
	"github.com/agentcrew/backend/internal/utils"
)

// 反馈关键词到角色的匹配规则，命中即把对应专长的 agent 拉进响应小组
var feedbackExpertise = []struct {
	keywords []string
	roleWord string
}{
	{[]string{"budget", "cost", "expensive", "cheap"}, "media"},
	{[]string{"creative", "content", "design", "visual"}, "creative"},
	{[]string{"data", "metrics", "analytics", "performance"}, "data"},
	{[]string{"brand", "message", "positioning"}, "brand"},
}

// ProcessUserFeedback 处理用户反馈并让相关 agent 调整交付物
// 响应小组：实施专家必选，再按反馈内容拉至多两个匹配专长的 agent，不足两人时补位
func (s *Session) ProcessUserFeedback(ctx context.Context, userFeedback string, requestedChanges []string) (map[string]any, error) {
	klog.V(6).Infof("开始处理用户反馈: session=%s", s.ID)

	if s.Phase() == statemachine.PhaseDone {
		if err := s.transition(ctx, statemachine.PhaseConversing, "Agents are reviewing your feedback and adapting the strategy..."); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, eventbus.CollabEventFeedbackProcessing, map[string]any{
		"phase":   "feedback_iteration",
		"message": "Agents are reviewing your feedback and adapting the strategy...",
	})

	feedbackRound := s.Rounds() + 1
	s.appendEntry(ctx, TranscriptEntry{
		AgentName:   "User",
		AgentRole:   "Client",
		MessageType: MessageTypeFeedback,
		Content: map[string]any{
			"message":           userFeedback,
			"requested_changes": requestedChanges,
		},
		Timestamp: time.Now(),
		Round:     feedbackRound,
	}, eventbus.CollabEventUserMessage)

	implAgent, panel := s.selectFeedbackPanel(userFeedback)

	feedbackMessage := fmt.Sprintf("User feedback: %s. Requested changes: %s",
		userFeedback, strings.Join(requestedChanges, ", "))

	for _, agent := range panel {
		response := agent.RespondToAgent(ctx, "User", feedbackMessage,
			"Adapt the deliverables based on this user feedback", s.history(), nil)

		s.appendEntry(ctx, TranscriptEntry{
			AgentName:    agent.Name,
			AgentRole:    agent.Role,
			MessageType:  MessageTypeFeedbackResponse,
			Content:      response,
			RespondingTo: "User",
			Timestamp:    time.Now(),
			Round:        feedbackRound,
		}, eventbus.CollabEventAgentMessage)

		if len(response.DataProduced) > 0 {
			s.merger.Merge(agent.Name, response.DataProduced)
		}
	}

	if implAgent != nil {
		s.adaptFinalDeliverable(ctx, implAgent, userFeedback, requestedChanges)
	}

	panelNames := make([]string, 0, len(panel))
	for _, agent := range panel {
		panelNames = append(panelNames, agent.Name)
	}
	s.merger.AppendFeedback(deliverables.FeedbackRecord{
		Timestamp:        time.Now(),
		UserFeedback:     userFeedback,
		RequestedChanges: requestedChanges,
		RespondingAgents: panelNames,
	})

	if s.Phase() == statemachine.PhaseConversing {
		if err := s.transition(ctx, statemachine.PhaseFinalizing, "Updating deliverables..."); err != nil {
			return nil, err
		}
		if err := s.transition(ctx, statemachine.PhaseDone, "Feedback incorporated."); err != nil {
			return nil, err
		}
	}

	return s.merger.Snapshot(), nil
}

// selectFeedbackPanel 组建反馈响应小组
// 实施专家优先，再按关键词匹配补齐，上限三人、下限两人
func (s *Session) selectFeedbackPanel(userFeedback string) (*personas.Agent, []*personas.Agent) {
	var implAgent *personas.Agent
	for _, agent := range s.agents {
		if strings.Contains(agent.Role, "Implementation") {
			implAgent = agent
			break
		}
	}

	var panel []*personas.Agent
	if implAgent != nil {
		panel = append(panel, implAgent)
	}

	feedbackLower := strings.ToLower(userFeedback)
	for _, agent := range s.agents {
		if agent == implAgent || len(panel) >= 3 {
			continue
		}

		roleLower := strings.ToLower(agent.Role)
		for _, rule := range feedbackExpertise {
			if !strings.Contains(roleLower, rule.roleWord) {
				continue
			}
			for _, keyword := range rule.keywords {
				if strings.Contains(feedbackLower, keyword) {
					panel = append(panel, agent)
					break
				}
			}
			break
		}
	}

	// 补位：匹配不足两人时拉第一个还没入组的 agent
	if len(panel) < 2 {
		for _, agent := range s.agents {
			inPanel := false
			for _, member := range panel {
				if member == agent {
					inPanel = true
					break
				}
			}
			if !inPanel {
				panel = append(panel, agent)
				break
			}
		}
	}

	return implAgent, panel
}

// adaptFinalDeliverable 让实施专家产出整合反馈后的更新方案
// 调用或解析失败只记日志，不影响反馈记录入库
func (s *Session) adaptFinalDeliverable(ctx context.Context, implAgent *personas.Agent, userFeedback string, requestedChanges []string) {
	prompt := fmt.Sprintf(`Based on user feedback: "%s"
Requested changes: %s

Create an updated, concrete implementation plan that addresses the user's feedback.
Focus on their specific concerns and requested changes.

Respond in JSON format with updated deliverables:
{
    "final_deliverable": "Updated plan based on user feedback",
    "key_outputs": {"updated_timeline": "Revised timeline", "updated_budget": "Adjusted budget", "updated_content": "Modified content plan"},
    "summary": "How the plan was adapted based on user input",
    "changes_made": ["change 1", "change 2", "change 3"],
    "user_feedback_addressed": {
        "original_feedback": "%s",
        "requested_changes": %s,
        "how_addressed": "Detailed explanation of how each piece of feedback was incorporated"
    }
}`, userFeedback, strings.Join(requestedChanges, ", "), userFeedback, utils.ToJSON(requestedChanges))

	response, err := implAgent.Generate(ctx, prompt, 0.6)
	if err != nil {
		klog.V(6).Infof("反馈整合方案生成失败: session=%s, err=%v", s.ID, err)
		return
	}

	var finalData map[string]any
	if err := json.Unmarshal([]byte(utils.StripCodeFence(response)), &finalData); err != nil {
		klog.V(6).Infof("反馈整合方案解析失败: session=%s, err=%v", s.ID, err)
		return
	}

	s.merger.Merge(implAgent.Name, map[string]any{"feedback_iteration": finalData})

	s.publish(ctx, eventbus.CollabEventDeliverablesUpdated, map[string]any{
		"agent_name":           implAgent.Name,
		"updated_deliverables": finalData,
	})
}
