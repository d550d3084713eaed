package personas

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/internal/pkg/llm"
	"github.com/agentcrew/backend/internal/utils"
)

// specialInitiation 角色特化的开场策略
// handled=false 表示本次不适用，回退到通用开场路径
type specialInitiation func(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (result *TurnResult, handled bool)

// Agent 人设绑定的 LLM 封装
// 三个操作（Think/InitiateConversation/RespondToAgent）在调用失败或解析失败时
// 一律降级为固定兜底内容，错误不出 Agent 边界
// 单个实例只归属一个协作会话，不跨会话共享
type Agent struct {
	Persona

	provider llm.Provider
	initiate specialInitiation

	thinkingLog []ThinkingEntry
	responseLog []ResponseEntry
}

// Think 私有思考，链式推理一次
// 失败时把错误文本放进 thinking 字段返回，不向上抛
func (a *Agent) Think(ctx context.Context, projectContext string, previousMessages []HistoryMessage) ThoughtResult {
	prompt := fmt.Sprintf(`You are %s, a %s with expertise in %s.
Your personality: %s

Context: %s

Previous agent messages:
%s

Think through this step by step. What's your analysis? What questions do you have?
What insights can you provide? Be thoughtful and show your reasoning process.

Respond in JSON format:
{
    "thinking": "Your internal thought process and analysis",
    "key_insights": ["insight 1", "insight 2", "insight 3"],
    "questions_for_other_agents": ["question 1", "question 2"],
    "recommendations": ["recommendation 1", "recommendation 2"]
}`, a.Name, a.Role, a.Expertise, a.Personality, projectContext, formatHistory(previousMessages))

	response, err := a.provider.Generate(ctx, prompt, 0.7)
	if err != nil {
		klog.V(6).Infof("思考阶段调用失败，降级: agent=%s, err=%v", a.Name, err)
		return ThoughtResult{
			Thinking:        fmt.Sprintf("Error in thinking process: %v", err),
			KeyInsights:     []string{},
			Questions:       []string{},
			Recommendations: []string{},
		}
	}

	var thought ThoughtResult
	if err := json.Unmarshal([]byte(utils.StripCodeFence(response)), &thought); err != nil {
		klog.V(6).Infof("思考结果解析失败，用原文兜底: agent=%s", a.Name)
		thought = ThoughtResult{Thinking: response}
	}

	a.thinkingLog = append(a.thinkingLog, ThinkingEntry{
		AgentName:       a.Name,
		AgentRole:       a.Role,
		Timestamp:       time.Now(),
		Thinking:        thought.Thinking,
		Insights:        thought.KeyInsights,
		Questions:       thought.Questions,
		Recommendations: thought.Recommendations,
	})

	return thought
}

// InitiateConversation 开场发言或初始分析
// 有特化策略的角色先走特化路径，不适用时回退通用 prompt
func (a *Agent) InitiateConversation(ctx context.Context, projectContext string, history []HistoryMessage) TurnResult {
	if a.initiate != nil {
		if result, handled := a.initiate(ctx, a, projectContext, history); handled {
			return *result
		}
	}
	return a.genericInitiate(ctx, projectContext, history)
}

func (a *Agent) genericInitiate(ctx context.Context, projectContext string, history []HistoryMessage) TurnResult {
	prompt := fmt.Sprintf(`You are %s, a %s with expertise in %s.
Your personality: %s

Project context: %s

Previous conversation:
%s

Either start the conversation or provide your initial analysis/input for this project.
Be proactive and share your expert perspective.

Respond in JSON format:
{
    "message": "Your opening message or analysis",
    "action_taken": "What you're doing (analyzing, researching, strategizing, etc.)",
    "deliverables": {"item": "description", "another_item": "description"},
    "insights": ["key insight 1", "key insight 2"],
    "questions_for_team": ["question 1", "question 2"]
}`, a.Name, a.Role, a.Expertise, a.Personality, projectContext, formatHistory(history))

	response, err := a.provider.Generate(ctx, prompt, 0.7)
	if err != nil {
		klog.V(6).Infof("开场调用失败，降级: agent=%s, err=%v", a.Name, err)
		return TurnResult{
			Message:          fmt.Sprintf("Hello team! I'm %s, and I'll be handling %s for this project.", a.Name, a.Role),
			ActionTaken:      "introduction",
			Deliverables:     map[string]any{},
			Insights:         []string{},
			QuestionsForTeam: []string{},
		}
	}

	return a.parseTurn(response)
}

// RespondToAgent 回应另一个 agent 的发言
// 生成前先确定回应模式和未讨论过的专业角度，注入 prompt 抑制重复
func (a *Agent) RespondToAgent(ctx context.Context, fromAgent, messageContent, projectContext string, history []HistoryMessage, discussedTopics map[string]bool) TurnResult {
	responseMode := DetermineResponseMode(messageContent)
	expertiseFocus := UniqueExpertiseAngle(a.Role, discussedTopics)

	prompt := fmt.Sprintf(`You are %s, a %s with expertise in %s.
Your personality: %s

EXPERTISE FOCUS: %s (focus on this specific angle to avoid repetition)

%s just said: "%s"

Project context: %s

Previous conversation:
%s

Response mode: %s

IMPORTANT RULES:
- Focus ONLY on your unique %s perspective
- Provide SPECIFIC, ACTIONABLE insights, not general recommendations
- If you disagree, offer concrete alternatives with numbers/details
- Keep responses concise and business-focused
- Avoid repeating what others have already covered

Respond in JSON format:
{
    "message": "Your specific, expert response (max 2 sentences, be direct and actionable)",
    "stance": "agree|disagree|build_on|question|challenge|propose_alternative",
    "reasoning": "ONE specific reason based on your %s expertise",
    "contribution": "ONE concrete, measurable contribution you're adding",
    "data_produced": {"specific_metric": "exact number or detail", "actionable_step": "precise next action"},
    "questions_for_team": ["ONE specific question that drives decision-making"],
    "challenges_raised": ["ONE specific concern with proposed solution"]
}`, a.Name, a.Role, a.Expertise, a.Personality, expertiseFocus, fromAgent, messageContent,
		projectContext, formatHistory(history), responseMode, expertiseFocus, expertiseFocus)

	response, err := a.provider.Generate(ctx, prompt, 0.8)
	if err != nil {
		klog.V(6).Infof("回应调用失败，降级: agent=%s, from=%s, err=%v", a.Name, fromAgent, err)
		return TurnResult{
			Message:          "I'm having trouble processing that. Let me think about it more.",
			ActionTaken:      "error_handling",
			DataProduced:     map[string]any{},
			QuestionsForTeam: []string{},
		}
	}

	result := a.parseTurn(response)

	a.responseLog = append(a.responseLog, ResponseEntry{
		Timestamp:    time.Now(),
		RespondingTo: fromAgent,
		Message:      result.Message,
		Stance:       result.Stance,
		Reasoning:    result.Reasoning,
		Contribution: result.Contribution,
		Data:         result.DataProduced,
		Challenges:   result.ChallengesRaised,
	})

	return result
}

// Finalize 生成最终交付物总结
// 失败向上返回错误，由编排方降级处理
func (a *Agent) Finalize(ctx context.Context, projectContext string) (map[string]any, error) {
	prompt := fmt.Sprintf(`Based on our team discussion about: %s

Provide your final deliverable and summary. What concrete outputs are you contributing to this project?

Respond in JSON format:
{
    "final_deliverable": "Your main contribution to the project",
    "key_outputs": {"output1": "description", "output2": "description"},
    "summary": "Brief summary of your contribution",
    "recommendations": ["final recommendation 1", "final recommendation 2"]
}`, projectContext)

	response, err := a.provider.Generate(ctx, prompt, 0.6)
	if err != nil {
		return nil, err
	}

	return parseLoose(response), nil
}

// Generate 暴露底层完成调用给特化策略和反馈迭代使用
func (a *Agent) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	return a.provider.Generate(ctx, prompt, temperature)
}

// ThinkingLog 返回私有思考记录快照
func (a *Agent) ThinkingLog() []ThinkingEntry {
	return append([]ThinkingEntry(nil), a.thinkingLog...)
}

// ResponseLog 返回历史发言记录快照
func (a *Agent) ResponseLog() []ResponseEntry {
	return append([]ResponseEntry(nil), a.responseLog...)
}

// parseTurn 解析 LLM 输出为 TurnResult
// 先剥代码块再解析；仍失败时把原文包进最小结构返回，不抛错
func (a *Agent) parseTurn(response string) TurnResult {
	var result TurnResult
	if err := json.Unmarshal([]byte(utils.StripCodeFence(response)), &result); err != nil {
		klog.V(6).Infof("结构化输出解析失败，用原文兜底: agent=%s", a.Name)
		return TurnResult{
			Message:      response,
			ActionTaken:  "response",
			DataProduced: map[string]any{},
		}
	}
	return result
}

// parseLoose 解析为通用 map，保留未知字段
func parseLoose(response string) map[string]any {
	var result map[string]any
	if err := json.Unmarshal([]byte(utils.StripCodeFence(response)), &result); err != nil {
		return map[string]any{
			"message":       response,
			"action_taken":  "response",
			"data_produced": map[string]any{},
		}
	}
	return result
}

// formatHistory 格式化会话历史，只保留最近 5 条
func formatHistory(messages []HistoryMessage) string {
	if len(messages) == 0 {
		return "No previous messages."
	}

	start := 0
	if len(messages) > 5 {
		start = len(messages) - 5
	}

	var formatted []string
	for _, msg := range messages[start:] {
		if msg.Stance != "" {
			formatted = append(formatted, fmt.Sprintf("%s (%s): %s", msg.Speaker, msg.Stance, msg.Message))
		} else {
			formatted = append(formatted, fmt.Sprintf("%s: %s", msg.Speaker, msg.Message))
		}
	}

	return strings.Join(formatted, "\n")
}
