package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/pkg/personas"
	"github.com/agentcrew/backend/internal/service/statemachine"
)

// completionSignals 对话收敛信号词，近期消息命中两个以上即提前结束
var completionSignals = []string{"finalize", "complete", "ready to", "final", "conclude"}

// StartCollaboration 执行完整协作流程：思考 -> 介绍 -> 讨论 -> 汇总
// agent 调用失败一律降级不中断，只有上下文取消会让流程提前终止
func (s *Session) StartCollaboration(ctx context.Context) (*Result, error) {
	klog.V(6).Infof("协作会话启动: session=%s, agents=%d", s.ID, len(s.agents))

	if err := s.transition(ctx, statemachine.PhaseThinking, "Agents are analyzing the project..."); err != nil {
		return nil, err
	}
	s.thinkingPhase(ctx)
	if err := s.checkCanceled(ctx); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, statemachine.PhaseIntroducing, "Agents introducing themselves and sharing initial insights..."); err != nil {
		return nil, err
	}
	s.introductionPhase(ctx)
	if err := s.checkCanceled(ctx); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, statemachine.PhaseConversing, "Agents collaborating and discussing..."); err != nil {
		return nil, err
	}
	s.conversationPhase(ctx)
	if err := s.checkCanceled(ctx); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, statemachine.PhaseFinalizing, "Finalizing deliverables and summary..."); err != nil {
		return nil, err
	}
	s.finalizationPhase(ctx)
	if err := s.checkCanceled(ctx); err != nil {
		return nil, err
	}

	if err := s.transition(ctx, statemachine.PhaseDone, "Collaboration complete."); err != nil {
		return nil, err
	}

	result := s.Result()
	s.publish(ctx, eventbus.CollabEventComplete, result)
	klog.V(6).Infof("协作会话完成: session=%s, rounds=%d, messages=%d", s.ID, result.TotalRounds, len(result.ConversationLog))
	return result, nil
}

// checkCanceled 上下文取消时把会话标记为失败
func (s *Session) checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		s.mu.Lock()
		s.phase = statemachine.PhaseFailed
		s.mu.Unlock()
		return err
	}
	return nil
}

// thinkingPhase 阶段一：全员并发思考
func (s *Session) thinkingPhase(ctx context.Context) {
	s.logSystemMessage("🧠 Phase 1: Agents are analyzing the project...")

	var wg sync.WaitGroup
	for _, agent := range s.agents {
		wg.Add(1)
		go func(agent *personas.Agent) {
			defer wg.Done()
			s.agentThink(ctx, agent)
		}(agent)
	}
	wg.Wait()
}

func (s *Session) agentThink(ctx context.Context, agent *personas.Agent) {
	s.publish(ctx, eventbus.CollabEventAgentThinking, map[string]any{
		"agent_name": agent.Name,
		"agent_role": agent.Role,
		"status":     "thinking",
	})

	thought := agent.Think(ctx, s.projectContext, nil)

	entry := personas.ThinkingEntry{
		AgentName:       agent.Name,
		AgentRole:       agent.Role,
		Timestamp:       time.Now(),
		Thinking:        thought.Thinking,
		Insights:        thought.KeyInsights,
		Questions:       thought.Questions,
		Recommendations: thought.Recommendations,
	}

	s.mu.Lock()
	s.thinkingLog = append(s.thinkingLog, entry)
	s.mu.Unlock()

	s.publish(ctx, eventbus.CollabEventThinkingComplete, entry)
}

// introductionPhase 阶段二：逐一自我介绍并给出初始分析
// 介绍产生的交付物按角色独占领域过滤后入库
func (s *Session) introductionPhase(ctx context.Context) {
	s.logSystemMessage("👋 Phase 2: Agents introducing themselves and sharing initial insights...")

	for _, agent := range s.agents {
		response := agent.InitiateConversation(ctx, s.projectContext, s.history())

		s.appendEntry(ctx, TranscriptEntry{
			AgentName:   agent.Name,
			AgentRole:   agent.Role,
			MessageType: MessageTypeIntroduction,
			Content:     response,
			Timestamp:   time.Now(),
			Round:       0,
		}, eventbus.CollabEventAgentMessage)

		if len(response.Deliverables) > 0 {
			s.merger.MergeFiltered(agent.Name, agent.Role, response.Deliverables)
		}

		sleepCtx(ctx, s.cfg.TurnDelay)
	}
}

// conversationPhase 阶段三：多轮讨论
// 前三轮走结构化轮次，之后走动态轮次；每轮后判断是否提前收敛
func (s *Session) conversationPhase(ctx context.Context) {
	s.logSystemMessage("💬 Phase 3: Agents collaborating and discussing...")

	for round := 1; round <= s.cfg.MaxRounds; round++ {
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		s.rounds = round
		s.mu.Unlock()

		if round <= 3 {
			s.structuredRound(ctx)
		} else {
			s.dynamicRound(ctx)
		}

		if s.shouldEndConversation() {
			klog.V(6).Infof("对话提前收敛: session=%s, round=%d", s.ID, round)
			break
		}

		sleepCtx(ctx, s.cfg.RoundDelay)
	}
}

// structuredRound 结构化轮次：每个 agent 依次回应上一条别人的发言
// 重复话题直接跳过本次发言
func (s *Session) structuredRound(ctx context.Context) {
	for i, agent := range s.agents {
		if i == 0 && s.Rounds() == 1 {
			continue // 第一个 agent 刚做过开场
		}

		last, ok := s.lastMessageNotFrom(agent.Name)
		if !ok {
			continue
		}

		lastText := entryMessage(last)
		if s.tracker.IsRepetitive(lastText) {
			klog.V(6).Infof("话题重复，跳过发言: session=%s, agent=%s", s.ID, agent.Name)
			continue
		}

		response := agent.RespondToAgent(ctx, last.AgentName, lastText, s.projectContext, s.history(), s.tracker.Discussed())
		s.tracker.RecordContribution(response.Contribution)

		s.appendEntry(ctx, TranscriptEntry{
			AgentName:    agent.Name,
			AgentRole:    agent.Role,
			MessageType:  MessageTypeResponse,
			Content:      response,
			RespondingTo: last.AgentName,
			Timestamp:    time.Now(),
			Round:        s.Rounds(),
		}, eventbus.CollabEventAgentMessage)

		if len(response.DataProduced) > 0 {
			s.merger.Merge(agent.Name, response.DataProduced)
		}

		sleepCtx(ctx, s.cfg.TurnDelay)
	}
}

// dynamicRound 动态轮次：按优先级挑一个互动机会
// 1) 回应质疑 2) 回答悬而未决的问题 3) 换个没发言的 agent 补充视角
func (s *Session) dynamicRound(ctx context.Context) {
	recent := s.recentEntries(3)

	// 优先级一：回应挑战或反对意见
	for i := len(recent) - 1; i >= 0; i-- {
		entry := recent[i]
		stance := entryStance(entry)
		if entry.AgentName == "System" {
			continue
		}
		if stance != personas.StanceChallenge && stance != personas.StanceDisagree && stance != personas.StanceProposeAlternative {
			continue
		}

		responder := s.findBestResponder(entry.AgentName, entryContribution(entry))
		if responder == nil {
			continue
		}

		response := responder.RespondToAgent(ctx, entry.AgentName, entryMessage(entry), s.projectContext, s.history(), nil)
		s.appendEntry(ctx, TranscriptEntry{
			AgentName:    responder.Name,
			AgentRole:    responder.Role,
			MessageType:  MessageTypeDebateResponse,
			Content:      response,
			RespondingTo: entry.AgentName,
			Timestamp:    time.Now(),
			Round:        s.Rounds(),
		}, eventbus.CollabEventAgentMessage)
		return
	}

	// 优先级二：回答抛给团队的问题
	for i := len(recent) - 1; i >= 0; i-- {
		entry := recent[i]
		questions := entryQuestions(entry)
		if len(questions) == 0 || entry.AgentName == "System" {
			continue
		}

		responder := s.findExpertForQuestion(questions[0], entry.AgentName)
		if responder == nil {
			continue
		}

		response := responder.RespondToAgent(ctx, entry.AgentName, "You asked: "+questions[0], s.projectContext, s.history(), nil)
		s.appendEntry(ctx, TranscriptEntry{
			AgentName:    responder.Name,
			AgentRole:    responder.Role,
			MessageType:  MessageTypeExpertAnswer,
			Content:      response,
			RespondingTo: entry.AgentName,
			Timestamp:    time.Now(),
			Round:        s.Rounds(),
		}, eventbus.CollabEventAgentMessage)
		return
	}

	// 优先级三：让最近没发言的 agent 补充新视角
	if len(recent) > 0 {
		last := recent[len(recent)-1]
		responder := s.findFreshPerspectiveAgent(last.AgentName)
		if responder == nil {
			return
		}

		response := responder.RespondToAgent(ctx, last.AgentName, entryMessage(last), s.projectContext, s.history(), nil)
		s.appendEntry(ctx, TranscriptEntry{
			AgentName:    responder.Name,
			AgentRole:    responder.Role,
			MessageType:  MessageTypeBuildOnIdea,
			Content:      response,
			RespondingTo: last.AgentName,
			Timestamp:    time.Now(),
			Round:        s.Rounds(),
		}, eventbus.CollabEventAgentMessage)
		return
	}

	// 兜底：随机挑一个 agent 给出新见解
	agent := s.randomAgent(s.agents)
	if agent == nil {
		return
	}
	response := agent.InitiateConversation(ctx, s.projectContext, s.history())
	s.appendEntry(ctx, TranscriptEntry{
		AgentName:   agent.Name,
		AgentRole:   agent.Role,
		MessageType: MessageTypeNewInsight,
		Content:     response,
		Timestamp:   time.Now(),
		Round:       s.Rounds(),
	}, eventbus.CollabEventAgentMessage)
}

// finalizationPhase 阶段四：逐一汇总最终交付物
// 汇总调用失败时放一条占位摘要，保证每个 agent 都留一条最终消息
func (s *Session) finalizationPhase(ctx context.Context) {
	s.logSystemMessage("📋 Phase 4: Finalizing deliverables and summary...")

	for _, agent := range s.agents {
		finalData, err := agent.Finalize(ctx, s.projectContext)
		if err != nil {
			klog.V(6).Infof("最终汇总调用失败，降级: session=%s, agent=%s, err=%v", s.ID, agent.Name, err)
			finalData = map[string]any{
				"summary": "Finalizing " + agent.Role + " deliverables...",
			}
		} else {
			s.merger.Merge(agent.Name, map[string]any{"final": finalData})
		}

		s.appendEntry(ctx, TranscriptEntry{
			AgentName:   agent.Name,
			AgentRole:   agent.Role,
			MessageType: MessageTypeFinalDeliverable,
			Content:     finalData,
			Timestamp:   time.Now(),
			Round:       s.Rounds(),
		}, eventbus.CollabEventAgentMessage)
	}
}

// shouldEndConversation 判断对话是否应该收敛
// 达到最大轮数，或满两轮之后近期消息里出现两个以上收敛信号词
func (s *Session) shouldEndConversation() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rounds >= s.cfg.MaxRounds {
		return true
	}

	// 第一轮不看信号词，给讨论留出展开空间
	if s.rounds < 2 {
		return false
	}

	if len(s.transcript) < 3 {
		return false
	}
	recent := s.transcript[len(s.transcript)-3:]

	var texts []string
	for _, entry := range recent {
		texts = append(texts, entryMessage(entry))
	}
	recentText := strings.ToLower(strings.Join(texts, " "))

	signalCount := 0
	for _, signal := range completionSignals {
		if strings.Contains(recentText, signal) {
			signalCount++
		}
	}
	return signalCount >= 2
}

// lastMessageNotFrom 找最近一条不是指定 agent 发出的消息
func (s *Session) lastMessageNotFrom(agentName string) (TranscriptEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.transcript) - 1; i >= 0; i-- {
		if s.transcript[i].AgentName != agentName {
			return s.transcript[i], true
		}
	}
	return TranscriptEntry{}, false
}

// recentEntries 返回最近 n 条会话记录
func (s *Session) recentEntries(n int) []TranscriptEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.transcript) <= n {
		return append([]TranscriptEntry(nil), s.transcript...)
	}
	return append([]TranscriptEntry(nil), s.transcript[len(s.transcript)-n:]...)
}
