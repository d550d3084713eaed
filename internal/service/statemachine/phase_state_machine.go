package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Phase 定义协作会话的所有可能阶段
type Phase string

const (
	PhasePending     Phase = "pending"     // 未开始（初始态）
	PhaseThinking    Phase = "thinking"    // 全员并发思考
	PhaseIntroducing Phase = "introducing" // 逐一自我介绍
	PhaseConversing  Phase = "conversing"  // 多轮讨论
	PhaseFinalizing  Phase = "finalizing"  // 汇总最终交付物
	PhaseDone        Phase = "done"        // 协作完成
	PhaseFailed      Phase = "failed"      // 协作异常终止
)

// PhaseTransition 定义阶段迁移
type PhaseTransition struct {
	From Phase
	To   Phase
}

// PhaseStateMachine 协作阶段状态机
type PhaseStateMachine struct {
	// 定义所有合法的阶段迁移
	allowedTransitions map[PhaseTransition]bool
}

// NewPhaseStateMachine 创建新的协作阶段状态机
func NewPhaseStateMachine() *PhaseStateMachine {
	sm := &PhaseStateMachine{
		allowedTransitions: make(map[PhaseTransition]bool),
	}

	// 定义合法的阶段迁移路径
	// pending -> thinking -> introducing -> conversing -> finalizing -> done
	// 任意进行中阶段 -> failed（上下文取消/异常）
	// done -> conversing（用户反馈触发追加讨论）
	transitions := []PhaseTransition{
		// 正常协作流程
		{PhasePending, PhaseThinking},
		{PhaseThinking, PhaseIntroducing},
		{PhaseIntroducing, PhaseConversing},
		{PhaseConversing, PhaseFinalizing},
		{PhaseFinalizing, PhaseDone},

		// 反馈迭代流程
		{PhaseDone, PhaseConversing},

		// 异常终止流程
		{PhaseThinking, PhaseFailed},
		{PhaseIntroducing, PhaseFailed},
		{PhaseConversing, PhaseFailed},
		{PhaseFinalizing, PhaseFailed},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查阶段迁移是否合法
func (sm *PhaseStateMachine) CanTransition(from, to Phase) bool {
	if from == to {
		return false // 不允许阶段不变
	}
	return sm.allowedTransitions[PhaseTransition{From: from, To: to}]
}

// ValidateTransition 验证阶段迁移并返回错误
func (sm *PhaseStateMachine) ValidateTransition(from, to Phase) error {
	if !sm.CanTransition(from, to) {
		return &InvalidPhaseTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition 执行阶段迁移（带日志）
func (sm *PhaseStateMachine) Transition(from, to Phase, sessionID string) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("协作阶段迁移被拒绝: sessionID=%s, %s -> %s, error=%v",
			sessionID, from, to, err)
		return err
	}

	klog.V(6).Infof("协作阶段迁移成功: sessionID=%s, %s -> %s", sessionID, from, to)
	return nil
}

// InvalidPhaseTransitionError 无效的阶段迁移错误
type InvalidPhaseTransitionError struct {
	From string
	To   string
}

func (e *InvalidPhaseTransitionError) Error() string {
	return fmt.Sprintf("invalid collaboration phase transition: %s -> %s", e.From, e.To)
}

// IsTerminal 判断阶段是否为终止态
func IsTerminal(phase Phase) bool {
	return phase == PhaseDone || phase == PhaseFailed
}

// IsActive 判断会话是否处于进行中阶段
func IsActive(phase Phase) bool {
	switch phase {
	case PhaseThinking, PhaseIntroducing, PhaseConversing, PhaseFinalizing:
		return true
	}
	return false
}
