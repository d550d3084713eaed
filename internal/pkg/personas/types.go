package personas

import "time"

// Stance 回应立场
const (
	StanceAgree              = "agree"
	StanceDisagree           = "disagree"
	StanceBuildOn            = "build_on"
	StanceQuestion           = "question"
	StanceChallenge          = "challenge"
	StanceProposeAlternative = "propose_alternative"
)

// Persona 人设元数据，构造后不可变
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Expertise   string `json:"expertise"`
	Personality string `json:"personality"`
}

// ThoughtResult 思考阶段的结构化输出
type ThoughtResult struct {
	Thinking        string   `json:"thinking"`
	KeyInsights     []string `json:"key_insights"`
	Questions       []string `json:"questions_for_other_agents"`
	Recommendations []string `json:"recommendations"`
}

// TurnResult 一次发言的结构化输出
// initiate 和 respond 共用，字段按消息类型部分填充
type TurnResult struct {
	Message          string         `json:"message"`
	ActionTaken      string         `json:"action_taken,omitempty"`
	Stance           string         `json:"stance,omitempty"`
	Reasoning        string         `json:"reasoning,omitempty"`
	Contribution     string         `json:"contribution,omitempty"`
	Deliverables     map[string]any `json:"deliverables,omitempty"`
	DataProduced     map[string]any `json:"data_produced,omitempty"`
	Insights         []string       `json:"insights,omitempty"`
	QuestionsForTeam []string       `json:"questions_for_team,omitempty"`
	ChallengesRaised []string       `json:"challenges_raised,omitempty"`
	RequestedChanges []string       `json:"requested_changes,omitempty"`
}

// ThinkingEntry 一条私有思考记录
type ThinkingEntry struct {
	AgentName       string    `json:"agent_name"`
	AgentRole       string    `json:"agent_role"`
	Timestamp       time.Time `json:"timestamp"`
	Thinking        string    `json:"thinking_process"`
	Insights        []string  `json:"insights"`
	Questions       []string  `json:"questions"`
	Recommendations []string  `json:"recommendations"`
}

// ResponseEntry agent 自己的历史发言记录，作为后续 prompt 的本地上下文
type ResponseEntry struct {
	Timestamp    time.Time      `json:"timestamp"`
	RespondingTo string         `json:"responding_to"`
	Message      string         `json:"message"`
	Stance       string         `json:"stance"`
	Reasoning    string         `json:"reasoning"`
	Contribution string         `json:"contribution"`
	Data         map[string]any `json:"data"`
	Challenges   []string       `json:"challenges"`
}

// HistoryMessage 调用方传入的共享会话片段，与内部记录解耦
type HistoryMessage struct {
	Speaker string
	Message string
	Stance  string
}
