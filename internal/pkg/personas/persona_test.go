package personas

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProvider 可编程的 Provider 测试替身
type fakeProvider struct {
	response string
	err      error

	prompts      []string
	temperatures []float64
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.temperatures = append(f.temperatures, temperature)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestAgent(t *testing.T, personaID string, provider *fakeProvider) *Agent {
	t.Helper()
	agent, err := NewAgent(personaID, provider)
	if err != nil {
		t.Fatalf("NewAgent(%q) unexpected error: %v", personaID, err)
	}
	return agent
}

func TestNewAgentUnknownPersona(t *testing.T) {
	_, err := NewAgent("quantum_astrologer", &fakeProvider{})
	if !errors.Is(err, ErrUnknownPersona) {
		t.Errorf("expected ErrUnknownPersona, got %v", err)
	}
}

func TestThinkParsesAndLogs(t *testing.T) {
	provider := &fakeProvider{
		response: `{"thinking": "deep analysis", "key_insights": ["a", "b"], "questions_for_other_agents": ["q1"], "recommendations": ["r1"]}`,
	}
	agent := newTestAgent(t, "media_planner", provider)

	thought := agent.Think(context.Background(), "Launch a water bottle", nil)

	if thought.Thinking != "deep analysis" {
		t.Errorf("unexpected thinking: %q", thought.Thinking)
	}
	if len(thought.KeyInsights) != 2 {
		t.Errorf("expected 2 insights, got %d", len(thought.KeyInsights))
	}
	if provider.temperatures[0] != 0.7 {
		t.Errorf("expected think temperature 0.7, got %v", provider.temperatures[0])
	}

	log := agent.ThinkingLog()
	if len(log) != 1 {
		t.Fatalf("expected 1 thinking entry, got %d", len(log))
	}
	if log[0].AgentName != "David Kim" {
		t.Errorf("unexpected agent name in log: %q", log[0].AgentName)
	}
}

func TestThinkDegradesOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	agent := newTestAgent(t, "media_planner", provider)

	thought := agent.Think(context.Background(), "context", nil)

	if !strings.Contains(thought.Thinking, "quota exceeded") {
		t.Errorf("expected error message in thinking, got %q", thought.Thinking)
	}
	if len(thought.KeyInsights) != 0 || len(thought.Questions) != 0 {
		t.Error("expected empty lists in degraded thought")
	}
}

func TestThinkWrapsUnparseableOutput(t *testing.T) {
	provider := &fakeProvider{response: "just plain prose, no JSON"}
	agent := newTestAgent(t, "media_planner", provider)

	thought := agent.Think(context.Background(), "context", nil)

	if thought.Thinking != "just plain prose, no JSON" {
		t.Errorf("expected raw text as thinking, got %q", thought.Thinking)
	}
}

func TestInitiateConversationGenericFallback(t *testing.T) {
	provider := &fakeProvider{err: errors.New("timeout")}
	agent := newTestAgent(t, "media_planner", provider)

	result := agent.InitiateConversation(context.Background(), "context", nil)

	if !strings.Contains(result.Message, "David Kim") || !strings.Contains(result.Message, "Media Planner") {
		t.Errorf("expected identifying fallback message, got %q", result.Message)
	}
	if result.ActionTaken != "introduction" {
		t.Errorf("expected introduction action, got %q", result.ActionTaken)
	}
}

func TestInitiateConversationFencedJSON(t *testing.T) {
	provider := &fakeProvider{
		response: "```json\n{\"message\": \"here is my plan\", \"action_taken\": \"strategizing\", \"deliverables\": {\"media_strategy\": \"x\"}}\n```",
	}
	agent := newTestAgent(t, "media_planner", provider)

	result := agent.InitiateConversation(context.Background(), "context", nil)

	if result.Message != "here is my plan" {
		t.Errorf("expected fenced JSON to parse, got %q", result.Message)
	}
	if result.Deliverables["media_strategy"] != "x" {
		t.Errorf("expected deliverables to survive parsing, got %v", result.Deliverables)
	}
}

func TestRespondToAgentInjectsModeAndAngle(t *testing.T) {
	provider := &fakeProvider{
		response: `{"message": "counterpoint", "stance": "disagree", "contribution": "budget reallocation"}`,
	}
	agent := newTestAgent(t, "media_planner", provider)

	result := agent.RespondToAgent(context.Background(), "Sarah Chen",
		"I disagree with the proposed split", "context", nil, map[string]bool{"channel": true})

	if result.Stance != StanceDisagree {
		t.Errorf("unexpected stance: %q", result.Stance)
	}

	prompt := provider.prompts[0]
	if !strings.Contains(prompt, ModeChallengeOrDebate) {
		t.Error("expected response mode injected into prompt")
	}
	if !strings.Contains(prompt, "budget allocation") {
		t.Error("expected unexplored expertise angle injected into prompt")
	}
	if provider.temperatures[0] != 0.8 {
		t.Errorf("expected respond temperature 0.8, got %v", provider.temperatures[0])
	}

	log := agent.ResponseLog()
	if len(log) != 1 || log[0].RespondingTo != "Sarah Chen" {
		t.Fatalf("expected response log entry for Sarah Chen, got %v", log)
	}
}

func TestRespondToAgentDegradesOnError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	agent := newTestAgent(t, "media_planner", provider)

	result := agent.RespondToAgent(context.Background(), "Sarah Chen", "hello", "context", nil, nil)

	if result.Message == "" {
		t.Error("expected non-empty degraded message")
	}
	if len(result.DataProduced) != 0 {
		t.Error("expected empty structured payload in degraded response")
	}
	if len(agent.ResponseLog()) != 0 {
		t.Error("expected no response log entry for failed call")
	}
}

func TestRespondToAgentWrapsRawText(t *testing.T) {
	provider := &fakeProvider{response: "I just want to say something unstructured"}
	agent := newTestAgent(t, "media_planner", provider)

	result := agent.RespondToAgent(context.Background(), "Sarah Chen", "hello", "context", nil, nil)

	if result.Message != "I just want to say something unstructured" {
		t.Errorf("expected raw text wrapped as message, got %q", result.Message)
	}
	if result.ActionTaken != "response" {
		t.Errorf("expected stand-in action_taken, got %q", result.ActionTaken)
	}
}

func TestFinalizeReturnsParsedMap(t *testing.T) {
	provider := &fakeProvider{
		response: `{"final_deliverable": "media plan", "key_outputs": {"budget_breakdown": "50k"}, "summary": "done", "recommendations": ["ship it"]}`,
	}
	agent := newTestAgent(t, "media_planner", provider)

	final, err := agent.Finalize(context.Background(), "context")
	if err != nil {
		t.Fatalf("Finalize() unexpected error: %v", err)
	}
	if final["final_deliverable"] != "media plan" {
		t.Errorf("unexpected final deliverable: %v", final["final_deliverable"])
	}
	if provider.temperatures[0] != 0.6 {
		t.Errorf("expected finalize temperature 0.6, got %v", provider.temperatures[0])
	}
}

func TestFormatHistoryKeepsLastFive(t *testing.T) {
	var history []HistoryMessage
	for _, speaker := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		history = append(history, HistoryMessage{Speaker: speaker, Message: "msg-" + speaker})
	}

	formatted := formatHistory(history)

	if strings.Contains(formatted, "msg-a") || strings.Contains(formatted, "msg-b") {
		t.Error("expected only the last 5 messages to be formatted")
	}
	if !strings.Contains(formatted, "msg-c") || !strings.Contains(formatted, "msg-g") {
		t.Error("expected the last 5 messages to be present")
	}

	if formatHistory(nil) != "No previous messages." {
		t.Error("expected placeholder for empty history")
	}
}

func TestListSortedCatalog(t *testing.T) {
	list := List()
	if len(list) != 9 {
		t.Fatalf("expected 9 personas, got %d", len(list))
	}
	if list[0].ID != "brand_strategist" {
		t.Errorf("expected sorted order, got %s first", list[0].ID)
	}
	if !Exists("market_researcher") || Exists("nope") {
		t.Error("Exists() gave wrong answers")
	}
}
