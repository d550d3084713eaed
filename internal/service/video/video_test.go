package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/agentcrew/backend/config"
	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/model"
	"github.com/agentcrew/backend/internal/repository"
	"github.com/agentcrew/backend/internal/service/conversation"
)

type stubProvider struct {
	mu       sync.Mutex
	response string
	err      error
	prompt   string
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompt = prompt
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func newTestService(t *testing.T, provider *stubProvider, bus *eventbus.Bus) (*Service, repository.VideoJobRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.VideoJob{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	jobs := repository.NewVideoJobRepository(db)

	cfg := config.VideoConfig{OutputDir: t.TempDir(), Platform: "youtube"}
	return NewService(cfg, provider, jobs, bus), jobs
}

func sampleDeliverables() (map[string]any, []conversation.AgentInfo) {
	delivered := map[string]any{
		"Jordan Rivera": map[string]any{
			"final": map[string]any{
				"key_outputs": map[string]any{
					"budget_breakdown":  "$50k media / $20k creative",
					"campaign_timeline": "8 weeks",
				},
				"recommendations": []any{"phase the rollout", "lock vendors early"},
			},
		},
		"Sarah Chen": map[string]any{
			"final": map[string]any{
				"recommendations": []any{"target urban Gen Z", "watch competitor pricing", "ignored third"},
			},
		},
	}
	agents := []conversation.AgentInfo{
		{Name: "Jordan Rivera", Role: "Implementation Specialist"},
		{Name: "Sarah Chen", Role: "Market Researcher"},
	}
	return delivered, agents
}

func TestExtractHighlights(t *testing.T) {
	delivered, agents := sampleDeliverables()
	insights, budget, timeline := extractHighlights(delivered, agents)

	if budget != "$50k media / $20k creative" {
		t.Errorf("budget: %q", budget)
	}
	if timeline != "8 weeks" {
		t.Errorf("timeline: %q", timeline)
	}
	// 每个角色最多取两条建议
	if len(insights) != 4 {
		t.Fatalf("expected 4 insights, got %v", insights)
	}
	for _, insight := range insights {
		if insight == "ignored third" {
			t.Error("third recommendation should be dropped")
		}
	}
}

func TestGenerateScriptPromptAndResult(t *testing.T) {
	provider := &stubProvider{response: "OPENING SHOT: A bottle spins...\n"}
	service, _ := newTestService(t, provider, nil)

	delivered, agents := sampleDeliverables()
	script := service.GenerateScript(context.Background(), "Launch eco-friendly water bottle", delivered, agents)

	if script != "OPENING SHOT: A bottle spins..." {
		t.Errorf("script not trimmed provider output: %q", script)
	}
	for _, want := range []string{"Launch eco-friendly water bottle", "Jordan Rivera (Implementation Specialist)", "$50k media / $20k creative", "8 weeks"} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateScriptFallback(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	service, _ := newTestService(t, provider, nil)

	script := service.GenerateScript(context.Background(), "Launch eco-friendly water bottle", map[string]any{}, nil)
	if !strings.Contains(script, "Launch eco-friendly water bottle") {
		t.Errorf("fallback script should mention project goal: %q", script)
	}
}

func TestCreateJobWritesRenderRequest(t *testing.T) {
	provider := &stubProvider{response: "NARRATOR: ..."}
	bus := eventbus.NewBus()

	var mu sync.Mutex
	var events []eventbus.CollabEvent
	bus.SubscribeAll(func(ctx context.Context, event eventbus.CollabEvent) error {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	})

	service, jobs := newTestService(t, provider, bus)
	delivered, agents := sampleDeliverables()

	job, err := service.CreateJob(context.Background(), "s-1", "SaaS onboarding campaign", delivered, agents)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Status != "ready" {
		t.Errorf("expected ready, got %s", job.Status)
	}

	data, err := os.ReadFile(job.OutputPath)
	if err != nil {
		t.Fatalf("render request not written: %v", err)
	}
	content := string(data)
	for _, want := range []string{`"vibe": "professional"`, "software companies and tech professionals", "NARRATOR: ..."} {
		if !strings.Contains(content, want) {
			t.Errorf("render request missing %q", want)
		}
	}
	if filepath.Base(job.OutputPath) != "s-1_render_request.json" {
		t.Errorf("unexpected request filename: %s", job.OutputPath)
	}

	stored, err := jobs.GetBySessionID("s-1")
	if err != nil || len(stored) != 1 {
		t.Fatalf("job not persisted: err=%v len=%d", err, len(stored))
	}

	mu.Lock()
	defer mu.Unlock()
	found := false
	for _, event := range events {
		if event.Type == eventbus.CollabEventVideoReady && event.SessionID == "s-1" {
			found = true
		}
	}
	if !found {
		t.Error("video_ready event not published")
	}
}

func TestTargetAudience(t *testing.T) {
	cases := map[string]string{
		"Grow my startup brand":       "entrepreneurs and startup founders",
		"Ecommerce holiday push":      "online retailers and business owners",
		"SaaS onboarding campaign":    "software companies and tech professionals",
		"Launch a local coffee brand": "business professionals and marketing decision makers",
	}
	for goal, want := range cases {
		if got := targetAudience(goal); got != want {
			t.Errorf("targetAudience(%q) = %q, want %q", goal, got, want)
		}
	}
}
