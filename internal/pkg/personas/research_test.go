package personas

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractCompetitorsExplicitNames(t *testing.T) {
	competitors := extractCompetitors("We need to compete with Nike and outperform Adidas this year")

	joined := strings.Join(competitors, ",")
	if !strings.Contains(joined, "Nike") {
		t.Errorf("expected Nike in competitors, got %v", competitors)
	}
	if len(competitors) > 3 {
		t.Errorf("expected at most 3 competitors, got %d", len(competitors))
	}
}

func TestExtractCompetitorsIndustryFallback(t *testing.T) {
	competitors := extractCompetitors("Grow our SaaS product revenue")
	if len(competitors) != 3 || competitors[0] != "Salesforce" {
		t.Errorf("expected SaaS fallback competitors, got %v", competitors)
	}

	competitors = extractCompetitors("A generic business goal")
	if len(competitors) != 3 || competitors[0] != "Market leader" {
		t.Errorf("expected generic fallback competitors, got %v", competitors)
	}
}

func TestMarketResearchInitiationTriggered(t *testing.T) {
	provider := &fakeProvider{
		response: `{"competitor_name": "Nike", "threat_level": "high", "weaknesses": ["slow innovation"]}`,
	}
	agent := newTestAgent(t, "market_researcher", provider)

	result := agent.InitiateConversation(context.Background(), "Launch shoes to compete with Nike", nil)

	if result.ActionTaken != "competitive_intelligence_research" {
		t.Fatalf("expected competitor research path, got %q", result.ActionTaken)
	}
	if result.Deliverables["competitive_analysis"] == nil {
		t.Error("expected competitive_analysis deliverable")
	}
	threats, ok := result.Deliverables["competitive_threats"].([]string)
	if !ok || len(threats) == 0 {
		t.Errorf("expected competitor list in deliverables, got %v", result.Deliverables["competitive_threats"])
	}
	// 每个竞品一次分析调用，温度 0.6
	for _, temp := range provider.temperatures {
		if temp != 0.6 {
			t.Errorf("expected research temperature 0.6, got %v", temp)
		}
	}
}

func TestMarketResearchInitiationFallsBackToGeneric(t *testing.T) {
	provider := &fakeProvider{
		response: `{"message": "regular research intro", "action_taken": "analyzing"}`,
	}
	agent := newTestAgent(t, "market_researcher", provider)

	// 没有竞争语境，应走通用开场
	result := agent.InitiateConversation(context.Background(), "Launch an eco-friendly water bottle for Gen Z", nil)

	if result.ActionTaken != "analyzing" {
		t.Errorf("expected generic initiation, got %q", result.ActionTaken)
	}
}

func TestConductCompetitorResearchSurvivesFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	agent := newTestAgent(t, "market_researcher", provider)

	research := conductCompetitorResearch(context.Background(), agent, "beat Nike")

	detailed, ok := research["detailed_analysis"].(map[string]any)
	if !ok || len(detailed) == 0 {
		t.Fatalf("expected per-competitor entries even on failure, got %v", research)
	}
	for name, raw := range detailed {
		entry, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("unexpected entry type for %s", name)
		}
		if entry["threat_level"] != "unknown" {
			t.Errorf("expected unknown threat level for failed analysis of %s", name)
		}
	}
}

func TestGenerateMarketInsights(t *testing.T) {
	detailed := map[string]any{
		"Nike": map[string]any{
			"threat_level": "high",
			"weaknesses":   []any{"slow innovation"},
		},
		"Adidas": map[string]any{
			"threat_level": "medium",
		},
	}

	insights := generateMarketInsights(detailed)

	var hasThreat, hasGap bool
	for _, insight := range insights {
		if strings.Contains(insight, "High-threat competitors identified: Nike") {
			hasThreat = true
		}
		if strings.Contains(insight, "Market gap opportunity: slow innovation") {
			hasGap = true
		}
	}
	if !hasThreat || !hasGap {
		t.Errorf("expected threat and gap insights, got %v", insights)
	}
}
