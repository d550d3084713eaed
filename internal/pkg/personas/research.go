package personas

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"k8s.io/klog/v2"
)

// competitorCues 触发竞品调研子流程的关键词
var competitorCues = []string{"compete", "competitor", "vs", "against", "beat"}

// marketResearchInitiation 市场调研角色的特化开场
// 项目目标里出现竞争语境时先跑竞品调研子流程，否则回退通用路径
func marketResearchInitiation(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (*TurnResult, bool) {
	contextLower := strings.ToLower(projectContext)
	needsResearch := false
	for _, cue := range competitorCues {
		if strings.Contains(contextLower, cue) {
			needsResearch = true
			break
		}
	}
	if !needsResearch {
		return nil, false
	}

	research := conductCompetitorResearch(ctx, a, projectContext)
	analyzed, _ := research["competitors_analyzed"].([]string)
	insights, _ := research["market_insights"].([]string)
	if len(insights) == 0 {
		insights = []string{"Real-time market research completed"}
	}

	return &TurnResult{
		Message:     fmt.Sprintf("I've conducted real-time competitive intelligence research for this project. Found %d key competitors to analyze.", len(analyzed)),
		ActionTaken: "competitive_intelligence_research",
		Deliverables: map[string]any{
			"competitive_analysis":           research,
			"market_positioning_opportunity": "Based on competitor weaknesses identified",
			"competitive_threats":            analyzed,
			"market_intelligence":            insights,
		},
		Insights: insights,
		QuestionsForTeam: []string{
			"Which competitor poses the biggest threat to our strategy?",
			"How should we position against their key strengths?",
		},
	}, true
}

// conductCompetitorResearch 逐个竞品生成竞争情报
// 单个竞品失败只影响自己的条目，整体流程不中断
func conductCompetitorResearch(ctx context.Context, a *Agent, projectGoal string) map[string]any {
	competitors := extractCompetitors(projectGoal)

	detailed := make(map[string]any, len(competitors))
	for _, competitor := range competitors {
		prompt := fmt.Sprintf(`As a market researcher, analyze the competitive landscape for %s in the context of: %s

Provide detailed competitive intelligence covering:
1. Market positioning and differentiation
2. Pricing strategy (estimate based on typical market rates)
3. Key strengths and weaknesses
4. Recent market moves or trends
5. Opportunities to compete against them

Respond in JSON format:
{
    "competitor_name": "%s",
    "market_position": "Detailed positioning analysis",
    "pricing_strategy": "Pricing insights and estimates",
    "strengths": ["strength 1", "strength 2", "strength 3"],
    "weaknesses": ["weakness 1", "weakness 2"],
    "recent_moves": ["recent development 1", "recent development 2"],
    "competitive_opportunities": ["opportunity 1", "opportunity 2"],
    "threat_level": "high|medium|low",
    "differentiation_strategy": "How to compete against them effectively"
}`, competitor, projectGoal, competitor)

		response, err := a.Generate(ctx, prompt, 0.6)
		if err != nil {
			klog.V(6).Infof("竞品分析失败: competitor=%s, err=%v", competitor, err)
			detailed[competitor] = map[string]any{
				"error":           fmt.Sprintf("Could not analyze %s: %v", competitor, err),
				"competitor_name": competitor,
				"threat_level":    "unknown",
			}
			continue
		}
		detailed[competitor] = parseLoose(response)
	}

	return map[string]any{
		"research_type":        "competitive_intelligence",
		"competitors_analyzed": competitors,
		"detailed_analysis":    detailed,
		"research_timestamp":   time.Now().Format(time.RFC3339),
		"market_insights":      generateMarketInsights(detailed),
	}
}

// extractCompetitors 从项目目标里提取竞品名称
// 找不到具体竞品时按行业回退到通用竞品列表，最多 3 个
func extractCompetitors(projectGoal string) []string {
	goalLower := strings.ToLower(projectGoal)

	var competitors []string
	words := strings.Fields(projectGoal)
	for i, word := range words {
		matched := false
		wordLower := strings.ToLower(word)
		for _, cue := range competitorCues {
			if strings.Contains(wordLower, cue) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		// 线索词后面的大写开头词很可能是公司名
		for j := i + 1; j < len(words) && j < i+4; j++ {
			candidate := strings.Trim(words[j], ".,!?")
			if len(candidate) > 2 && unicode.IsUpper(rune(candidate[0])) {
				competitors = append(competitors, candidate)
			}
		}
	}

	if len(competitors) == 0 {
		switch {
		case strings.Contains(goalLower, "saas") || strings.Contains(goalLower, "software"):
			competitors = []string{"Salesforce", "HubSpot", "Microsoft"}
		case strings.Contains(goalLower, "ecommerce") || strings.Contains(goalLower, "retail"):
			competitors = []string{"Amazon", "Shopify", "BigCommerce"}
		case strings.Contains(goalLower, "startup"):
			competitors = []string{"Y Combinator companies", "TechStars portfolio", "Industry leaders"}
		default:
			competitors = []string{"Market leader", "Key competitor", "Industry incumbent"}
		}
	}

	if len(competitors) > 3 {
		competitors = competitors[:3]
	}
	return competitors
}

// generateMarketInsights 从竞品分析结果提炼可执行的市场洞察
func generateMarketInsights(detailed map[string]any) []string {
	var insights []string

	var highThreat []string
	var firstWeakness string
	for name, raw := range detailed {
		data, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if data["threat_level"] == "high" {
			highThreat = append(highThreat, name)
		}
		if firstWeakness == "" {
			if weaknesses, ok := data["weaknesses"].([]any); ok && len(weaknesses) > 0 {
				if w, ok := weaknesses[0].(string); ok {
					firstWeakness = w
				}
			}
		}
	}

	if len(highThreat) > 0 {
		insights = append(insights, fmt.Sprintf("High-threat competitors identified: %s", strings.Join(highThreat, ", ")))
	}
	if firstWeakness != "" {
		insights = append(insights, fmt.Sprintf("Market gap opportunity: %s", firstWeakness))
	}
	insights = append(insights, "Competitive pricing analysis completed - use for strategic positioning")

	return insights
}
