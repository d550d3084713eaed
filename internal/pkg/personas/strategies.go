package personas

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
)

// initiationSpecials 人设 ID 到特化开场策略的映射
// 查表代替子类化：没配置的角色走通用路径
var initiationSpecials = map[string]specialInitiation{
	"market_researcher":         marketResearchInitiation,
	"brand_strategist":          brandStrategyInitiation,
	"creative_director":         creativeInitiation,
	"data_analyst":              analyticsInitiation,
	"implementation_specialist": implementationInitiation,
	"investor":                  investmentInitiation,
}

// runSpecialPrompt 执行特化 prompt，失败时返回角色专属的兜底内容
func runSpecialPrompt(ctx context.Context, a *Agent, prompt string, temperature float64, fallback TurnResult) (*TurnResult, bool) {
	response, err := a.Generate(ctx, prompt, temperature)
	if err != nil {
		klog.V(6).Infof("特化开场调用失败，降级: agent=%s, err=%v", a.Name, err)
		return &fallback, true
	}
	result := a.parseTurn(response)
	return &result, true
}

func brandStrategyInitiation(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (*TurnResult, bool) {
	prompt := fmt.Sprintf(`You are Marcus Rivera, a visionary Brand Strategist. Your expertise is creating breakthrough brand positioning that cuts through market noise.

Project: %s

Create a BOLD brand strategy that's completely different from what competitors are doing. Focus on:
1. Unique brand positioning angle (not "quality" or "innovation")
2. Specific messaging framework with 3 pillars
3. Brand differentiation strategy with measurable brand equity goals
4. Authentic brand story that connects emotionally

BE BOLD AND SPECIFIC - no generic "increase brand awareness" - give exact positioning strategies.

Respond in JSON format:
{
    "message": "Here's my breakthrough brand positioning strategy...",
    "action_taken": "breakthrough_brand_positioning",
    "deliverables": {
        "brand_positioning": "Specific unique position in market (not generic)",
        "messaging_framework": "3-pillar messaging architecture with specific themes",
        "differentiation_strategy": "Concrete ways to stand apart from all competitors",
        "brand_story": "Authentic narrative that drives emotional connection",
        "brand_equity_goals": "Measurable brand value targets (awareness %%, sentiment scores, etc.)"
    },
    "insights": ["Brand insight 1 with specific market angle", "Brand insight 2 with differentiation focus"],
    "questions_for_team": ["How do we ensure this positioning is sustainable long-term?", "What budget allocation supports this brand differentiation?"]
}`, projectContext)

	return runSpecialPrompt(ctx, a, prompt, 0.8, TurnResult{
		Message:     fmt.Sprintf("I'm developing a breakthrough brand positioning strategy for: %s. This won't be another generic 'premium quality' approach - we're going bold.", projectContext),
		ActionTaken: "strategic_brand_architecture",
		Deliverables: map[string]any{
			"brand_positioning":        "Developing unique market position that competitors can't replicate",
			"messaging_framework":      "Building 3-pillar messaging architecture for consistent communication",
			"differentiation_strategy": "Creating sustainable competitive brand advantages",
			"brand_story":              "Crafting authentic narrative for emotional market connection",
			"brand_equity_goals":       "Setting measurable brand value and recognition targets",
		},
		Insights:         []string{"Brand differentiation must be authentic and defensible", "Emotional connection drives premium pricing power"},
		QuestionsForTeam: []string{"What's our brand's authentic truth that competitors can't copy?", "How do we measure brand equity growth over time?"},
	})
}

func creativeInitiation(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (*TurnResult, bool) {
	prompt := fmt.Sprintf(`You are Elena Vasquez, a fearless Creative Director known for creating campaigns that people actually remember and share.

Project: %s

Create BREAKTHROUGH creative concepts that will cut through the noise. NO boring corporate marketing - we need ideas that:
1. Make people stop scrolling and pay attention
2. Generate organic social sharing and word-of-mouth
3. Create emotional connection, not just awareness
4. Work across all platforms with adaptation, not duplication

Give me 3 BOLD creative concepts with specific execution details.

Respond in JSON format:
{
    "message": "Here are 3 breakthrough creative concepts that will dominate attention...",
    "action_taken": "breakthrough_creative_development",
    "deliverables": {
        "concept_1": {"name": "Specific creative concept name", "description": "What makes this concept breakthrough and sharable", "execution": "How this gets executed across platforms", "emotional_hook": "What emotion this triggers in audience"},
        "concept_2": {"name": "Second creative concept name", "description": "Why this concept will generate buzz", "execution": "Specific tactical execution plan", "emotional_hook": "Emotional response this creates"},
        "concept_3": {"name": "Third creative concept name", "description": "How this concept differentiates from competition", "execution": "Multi-platform execution strategy", "emotional_hook": "Core emotional driver"},
        "creative_system": "How these concepts work together as a cohesive creative system",
        "virality_factors": "Specific elements designed to drive organic sharing"
    },
    "insights": ["Creative insight about breakthrough attention-getting", "Insight about emotional connection driving sharing"],
    "questions_for_team": ["Which concept has highest viral potential?", "What creative budget supports breakthrough execution?"]
}`, projectContext)

	return runSpecialPrompt(ctx, a, prompt, 0.9, TurnResult{
		Message:     fmt.Sprintf("I'm developing breakthrough creative concepts for: %s. We're not doing another boring corporate campaign - these concepts will demand attention.", projectContext),
		ActionTaken: "breakthrough_creative_architecture",
		Deliverables: map[string]any{
			"creative_concepts":         "3 breakthrough concepts designed for viral sharing",
			"emotional_storytelling":    "Narrative frameworks that create deep connection",
			"attention_architecture":    "Creative systems designed to stop scrolling and drive engagement",
			"cross_platform_adaptation": "How concepts scale across all marketing channels",
			"shareability_design":       "Elements specifically crafted for organic amplification",
		},
		Insights:         []string{"Breakthrough creative requires emotional courage", "Shareable content solves problems or sparks emotions"},
		QuestionsForTeam: []string{"Are we brave enough to stand out from competitors?", "What's our creative risk tolerance?"},
	})
}

func analyticsInitiation(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (*TurnResult, bool) {
	prompt := fmt.Sprintf(`You are Priya Patel, a data analyst who uncovers business growth opportunities through advanced analytics.

Project: %s

Design a comprehensive measurement framework with SPECIFIC metrics. No generic "track ROI" - give exact:
1. Primary KPIs with target numbers and benchmarks
2. Attribution model recommendations for this specific business
3. Conversion optimization opportunities with expected impact
4. Predictive analytics approach for scaling
5. Real-time dashboard structure

Be SPECIFIC with numbers, percentages, and measurement methods.

Respond in JSON format:
{
    "message": "Here's the advanced analytics framework that will drive growth optimization...",
    "action_taken": "advanced_analytics_architecture",
    "deliverables": {
        "primary_kpis": {
            "metric_1": {"name": "Specific KPI name", "target": "Exact target number", "benchmark": "Industry benchmark"},
            "metric_2": {"name": "Second KPI name", "target": "Specific target", "benchmark": "Comparison standard"},
            "metric_3": {"name": "Third KPI name", "target": "Numerical target", "benchmark": "Industry average"}
        },
        "attribution_model": "Specific attribution approach for this business model",
        "conversion_optimization": {
            "opportunity_1": "Specific optimization with %% impact estimate",
            "opportunity_2": "Second optimization with expected improvement",
            "opportunity_3": "Third optimization with quantified results"
        },
        "predictive_framework": "Machine learning approach for scaling predictions",
        "dashboard_structure": "Real-time monitoring system with specific metrics"
    },
    "insights": ["Data insight with specific statistical finding", "Analytics insight with business impact quantification"],
    "questions_for_team": ["What's our minimum acceptable statistical significance level?", "Which metrics drive the highest business value?"]
}`, projectContext)

	return runSpecialPrompt(ctx, a, prompt, 0.6, TurnResult{
		Message:     fmt.Sprintf("I'm building an advanced analytics framework for: %s. We'll track specific metrics that drive business growth, not vanity metrics.", projectContext),
		ActionTaken: "performance_measurement_architecture",
		Deliverables: map[string]any{
			"kpi_framework":           "Primary metrics with specific targets and industry benchmarks",
			"attribution_modeling":    "Advanced attribution system for accurate ROI measurement",
			"conversion_optimization": "Data-driven opportunities to improve performance by 20-40%",
			"predictive_analytics":    "Machine learning framework for scaling predictions",
			"real_time_dashboard":     "Live performance monitoring with actionable insights",
		},
		Insights:         []string{"Focus on metrics that directly correlate with revenue growth", "Attribution models must account for multi-touch customer journeys"},
		QuestionsForTeam: []string{"What's our customer acquisition cost threshold?", "Which conversion metrics drive highest LTV?"},
	})
}

func implementationInitiation(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (*TurnResult, bool) {
	prompt := fmt.Sprintf(`You are %s, the Implementation Specialist who turns strategies into executed results.

Project: %s

Previous strategic discussions:
%s

Create a DETAILED, WEEK-BY-WEEK execution plan with:
- Specific timeline with actual dates (start next Monday)
- Exact budget allocations with line-item costs
- Detailed task assignments with owners
- Risk mitigation with backup plans
- Success metrics with measurement intervals

Be EXTREMELY specific - this plan should be executable immediately.

Respond in JSON format:
{
    "message": "Here's the week-by-week execution roadmap with specific tasks and owners...",
    "action_taken": "detailed_execution_planning",
    "deliverables": {
        "phase_1_foundation": {"weeks": "Week 1-2", "budget": "Exact dollar amounts for setup", "tasks": ["Specific task 1 with owner", "Specific task 2 with deadline", "Specific task 3 with deliverable"], "success_criteria": "Measurable completion metrics"},
        "phase_2_launch": {"weeks": "Week 3-6", "budget": "Specific spending allocation", "tasks": ["Launch task 1", "Launch task 2", "Launch task 3"], "success_criteria": "Launch performance benchmarks"},
        "phase_3_optimization": {"weeks": "Week 7-12", "budget": "Optimization budget allocation", "tasks": ["Optimization task 1", "Optimization task 2", "Optimization task 3"], "success_criteria": "Performance improvement targets"},
        "resource_requirements": "Exact team requirements and external vendors needed",
        "risk_mitigation": "Specific backup plans for potential issues"
    },
    "insights": ["Implementation insight with execution timeline", "Resource insight with specific requirements"],
    "questions_for_team": ["Who owns each implementation phase?", "What's our go-live date for phase 1?"]
}`, a.Name, projectContext, formatHistory(history))

	return runSpecialPrompt(ctx, a, prompt, 0.6, TurnResult{
		Message:     fmt.Sprintf("I'm creating a detailed implementation plan for: %s", projectContext),
		ActionTaken: "implementation_planning",
		Deliverables: map[string]any{
			"timeline":     "12-week implementation roadmap",
			"budget":       "Cost breakdown by channel and activity",
			"content_plan": "Detailed content calendar with specific deliverables",
			"kpis":         "Measurable success metrics with target numbers",
			"checklist":    "Step-by-step implementation guide",
		},
		Insights:         []string{"Focus on concrete deliverables over high-level strategy"},
		QuestionsForTeam: []string{"What's our budget range?", "What's our timeline?"},
	})
}

func investmentInitiation(ctx context.Context, a *Agent, projectContext string, history []HistoryMessage) (*TurnResult, bool) {
	prompt := fmt.Sprintf(`You are %s, a %s. Your job is to evaluate the business opportunity from an investment perspective.

Business/Project: %s

Previous strategic discussions:
%s

Analyze this from an investor's viewpoint. Consider:
- Market size and opportunity
- Potential investment amounts you'd consider
- Expected ROI and timeline
- Risk factors and mitigation strategies
- Funding stages (seed, Series A, etc.)
- Valuation considerations

Respond in JSON format:
{
    "message": "Here's my investment analysis and funding perspective...",
    "action_taken": "investment_analysis",
    "deliverables": {
        "investment_range": "Potential investment amounts I'd consider (e.g., $50K - $500K seed round)",
        "valuation_assessment": "Business valuation range based on market opportunity",
        "funding_stages": "Recommended funding progression (seed, Series A, B, etc.)",
        "roi_expectations": "Expected return timeline and multiples",
        "investment_terms": "Key terms and conditions I'd require"
    },
    "insights": ["Market opportunity assessment", "Investment readiness evaluation"],
    "questions_for_team": ["What's the revenue model?", "What's the go-to-market timeline?", "What are the key growth metrics?"]
}`, a.Name, a.Role, projectContext, formatHistory(history))

	return runSpecialPrompt(ctx, a, prompt, 0.6, TurnResult{
		Message:     fmt.Sprintf("As an investor, I'm evaluating the funding potential for: %s", projectContext),
		ActionTaken: "investment_evaluation",
		Deliverables: map[string]any{
			"investment_range": "$100K - $2M depending on stage and traction",
			"valuation_range":  "Based on revenue multiples and market comparables",
			"funding_strategy": "Multi-stage approach starting with seed funding",
			"roi_timeline":     "3-7 year exit strategy with 10x+ return target",
			"due_diligence":    "Financial model, market validation, team assessment",
		},
		Insights:         []string{"Focus on scalable revenue model", "Market size is critical for investment decision"},
		QuestionsForTeam: []string{"What's the total addressable market?", "What's the customer acquisition cost?"},
	})
}
