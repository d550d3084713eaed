package personas

import "strings"

// 回应模式，按消息线索分类注入 prompt
const (
	ModeChallengeOrDebate     = "challenge_or_debate"
	ModeAnswerQuestion        = "answer_question"
	ModeEvaluateAndRespond    = "evaluate_and_respond"
	ModeBuildOnAnalysis       = "build_on_analysis"
	ModeCollaborativeBuilding = "collaborative_building"
)

// 分类线索表，优先级从上到下，先命中先赢
var (
	disagreementCues = []string{"disagree", "but", "however", "instead", "alternative", "different approach"}
	questionCues     = []string{"what do you think", "thoughts", "opinion"}
	proposalCues     = []string{"recommend", "suggest", "propose", "think we should"}
	analysisCues     = []string{"data shows", "research indicates", "analysis", "insights"}
)

// DetermineResponseMode 根据对方消息确定回应模式
// 纯关键词启发式，确定性的，便于测试枚举每个分支
func DetermineResponseMode(messageContent string) string {
	messageLower := strings.ToLower(messageContent)

	for _, cue := range disagreementCues {
		if strings.Contains(messageLower, cue) {
			return ModeChallengeOrDebate
		}
	}

	if strings.Contains(messageContent, "?") {
		return ModeAnswerQuestion
	}
	for _, cue := range questionCues {
		if strings.Contains(messageLower, cue) {
			return ModeAnswerQuestion
		}
	}

	for _, cue := range proposalCues {
		if strings.Contains(messageLower, cue) {
			return ModeEvaluateAndRespond
		}
	}

	for _, cue := range analysisCues {
		if strings.Contains(messageLower, cue) {
			return ModeBuildOnAnalysis
		}
	}

	return ModeCollaborativeBuilding
}

// roleAngles 每个角色的专业切入角度，按优先级排列
var roleAngles = map[string][]string{
	"Market Researcher":            {"competitive intelligence", "consumer behavior analysis", "market sizing", "trend forecasting"},
	"Brand Strategist":             {"brand positioning", "messaging hierarchy", "competitive differentiation", "brand architecture"},
	"Creative Director":            {"visual storytelling", "creative concept development", "brand expression", "campaign ideation"},
	"Media Planner":                {"channel optimization", "budget allocation", "media mix modeling", "reach and frequency"},
	"Data Analyst":                 {"performance metrics", "ROI analysis", "attribution modeling", "predictive analytics"},
	"Content Strategist":           {"editorial strategy", "SEO optimization", "content distribution", "audience engagement"},
	"Customer Insights Specialist": {"user journey mapping", "persona development", "behavioral segmentation", "customer lifetime value"},
	"Implementation Specialist":    {"project management", "timeline optimization", "resource allocation", "execution planning"},
	"Angel Investor":               {"investment thesis", "market opportunity", "scalability assessment", "funding strategy"},
}

// UniqueExpertiseAngle 选出一个未被讨论过的专业角度
// 返回第一个所有关键词都不在 discussed 里的角度；全被讨论过则回退到第一个
func UniqueExpertiseAngle(role string, discussed map[string]bool) string {
	available, ok := roleAngles[role]
	if !ok {
		return "strategic analysis"
	}

	for _, angle := range available {
		covered := false
		for _, keyword := range strings.Fields(angle) {
			if discussed[keyword] {
				covered = true
				break
			}
		}
		if !covered {
			return angle
		}
	}

	return available[0]
}
