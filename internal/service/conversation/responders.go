package conversation

import (
	"math/rand"
	"strings"

	"github.com/agentcrew/backend/internal/pkg/personas"
)

// 讨论话题关键词到偏好人设的映射，按声明顺序匹配
var responderPreferences = []struct {
	keyword   string
	preferred []string
}{
	{"market", []string{"market_researcher", "customer_insights"}},
	{"brand", []string{"brand_strategist", "creative_director"}},
	{"creative", []string{"creative_director", "content_strategist"}},
	{"media", []string{"media_planner", "data_analyst"}},
	{"data", []string{"data_analyst", "market_researcher"}},
	{"content", []string{"content_strategist", "brand_strategist"}},
	{"customer", []string{"customer_insights", "market_researcher"}},
}

// 问题关键词到专家人设的映射，按声明顺序匹配
var questionExperts = []struct {
	keyword string
	expert  string
}{
	{"market", "market_researcher"},
	{"audience", "customer_insights"},
	{"competitor", "market_researcher"},
	{"brand", "brand_strategist"},
	{"creative", "creative_director"},
	{"design", "creative_director"},
	{"media", "media_planner"},
	{"budget", "media_planner"},
	{"data", "data_analyst"},
	{"analytics", "data_analyst"},
	{"content", "content_strategist"},
	{"customer", "customer_insights"},
	{"user", "customer_insights"},
}

// findBestResponder 按贡献点里的专业关键词挑一个最合适的回应者
// 没有匹配时随机挑一个非挑战方的 agent
func (s *Session) findBestResponder(challenger, contribution string) *personas.Agent {
	available := s.agentsExcept(challenger)
	if len(available) == 0 {
		return nil
	}

	contributionLower := strings.ToLower(contribution)
	for _, pref := range responderPreferences {
		if !strings.Contains(contributionLower, pref.keyword) {
			continue
		}
		for _, agent := range available {
			for _, id := range pref.preferred {
				if agent.ID == id {
					return agent
				}
			}
		}
	}

	return s.randomAgent(available)
}

// findExpertForQuestion 按问题关键词挑最相关的专家
func (s *Session) findExpertForQuestion(question, questioner string) *personas.Agent {
	available := s.agentsExcept(questioner)
	if len(available) == 0 {
		return nil
	}

	questionLower := strings.ToLower(question)
	for _, qe := range questionExperts {
		if !strings.Contains(questionLower, qe.keyword) {
			continue
		}
		for _, agent := range available {
			if agent.ID == qe.expert {
				return agent
			}
		}
	}

	return s.randomAgent(available)
}

// findFreshPerspectiveAgent 挑一个最近三条消息里没发言的 agent
// 全员都发过言时退化为非上一发言者中随机挑一个
func (s *Session) findFreshPerspectiveAgent(lastSpeaker string) *personas.Agent {
	recentSpeakers := make(map[string]bool)
	for _, entry := range s.recentEntries(3) {
		if entry.AgentName != "System" {
			recentSpeakers[entry.AgentName] = true
		}
	}

	var fresh []*personas.Agent
	for _, agent := range s.agents {
		if !recentSpeakers[agent.Name] {
			fresh = append(fresh, agent)
		}
	}
	if len(fresh) > 0 {
		return s.randomAgent(fresh)
	}

	return s.randomAgent(s.agentsExcept(lastSpeaker))
}

func (s *Session) agentsExcept(name string) []*personas.Agent {
	var result []*personas.Agent
	for _, agent := range s.agents {
		if agent.Name != name {
			result = append(result, agent)
		}
	}
	return result
}

func (s *Session) randomAgent(candidates []*personas.Agent) *personas.Agent {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}
