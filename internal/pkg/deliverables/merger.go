package deliverables

import (
	"sort"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// FeedbackHistoryKey 交付物集合里保留给反馈记录的键
const FeedbackHistoryKey = "feedback_history"

// ownershipAreas 每个角色独占的交付物领域
// 键是角色显示名，匹配时按宽松子串规则处理
var ownershipAreas = map[string][]string{
	"Market Researcher":         {"competitive_analysis", "market_insights", "competitor_threats", "market_positioning_opportunity", "competitive_threats", "market_intelligence"},
	"Brand Strategist":          {"brand_positioning", "messaging_framework", "brand_story", "brand_equity_goals", "differentiation_strategy"},
	"Creative Director":         {"creative_concepts", "creative_system", "virality_factors", "emotional_storytelling", "concept_"},
	"Media Planner":             {"media_strategy", "channel_optimization", "budget_allocation", "reach_frequency"},
	"Data Analyst":              {"kpi_framework", "attribution_model", "conversion_optimization", "predictive_", "primary_kpis", "dashboard_structure"},
	"Content Strategist":        {"content_strategy", "editorial_strategy", "seo_optimization", "content_distribution"},
	"Customer Insights":         {"user_personas", "customer_journey", "behavioral_analysis", "user_experience"},
	"Implementation Specialist": {"execution_plan", "resource_requirements", "risk_mitigation", "phase_", "timeline", "budget", "content_plan", "kpis", "checklist"},
	"Angel Investor":            {"investment_", "funding_", "valuation_", "roi_"},
}

// FeedbackRecord 一次反馈迭代的记录
type FeedbackRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	UserFeedback     string    `json:"user_feedback"`
	RequestedChanges []string  `json:"requested_changes"`
	RespondingAgents []string  `json:"agents_responded"`
}

// FilterForOwnership 按角色的独占领域过滤交付物
// 没配置领域的角色全量通过；过滤后为空但输入非空时保底保留一个键
func FilterForOwnership(agentRole string, raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	allowed := lookupAreas(agentRole)
	if allowed == nil {
		// 角色没有配置独占领域，原样通过
		result := make(map[string]any, len(raw))
		for k, v := range raw {
			result[k] = v
		}
		return result
	}

	filtered := make(map[string]any)
	for key, value := range raw {
		keyLower := strings.ToLower(key)
		for _, area := range allowed {
			if strings.Contains(keyLower, area) {
				filtered[key] = value
				break
			}
		}
	}

	// 保底：全被过滤掉时保留排序后的第一个键
	if len(filtered) == 0 {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		first := keys[0]
		filtered[first] = raw[first]
		klog.V(6).Infof("交付物全部被过滤，保底保留: role=%s, key=%s", agentRole, first)
	}

	return filtered
}

// lookupAreas 按宽松子串规则查找角色的独占领域
// 已知边界情况：共享词的角色名可能互相误匹配，按原行为保留
func lookupAreas(agentRole string) []string {
	if areas, ok := ownershipAreas[agentRole]; ok {
		return areas
	}

	for roleKey, areas := range ownershipAreas {
		if strings.Contains(agentRole, roleKey) {
			return areas
		}
		for _, part := range strings.Fields(roleKey) {
			if strings.Contains(agentRole, part) {
				return areas
			}
		}
	}
	return nil
}

// Merger 项目级交付物集合
// 一个协作会话持有一个实例，按 agent 身份分片写入
type Merger struct {
	mu       sync.RWMutex
	data     map[string]map[string]any
	feedback []FeedbackRecord
}

// NewMerger 创建交付物集合
func NewMerger() *Merger {
	return &Merger{
		data: make(map[string]map[string]any),
	}
}

// Merge 将 newData 浅合并进指定 agent 的交付物，后写覆盖先写
func (m *Merger) Merge(agentID string, newData map[string]any) {
	if len(newData) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[agentID] == nil {
		m.data[agentID] = make(map[string]any)
	}
	for key, value := range newData {
		m.data[agentID][key] = value
	}
}

// MergeFiltered 先按角色过滤再合并
func (m *Merger) MergeFiltered(agentID, agentRole string, raw map[string]any) {
	m.Merge(agentID, FilterForOwnership(agentRole, raw))
}

// Get 返回指定 agent 的交付物快照
func (m *Merger) Get(agentID string) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry := m.data[agentID]
	if entry == nil {
		return nil
	}
	snapshot := make(map[string]any, len(entry))
	for k, v := range entry {
		snapshot[k] = v
	}
	return snapshot
}

// AppendFeedback 追加一条反馈迭代记录
func (m *Merger) AppendFeedback(record FeedbackRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, record)
}

// FeedbackHistory 返回反馈记录快照
func (m *Merger) FeedbackHistory() []FeedbackRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FeedbackRecord(nil), m.feedback...)
}

// Snapshot 导出完整交付物映射，含 feedback_history 保留键
func (m *Merger) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]any, len(m.data)+1)
	for agentID, entry := range m.data {
		copied := make(map[string]any, len(entry))
		for k, v := range entry {
			copied[k] = v
		}
		result[agentID] = copied
	}
	if len(m.feedback) > 0 {
		result[FeedbackHistoryKey] = append([]FeedbackRecord(nil), m.feedback...)
	}
	return result
}
