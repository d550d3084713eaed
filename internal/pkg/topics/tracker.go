package topics

import (
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// repetitiveIndicators 泛用话题词，重复度判断用
var repetitiveIndicators = []string{
	"budget", "timeline", "strategy", "approach", "plan",
	"recommend", "suggest", "important", "key", "focus",
}

// keyTopics 记录用的核心话题词表
var keyTopics = []string{
	"budget", "timeline", "creative", "data", "media", "content",
	"brand", "market", "customer", "implementation", "roi", "kpi",
}

// Tracker 记录会话中已经讨论过的话题，用于抑制重复发言
// 话题集合只增不减，生命周期与一次协作会话一致
type Tracker struct {
	mu        sync.RWMutex
	discussed map[string]bool
}

// NewTracker 创建话题跟踪器
func NewTracker() *Tracker {
	return &Tracker{
		discussed: make(map[string]bool),
	}
}

// IsRepetitive 判断一条消息是否在重复已讨论过的话题
// 消息里出现超过 2 个"已讨论过"的泛用话题词即视为重复
func (t *Tracker) IsRepetitive(messageText string) bool {
	messageLower := strings.ToLower(messageText)

	t.mu.RLock()
	defer t.mu.RUnlock()

	mentions := 0
	for _, indicator := range repetitiveIndicators {
		if strings.Contains(messageLower, indicator) && t.discussed[indicator] {
			mentions++
		}
	}

	return mentions > 2
}

// RecordContribution 从贡献文本里提取核心话题并标记为已讨论
// 幂等，重复记录无副作用
func (t *Tracker) RecordContribution(contribution string) {
	if contribution == "" {
		return
	}

	contributionLower := strings.ToLower(contribution)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, topic := range keyTopics {
		if strings.Contains(contributionLower, topic) && !t.discussed[topic] {
			t.discussed[topic] = true
			klog.V(6).Infof("话题已标记为讨论过: %s", topic)
		}
	}
}

// Discussed 返回已讨论话题的快照
func (t *Tracker) Discussed() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[string]bool, len(t.discussed))
	for topic := range t.discussed {
		snapshot[topic] = true
	}
	return snapshot
}

// IsDiscussed 判断某个话题关键词是否已讨论
func (t *Tracker) IsDiscussed(topic string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.discussed[strings.ToLower(topic)]
}
