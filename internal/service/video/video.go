package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/config"
	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/model"
	"github.com/agentcrew/backend/internal/pkg/deliverables"
	"github.com/agentcrew/backend/internal/pkg/llm"
	"github.com/agentcrew/backend/internal/repository"
	"github.com/agentcrew/backend/internal/service/conversation"
)

// Service 营销视频生成服务
// 从协作交付物提炼脚本，再落一份渲染请求文件等外部工具处理
type Service struct {
	cfg      config.VideoConfig
	provider llm.Provider
	jobs     repository.VideoJobRepository
	bus      *eventbus.Bus
}

func NewService(cfg config.VideoConfig, provider llm.Provider, jobs repository.VideoJobRepository, bus *eventbus.Bus) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		jobs:     jobs,
		bus:      bus,
	}
}

// CreateJob 为一次已完成的协作生成视频任务
// 脚本生成失败时用兜底文案，任务照常入库
func (s *Service) CreateJob(ctx context.Context, sessionID, projectGoal string, delivered map[string]any, agents []conversation.AgentInfo) (*model.VideoJob, error) {
	script := s.GenerateScript(ctx, projectGoal, delivered, agents)

	job := &model.VideoJob{
		SessionID: sessionID,
		Platform:  s.cfg.Platform,
		Script:    script,
		Status:    "scripted",
	}
	if err := s.jobs.Create(job); err != nil {
		return nil, err
	}

	s.requestRender(ctx, job, projectGoal)
	return job, nil
}

// GenerateScript 从交付物提炼 30 秒营销视频脚本
func (s *Service) GenerateScript(ctx context.Context, projectGoal string, delivered map[string]any, agents []conversation.AgentInfo) string {
	insights, budgetInfo, timelineInfo := extractHighlights(delivered, agents)
	if len(insights) > 5 {
		insights = insights[:5]
	}

	team := make([]string, 0, len(agents))
	for _, agent := range agents {
		team = append(team, fmt.Sprintf("%s (%s)", agent.Name, agent.Role))
	}

	prompt := fmt.Sprintf(`Create a compelling 30-second marketing video script for:

PROJECT: %s

TEAM: %s

KEY INSIGHTS: %s

BUDGET: %s
TIMELINE: %s

Create a professional, engaging script that:
1. Opens with an attention-grabbing hook about the project
2. Highlights 2-3 key strategic insights from the AI team
3. Shows the budget/timeline in an exciting way
4. Ends with a strong call-to-action

Format as a script with clear narration. Keep it under 200 words for 30 seconds.
Make it sound professional yet exciting - like a marketing agency presentation.`,
		projectGoal, strings.Join(team, ", "), strings.Join(insights, ", "), budgetInfo, timelineInfo)

	script, err := s.provider.Generate(ctx, prompt, 0.8)
	if err != nil {
		klog.V(6).Infof("视频脚本生成失败，用兜底文案: session goal=%s, err=%v", projectGoal, err)
		return fmt.Sprintf("Professional marketing strategy for %s. Our AI team of experts has developed a comprehensive approach with strategic insights, optimized budget allocation, and clear implementation timeline. Ready to transform your business with data-driven marketing excellence.", projectGoal)
	}
	return strings.TrimSpace(script)
}

// requestRender 落渲染请求文件并标记任务就绪
// 实际渲染交给外部视频工具消费请求文件
func (s *Service) requestRender(ctx context.Context, job *model.VideoJob, projectGoal string) {
	request := map[string]any{
		"session_id":     job.SessionID,
		"script":         job.Script,
		"topic":          projectGoal,
		"vibe":           "professional",
		"targetAudience": targetAudience(projectGoal),
		"platform":       job.Platform,
		"timestamp":      time.Now().Format(time.RFC3339),
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		klog.Errorf("视频输出目录创建失败: dir=%s, err=%v", s.cfg.OutputDir, err)
		job.Status = "failed"
		job.ErrorMsg = err.Error()
		s.saveJob(job)
		return
	}

	payload, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		klog.Errorf("渲染请求序列化失败: session=%s, err=%v", job.SessionID, err)
		job.Status = "failed"
		job.ErrorMsg = err.Error()
		s.saveJob(job)
		return
	}

	requestPath := filepath.Join(s.cfg.OutputDir, job.SessionID+"_render_request.json")
	if err := os.WriteFile(requestPath, payload, 0644); err != nil {
		klog.Errorf("渲染请求文件写入失败: path=%s, err=%v", requestPath, err)
		job.Status = "failed"
		job.ErrorMsg = err.Error()
		s.saveJob(job)
		return
	}

	job.Status = "ready"
	job.OutputPath = requestPath
	s.saveJob(job)

	if s.bus != nil {
		event := eventbus.CollabEvent{
			Type:      eventbus.CollabEventVideoReady,
			SessionID: job.SessionID,
			Data: map[string]any{
				"job_id":      job.ID,
				"script":      job.Script,
				"output_path": job.OutputPath,
			},
			Timestamp: time.Now(),
		}
		if err := s.bus.Publish(ctx, event); err != nil {
			klog.V(6).Infof("video_ready 事件广播失败: session=%s, err=%v", job.SessionID, err)
		}
	}
}

func (s *Service) saveJob(job *model.VideoJob) {
	if err := s.jobs.Save(job); err != nil {
		klog.Errorf("视频任务保存失败: id=%d, err=%v", job.ID, err)
	}
}

// JobsBySession 查询某会话的全部视频任务
func (s *Service) JobsBySession(sessionID string) ([]model.VideoJob, error) {
	return s.jobs.GetBySessionID(sessionID)
}

// extractHighlights 从交付物里抽亮点：实施专家的预算和时间线、各角色最终建议的前两条
func extractHighlights(delivered map[string]any, agents []conversation.AgentInfo) (insights []string, budgetInfo, timelineInfo string) {
	// 按参与者顺序遍历，保证脚本素材顺序稳定
	for _, agent := range agents {
		if agent.Name == deliverables.FeedbackHistoryKey {
			continue
		}
		agentData, ok := delivered[agent.Name].(map[string]any)
		if !ok {
			continue
		}
		finalData, ok := agentData["final"].(map[string]any)
		if !ok {
			continue
		}

		if strings.Contains(agent.Role, "Implementation") {
			if outputs, ok := finalData["key_outputs"].(map[string]any); ok {
				budgetInfo = firstString(outputs, "updated_budget", "budget_breakdown")
				timelineInfo = firstString(outputs, "updated_timeline", "campaign_timeline")
			}
		}

		if recommendations, ok := finalData["recommendations"].([]any); ok {
			for i, rec := range recommendations {
				if i >= 2 {
					break
				}
				if text, ok := rec.(string); ok {
					insights = append(insights, text)
				}
			}
		}
	}
	return insights, budgetInfo, timelineInfo
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := m[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// targetAudience 按项目目标推断视频受众
func targetAudience(projectGoal string) string {
	goalLower := strings.ToLower(projectGoal)
	switch {
	case strings.Contains(goalLower, "startup"):
		return "entrepreneurs and startup founders"
	case strings.Contains(goalLower, "ecommerce"):
		return "online retailers and business owners"
	case strings.Contains(goalLower, "saas"):
		return "software companies and tech professionals"
	default:
		return "business professionals and marketing decision makers"
	}
}
