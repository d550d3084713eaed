package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/agentcrew/backend/config"
	"github.com/agentcrew/backend/internal/eventbus"
	"github.com/agentcrew/backend/internal/model"
	"github.com/agentcrew/backend/internal/pkg/llm"
	"github.com/agentcrew/backend/internal/repository"
	"github.com/agentcrew/backend/internal/service/conversation"
	"github.com/agentcrew/backend/internal/service/scheduler"
	"github.com/agentcrew/backend/internal/service/statemachine"
	"github.com/agentcrew/backend/internal/utils"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNotDone  = errors.New("collaboration not finished")
	ErrSessionFailed   = errors.New("collaboration failed")
)

// Service 项目服务
// 维护活跃会话注册表，调度协作执行并把产出落库
type Service struct {
	cfg      *config.Config
	provider llm.Provider
	bus      *eventbus.Bus
	sched    *scheduler.Scheduler

	projects repository.ProjectRepository
	records  repository.RecordRepository

	mu       sync.RWMutex
	sessions map[string]*conversation.Session
}

func NewService(cfg *config.Config, provider llm.Provider, bus *eventbus.Bus, projects repository.ProjectRepository, records repository.RecordRepository) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		provider: provider,
		bus:      bus,
		projects: projects,
		records:  records,
		sessions: make(map[string]*conversation.Session),
	}

	sched, err := scheduler.NewScheduler(cfg.Collaboration.MaxWorkers, 30*time.Minute, s)
	if err != nil {
		return nil, err
	}
	s.sched = sched
	return s, nil
}

// StartCollaboration 创建并调度一次协作，返回会话 ID
// 人设 ID 不合法时整个请求拒绝，不做部分构造
func (s *Service) StartCollaboration(projectGoal string, personaIDs []string) (string, error) {
	session, err := conversation.NewSession(personaIDs, projectGoal, s.provider, s.bus, s.cfg.Collaboration)
	if err != nil {
		return "", err
	}

	record := &model.Project{
		SessionID: session.ID,
		Context:   projectGoal,
		Personas:  strings.Join(personaIDs, ","),
		Status:    string(statemachine.PhasePending),
	}
	if err := s.projects.Create(record); err != nil {
		return "", fmt.Errorf("persist project: %w", err)
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if err := s.sched.Submit(session.ID); err != nil {
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
		// 调度失败的项目不能留在 pending，没有会话会再推进它
		if uerr := s.projects.UpdateStatus(session.ID, string(statemachine.PhaseFailed), 0); uerr != nil {
			klog.Errorf("项目状态更新失败: session=%s, err=%v", session.ID, uerr)
		}
		return "", err
	}

	klog.V(6).Infof("协作已调度: session=%s, personas=%v", session.ID, personaIDs)
	return session.ID, nil
}

// RunSession 调度器回调，执行协作并落库
func (s *Service) RunSession(ctx context.Context, sessionID string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}

	result, err := session.StartCollaboration(ctx)
	if err != nil {
		if uerr := s.projects.UpdateStatus(sessionID, string(statemachine.PhaseFailed), session.Rounds()); uerr != nil {
			klog.Errorf("项目状态更新失败: session=%s, err=%v", sessionID, uerr)
		}
		return err
	}

	s.persistResult(sessionID, result)
	return nil
}

func (s *Service) persistResult(sessionID string, result *conversation.Result) {
	if err := s.projects.UpdateStatus(sessionID, string(statemachine.PhaseDone), result.TotalRounds); err != nil {
		klog.Errorf("项目状态更新失败: session=%s, err=%v", sessionID, err)
	}

	record := &model.CollaborationRecord{
		SessionID:    sessionID,
		ResultJSON:   utils.ToJSON(result),
		Deliverables: utils.ToJSON(result.Deliverables),
		TotalRounds:  result.TotalRounds,
	}
	if err := s.records.Upsert(record); err != nil {
		klog.Errorf("协作产出落库失败: session=%s, err=%v", sessionID, err)
	}
}

// Session 返回活跃会话
func (s *Service) Session(sessionID string) (*conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Status 查询会话状态，活跃会话优先，其次查库
func (s *Service) Status(sessionID string) (*model.Project, error) {
	project, err := s.projects.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}

	if session, serr := s.Session(sessionID); serr == nil {
		project.Status = string(session.Phase())
		project.Rounds = session.Rounds()
	}
	return project, nil
}

// Result 返回协作产出
// 活跃且完成的会话直接出内存结果，否则回放落库的存档
func (s *Service) Result(sessionID string) (*conversation.Result, error) {
	if session, err := s.Session(sessionID); err == nil {
		switch session.Phase() {
		case statemachine.PhaseDone:
			return session.Result(), nil
		case statemachine.PhaseFailed:
			return nil, ErrSessionFailed
		default:
			return nil, ErrSessionNotDone
		}
	}

	record, err := s.records.GetBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var result conversation.Result
	if err := json.Unmarshal([]byte(record.ResultJSON), &result); err != nil {
		return nil, fmt.Errorf("decode stored result: %w", err)
	}
	return &result, nil
}

// ProcessFeedback 把用户反馈转交给活跃会话，并把更新后的产出重新落库
func (s *Service) ProcessFeedback(ctx context.Context, sessionID, userFeedback string, requestedChanges []string) (map[string]any, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase() != statemachine.PhaseDone {
		return nil, ErrSessionNotDone
	}

	snapshot, err := session.ProcessUserFeedback(ctx, userFeedback, requestedChanges)
	if err != nil {
		return nil, err
	}

	s.persistResult(sessionID, session.Result())
	return snapshot, nil
}

// Cancel 取消正在执行的会话
func (s *Service) Cancel(sessionID string) bool {
	return s.sched.Cancel(sessionID)
}

// ListProjects 列出全部项目
func (s *Service) ListProjects() ([]model.Project, error) {
	return s.projects.List()
}

// Stop 停止调度器，等待执行中的会话收尾
func (s *Service) Stop() {
	s.sched.Stop()
}
