package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// SessionRunner 执行一次协作会话
type SessionRunner interface {
	RunSession(ctx context.Context, sessionID string) error
}

var (
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)

// Scheduler 协作会话调度器
// 限制同时运行的会话数，超出的提交排队等待空闲 worker
type Scheduler struct {
	pool   *ants.Pool
	runner SessionRunner

	timeout time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	activeCancellations map[string]context.CancelFunc
	cancelMutex         sync.Mutex
}

func NewScheduler(maxWorkers int, timeout time.Duration, runner SessionRunner) (*Scheduler, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(100),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}

	return &Scheduler{
		pool:                pool,
		runner:              runner,
		timeout:             timeout,
		ctx:                 ctx,
		cancel:              cancel,
		activeCancellations: make(map[string]context.CancelFunc),
	}, nil
}

// Submit 提交一个会话执行，worker 满时阻塞排队
func (s *Scheduler) Submit(sessionID string) error {
	select {
	case <-s.ctx.Done():
		return ErrSchedulerStopped
	default:
	}

	if err := s.pool.Submit(func() {
		s.runSession(sessionID)
	}); err != nil {
		klog.Errorf("提交会话到协程池失败: sessionID=%s, err=%v", sessionID, err)
		return err
	}

	klog.V(6).Infof("会话已入队: sessionID=%s", sessionID)
	return nil
}

func (s *Scheduler) runSession(sessionID string) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("会话执行 panic 已恢复: sessionID=%s, err=%v", sessionID, r)
			s.unregisterCancel(sessionID)
		}
	}()

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	runCtx, manualCancel := context.WithCancel(ctx)
	defer manualCancel()

	s.registerCancel(sessionID, manualCancel)
	defer s.unregisterCancel(sessionID)

	if err := s.runner.RunSession(runCtx, sessionID); err != nil {
		klog.Warningf("会话执行失败: sessionID=%s, err=%v", sessionID, err)
		return
	}
	klog.V(6).Infof("会话执行完成: sessionID=%s", sessionID)
}

func (s *Scheduler) registerCancel(sessionID string, cancel context.CancelFunc) {
	s.cancelMutex.Lock()
	defer s.cancelMutex.Unlock()
	s.activeCancellations[sessionID] = cancel
}

func (s *Scheduler) unregisterCancel(sessionID string) {
	s.cancelMutex.Lock()
	defer s.cancelMutex.Unlock()
	delete(s.activeCancellations, sessionID)
}

// Cancel 取消正在执行的会话，不存在时返回 false
func (s *Scheduler) Cancel(sessionID string) bool {
	s.cancelMutex.Lock()
	cancel, ok := s.activeCancellations[sessionID]
	s.cancelMutex.Unlock()
	if !ok {
		return false
	}

	klog.V(6).Infof("取消会话: sessionID=%s", sessionID)
	cancel()
	return true
}

// Running 返回当前执行中的会话数
func (s *Scheduler) Running() int {
	return s.pool.Running()
}

// Stop 停止调度器并等待执行中的会话收尾
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		klog.V(6).Infof("调度器停止中...")
		s.cancel()

		if err := s.pool.ReleaseTimeout(time.Minute); err != nil {
			klog.Warningf("调度器停止超时，部分会话可能被强制中断: %v", err)
		}
		klog.V(6).Infof("调度器已停止")
	})
}
