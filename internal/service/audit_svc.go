package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

// ==================== 请求元信息 ====================

// RequestMeta 审计需要的请求元信息
// 在中间件/控制器入口处收集一次，沿调用链透传
type RequestMeta struct {
	Endpoint  string
	Method    string
	OriginIP  string
	UserAgent string
}

// ==================== 审计服务 ====================

// AuditService 安全审计服务
// Record 永不阻塞、永不失败调用方：同步打一条结构化日志保证即时可见，
// 持久化走有界队列 + 后台 worker，队列满时丢弃并累计丢弃数
// （源系统的裸 goroutine 写库在高负载下会静默丢事件，这里改成显式队列）
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger

	queue   chan *model.AuditEvent
	dropped atomic.Int64

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewAuditService 创建审计服务并启动持久化 worker
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	s := &AuditService{
		repo:   repo,
		logger: logger,
		queue:  make(chan *model.AuditEvent, 1024),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

// Record 记录一条审计事件（fire-and-forget）
// storeID: 请求解析出的租户（可空）
// attemptedStoreID: 被访问资源的归属租户（可空）
func (s *AuditService) Record(kind string, meta RequestMeta, storeID, attemptedStoreID *int64, detail map[string]interface{}) {
	// 1. 同步日志，保证运维即时可见（持久化是异步的，不保证顺序）
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("endpoint", meta.Endpoint),
		zap.String("method", meta.Method),
		zap.String("origin_ip", meta.OriginIP),
	}
	if storeID != nil {
		fields = append(fields, zap.Int64("store_id", *storeID))
	}
	if attemptedStoreID != nil {
		fields = append(fields, zap.Int64("attempted_store_id", *attemptedStoreID))
	}
	if len(detail) > 0 {
		fields = append(fields, zap.Any("detail", detail))
	}
	s.logger.Warn("[Audit] "+kind, fields...)

	// 2. 异步持久化
	event := &model.AuditEvent{
		Kind:             kind,
		StoreID:          storeID,
		AttemptedStoreID: attemptedStoreID,
		Endpoint:         meta.Endpoint,
		Method:           meta.Method,
		OriginIP:         meta.OriginIP,
		UserAgent:        meta.UserAgent,
		Detail:           datatypes.JSONMap(detail),
		CreatedAt:        time.Now(),
	}

	if s.closed.Load() {
		return
	}

	select {
	case s.queue <- event:
	default:
		// 队列满：丢弃并计数，绝不阻塞业务请求
		n := s.dropped.Add(1)
		s.logger.Error("[Audit] 持久化队列已满，事件被丢弃",
			zap.String("kind", kind),
			zap.Int64("total_dropped", n))
	}
}

// Dropped 累计丢弃的事件数（监控用）
func (s *AuditService) Dropped() int64 {
	return s.dropped.Load()
}

// worker 后台持久化循环
func (s *AuditService) worker() {
	for event := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Create(ctx, event); err != nil {
			// 写库失败只记日志，不重试不上抛
			s.logger.Error("[Audit] 事件持久化失败",
				zap.String("kind", event.Kind),
				zap.Error(err))
		}
		cancel()
	}
	close(s.done)
}

// Close 停止接收新事件并等待队列排空（进程退出前调用）
func (s *AuditService) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.queue)
		select {
		case <-s.done:
		case <-time.After(10 * time.Second):
			s.logger.Warn("[Audit] 等待队列排空超时")
		}
	})
}
