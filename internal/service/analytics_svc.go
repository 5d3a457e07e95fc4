package service

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

// AnalyticsService 访客行为事件服务
// 写入端来自代理路由，读取端来自商家面板；聚合报表在独立查询模块，
// 这里只做采集和简单列表/计数
type AnalyticsService struct {
	AnalyticsRepo repository.AnalyticsRepository
	guard         *Guard
}

// NewAnalyticsService 创建行为事件服务
func NewAnalyticsService(repo repository.AnalyticsRepository, guard *Guard) *AnalyticsService {
	return &AnalyticsService{
		AnalyticsRepo: repo,
		guard:         guard,
	}
}

// ==================== 采集 ====================

// TrackInput 单条事件入参
type TrackInput struct {
	PageID    int64
	EventType string
	VisitorID string
	SessionID string
	Referrer  string
	Meta      map[string]interface{}
}

// Track 记录一条访客事件（代理端，店铺上下文必须已解析）
func (s *AnalyticsService) Track(ctx context.Context, storeCtx *model.StoreContext, input TrackInput, meta RequestMeta) error {
	if storeCtx == nil {
		return ErrUnauthorized
	}

	event := &model.AnalyticsEvent{
		StoreID:   storeCtx.StoreID,
		PageID:    input.PageID,
		EventType: input.EventType,
		VisitorID: input.VisitorID,
		SessionID: input.SessionID,
		Referrer:  input.Referrer,
		UserAgent: meta.UserAgent,
		Meta:      datatypes.JSONMap(input.Meta),
		CreatedAt: time.Now(),
	}
	return s.AnalyticsRepo.Create(ctx, event)
}

// ==================== 商家端查询 ====================

// ListEvents 查事件列表
func (s *AnalyticsService) ListEvents(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, filter repository.AnalyticsFilter) ([]model.AnalyticsEvent, int64, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, 0, err
	}

	filter.StoreID = storeCtx.StoreID
	return s.AnalyticsRepo.List(ctx, filter)
}

// CountByType 按类型计数（面板顶部卡片用）
func (s *AnalyticsService) CountByType(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, eventType string, since time.Time) (int64, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return 0, err
	}
	return s.AnalyticsRepo.CountByType(ctx, storeCtx.StoreID, eventType, since)
}
