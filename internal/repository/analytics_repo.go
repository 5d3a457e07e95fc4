package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// AnalyticsRepository 行为事件仓储接口
// 事件表只追加，没有 Update/Delete
type AnalyticsRepository interface {
	Create(ctx context.Context, event *model.AnalyticsEvent) error
	BatchCreate(ctx context.Context, events []model.AnalyticsEvent) error

	List(ctx context.Context, filter AnalyticsFilter) ([]model.AnalyticsEvent, int64, error)
	CountByType(ctx context.Context, storeID int64, eventType string, since time.Time) (int64, error)
}

// ==================== 过滤条件 ====================

// AnalyticsFilter 事件过滤条件
type AnalyticsFilter struct {
	StoreID   int64 // 0 表示不筛选
	PageID    int64
	EventType string
	Since     time.Time
	Page      int
	PageSize  int
}

// ==================== 仓储实现 ====================

type analyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建行为事件仓储
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db: db}
}

func (r *analyticsRepo) Create(ctx context.Context, event *model.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *analyticsRepo) BatchCreate(ctx context.Context, events []model.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	// 分批插入，防止单条 SQL 过大
	return r.db.WithContext(ctx).CreateInBatches(events, 500).Error
}

func (r *analyticsRepo) List(ctx context.Context, filter AnalyticsFilter) ([]model.AnalyticsEvent, int64, error) {
	var events []model.AnalyticsEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AnalyticsEvent{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.PageID > 0 {
		query = query.Where("page_id = ?", filter.PageID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("id DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *analyticsRepo) CountByType(ctx context.Context, storeID int64, eventType string, since time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Where("store_id = ? AND event_type = ?", storeID, eventType)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := query.Count(&count).Error
	return count, err
}
