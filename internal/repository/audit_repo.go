package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// AuditRepository 审计事件仓储接口
// 只追加：没有 Update/Delete，运维端只读消费
type AuditRepository interface {
	Create(ctx context.Context, event *model.AuditEvent) error
	ListRecent(ctx context.Context, filter AuditFilter) ([]model.AuditEvent, error)
	CountByKind(ctx context.Context, kind string, since time.Time) (int64, error)
}

// ==================== 过滤条件 ====================

// AuditFilter 审计事件过滤条件
type AuditFilter struct {
	Kind    string
	StoreID int64 // 0 表示不筛选
	Since   time.Time
	Limit   int
}

// ==================== 仓储实现 ====================

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计事件仓储
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, event *model.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *auditRepo) ListRecent(ctx context.Context, filter AuditFilter) ([]model.AuditEvent, error) {
	var events []model.AuditEvent

	query := r.db.WithContext(ctx).Model(&model.AuditEvent{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	err := query.Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}

func (r *auditRepo) CountByKind(ctx context.Context, kind string, since time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.AuditEvent{}).Where("kind = ?", kind)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := query.Count(&count).Error
	return count, err
}
