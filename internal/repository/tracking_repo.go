package repository

import (
	"context"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// TrackingRepository 追踪号码仓储接口
type TrackingRepository interface {
	Create(ctx context.Context, number *model.TrackingNumber) error
	GetByID(ctx context.Context, id int64) (*model.TrackingNumber, error)
	Update(ctx context.Context, number *model.TrackingNumber) error
	Delete(ctx context.Context, id int64) error
	ListByStore(ctx context.Context, storeID int64) ([]model.TrackingNumber, error)
}

// ==================== 仓储实现 ====================

type trackingRepo struct {
	db *gorm.DB
}

// NewTrackingRepository 创建追踪号码仓储
func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepo{db: db}
}

func (r *trackingRepo) Create(ctx context.Context, number *model.TrackingNumber) error {
	return r.db.WithContext(ctx).Create(number).Error
}

func (r *trackingRepo) GetByID(ctx context.Context, id int64) (*model.TrackingNumber, error) {
	var number model.TrackingNumber
	if err := r.db.WithContext(ctx).First(&number, id).Error; err != nil {
		return nil, err
	}
	return &number, nil
}

func (r *trackingRepo) Update(ctx context.Context, number *model.TrackingNumber) error {
	return r.db.WithContext(ctx).Save(number).Error
}

func (r *trackingRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.TrackingNumber{}, id).Error
}

func (r *trackingRepo) ListByStore(ctx context.Context, storeID int64) ([]model.TrackingNumber, error) {
	var numbers []model.TrackingNumber
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("id DESC").
		Find(&numbers).Error
	return numbers, err
}
