package repository

import (
	"context"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// ABTestRepository A/B 测试仓储接口
type ABTestRepository interface {
	Create(ctx context.Context, test *model.ABTest) error
	GetByID(ctx context.Context, id int64) (*model.ABTest, error)
	GetByIDWithVariants(ctx context.Context, id int64) (*model.ABTest, error)
	Update(ctx context.Context, test *model.ABTest) error
	UpdateStatus(ctx context.Context, id int64, status int) error
	Delete(ctx context.Context, id int64) error
	ListByStore(ctx context.Context, storeID int64) ([]model.ABTest, error)

	// 变体
	CreateVariant(ctx context.Context, variant *model.ABTestVariant) error
	GetVariant(ctx context.Context, id int64) (*model.ABTestVariant, error)
	DeleteVariant(ctx context.Context, id int64) error

	// 统计计数，必须原子递增（并发请求共享计数）
	IncrementImpression(ctx context.Context, variantID int64) error
	IncrementConversion(ctx context.Context, variantID int64) error
}

// ==================== 仓储实现 ====================

type abTestRepo struct {
	db *gorm.DB
}

// NewABTestRepository 创建 A/B 测试仓储
func NewABTestRepository(db *gorm.DB) ABTestRepository {
	return &abTestRepo{db: db}
}

func (r *abTestRepo) Create(ctx context.Context, test *model.ABTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *abTestRepo) GetByID(ctx context.Context, id int64) (*model.ABTest, error) {
	var test model.ABTest
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *abTestRepo) GetByIDWithVariants(ctx context.Context, id int64) (*model.ABTest, error) {
	var test model.ABTest
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *abTestRepo) Update(ctx context.Context, test *model.ABTest) error {
	return r.db.WithContext(ctx).Save(test).Error
}

func (r *abTestRepo) UpdateStatus(ctx context.Context, id int64, status int) error {
	return r.db.WithContext(ctx).Model(&model.ABTest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *abTestRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ABTest{}, id).Error
}

func (r *abTestRepo) ListByStore(ctx context.Context, storeID int64) ([]model.ABTest, error) {
	var tests []model.ABTest
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("store_id = ?", storeID).
		Order("id DESC").
		Find(&tests).Error
	return tests, err
}

func (r *abTestRepo) CreateVariant(ctx context.Context, variant *model.ABTestVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *abTestRepo) GetVariant(ctx context.Context, id int64) (*model.ABTestVariant, error) {
	var variant model.ABTestVariant
	if err := r.db.WithContext(ctx).First(&variant, id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *abTestRepo) DeleteVariant(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ABTestVariant{}, id).Error
}

func (r *abTestRepo) IncrementImpression(ctx context.Context, variantID int64) error {
	return r.db.WithContext(ctx).Model(&model.ABTestVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("impressions", gorm.Expr("impressions + 1")).Error
}

func (r *abTestRepo) IncrementConversion(ctx context.Context, variantID int64) error {
	return r.db.WithContext(ctx).Model(&model.ABTestVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("conversions", gorm.Expr("conversions + 1")).Error
}
