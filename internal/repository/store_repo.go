package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// StoreRepository 店铺仓储接口
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	GetByID(ctx context.Context, id int64) (*model.Store, error)
	GetByDomain(ctx context.Context, domain string) (*model.Store, error)
	Update(ctx context.Context, store *model.Store) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error

	// 生命周期
	MarkInstalled(ctx context.Context, id int64, accessToken, scopes string) error
	MarkUninstalled(ctx context.Context, domain string) error

	// 列表查询
	List(ctx context.Context, filter StoreFilter) ([]model.Store, int64, error)
	ListActive(ctx context.Context) ([]model.Store, error)
}

// ==================== 过滤条件 ====================

// StoreFilter 店铺过滤条件
type StoreFilter struct {
	Domain   string
	Status   int // -1 表示不筛选
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓储
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) GetByID(ctx context.Context, id int64) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) GetByDomain(ctx context.Context, domain string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("shop_domain = ?", domain).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

func (r *storeRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Store{}).Where("id = ?", id).Updates(fields).Error
}

func (r *storeRepo) MarkInstalled(ctx context.Context, id int64, accessToken, scopes string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Store{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":   accessToken,
		"scopes":         scopes,
		"status":         model.StoreStatusActive,
		"installed_at":   &now,
		"uninstalled_at": nil,
	}).Error
}

func (r *storeRepo) MarkUninstalled(ctx context.Context, domain string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Store{}).Where("shop_domain = ?", domain).Updates(map[string]interface{}{
		"status":         model.StoreStatusUninstalled,
		"access_token":   "",
		"uninstalled_at": &now,
	}).Error
}

func (r *storeRepo) List(ctx context.Context, filter StoreFilter) ([]model.Store, int64, error) {
	var stores []model.Store
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Store{})
	if filter.Domain != "" {
		query = query.Where("shop_domain LIKE ?", "%"+filter.Domain+"%")
	}
	if filter.Status >= 0 {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("id DESC").Find(&stores).Error; err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

func (r *storeRepo) ListActive(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("status = ?", model.StoreStatusActive).
		Find(&stores).Error
	return stores, err
}
