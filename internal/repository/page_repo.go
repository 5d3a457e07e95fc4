package repository

import (
	"context"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// PageRepository 页面仓储接口
type PageRepository interface {
	Create(ctx context.Context, page *model.Page) error
	GetByID(ctx context.Context, id int64) (*model.Page, error)
	GetByPublicID(ctx context.Context, publicID string) (*model.Page, error)
	GetBySlug(ctx context.Context, storeID int64, slug string) (*model.Page, error)
	Update(ctx context.Context, page *model.Page) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	// 列表查询
	List(ctx context.Context, filter PageFilter) ([]model.Page, int64, error)

	// 运营指标
	IncrementViewCount(ctx context.Context, id int64) error
}

// ==================== 过滤条件 ====================

// PageFilter 页面过滤条件
type PageFilter struct {
	StoreID  int64 // 0 表示不筛选
	Keyword  string
	Status   int // -1 表示不筛选
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type pageRepo struct {
	db *gorm.DB
}

// NewPageRepository 创建页面仓储
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepo{db: db}
}

func (r *pageRepo) Create(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *pageRepo) GetByID(ctx context.Context, id int64) (*model.Page, error) {
	var page model.Page
	if err := r.db.WithContext(ctx).First(&page, id).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepo) GetByPublicID(ctx context.Context, publicID string) (*model.Page, error) {
	var page model.Page
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepo) GetBySlug(ctx context.Context, storeID int64, slug string) (*model.Page, error) {
	var page model.Page
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND slug = ?", storeID, slug).
		First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepo) Update(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *pageRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Page{}).Where("id = ?", id).Updates(fields).Error
}

func (r *pageRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Page{}, id).Error
}

func (r *pageRepo) List(ctx context.Context, filter PageFilter) ([]model.Page, int64, error) {
	var pages []model.Page
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Page{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.Keyword != "" {
		query = query.Where("title LIKE ?", "%"+filter.Keyword+"%")
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

	if err := query.Order("id DESC").Find(&pages).Error; err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

func (r *pageRepo) IncrementViewCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.Page{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
