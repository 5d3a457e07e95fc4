package repository

import (
	"context"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// SubmissionRepository 表单提交仓储接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.FormSubmission) error
	GetByID(ctx context.Context, id int64) (*model.FormSubmission, error)
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter SubmissionFilter) ([]model.FormSubmission, int64, error)
	CountByPage(ctx context.Context, pageID int64) (int64, error)

	// GDPR：清空某店铺全部提交中的 PII 列
	RedactByStore(ctx context.Context, storeID int64) (int64, error)
}

// ==================== 过滤条件 ====================

// SubmissionFilter 表单提交过滤条件
type SubmissionFilter struct {
	StoreID  int64 // 0 表示不筛选
	PageID   int64 // 0 表示不筛选
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建表单提交仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.FormSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id int64) (*model.FormSubmission, error) {
	var sub model.FormSubmission
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.FormSubmission{}, id).Error
}

func (r *submissionRepo) List(ctx context.Context, filter SubmissionFilter) ([]model.FormSubmission, int64, error) {
	var subs []model.FormSubmission
	var total int64

	query := r.db.WithContext(ctx).Model(&model.FormSubmission{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.PageID > 0 {
		query = query.Where("page_id = ?", filter.PageID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("id DESC").Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *submissionRepo) CountByPage(ctx context.Context, pageID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FormSubmission{}).
		Where("page_id = ?", pageID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepo) RedactByStore(ctx context.Context, storeID int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.FormSubmission{}).
		Where("store_id = ?", storeID).
		Updates(map[string]interface{}{
			"payload": nil,
			"email":   "",
			"phone":   "",
			"name":    "",
		})
	return result.RowsAffected, result.Error
}
