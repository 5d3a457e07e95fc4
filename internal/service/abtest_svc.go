package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

// ErrABTestNotFound 测试不存在
var ErrABTestNotFound = errors.New("A/B 测试不存在")

// ABTestService A/B 测试服务
type ABTestService struct {
	ABTestRepo repository.ABTestRepository
	guard      *Guard
}

// NewABTestService 创建 A/B 测试服务
func NewABTestService(repo repository.ABTestRepository, guard *Guard) *ABTestService {
	return &ABTestService{
		ABTestRepo: repo,
		guard:      guard,
	}
}

// ==================== 商家端 CRUD ====================

// VariantInput 变体入参
type VariantInput struct {
	Name   string
	Blocks datatypes.JSON
	Weight int
}

// CreateTest 创建测试及其变体
func (s *ABTestService) CreateTest(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, pageID int64, name string, variants []VariantInput) (*model.ABTest, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, err
	}
	if len(variants) < 2 {
		return nil, errors.New("A/B 测试至少需要两个变体")
	}

	test := &model.ABTest{
		StoreID: storeCtx.StoreID,
		PageID:  pageID,
		Name:    name,
		Status:  model.ABTestStatusDraft,
	}
	for _, v := range variants {
		weight := v.Weight
		if weight <= 0 {
			weight = 50
		}
		test.Variants = append(test.Variants, model.ABTestVariant{
			StoreID: storeCtx.StoreID,
			Name:    v.Name,
			Blocks:  v.Blocks,
			Weight:  weight,
		})
	}

	if err := s.ABTestRepo.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("测试创建失败: %w", err)
	}
	return test, nil
}

// GetTest 查测试详情（含变体）
func (s *ABTestService) GetTest(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) (*model.ABTest, error) {
	test, err := s.ABTestRepo.GetByIDWithVariants(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrABTestNotFound
		}
		return nil, err
	}

	if err := s.guard.Authorize(meta, storeCtx, test.StoreID); err != nil {
		return nil, err
	}
	return test, nil
}

// ListTests 查店铺测试列表
func (s *ABTestService) ListTests(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext) ([]model.ABTest, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, err
	}
	return s.ABTestRepo.ListByStore(ctx, storeCtx.StoreID)
}

// UpdateStatus 启停测试
func (s *ABTestService) UpdateStatus(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64, status int) error {
	test, err := s.ABTestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrABTestNotFound
		}
		return err
	}

	if err := s.guard.Authorize(meta, storeCtx, test.StoreID); err != nil {
		return err
	}
	return s.ABTestRepo.UpdateStatus(ctx, id, status)
}

// DeleteTest 删除测试
func (s *ABTestService) DeleteTest(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) error {
	test, err := s.ABTestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrABTestNotFound
		}
		return err
	}

	if err := s.guard.Authorize(meta, storeCtx, test.StoreID); err != nil {
		return err
	}
	return s.ABTestRepo.Delete(ctx, id)
}

// ==================== 代理端分流 ====================

// PickVariant 按权重为访客分配变体并记一次曝光
// 同店铺校验由代理路由的上下文保证；测试必须处于进行中
func (s *ABTestService) PickVariant(ctx context.Context, storeCtx *model.StoreContext, testID int64) (*model.ABTestVariant, error) {
	if storeCtx == nil {
		return nil, ErrUnauthorized
	}

	test, err := s.ABTestRepo.GetByIDWithVariants(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrABTestNotFound
		}
		return nil, err
	}
	if test.StoreID != storeCtx.StoreID || test.Status != model.ABTestStatusRunning || len(test.Variants) == 0 {
		return nil, ErrABTestNotFound
	}

	variant := pickWeighted(test.Variants)

	// 曝光计数尽力而为
	_ = s.ABTestRepo.IncrementImpression(ctx, variant.ID)

	return variant, nil
}

// RecordConversion 记一次转化
func (s *ABTestService) RecordConversion(ctx context.Context, storeCtx *model.StoreContext, variantID int64) error {
	if storeCtx == nil {
		return ErrUnauthorized
	}

	variant, err := s.ABTestRepo.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrABTestNotFound
		}
		return err
	}
	if variant.StoreID != storeCtx.StoreID {
		return ErrABTestNotFound
	}

	return s.ABTestRepo.IncrementConversion(ctx, variantID)
}

// pickWeighted 按权重随机选择变体
func pickWeighted(variants []model.ABTestVariant) *model.ABTestVariant {
	total := 0
	for i := range variants {
		total += variants[i].Weight
	}
	if total <= 0 {
		return &variants[0]
	}

	n := rand.IntN(total)
	for i := range variants {
		n -= variants[i].Weight
		if n < 0 {
			return &variants[i]
		}
	}
	return &variants[len(variants)-1]
}
