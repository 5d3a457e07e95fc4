package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/pkg/crypto"
)

// ErrTrackingNotFound 追踪号码不存在
var ErrTrackingNotFound = errors.New("追踪号码不存在")

// TrackingService 广告追踪号码服务
// 号码和转接目标都是 PII：写入前加密，读出时解密；
// 呼叫转接本身由外部话务服务处理，不在这里
type TrackingService struct {
	TrackingRepo repository.TrackingRepository
	guard        *Guard
	cipher       *crypto.FieldCipher
}

// NewTrackingService 创建追踪号码服务
func NewTrackingService(repo repository.TrackingRepository, guard *Guard, cipher *crypto.FieldCipher) *TrackingService {
	return &TrackingService{
		TrackingRepo: repo,
		guard:        guard,
		cipher:       cipher,
	}
}

// CreateInput 创建入参
type CreateTrackingInput struct {
	PageID      int64
	PhoneNumber string
	ForwardTo   string
	Label       string
	Provider    string
}

// CreateNumber 登记追踪号码
func (s *TrackingService) CreateNumber(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, input CreateTrackingInput) (*model.TrackingNumber, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, err
	}

	tenantKey := fmt.Sprintf("%d", storeCtx.StoreID)

	encPhone, err := s.cipher.Encrypt(input.PhoneNumber, tenantKey)
	if err != nil {
		return nil, fmt.Errorf("号码加密失败: %w", err)
	}
	encForward, err := s.cipher.Encrypt(input.ForwardTo, tenantKey)
	if err != nil {
		return nil, fmt.Errorf("转接号码加密失败: %w", err)
	}

	provider := input.Provider
	if provider == "" {
		provider = "twilio"
	}

	number := &model.TrackingNumber{
		StoreID:     storeCtx.StoreID,
		PageID:      input.PageID,
		PhoneNumber: encPhone,
		ForwardTo:   encForward,
		Label:       input.Label,
		Provider:    provider,
		Active:      true,
	}

	if err := s.TrackingRepo.Create(ctx, number); err != nil {
		return nil, fmt.Errorf("追踪号码保存失败: %w", err)
	}
	return number, nil
}

// GetNumber 查单个号码（解密后返回）
func (s *TrackingService) GetNumber(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) (*model.TrackingNumber, error) {
	number, err := s.TrackingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackingNotFound
		}
		return nil, err
	}

	if err := s.guard.Authorize(meta, storeCtx, number.StoreID); err != nil {
		return nil, err
	}

	s.decryptNumber(number, storeCtx.StoreID)
	return number, nil
}

// ListNumbers 查店铺号码列表（解密后返回）
func (s *TrackingService) ListNumbers(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext) ([]model.TrackingNumber, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, err
	}

	numbers, err := s.TrackingRepo.ListByStore(ctx, storeCtx.StoreID)
	if err != nil {
		return nil, err
	}
	for i := range numbers {
		s.decryptNumber(&numbers[i], storeCtx.StoreID)
	}
	return numbers, nil
}

// DeleteNumber 删除号码
func (s *TrackingService) DeleteNumber(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) error {
	number, err := s.TrackingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTrackingNotFound
		}
		return err
	}

	if err := s.guard.Authorize(meta, storeCtx, number.StoreID); err != nil {
		return err
	}
	return s.TrackingRepo.Delete(ctx, id)
}

// decryptNumber 就地解密，失败置空
func (s *TrackingService) decryptNumber(number *model.TrackingNumber, storeID int64) {
	tenantKey := fmt.Sprintf("%d", storeID)

	if plain, err := s.cipher.Decrypt(number.PhoneNumber, tenantKey); err == nil {
		number.PhoneNumber = plain
	} else {
		number.PhoneNumber = ""
	}
	if plain, err := s.cipher.Decrypt(number.ForwardTo, tenantKey); err == nil {
		number.ForwardTo = plain
	} else {
		number.ForwardTo = ""
	}
}
