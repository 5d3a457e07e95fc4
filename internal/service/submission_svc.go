package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/pkg/crypto"
)

// ErrSubmissionNotFound 提交记录不存在
var ErrSubmissionNotFound = errors.New("提交记录不存在")

// SubmissionService 表单提交服务
// PII 加解密只发生在这一层：写入前加密，读出时按同店铺解密
type SubmissionService struct {
	SubmissionRepo repository.SubmissionRepository
	guard          *Guard
	cipher         *crypto.FieldCipher
}

// NewSubmissionService 创建表单提交服务
func NewSubmissionService(repo repository.SubmissionRepository, guard *Guard, cipher *crypto.FieldCipher) *SubmissionService {
	return &SubmissionService{
		SubmissionRepo: repo,
		guard:          guard,
		cipher:         cipher,
	}
}

// ==================== 代理端写入 ====================

// CreateFromProxy 访客通过代理页面提交表单
// 必须已解析出店铺上下文（代理路由保证），归属取上下文
func (s *SubmissionService) CreateFromProxy(ctx context.Context, storeCtx *model.StoreContext, pageID int64, payload map[string]interface{}, meta RequestMeta) (*model.FormSubmission, error) {
	if storeCtx == nil {
		return nil, ErrUnauthorized
	}

	tenantKey := fmt.Sprintf("%d", storeCtx.StoreID)

	// 冗余列先从原始 payload 取值再整体加密
	email, _ := payload["email"].(string)
	phone, _ := payload["phone"].(string)
	name, _ := payload["name"].(string)

	// 白名单字段就地加密；加密失败的字段会被置空（丢数据优于漏数据）
	s.cipher.EncryptFields(payload, tenantKey)

	encEmail, err := s.cipher.Encrypt(email, tenantKey)
	if err != nil {
		encEmail = ""
	}
	encPhone, err := s.cipher.Encrypt(phone, tenantKey)
	if err != nil {
		encPhone = ""
	}
	encName, err := s.cipher.Encrypt(name, tenantKey)
	if err != nil {
		encName = ""
	}

	sub := &model.FormSubmission{
		StoreID:   storeCtx.StoreID,
		PageID:    pageID,
		Payload:   datatypes.JSONMap(payload),
		Email:     encEmail,
		Phone:     encPhone,
		Name:      encName,
		SourceIP:  meta.OriginIP,
		UserAgent: meta.UserAgent,
	}

	if err := s.SubmissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("表单提交保存失败: %w", err)
	}
	return sub, nil
}

// ==================== 商家端读取 ====================

// GetSubmission 查单条提交（解密后返回）
func (s *SubmissionService) GetSubmission(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) (*model.FormSubmission, error) {
	sub, err := s.SubmissionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if err := s.guard.Authorize(meta, storeCtx, sub.StoreID); err != nil {
		return nil, err
	}

	s.decryptSubmission(sub, storeCtx.StoreID)
	return sub, nil
}

// ListSubmissions 查店铺提交列表（解密后返回）
func (s *SubmissionService) ListSubmissions(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, filter repository.SubmissionFilter) ([]model.FormSubmission, int64, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, 0, err
	}

	filter.StoreID = storeCtx.StoreID
	subs, total, err := s.SubmissionRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	for i := range subs {
		s.decryptSubmission(&subs[i], storeCtx.StoreID)
	}
	return subs, total, nil
}

// DeleteSubmission 删除单条提交
func (s *SubmissionService) DeleteSubmission(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) error {
	sub, err := s.SubmissionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	if err := s.guard.Authorize(meta, storeCtx, sub.StoreID); err != nil {
		return err
	}

	return s.SubmissionRepo.Delete(ctx, id)
}

// decryptSubmission 就地解密一条提交
// 解密失败的字段置空，前端按"不可用"展示，绝不吐出乱码
func (s *SubmissionService) decryptSubmission(sub *model.FormSubmission, storeID int64) {
	tenantKey := fmt.Sprintf("%d", storeID)

	if plain, err := s.cipher.Decrypt(sub.Email, tenantKey); err == nil {
		sub.Email = plain
	} else {
		sub.Email = ""
	}
	if plain, err := s.cipher.Decrypt(sub.Phone, tenantKey); err == nil {
		sub.Phone = plain
	} else {
		sub.Phone = ""
	}
	if plain, err := s.cipher.Decrypt(sub.Name, tenantKey); err == nil {
		sub.Name = plain
	} else {
		sub.Name = ""
	}

	if sub.Payload != nil {
		s.cipher.DecryptFields(sub.Payload, tenantKey)
	}
}
