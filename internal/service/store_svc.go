package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/pkg/crypto"
	"lp_builder_v1_202601/pkg/shopify"
)

// StoreService 店铺（租户）服务
// 负责租户目录查询、安装/卸载生命周期和 GDPR 擦除
type StoreService struct {
	StoreRepo      repository.StoreRepository
	SubmissionRepo repository.SubmissionRepository
	shopifyClient  *shopify.Client
	cipher         *crypto.FieldCipher
	logger         *zap.Logger
}

// NewStoreService 创建店铺服务
func NewStoreService(
	storeRepo repository.StoreRepository,
	submissionRepo repository.SubmissionRepository,
	shopifyClient *shopify.Client,
	cipher *crypto.FieldCipher,
	logger *zap.Logger,
) *StoreService {
	return &StoreService{
		StoreRepo:      storeRepo,
		SubmissionRepo: submissionRepo,
		shopifyClient:  shopifyClient,
		cipher:         cipher,
		logger:         logger,
	}
}

// ==================== 租户解析 ====================

// Resolve 把请求携带的租户线索解析成店铺上下文
// domain / storeID 二选一；查不到、已卸载、查询出错都返回 nil
// （拒绝是各路由守卫的职责，解析层只负责"有或没有"）
func (s *StoreService) Resolve(ctx context.Context, domain string, storeID int64) *model.StoreContext {
	var (
		store *model.Store
		err   error
	)

	switch {
	case storeID > 0:
		store, err = s.StoreRepo.GetByID(ctx, storeID)
	case domain != "":
		store, err = s.StoreRepo.GetByDomain(ctx, domain)
	default:
		return nil
	}

	if err != nil {
		// 存储层故障吞掉并记日志，降级为"未解析"，不能拖垮无关路由
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("店铺目录查询失败", zap.String("domain", domain), zap.Error(err))
		}
		return nil
	}

	if !store.IsActive() {
		return nil
	}

	return &model.StoreContext{
		StoreID:    store.ID,
		ShopDomain: store.ShopDomain,
		ShopName:   store.ShopName,
	}
}

// ==================== 安装生命周期 ====================

// Install 安装回调：创建或重新激活店铺
// 首次安装建档；重装（先卸载后再装）复用原记录，归属数据不丢
func (s *StoreService) Install(ctx context.Context, domain, accessToken, scopes string) (*model.Store, error) {
	store, err := s.StoreRepo.GetByDomain(ctx, domain)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("店铺查询失败: %w", err)
	}

	if store == nil {
		now := time.Now()
		store = &model.Store{
			ShopDomain:  domain,
			AccessToken: accessToken,
			Scopes:      scopes,
			Status:      model.StoreStatusActive,
			InstalledAt: &now,
		}
		if err := s.StoreRepo.Create(ctx, store); err != nil {
			return nil, fmt.Errorf("店铺建档失败: %w", err)
		}
	} else {
		if err := s.StoreRepo.MarkInstalled(ctx, store.ID, accessToken, scopes); err != nil {
			return nil, fmt.Errorf("店铺激活失败: %w", err)
		}
		store.AccessToken = accessToken
		store.Status = model.StoreStatusActive
	}

	// 拉取店铺信息补全档案，失败不阻断安装
	if info, err := s.shopifyClient.GetShopInfo(ctx, domain, accessToken); err != nil {
		s.logger.Warn("店铺信息拉取失败", zap.String("domain", domain), zap.Error(err))
	} else {
		fields := map[string]interface{}{
			"shopify_shop_id": info.ID,
			"shop_name":       info.Name,
		}
		// 店主邮箱是 PII，按租户密钥加密后落库
		if enc, err := s.cipher.Encrypt(info.Email, fmt.Sprintf("%d", store.ID)); err == nil {
			fields["email"] = enc
		}
		if err := s.StoreRepo.UpdateFields(ctx, store.ID, fields); err != nil {
			s.logger.Warn("店铺档案更新失败", zap.Error(err))
		}
		store.ShopName = info.Name
	}

	return store, nil
}

// RegisterLifecycleWebhooks 注册卸载和 GDPR Webhook
func (s *StoreService) RegisterLifecycleWebhooks(ctx context.Context, store *model.Store, appURL string) {
	topics := map[string]string{
		"app/uninstalled":  appURL + "/webhooks/app-uninstalled",
		"customers/redact": appURL + "/webhooks/customers-redact",
		"shop/redact":      appURL + "/webhooks/shop-redact",
	}
	for topic, address := range topics {
		if err := s.shopifyClient.RegisterWebhook(ctx, store.ShopDomain, store.AccessToken, topic, address); err != nil {
			s.logger.Warn("webhook 注册失败",
				zap.String("topic", topic),
				zap.String("domain", store.ShopDomain),
				zap.Error(err))
		}
	}
}

// Uninstall 卸载 webhook：停用店铺
// 只置状态 + 清空凭证，档案保留（硬删除是独立运维操作）
func (s *StoreService) Uninstall(ctx context.Context, domain string) error {
	if err := s.StoreRepo.MarkUninstalled(ctx, domain); err != nil {
		return fmt.Errorf("店铺停用失败: %w", err)
	}
	s.logger.Info("店铺已卸载", zap.String("domain", domain))
	return nil
}

// ==================== GDPR ====================

// RedactStore GDPR shop/redact：擦除该店铺全部存量 PII
func (s *StoreService) RedactStore(ctx context.Context, domain string) error {
	store, err := s.StoreRepo.GetByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	affected, err := s.SubmissionRepo.RedactByStore(ctx, store.ID)
	if err != nil {
		return fmt.Errorf("表单提交擦除失败: %w", err)
	}

	if err := s.StoreRepo.UpdateFields(ctx, store.ID, map[string]interface{}{"email": ""}); err != nil {
		return fmt.Errorf("店铺档案擦除失败: %w", err)
	}

	s.logger.Info("GDPR 擦除完成",
		zap.String("domain", domain),
		zap.Int64("submissions_redacted", affected))
	return nil
}

// GetStore 查店铺档案
func (s *StoreService) GetStore(ctx context.Context, id int64) (*model.Store, error) {
	return s.StoreRepo.GetByID(ctx, id)
}
