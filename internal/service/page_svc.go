package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

// ErrPageNotFound 页面不存在或未发布
var ErrPageNotFound = errors.New("页面不存在")

// PageService 落地页服务
// 所有读/改/删先取资源再过 Guard；创建时归属一律以解析出的
// 店铺上下文为准，客户端传什么都不认
type PageService struct {
	PageRepo repository.PageRepository
	guard    *Guard
	renderer Renderer
}

// NewPageService 创建页面服务
func NewPageService(pageRepo repository.PageRepository, guard *Guard, renderer Renderer) *PageService {
	return &PageService{
		PageRepo: pageRepo,
		guard:    guard,
		renderer: renderer,
	}
}

// ==================== 商家端 CRUD ====================

// CreatePageInput 创建页面入参
type CreatePageInput struct {
	Title          string
	Slug           string
	Blocks         datatypes.JSON
	SEOTitle       string
	SEODescription string
}

// CreatePage 创建页面
func (s *PageService) CreatePage(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, input CreatePageInput) (*model.Page, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, err
	}

	page := &model.Page{
		// 归属强制取上下文，防止客户端把资源塞进别的店铺
		StoreID:        storeCtx.StoreID,
		PublicID:       uuid.NewString(),
		Slug:           input.Slug,
		Title:          input.Title,
		Blocks:         input.Blocks,
		SEOTitle:       input.SEOTitle,
		SEODescription: input.SEODescription,
		Status:         model.PageStatusDraft,
	}

	if err := s.PageRepo.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("页面创建失败: %w", err)
	}
	return page, nil
}

// GetPage 查单个页面
func (s *PageService) GetPage(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) (*model.Page, error) {
	page, err := s.PageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	if err := s.guard.Authorize(meta, storeCtx, page.StoreID); err != nil {
		return nil, err
	}
	return page, nil
}

// ListPages 查店铺页面列表
func (s *PageService) ListPages(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, filter repository.PageFilter) ([]model.Page, int64, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return nil, 0, err
	}

	// 只能查自己店铺的
	filter.StoreID = storeCtx.StoreID
	return s.PageRepo.List(ctx, filter)
}

// UpdatePageInput 更新页面入参
type UpdatePageInput struct {
	Title          string
	Slug           string
	Blocks         datatypes.JSON
	SEOTitle       string
	SEODescription string
}

// UpdatePage 更新页面
func (s *PageService) UpdatePage(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64, input UpdatePageInput) (*model.Page, error) {
	page, err := s.PageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	if err := s.guard.Authorize(meta, storeCtx, page.StoreID); err != nil {
		return nil, err
	}

	page.Title = input.Title
	page.Slug = input.Slug
	page.Blocks = input.Blocks
	page.SEOTitle = input.SEOTitle
	page.SEODescription = input.SEODescription

	if err := s.PageRepo.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("页面更新失败: %w", err)
	}
	return page, nil
}

// DeletePage 删除页面
func (s *PageService) DeletePage(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64) error {
	page, err := s.PageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPageNotFound
		}
		return err
	}

	if err := s.guard.Authorize(meta, storeCtx, page.StoreID); err != nil {
		return err
	}

	return s.PageRepo.Delete(ctx, id)
}

// PublishPage 发布/下线页面
func (s *PageService) PublishPage(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, id int64, publish bool) error {
	page, err := s.PageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPageNotFound
		}
		return err
	}

	if err := s.guard.Authorize(meta, storeCtx, page.StoreID); err != nil {
		return err
	}

	fields := map[string]interface{}{"status": model.PageStatusDraft, "published_at": nil}
	if publish {
		now := time.Now()
		fields["status"] = model.PageStatusPublished
		fields["published_at"] = &now
	}
	return s.PageRepo.UpdateFields(ctx, id, fields)
}

// ==================== 代理端出页 ====================

// RenderPublic 按 slug 渲染已发布页面（App Proxy 公开访问路径）
// 这里的租户匹配不是越权判断：代理请求天然只在自己店铺的域名下出页
func (s *PageService) RenderPublic(ctx context.Context, storeCtx *model.StoreContext, slug string) (string, error) {
	if storeCtx == nil {
		return "", ErrPageNotFound
	}

	page, err := s.PageRepo.GetBySlug(ctx, storeCtx.StoreID, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPageNotFound
		}
		return "", err
	}
	if !page.IsPublished() {
		return "", ErrPageNotFound
	}

	html, err := s.renderer.Render(page)
	if err != nil {
		return "", fmt.Errorf("页面渲染失败: %w", err)
	}

	// 浏览计数尽力而为，失败不影响出页
	_ = s.PageRepo.IncrementViewCount(ctx, page.ID)

	return html, nil
}
