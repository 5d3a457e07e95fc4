package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

func setupPageTest(t *testing.T) (*PageService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.Page{}, &model.AuditEvent{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	audit := NewAuditService(repository.NewAuditRepository(db), zap.NewNop())
	t.Cleanup(audit.Close)

	svc := NewPageService(repository.NewPageRepository(db), NewGuard(audit), NewBlockRenderer())
	return svc, db
}

func createTestPage(t *testing.T, svc *PageService, storeID int64, slug string) *model.Page {
	page, err := svc.CreatePage(context.Background(), testMeta(), storeCtxFor(storeID), CreatePageInput{
		Title:  "夏季促销",
		Slug:   slug,
		Blocks: datatypes.JSON(`[{"type":"headline","text":"限时五折"},{"type":"form","label":"立即咨询"}]`),
	})
	if err != nil {
		t.Fatalf("创建页面失败: %v", err)
	}
	return page
}

// ==================== 生命周期 ====================

func TestPage_CreateForcesTenantFromContext(t *testing.T) {
	svc, _ := setupPageTest(t)

	page := createTestPage(t, svc, 1, "summer-sale")
	if page.StoreID != 1 {
		t.Fatalf("归属应取自上下文，实际: %d", page.StoreID)
	}
	if page.PublicID == "" {
		t.Fatal("创建时应分配 public_id")
	}
	if page.Status != model.PageStatusDraft {
		t.Fatalf("新页面应为草稿状态，实际: %d", page.Status)
	}
}

func TestPage_PublishThenRender(t *testing.T) {
	svc, _ := setupPageTest(t)
	ctx := context.Background()

	page := createTestPage(t, svc, 1, "summer-sale")

	// 未发布的页面代理端不可见
	_, err := svc.RenderPublic(ctx, storeCtxFor(1), "summer-sale")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("草稿页不应出页，实际: %v", err)
	}

	if err := svc.PublishPage(ctx, testMeta(), storeCtxFor(1), page.ID, true); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	html, err := svc.RenderPublic(ctx, storeCtxFor(1), "summer-sale")
	if err != nil {
		t.Fatalf("出页失败: %v", err)
	}
	if !strings.Contains(html, "<h1>限时五折</h1>") {
		t.Fatal("渲染结果应包含标题块")
	}
	if !strings.Contains(html, "<form") {
		t.Fatal("渲染结果应包含表单块")
	}

	// 下线后重新不可见
	if err := svc.PublishPage(ctx, testMeta(), storeCtxFor(1), page.ID, false); err != nil {
		t.Fatalf("下线失败: %v", err)
	}
	_, err = svc.RenderPublic(ctx, storeCtxFor(1), "summer-sale")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("下线页不应出页，实际: %v", err)
	}
}

func TestPage_RenderScopedToStore(t *testing.T) {
	svc, _ := setupPageTest(t)
	ctx := context.Background()

	page := createTestPage(t, svc, 1, "summer-sale")
	if err := svc.PublishPage(ctx, testMeta(), storeCtxFor(1), page.ID, true); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	// 同 slug 在别的店铺域名下不可见
	_, err := svc.RenderPublic(ctx, storeCtxFor(2), "summer-sale")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("别店铺不应看到该页面，实际: %v", err)
	}

	// 无上下文一律不可见
	_, err = svc.RenderPublic(ctx, nil, "summer-sale")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("无上下文不应出页，实际: %v", err)
	}
}

func TestPage_RenderIncrementsViewCount(t *testing.T) {
	svc, db := setupPageTest(t)
	ctx := context.Background()

	page := createTestPage(t, svc, 1, "summer-sale")
	if err := svc.PublishPage(ctx, testMeta(), storeCtxFor(1), page.ID, true); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.RenderPublic(ctx, storeCtxFor(1), "summer-sale"); err != nil {
			t.Fatalf("出页失败: %v", err)
		}
	}

	var got model.Page
	if err := db.First(&got, page.ID).Error; err != nil {
		t.Fatalf("读取页面失败: %v", err)
	}
	if got.ViewCount != 3 {
		t.Fatalf("期望浏览计数 3，实际 %d", got.ViewCount)
	}
}

// ==================== 越权路径 ====================

func TestPage_CrossTenantOperationsForbidden(t *testing.T) {
	svc, _ := setupPageTest(t)
	ctx := context.Background()

	page := createTestPage(t, svc, 1, "summer-sale")
	other := storeCtxFor(2)

	if _, err := svc.GetPage(ctx, testMeta(), other, page.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("跨店铺读取应 ErrForbidden，实际: %v", err)
	}
	if _, err := svc.UpdatePage(ctx, testMeta(), other, page.ID, UpdatePageInput{Title: "x", Slug: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("跨店铺更新应 ErrForbidden，实际: %v", err)
	}
	if err := svc.DeletePage(ctx, testMeta(), other, page.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("跨店铺删除应 ErrForbidden，实际: %v", err)
	}
	if err := svc.PublishPage(ctx, testMeta(), other, page.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("跨店铺发布应 ErrForbidden，实际: %v", err)
	}

	// 无上下文的读取是 401 而不是 403
	if _, err := svc.GetPage(ctx, testMeta(), nil, page.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("无上下文读取应 ErrUnauthorized，实际: %v", err)
	}
}

func TestPage_ListScopedToTenant(t *testing.T) {
	svc, _ := setupPageTest(t)
	ctx := context.Background()

	createTestPage(t, svc, 1, "page-a")
	createTestPage(t, svc, 1, "page-b")
	createTestPage(t, svc, 2, "page-c")

	pages, total, err := svc.ListPages(ctx, testMeta(), storeCtxFor(1), repository.PageFilter{Status: -1, StoreID: 2})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 2 || len(pages) != 2 {
		t.Fatalf("期望只看到本店铺 2 个页面，实际 total=%d len=%d", total, len(pages))
	}
}
