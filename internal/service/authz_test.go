package service

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

func setupAuthzTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.AuditEvent{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newTestGuard(t *testing.T) (*Guard, *AuditService, *gorm.DB) {
	db := setupAuthzTestDB(t)
	audit := NewAuditService(repository.NewAuditRepository(db), zap.NewNop())
	return NewGuard(audit), audit, db
}

func auditEvents(t *testing.T, db *gorm.DB) []model.AuditEvent {
	var events []model.AuditEvent
	if err := db.Find(&events).Error; err != nil {
		t.Fatalf("查询审计事件失败: %v", err)
	}
	return events
}

func testMeta() RequestMeta {
	return RequestMeta{
		Endpoint:  "/api/pages/:id",
		Method:    "GET",
		OriginIP:  "203.0.113.7",
		UserAgent: "test-agent",
	}
}

// ==================== 判定矩阵 ====================

func TestGuard_OwnerlessResourceAllowed(t *testing.T) {
	guard, audit, db := newTestGuard(t)

	// 无归属资源：有没有上下文都放行
	if err := guard.Authorize(testMeta(), nil, 0); err != nil {
		t.Fatalf("无归属资源应放行，实际: %v", err)
	}
	if err := guard.Authorize(testMeta(), &model.StoreContext{StoreID: 5}, 0); err != nil {
		t.Fatalf("无归属资源应放行，实际: %v", err)
	}

	audit.Close()
	if got := auditEvents(t, db); len(got) != 0 {
		t.Fatalf("放行不应产生审计事件，实际 %d 条", len(got))
	}
}

func TestGuard_MissingContextUnauthorized(t *testing.T) {
	guard, audit, db := newTestGuard(t)

	err := guard.Authorize(testMeta(), nil, 42)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("期望 ErrUnauthorized，实际: %v", err)
	}

	audit.Close()
	events := auditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("期望恰好 1 条审计事件，实际 %d 条", len(events))
	}
	if events[0].Kind != model.AuditKindUnauthorized {
		t.Fatalf("期望事件类型 %s，实际 %s", model.AuditKindUnauthorized, events[0].Kind)
	}
	if events[0].StoreID != nil {
		t.Fatal("未解析上下文时 store_id 应为空")
	}
	if events[0].AttemptedStoreID == nil || *events[0].AttemptedStoreID != 42 {
		t.Fatal("attempted_store_id 应记录资源归属店铺")
	}
}

func TestGuard_CrossTenantForbidden(t *testing.T) {
	guard, audit, db := newTestGuard(t)

	storeCtx := &model.StoreContext{StoreID: 7, ShopDomain: "alpha.myshopify.com"}
	err := guard.Authorize(testMeta(), storeCtx, 42)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("期望 ErrForbidden，实际: %v", err)
	}

	audit.Close()
	events := auditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("期望恰好 1 条审计事件，实际 %d 条", len(events))
	}
	if events[0].Kind != model.AuditKindCrossTenant {
		t.Fatalf("期望事件类型 %s，实际 %s", model.AuditKindCrossTenant, events[0].Kind)
	}
	if events[0].StoreID == nil || *events[0].StoreID != 7 {
		t.Fatal("应记录请求解析出的店铺")
	}
	if events[0].AttemptedStoreID == nil || *events[0].AttemptedStoreID != 42 {
		t.Fatal("应记录被访问资源的归属店铺")
	}
}

func TestGuard_MatchingTenantAllowed(t *testing.T) {
	guard, audit, db := newTestGuard(t)

	storeCtx := &model.StoreContext{StoreID: 42, ShopDomain: "alpha.myshopify.com"}
	if err := guard.Authorize(testMeta(), storeCtx, 42); err != nil {
		t.Fatalf("归属一致应放行，实际: %v", err)
	}

	audit.Close()
	if got := auditEvents(t, db); len(got) != 0 {
		t.Fatalf("放行不应产生审计事件，实际 %d 条", len(got))
	}
}

func TestGuard_RequireStore(t *testing.T) {
	guard, audit, db := newTestGuard(t)

	if err := guard.RequireStore(testMeta(), &model.StoreContext{StoreID: 1}); err != nil {
		t.Fatalf("有上下文应放行，实际: %v", err)
	}

	err := guard.RequireStore(testMeta(), nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("期望 ErrUnauthorized，实际: %v", err)
	}

	audit.Close()
	events := auditEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("期望恰好 1 条审计事件，实际 %d 条", len(events))
	}
	if events[0].Kind != model.AuditKindUnauthorized {
		t.Fatalf("期望事件类型 %s，实际 %s", model.AuditKindUnauthorized, events[0].Kind)
	}
}

// ==================== 审计服务 ====================

func TestAuditService_PersistsAsync(t *testing.T) {
	db := setupAuthzTestDB(t)
	audit := NewAuditService(repository.NewAuditRepository(db), zap.NewNop())

	for i := 0; i < 10; i++ {
		audit.Record(model.AuditKindRateLimited, testMeta(), nil, nil, map[string]interface{}{
			"limit": 300,
		})
	}
	audit.Close()

	events := auditEvents(t, db)
	if len(events) != 10 {
		t.Fatalf("期望 10 条事件全部落库，实际 %d 条", len(events))
	}
	if events[0].Detail["limit"] == nil {
		t.Fatal("detail 应完整持久化")
	}
}

func TestAuditService_RecordAfterCloseIsNoop(t *testing.T) {
	db := setupAuthzTestDB(t)
	audit := NewAuditService(repository.NewAuditRepository(db), zap.NewNop())
	audit.Close()

	// 关闭后 Record 不应 panic，也不应落库
	audit.Record(model.AuditKindAccessDenied, testMeta(), nil, nil, nil)

	if got := auditEvents(t, db); len(got) != 0 {
		t.Fatalf("关闭后不应再落库，实际 %d 条", len(got))
	}
}

func TestAuditService_RepoFailureDoesNotPropagate(t *testing.T) {
	db := setupAuthzTestDB(t)
	// 删表制造写库失败
	if err := db.Migrator().DropTable(&model.AuditEvent{}); err != nil {
		t.Fatalf("删表失败: %v", err)
	}

	audit := NewAuditService(repository.NewAuditRepository(db), zap.NewNop())
	audit.Record(model.AuditKindSuspiciousAccess, testMeta(), nil, nil, nil)
	audit.Close() // 不应 panic，不应卡住
}
