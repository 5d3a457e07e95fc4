package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
)

func setupABTest(t *testing.T) (*ABTestService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.ABTest{}, &model.ABTestVariant{}, &model.AuditEvent{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	audit := NewAuditService(repository.NewAuditRepository(db), zap.NewNop())
	t.Cleanup(audit.Close)

	return NewABTestService(repository.NewABTestRepository(db), NewGuard(audit)), db
}

func createRunningTest(t *testing.T, svc *ABTestService, storeID int64) *model.ABTest {
	ctx := context.Background()
	test, err := svc.CreateTest(ctx, testMeta(), storeCtxFor(storeID), 10, "标题文案测试", []VariantInput{
		{Name: "A", Weight: 50},
		{Name: "B", Weight: 50},
	})
	if err != nil {
		t.Fatalf("创建测试失败: %v", err)
	}
	if err := svc.UpdateStatus(ctx, testMeta(), storeCtxFor(storeID), test.ID, model.ABTestStatusRunning); err != nil {
		t.Fatalf("启动测试失败: %v", err)
	}
	return test
}

// ==================== 创建校验 ====================

func TestABTest_RequiresTwoVariants(t *testing.T) {
	svc, _ := setupABTest(t)

	_, err := svc.CreateTest(context.Background(), testMeta(), storeCtxFor(1), 10, "单变体", []VariantInput{
		{Name: "A", Weight: 100},
	})
	if err == nil {
		t.Fatal("少于两个变体应拒绝创建")
	}
}

// ==================== 分流与计数 ====================

func TestABTest_PickVariantOnlyWhenRunning(t *testing.T) {
	svc, _ := setupABTest(t)
	ctx := context.Background()

	test, err := svc.CreateTest(ctx, testMeta(), storeCtxFor(1), 10, "草稿测试", []VariantInput{
		{Name: "A", Weight: 50},
		{Name: "B", Weight: 50},
	})
	if err != nil {
		t.Fatalf("创建测试失败: %v", err)
	}

	// 草稿态不分流
	if _, err := svc.PickVariant(ctx, storeCtxFor(1), test.ID); !errors.Is(err, ErrABTestNotFound) {
		t.Fatalf("草稿测试不应分流，实际: %v", err)
	}

	if err := svc.UpdateStatus(ctx, testMeta(), storeCtxFor(1), test.ID, model.ABTestStatusRunning); err != nil {
		t.Fatalf("启动测试失败: %v", err)
	}

	variant, err := svc.PickVariant(ctx, storeCtxFor(1), test.ID)
	if err != nil {
		t.Fatalf("分流失败: %v", err)
	}
	if variant.Name != "A" && variant.Name != "B" {
		t.Fatalf("分流结果异常: %+v", variant)
	}
}

func TestABTest_PickVariantScopedToStore(t *testing.T) {
	svc, _ := setupABTest(t)

	test := createRunningTest(t, svc, 1)

	// 别的店铺拿不到这个测试的变体
	_, err := svc.PickVariant(context.Background(), storeCtxFor(2), test.ID)
	if !errors.Is(err, ErrABTestNotFound) {
		t.Fatalf("跨店铺分流应按不存在处理，实际: %v", err)
	}
}

func TestABTest_ImpressionAndConversionCounted(t *testing.T) {
	svc, db := setupABTest(t)
	ctx := context.Background()

	test := createRunningTest(t, svc, 1)

	variant, err := svc.PickVariant(ctx, storeCtxFor(1), test.ID)
	if err != nil {
		t.Fatalf("分流失败: %v", err)
	}
	if err := svc.RecordConversion(ctx, storeCtxFor(1), variant.ID); err != nil {
		t.Fatalf("转化记录失败: %v", err)
	}

	var got model.ABTestVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("读取变体失败: %v", err)
	}
	if got.Impressions != 1 {
		t.Fatalf("期望曝光 1，实际 %d", got.Impressions)
	}
	if got.Conversions != 1 {
		t.Fatalf("期望转化 1，实际 %d", got.Conversions)
	}

	// 跨店铺转化上报无效
	if err := svc.RecordConversion(ctx, storeCtxFor(2), variant.ID); !errors.Is(err, ErrABTestNotFound) {
		t.Fatalf("跨店铺转化应按不存在处理，实际: %v", err)
	}
}

// ==================== 权重分布 ====================

func TestABTest_PickWeightedRespectsZeroWeight(t *testing.T) {
	variants := []model.ABTestVariant{
		{Name: "never", Weight: 0},
		{Name: "always", Weight: 100},
	}
	for i := 0; i < 50; i++ {
		if got := pickWeighted(variants); got.Name != "always" {
			t.Fatalf("权重 0 的变体不应被选中，实际选中 %s", got.Name)
		}
	}
}
