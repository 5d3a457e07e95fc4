package model

import (
	"gorm.io/datatypes"
)

// ABTest 状态常量
const (
	ABTestStatusDraft    = 0 // 未开始
	ABTestStatusRunning  = 1 // 进行中
	ABTestStatusFinished = 2 // 已结束
)

// ABTest A/B 测试
type ABTest struct {
	BaseModel

	StoreID int64 `gorm:"index;not null;comment:归属店铺"`
	PageID  int64 `gorm:"index;not null;comment:基准页面"`

	Name   string `gorm:"size:255;not null"`
	Status int    `gorm:"index;default:0;comment:状态 0-未开始 1-进行中 2-已结束"`

	// 关联关系
	Variants []ABTestVariant `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
}

func (ABTest) TableName() string {
	return "ab_tests"
}

// ABTestVariant 测试变体
// Blocks 覆盖基准页面的内容块；Weight 决定流量分配比例
type ABTestVariant struct {
	BaseModel

	TestID  int64 `gorm:"index;not null"`
	StoreID int64 `gorm:"index;not null;comment:冗余归属，越权检查不需要 JOIN"`

	Name   string         `gorm:"size:128;not null"`
	Blocks datatypes.JSON `gorm:"type:jsonb"`
	Weight int            `gorm:"default:50;comment:流量权重"`

	// 统计计数，原子累加
	Impressions int64 `gorm:"default:0"`
	Conversions int64 `gorm:"default:0"`
}

func (ABTestVariant) TableName() string {
	return "ab_test_variants"
}
