package model

import (
	"time"

	"gorm.io/datatypes"
)

// 事件类型常量
const (
	EventTypePageView     = "page_view"
	EventTypeClick        = "click"
	EventTypeFormSubmit   = "form_submit"
	EventTypeABImpression = "ab_impression"
	EventTypeABConversion = "ab_conversion"
)

// AnalyticsEvent 访客行为事件
// 高写入量表，生产环境按月分区（见 pkg/database/partition.go），
// 因此不走 AutoMigrate，也没有软删除
type AnalyticsEvent struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	StoreID int64 `gorm:"index;default:0;comment:归属店铺"`
	PageID  int64 `gorm:"index;comment:来源页面"`

	EventType string `gorm:"size:32;index;not null"`

	// 访客标识（匿名 ID，非 PII）
	VisitorID string `gorm:"size:64"`
	SessionID string `gorm:"size:64"`

	Referrer  string `gorm:"type:text"`
	UserAgent string `gorm:"type:text"`

	// 广告像素/AB 测试等附加维度
	Meta datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"index"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
