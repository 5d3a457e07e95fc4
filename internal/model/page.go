package model

import (
	"time"

	"gorm.io/datatypes"
)

// Page 状态常量
const (
	PageStatusDraft     = 0 // 草稿
	PageStatusPublished = 1 // 已发布
	PageStatusArchived  = 2 // 已归档
)

// Page 落地页
// StoreID 为 0 表示平台级模板页（无租户归属，任何上下文可读）
type Page struct {
	BaseModel

	// 归属租户
	// StoreID + Slug 联合唯一：slug 在店铺内唯一，复合索引左前缀兼顾按店查询
	StoreID int64 `gorm:"index:idx_store_slug,unique;default:0;comment:归属店铺，0 表示全局模板"`

	// 对外标识
	PublicID string `gorm:"size:36;uniqueIndex;comment:对外 UUID，代理路由用"`
	Slug     string `gorm:"size:128;index:idx_store_slug,unique;not null"`
	Title    string `gorm:"size:255;not null"`

	// 内容块：编辑器拖拽产出的 JSON 数组，渲染引擎的唯一输入
	Blocks datatypes.JSON `gorm:"type:jsonb"`

	// SEO
	SEOTitle       string `gorm:"size:255"`
	SEODescription string `gorm:"size:512"`

	// 发布状态
	Status      int        `gorm:"index;default:0;comment:状态 0-草稿 1-已发布 2-已归档"`
	PublishedAt *time.Time

	// 运营指标
	ViewCount int64 `gorm:"default:0"`
}

// IsPublished 页面是否已发布（代理端只出已发布页面）
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublished
}

func (Page) TableName() string {
	return "pages"
}
