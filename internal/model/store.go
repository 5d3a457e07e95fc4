package model

import (
	"time"
)

// Store 状态常量
const (
	StoreStatusPending     = 0 // 待授权
	StoreStatusActive      = 1 // 已安装
	StoreStatusUninstalled = 2 // 已卸载
)

// Store 店铺（租户），数据隔离的基本单位
// install 回调时创建，uninstall webhook 时置为已卸载；
// 核心逻辑从不硬删除店铺（删除是独立的运维操作）
type Store struct {
	BaseModel

	// 核心身份
	// ShopDomain 是 Shopify 的 myshopify 域名，全局唯一
	ShopDomain    string `gorm:"size:255;uniqueIndex;not null"`
	ShopifyShopID int64  `gorm:"index;comment:Shopify 平台 shop_id"`
	ShopName      string `gorm:"size:255"`

	// 联系信息（PII，落库前加密）
	Email string `gorm:"size:512;comment:店主邮箱，加密存储"`

	// API 凭证（对核心逻辑是黑盒，核心从不读其明文）
	AccessToken string `gorm:"size:512" json:"-"`
	Scopes      string `gorm:"size:255"`

	// 安装状态
	Status        int        `gorm:"index;default:0;comment:状态 0-待授权 1-已安装 2-已卸载"`
	InstalledAt   *time.Time `gorm:"comment:安装时间"`
	UninstalledAt *time.Time `gorm:"comment:卸载时间"`

	// 关联关系
	Pages []Page `gorm:"foreignKey:StoreID"`
}

// IsActive 店铺是否处于可用状态
// 未安装/已卸载的店铺永远不能解析出可用的请求上下文
func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}

func (Store) TableName() string {
	return "stores"
}

// ==================== 请求级店铺上下文 ====================

// StoreContext 请求作用域的店铺上下文三元组
// 每个请求由解析中间件派生一次，随请求生命周期存在，从不持久化
type StoreContext struct {
	StoreID    int64
	ShopDomain string
	ShopName   string
}
