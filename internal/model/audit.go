package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计事件类型（封闭枚举，消费方按此报警）
const (
	AuditKindUnauthorized     = "unauthorized"         // 需要租户上下文但未解析出
	AuditKindAccessDenied     = "access_denied"        // 通用拒绝
	AuditKindSuspiciousAccess = "suspicious_access"    // 可疑访问模式
	AuditKindRateLimited      = "rate_limited"         // 触发限流
	AuditKindInvalidSignature = "invalid_signature"    // 代理签名校验失败
	AuditKindCrossTenant      = "cross_tenant_attempt" // 跨租户访问尝试
)

// AuditEvent 安全审计事件
// 只追加、不修改、不删除；生产环境按月分区，不走 AutoMigrate。
// StoreID 是请求解析出的租户，AttemptedStoreID 是被访问资源的归属租户
type AuditEvent struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	Kind string `gorm:"size:32;index;not null"`

	StoreID          *int64 `gorm:"index"`
	AttemptedStoreID *int64 `gorm:"index"`

	Endpoint  string `gorm:"size:255"`
	Method    string `gorm:"size:10"`
	OriginIP  string `gorm:"size:64"`
	UserAgent string `gorm:"type:text"`

	Detail datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"index"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
