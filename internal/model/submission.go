package model

import (
	"gorm.io/datatypes"
)

// FormSubmission 表单提交（访客线索）
// Payload 中白名单内的 PII 字段在数据访问层落库前加密，
// Email/Phone/Name 三列是加密后的冗余列，便于逐条展示时解密
type FormSubmission struct {
	BaseModel

	StoreID int64 `gorm:"index;not null;comment:归属店铺"`
	PageID  int64 `gorm:"index;comment:来源页面"`

	// 访客填写的全部字段（敏感字段已加密）
	Payload datatypes.JSONMap `gorm:"type:jsonb"`

	// 常用字段冗余列（加密存储，格式 iv:tag:cipher）
	Email string `gorm:"size:512"`
	Phone string `gorm:"size:512"`
	Name  string `gorm:"size:512"`

	// 来源信息（非 PII，明文可检索）
	SourceIP  string `gorm:"size:64"`
	UserAgent string `gorm:"type:text"`
	Referrer  string `gorm:"size:512"`
}

func (FormSubmission) TableName() string {
	return "form_submissions"
}
