package model

// TrackingNumber 广告追踪电话号码
// 号码本身和转接目标都是 PII，加密存储；
// 呼叫转接逻辑由外部话务服务承担，这里只管数据
type TrackingNumber struct {
	BaseModel

	StoreID int64 `gorm:"index;not null;comment:归属店铺"`
	PageID  int64 `gorm:"index;comment:绑定页面，0 表示店铺级号码"`

	// 加密列（格式 iv:tag:cipher）
	PhoneNumber string `gorm:"size:512;not null"`
	ForwardTo   string `gorm:"size:512"`

	Label    string `gorm:"size:128"`
	Provider string `gorm:"size:32;default:'twilio'"`
	Active   bool   `gorm:"index;default:true"`
}

func (TrackingNumber) TableName() string {
	return "tracking_numbers"
}
