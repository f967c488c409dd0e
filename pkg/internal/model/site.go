package model

import "time"

// Site 客户端安装站点，由账户管理系统维护，本服务只读.
type Site struct {
	ID        string    `gorm:"primaryKey;size:64"     json:"id"`
	AccountID string    `gorm:"size:64;not null;index" json:"account_id"`
	Domain    string    `gorm:"size:255;not null"      json:"domain"`
	Active    bool      `gorm:"not null"               json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 表名.
func (Site) TableName() string {
	return "sites"
}
