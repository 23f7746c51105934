package model

import (
	"time"
)

// User 平台用户（技术员、各级审批人、管理员）
type User struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username      string     `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Password      string     `json:"-" gorm:"type:varchar(255);not null"` // 不在JSON中暴露
	Email         string     `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	FullName      string     `json:"fullName" gorm:"type:varchar(100)"`
	Phone         string     `json:"phone" gorm:"type:varchar(20)"`
	Role          string     `json:"role" gorm:"type:varchar(20);default:'technician';index"` // technician, supervisor, manager, director, storekeeper, admin
	Status        string     `json:"status" gorm:"type:varchar(20);default:'active';index"`   // active, disabled
	StoreID       string     `json:"storeId,omitempty" gorm:"type:varchar(36);index"`         // 所属门店（技术员/库管）
	LastLoginTime *time.Time `json:"lastLoginTime" gorm:"type:timestamp"`
	LastLoginIP   string     `json:"lastLoginIp" gorm:"type:varchar(45)"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// IsActive 用户是否可用
func (u *User) IsActive() bool {
	return u.Status == "active"
}
