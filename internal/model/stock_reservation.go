package model

import (
	"time"
)

// StockReservation 库存预留（带时效的占用，防止已批未领的备件被重复分配）
// 失效（Active=false）是终态，不会被重新激活；需要时重新创建预留
type StockReservation struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RequestID     string     `json:"requestId" gorm:"type:varchar(36);not null;index"`
	PartID        string     `json:"partId" gorm:"type:varchar(36);not null;index:idx_res_part_store"`
	StoreID       string     `json:"storeId" gorm:"type:varchar(36);not null;index:idx_res_part_store"`
	Quantity      int        `json:"quantity" gorm:"not null"`
	ReservedBy    string     `json:"reservedBy" gorm:"type:varchar(36);not null"`
	ReservedAt    time.Time  `json:"reservedAt" gorm:"not null"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty" gorm:"index"` // 空表示不自动过期
	Active        bool       `json:"active" gorm:"not null;default:true;index"`
	ReleaseReason string     `json:"releaseReason,omitempty" gorm:"type:varchar(255)"` // 失效原因: consumed/cancelled/expired/...
	ReleasedAt    *time.Time `json:"releasedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"autoCreateTime"`
}

func (StockReservation) TableName() string {
	return "stock_reservations"
}

// Expired 预留是否已过期
// consume 的惰性检查和后台扫描都走这一个判断，避免两处口径不一致
func (r *StockReservation) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
