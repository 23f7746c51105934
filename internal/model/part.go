package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartCategory 备件分类
type PartCategory struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	ParentID  string    `json:"parentId,omitempty" gorm:"type:varchar(36);index"` // 上级分类，空表示顶级
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (PartCategory) TableName() string {
	return "part_categories"
}

// Part 备件
type Part struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PartNumber string          `json:"partNumber" gorm:"type:varchar(64);uniqueIndex;not null"` // 备件编号
	Name       string          `json:"name" gorm:"type:varchar(200);not null"`
	CategoryID string          `json:"categoryId" gorm:"type:varchar(36);index"`
	OEMCode    string          `json:"oemCode,omitempty" gorm:"type:varchar(64)"`
	Unit       string          `json:"unit" gorm:"type:varchar(20);default:'pcs'"`
	UnitPrice  decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);default:0"` // 参考单价，用于估算成本
	Status     string          `json:"status" gorm:"type:varchar(20);default:'active';index"`
	CreatedAt  time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Part) TableName() string {
	return "parts"
}

// Store 门店/仓库
type Store struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code      string    `json:"code" gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	City      string    `json:"city" gorm:"type:varchar(50)"`
	Address   string    `json:"address" gorm:"type:varchar(255)"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:'active';index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Store) TableName() string {
	return "stores"
}

// StoreStock 门店备件库存
// Reserved 是该 (part, store) 上所有活跃预留的数量之和，预留/释放/消耗
// 都通过带条件的原子更新维护，保证 Reserved 永远不超过 Quantity
type StoreStock struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PartID    string    `json:"partId" gorm:"type:varchar(36);not null;uniqueIndex:idx_part_store"`
	StoreID   string    `json:"storeId" gorm:"type:varchar(36);not null;uniqueIndex:idx_part_store"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"` // 在库数量（含被预留部分）
	Reserved  int       `json:"reserved" gorm:"not null;default:0"` // 活跃预留数量之和
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (StoreStock) TableName() string {
	return "store_stocks"
}

// Available 可预留数量
func (s *StoreStock) Available() int {
	return s.Quantity - s.Reserved
}
