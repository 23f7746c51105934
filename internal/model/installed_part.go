package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InstalledPart 安装记录（每个申请最多一条，预留消耗出库后才能创建）
type InstalledPart struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RequestID     string          `json:"requestId" gorm:"type:varchar(36);not null;uniqueIndex"` // 唯一索引保证幂等
	Quantity      int             `json:"quantity" gorm:"not null"`
	UnitCost      decimal.Decimal `json:"unitCost" gorm:"type:decimal(12,2);not null"`
	ServiceCost   decimal.Decimal `json:"serviceCost" gorm:"type:decimal(12,2);default:0"`
	LaborCost     decimal.Decimal `json:"laborCost" gorm:"type:decimal(12,2);default:0"`
	InstalledBy   string          `json:"installedBy" gorm:"type:varchar(36);not null"`
	InstalledAt   time.Time       `json:"installedAt" gorm:"not null"`
	WarrantyStart *time.Time      `json:"warrantyStart,omitempty"`
	WarrantyEnd   *time.Time      `json:"warrantyEnd,omitempty"`
	Mileage       *int            `json:"mileage,omitempty"` // 安装时车辆里程（公里）
	Extra         datatypes.JSON  `json:"extra,omitempty" gorm:"type:json"` // 附加信息（旧件去向、质检备注等）
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (InstalledPart) TableName() string {
	return "installed_parts"
}

// TotalCost 实际总成本 = 单价×数量 + 服务费 + 工时费
func (p *InstalledPart) TotalCost() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(int64(p.Quantity))).
		Add(p.ServiceCost).
		Add(p.LaborCost)
}
