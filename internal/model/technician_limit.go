package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitScope 限额作用域
type LimitScope string

const (
	ScopePart     LimitScope = "part"     // 针对单个备件
	ScopeCategory LimitScope = "category" // 针对备件分类
	ScopeTotal    LimitScope = "total"    // 针对技术员全部申请
)

// ValidLimitScope 校验限额作用域取值
func ValidLimitScope(s LimitScope) bool {
	switch s {
	case ScopePart, ScopeCategory, ScopeTotal:
		return true
	}
	return false
}

// TechnicianLimit 技术员申请限额策略
// 各作用域独立评估，命中多条时以最严格的为准；数量和金额上限为空（nil/0）表示该维度不限
type TechnicianLimit struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TechnicianID string     `json:"technicianId" gorm:"type:varchar(36);not null;index"`
	Scope        LimitScope `json:"scope" gorm:"type:varchar(20);not null"`
	TargetID     string     `json:"targetId,omitempty" gorm:"type:varchar(36);index"` // part/category 作用域的目标，total 为空

	MaxQtyPerRequest int `json:"maxQtyPerRequest" gorm:"default:0"`
	MaxQtyPerDay     int `json:"maxQtyPerDay" gorm:"default:0"`
	MaxQtyPerMonth   int `json:"maxQtyPerMonth" gorm:"default:0"`

	MaxValuePerRequest *decimal.Decimal `json:"maxValuePerRequest,omitempty" gorm:"type:decimal(12,2)"`
	MaxValuePerDay     *decimal.Decimal `json:"maxValuePerDay,omitempty" gorm:"type:decimal(12,2)"`
	MaxValuePerMonth   *decimal.Decimal `json:"maxValuePerMonth,omitempty" gorm:"type:decimal(12,2)"`

	// RequiresApproval 为 true 时无论金额大小都走人工审批
	RequiresApproval bool `json:"requiresApproval" gorm:"default:false"`

	// AutoApproveThreshold 金额低于该阈值且未被其他限制拦截时可自动审批
	AutoApproveThreshold *decimal.Decimal `json:"autoApproveThreshold,omitempty" gorm:"type:decimal(12,2)"`

	Active    bool      `json:"active" gorm:"default:true;index"`
	CreatedBy string    `json:"createdBy" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (TechnicianLimit) TableName() string {
	return "technician_limits"
}

// AppliesTo 限额是否适用于给定的备件/分类
func (l *TechnicianLimit) AppliesTo(partID, categoryID string) bool {
	switch l.Scope {
	case ScopeTotal:
		return true
	case ScopePart:
		return l.TargetID != "" && l.TargetID == partID
	case ScopeCategory:
		return l.TargetID != "" && l.TargetID == categoryID
	}
	return false
}
