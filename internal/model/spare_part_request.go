package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus 备件申请状态
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // 审批中
	RequestStatusApproved  RequestStatus = "approved"  // 已批准（待出库）
	RequestStatusRejected  RequestStatus = "rejected"  // 已拒绝（终态）
	RequestStatusIssued    RequestStatus = "issued"    // 已出库
	RequestStatusInstalled RequestStatus = "installed" // 已安装（终态）
	RequestStatusCancelled RequestStatus = "cancelled" // 已取消（终态）
)

// RequestPriority 申请优先级
type RequestPriority string

const (
	PriorityLow      RequestPriority = "low"
	PriorityMedium   RequestPriority = "medium"
	PriorityHigh     RequestPriority = "high"
	PriorityCritical RequestPriority = "critical"
)

// ValidPriority 校验优先级取值
func ValidPriority(p RequestPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// IsTerminal 是否终态
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusInstalled, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 状态机：pending→{approved,rejected}；approved→issued；issued→installed；
// 非终态均可→cancelled
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	if target == RequestStatusCancelled {
		return !s.IsTerminal()
	}
	switch s {
	case RequestStatusPending:
		return target == RequestStatusApproved || target == RequestStatusRejected
	case RequestStatusApproved:
		return target == RequestStatusIssued
	case RequestStatusIssued:
		return target == RequestStatusInstalled
	}
	return false
}

// SparePartRequest 备件申请（出库流程的聚合根）
// 审批历史、库存预留、安装记录都通过 request_id 关联查询，不做内嵌持有
type SparePartRequest struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RequestNumber    string           `json:"requestNumber" gorm:"type:varchar(50);uniqueIndex;not null"`
	ServiceRequestID string           `json:"serviceRequestId" gorm:"type:varchar(36);not null;index"`
	PartID           string           `json:"partId" gorm:"type:varchar(36);not null;index"`
	Quantity         int              `json:"quantity" gorm:"not null"` // 创建后不再变更，需要改量时重新申请
	Priority         RequestPriority  `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	EstimatedCost    decimal.Decimal  `json:"estimatedCost" gorm:"type:decimal(12,2);not null"`
	ActualCost       *decimal.Decimal `json:"actualCost,omitempty" gorm:"type:decimal(12,2)"` // 安装完成后由成本核销写入
	Status           RequestStatus    `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CurrentLevel     int              `json:"currentLevel" gorm:"not null;default:0"` // 当前审批级别，随流程单调递增
	RequiredLevels   int              `json:"requiredLevels" gorm:"not null;default:1"`
	TechnicianID     string           `json:"technicianId" gorm:"type:varchar(36);not null;index"`
	Justification    string           `json:"justification" gorm:"type:text"`
	RequestedAt      time.Time        `json:"requestedAt" gorm:"not null"`
	ApprovedAt       *time.Time       `json:"approvedAt,omitempty"`
	IssuedAt         *time.Time       `json:"issuedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (SparePartRequest) TableName() string {
	return "spare_part_requests"
}

// EffectiveCost 限额累计时使用的金额：有实际成本用实际成本，否则用估算成本
func (r *SparePartRequest) EffectiveCost() decimal.Decimal {
	if r.ActualCost != nil {
		return *r.ActualCost
	}
	return r.EstimatedCost
}
