package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalDecision 单级审批决定
type ApprovalDecision string

const (
	DecisionPending   ApprovalDecision = "pending"   // 待处理
	DecisionApproved  ApprovalDecision = "approved"  // 批准（末级批准后整单生效）
	DecisionRejected  ApprovalDecision = "rejected"  // 拒绝（整单终止）
	DecisionEscalated ApprovalDecision = "escalated" // 上报（无条件进入下一级）
)

// ValidDecision 校验审批决定取值（pending 由引擎内部开级时写入，外部只能提交后三种）
func ValidDecision(d ApprovalDecision) bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionEscalated:
		return true
	}
	return false
}

// ApprovalHistoryEntry 审批历史记录（不可变事件，一条记录对应一级一次决定）
// 同一申请同一时间最多只有一条 Active 记录；级别严格递增不回退
type ApprovalHistoryEntry struct {
	ID           string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RequestID    string           `json:"requestId" gorm:"type:varchar(36);not null;index"`
	Level        int              `json:"level" gorm:"not null"` // 从1开始
	ApproverID   string           `json:"approverId" gorm:"type:varchar(36);index"`
	ApproverName string           `json:"approverName" gorm:"type:varchar(100)"`
	Decision     ApprovalDecision `json:"decision" gorm:"type:varchar(20);not null;default:'pending'"`
	Comments     string           `json:"comments" gorm:"type:text"`
	RequestValue decimal.Decimal  `json:"requestValue" gorm:"type:decimal(12,2)"` // 决定时点的申请金额快照
	AssignedAt   time.Time        `json:"assignedAt" gorm:"not null"`
	ProcessedAt  *time.Time       `json:"processedAt,omitempty"`
	Active       bool             `json:"active" gorm:"not null;default:true;index"` // true表示等待决定
	CreatedAt    time.Time        `json:"createdAt" gorm:"autoCreateTime"`
}

func (ApprovalHistoryEntry) TableName() string {
	return "approval_history_entries"
}
