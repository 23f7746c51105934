package model

import (
	"time"

	"gorm.io/datatypes"
)

// OperationLog 工作流操作日志（事件轨迹，只追加不修改）
type OperationLog struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    string         `gorm:"type:varchar(36);not null;index" json:"actor_id"`
	ActorName  string         `gorm:"type:varchar(100)" json:"actor_name"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"` // create_request/decide/reserve/release/issue/install/cancel/sweep
	EntityType string         `gorm:"type:varchar(50);not null" json:"entity_type"`  // request/reservation/installed_part/limit
	EntityID   string         `gorm:"type:varchar(36);not null;index" json:"entity_id"`
	Detail     datatypes.JSON `gorm:"type:json" json:"detail"`
	IP         string         `gorm:"type:varchar(50)" json:"ip"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
