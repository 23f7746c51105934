package model

import (
	"time"
)

// ServiceRequest 车辆维修工单（备件申请的归属单据）
// 工单本身的生命周期由维修模块维护，这里只承载备件申请需要的关联信息
type ServiceRequest struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RequestNumber string    `json:"requestNumber" gorm:"type:varchar(50);uniqueIndex;not null"`
	VehicleID     string    `json:"vehicleId" gorm:"type:varchar(36);index"`
	StoreID       string    `json:"storeId" gorm:"type:varchar(36);index"`
	TechnicianID  string    `json:"technicianId" gorm:"type:varchar(36);index"`
	Status        string    `json:"status" gorm:"type:varchar(20);default:'open';index"` // open, in_progress, closed
	Description   string    `json:"description" gorm:"type:text"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}
