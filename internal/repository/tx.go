package repository

import (
	"gorm.io/gorm"
)

// WithTx 返回绑定到指定事务的仓储实例
// 跨仓储的多步操作（出库=状态流转+预留消耗）通过同一事务提交，保证不出现半套状态

func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

func (r *ApprovalRepository) WithTx(tx *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: tx}
}

func (r *ReservationRepository) WithTx(tx *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: tx}
}

func (r *InstalledPartRepository) WithTx(tx *gorm.DB) *InstalledPartRepository {
	return &InstalledPartRepository{db: tx}
}
