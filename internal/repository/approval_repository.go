package repository

import (
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"gorm.io/gorm"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// CreateEntry 开启一级审批（写入一条 active 的 pending 记录）
func (r *ApprovalRepository) CreateEntry(entry *model.ApprovalHistoryEntry) error {
	return r.db.Create(entry).Error
}

// GetActiveByRequest 获取申请当前待处理的审批记录
func (r *ApprovalRepository) GetActiveByRequest(requestID string) (*model.ApprovalHistoryEntry, error) {
	var entry model.ApprovalHistoryEntry
	err := r.db.First(&entry, "request_id = ? AND active = ?", requestID, true).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByRequest 按级别升序返回申请的全部审批历史
func (r *ApprovalRepository) ListByRequest(requestID string) ([]model.ApprovalHistoryEntry, error) {
	var entries []model.ApprovalHistoryEntry
	err := r.db.Where("request_id = ?", requestID).Order("level ASC").Find(&entries).Error
	return entries, err
}

// Decide 条件更新：只有记录仍处于 active 时决定才生效
// 返回 false 表示该记录已被其他审批人处理（或已被取消流程关闭），调用方按冲突处理
func (r *ApprovalRepository) Decide(entryID string, approverID, approverName string, decision model.ApprovalDecision, comments string) (bool, error) {
	now := time.Now()
	result := r.db.Model(&model.ApprovalHistoryEntry{}).
		Where("id = ? AND active = ?", entryID, true).
		Updates(map[string]interface{}{
			"decision":      decision,
			"approver_id":   approverID,
			"approver_name": approverName,
			"comments":      comments,
			"processed_at":  &now,
			"active":        false,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CloseActive 关闭申请当前待处理的审批记录（取消流程时调用），幂等
func (r *ApprovalRepository) CloseActive(requestID string, comments string) error {
	now := time.Now()
	return r.db.Model(&model.ApprovalHistoryEntry{}).
		Where("request_id = ? AND active = ?", requestID, true).
		Updates(map[string]interface{}{
			"comments":     comments,
			"processed_at": &now,
			"active":       false,
		}).Error
}
