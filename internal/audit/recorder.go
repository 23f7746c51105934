package audit

import (
	"encoding/json"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder 工作流操作日志记录器
// 审批历史和预留记录是各环节的权威事件轨迹，这里是跨环节的统一操作流水
type Recorder struct {
	db *gorm.DB
}

// NewRecorder 创建操作日志记录器
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record 异步写入一条操作日志
// 日志写入失败只记错误不阻塞业务流程
func (r *Recorder) Record(actorID, actorName, action, entityType, entityID string, detail map[string]interface{}) {
	entry := &model.OperationLog{
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if detail != nil {
		if data, err := json.Marshal(detail); err == nil {
			entry.Detail = datatypes.JSON(data)
		}
	}

	go func() {
		if err := r.db.Create(entry).Error; err != nil {
			logger.Errorf("Failed to write operation log (action=%s, entity=%s/%s): %v",
				action, entityType, entityID, err)
		}
	}()
}

// ListByEntity 查询某实体的操作流水
func (r *Recorder) ListByEntity(entityType, entityID string, limit int) ([]model.OperationLog, error) {
	var logs []model.OperationLog
	query := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&logs).Error
	return logs, err
}
