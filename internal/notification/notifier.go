package notification

import (
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/pkg/logger"
)

// Notifier 工作流通知边界
// 具体投递渠道（飞书/钉钉/短信）由外部系统实现，工作流只在这些时点发出事件
type Notifier interface {
	// ApprovalRequested 某级审批开启，需要通知对应级别的审批人
	ApprovalRequested(req *model.SparePartRequest, entry *model.ApprovalHistoryEntry)
	// RequestDecided 申请到达终局审批结果（批准/拒绝），通知申请人
	RequestDecided(req *model.SparePartRequest, decision model.ApprovalDecision)
	// ReservationExpired 预留被后台扫描回收，提示申请人重新预留
	ReservationExpired(res *model.StockReservation)
}

// LogNotifier 默认实现：只写结构化日志，不做真实投递
type LogNotifier struct{}

// NewLogNotifier 创建日志通知器
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) ApprovalRequested(req *model.SparePartRequest, entry *model.ApprovalHistoryEntry) {
	logger.Infof("[Notify] approval requested: request=%s level=%d value=%s",
		req.RequestNumber, entry.Level, entry.RequestValue.String())
}

func (n *LogNotifier) RequestDecided(req *model.SparePartRequest, decision model.ApprovalDecision) {
	logger.Infof("[Notify] request decided: request=%s decision=%s technician=%s",
		req.RequestNumber, decision, req.TechnicianID)
}

func (n *LogNotifier) ReservationExpired(res *model.StockReservation) {
	logger.Infof("[Notify] reservation expired and released: reservation=%s request=%s qty=%d",
		res.ID, res.RequestID, res.Quantity)
}
