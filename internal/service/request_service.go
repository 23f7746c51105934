package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/logger"
	"github.com/fisker/fleetops-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateRequestInput 备件申请创建入参
type CreateRequestInput struct {
	ServiceRequestID string          `json:"serviceRequestId" binding:"required"`
	PartID           string          `json:"partId" binding:"required"`
	Quantity         int             `json:"quantity" binding:"required"`
	Priority         string          `json:"priority"`
	EstimatedCost    decimal.Decimal `json:"estimatedCost" binding:"required"`
	Justification    string          `json:"justification"`
}

// RequestDetail 申请详情（含审批历史、预留日志、安装记录）
type RequestDetail struct {
	Request      *model.SparePartRequest      `json:"request"`
	Approvals    []model.ApprovalHistoryEntry `json:"approvals"`
	Reservations []model.StockReservation     `json:"reservations"`
	Installed    *model.InstalledPart         `json:"installed,omitempty"`
}

// RequestService 备件申请生命周期
// 创建时先过限额检查；可自动审批的申请直接生效，其余进入多级审批
type RequestService struct {
	db            *gorm.DB
	requestRepo   *repository.RequestRepository
	approvalRepo  *repository.ApprovalRepository
	resRepo       *repository.ReservationRepository
	installedRepo *repository.InstalledPartRepository
	partRepo      *repository.PartRepository
	limitSvc      *LimitService
	approvalSvc   *ApprovalService
	resSvc        *ReservationService
	levelPolicy   LevelPolicy
	notifier      notification.Notifier
	recorder      *audit.Recorder
	now           func() time.Time
}

// NewRequestService 创建申请服务
func NewRequestService(
	db *gorm.DB,
	requestRepo *repository.RequestRepository,
	approvalRepo *repository.ApprovalRepository,
	resRepo *repository.ReservationRepository,
	installedRepo *repository.InstalledPartRepository,
	partRepo *repository.PartRepository,
	limitSvc *LimitService,
	approvalSvc *ApprovalService,
	resSvc *ReservationService,
	levelPolicy LevelPolicy,
	notifier notification.Notifier,
	recorder *audit.Recorder,
) *RequestService {
	return &RequestService{
		db:            db,
		requestRepo:   requestRepo,
		approvalRepo:  approvalRepo,
		resRepo:       resRepo,
		installedRepo: installedRepo,
		partRepo:      partRepo,
		limitSvc:      limitSvc,
		approvalSvc:   approvalSvc,
		resSvc:        resSvc,
		levelPolicy:   levelPolicy,
		notifier:      notifier,
		recorder:      recorder,
		now:           time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (s *RequestService) SetClock(now func() time.Time) { s.now = now }

// Create 创建备件申请
// 限额检查不通过时不创建任何记录；可自动审批的申请直接进入已批准并尝试预留库存
func (s *RequestService) Create(technician *model.User, input CreateRequestInput) (*model.SparePartRequest, error) {
	if input.Quantity <= 0 {
		return nil, validationErr("quantity must be positive, got %d", input.Quantity)
	}
	if input.EstimatedCost.IsNegative() {
		return nil, validationErr("estimated cost must not be negative")
	}
	priority := model.RequestPriority(input.Priority)
	if input.Priority == "" {
		priority = model.PriorityMedium
	} else if !model.ValidPriority(priority) {
		return nil, validationErr("invalid priority %q", input.Priority)
	}

	if _, err := s.partRepo.GetPart(input.PartID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("part %s not found", input.PartID)
		}
		return nil, err
	}
	if _, err := s.partRepo.GetServiceRequest(input.ServiceRequestID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("service request %s not found", input.ServiceRequestID)
		}
		return nil, err
	}

	check, err := s.limitSvc.Check(technician.ID, input.PartID, input.Quantity, input.EstimatedCost)
	if err != nil {
		return nil, err
	}
	if check.Outcome == OutcomeLimitExceeded {
		return nil, limitExceededErr(check.ViolatedScope,
			"request exceeds technician limit (ceiling %s, would reach %s)", check.Ceiling, check.Accumulated)
	}

	now := s.now()
	req := &model.SparePartRequest{
		ID:               uuid.New().String(),
		RequestNumber:    generateRequestNumber(now),
		ServiceRequestID: input.ServiceRequestID,
		PartID:           input.PartID,
		Quantity:         input.Quantity,
		Priority:         priority,
		EstimatedCost:    input.EstimatedCost,
		Status:           model.RequestStatusPending,
		TechnicianID:     technician.ID,
		Justification:    input.Justification,
		RequestedAt:      now,
	}

	if check.Outcome == OutcomeAutoApprovable {
		req.Status = model.RequestStatusApproved
		req.RequiredLevels = 0
		req.ApprovedAt = &now
	} else {
		req.RequiredLevels = s.levelPolicy(input.EstimatedCost)
	}

	if err := s.requestRepo.Create(req); err != nil {
		return nil, fmt.Errorf("failed to create spare part request: %w", err)
	}

	metrics.SparePartRequestsTotal.WithLabelValues(string(req.Status)).Inc()
	s.recorder.Record(technician.ID, technician.FullName, "create", "request", req.ID, map[string]interface{}{
		"request_number": req.RequestNumber,
		"part_id":        req.PartID,
		"quantity":       req.Quantity,
		"estimated_cost": req.EstimatedCost.String(),
		"outcome":        check.Outcome,
	})

	if req.Status == model.RequestStatusApproved {
		s.notifier.RequestDecided(req, model.DecisionApproved)
		if _, rerr := s.resSvc.ReserveForRequest(req, "", "system"); rerr != nil {
			logger.Warnf("Stock reservation after auto-approval failed for request %s: %v", req.RequestNumber, rerr)
		}
		return s.requestRepo.GetByID(req.ID)
	}

	if _, err := s.approvalSvc.OpenLevel(req, 1); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(req.ID)
}

// Get 查询申请详情
func (s *RequestService) Get(requestID string) (*RequestDetail, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("request %s not found", requestID)
		}
		return nil, err
	}

	approvals, err := s.approvalRepo.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.resRepo.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}

	detail := &RequestDetail{
		Request:      req,
		Approvals:    approvals,
		Reservations: reservations,
	}
	if installed, ierr := s.installedRepo.GetByRequestID(requestID); ierr == nil {
		detail.Installed = installed
	} else if ierr != gorm.ErrRecordNotFound {
		return nil, ierr
	}
	return detail, nil
}

// List 分页查询申请
func (s *RequestService) List(status, technicianID, serviceRequestID string, page, pageSize int) (int64, []model.SparePartRequest, error) {
	return s.requestRepo.List(status, technicianID, serviceRequestID, page, pageSize)
}

// Cancel 取消申请
// 任何非终态申请都可取消：关闭待处理的审批记录、释放活跃预留、状态置为已取消
func (s *RequestService) Cancel(requestID string, actor *model.User, reason string) (*model.SparePartRequest, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("request %s not found", requestID)
		}
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, terminalErr("request %s is already %s", req.RequestNumber, req.Status)
	}

	var released *model.StockReservation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, terr := s.requestRepo.WithTx(tx).TransitionStatus(requestID, req.Status, model.RequestStatusCancelled, nil)
		if terr != nil {
			return terr
		}
		if !ok {
			return conflictErr("request %s changed state during cancellation", req.RequestNumber)
		}

		comment := "request cancelled"
		if reason != "" {
			comment = "request cancelled: " + reason
		}
		if cerr := s.approvalRepo.WithTx(tx).CloseActive(requestID, comment); cerr != nil {
			return cerr
		}

		res, gerr := s.resRepo.WithTx(tx).GetActiveByRequest(requestID, "")
		if gerr != nil {
			if gerr == gorm.ErrRecordNotFound {
				return nil
			}
			return gerr
		}
		if rerr := s.resRepo.WithTx(tx).Release(res.ID, "cancelled"); rerr != nil {
			if rerr == repository.ErrReservationInactive {
				return nil
			}
			return rerr
		}
		released = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if released != nil {
		metrics.ActiveReservations.Dec()
	}
	metrics.SparePartRequestsTotal.WithLabelValues(string(model.RequestStatusCancelled)).Inc()
	s.recorder.Record(actor.ID, actor.FullName, "cancel", "request", requestID, map[string]interface{}{
		"reason": reason,
	})

	return s.requestRepo.GetByID(requestID)
}

// generateRequestNumber 生成申请单号，时间戳保证可读有序，uuid片段消除同秒冲突
func generateRequestNumber(now time.Time) string {
	return fmt.Sprintf("SPR-%s-%s", now.Format("20060102150405"),
		strings.ToUpper(uuid.New().String()[:8]))
}
