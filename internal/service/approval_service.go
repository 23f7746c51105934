package service

import (
	"fmt"
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/config"
	"github.com/fisker/fleetops-backend/pkg/logger"
	"github.com/fisker/fleetops-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LevelPolicy 申请金额 -> 所需审批级数
// 具体阶梯属于部署策略，从配置构建注入，引擎不持有阈值
type LevelPolicy func(value decimal.Decimal) int

// NewLevelPolicy 根据配置的阶梯规则构建级数策略
// 规则按金额升序匹配，MaxValue为空的规则兜底；没有任何规则兜底时取最后一条的级数
func NewLevelPolicy(rules []config.ApprovalLevelRule) LevelPolicy {
	type rung struct {
		max    *decimal.Decimal
		levels int
	}
	rungs := make([]rung, 0, len(rules))
	for _, rule := range rules {
		r := rung{levels: rule.Levels}
		if rule.MaxValue != "" {
			if max, err := decimal.NewFromString(rule.MaxValue); err == nil {
				r.max = &max
			}
		}
		rungs = append(rungs, r)
	}

	return func(value decimal.Decimal) int {
		for _, r := range rungs {
			if r.max == nil || value.LessThanOrEqual(*r.max) {
				return r.levels
			}
		}
		if len(rungs) > 0 {
			return rungs[len(rungs)-1].levels
		}
		return 1
	}
}

// Authorizer 审批人授权检查（权限数据由外部权限系统维护）
type Authorizer interface {
	CanApproveLevel(role string, level int) (bool, error)
}

// AllowAllAuthorizer 放行所有审批人（测试用）
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) CanApproveLevel(string, int) (bool, error) { return true, nil }

// ApprovalService 审批引擎
// 驱动申请在多级审批状态机中流转；同一申请同一时间只有一条活跃审批记录，
// 对已处理记录的重复决定返回冲突而不是二次生效
type ApprovalService struct {
	db           *gorm.DB
	requestRepo  *repository.RequestRepository
	approvalRepo *repository.ApprovalRepository
	resSvc       *ReservationService
	notifier     notification.Notifier
	authorizer   Authorizer
	recorder     *audit.Recorder
}

// NewApprovalService 创建审批引擎
func NewApprovalService(
	db *gorm.DB,
	requestRepo *repository.RequestRepository,
	approvalRepo *repository.ApprovalRepository,
	resSvc *ReservationService,
	notifier notification.Notifier,
	authorizer Authorizer,
	recorder *audit.Recorder,
) *ApprovalService {
	return &ApprovalService{
		db:           db,
		requestRepo:  requestRepo,
		approvalRepo: approvalRepo,
		resSvc:       resSvc,
		notifier:     notifier,
		authorizer:   authorizer,
		recorder:     recorder,
	}
}

// OpenLevel 为申请开启指定级别的审批（写入一条活跃的 pending 记录）
func (s *ApprovalService) OpenLevel(req *model.SparePartRequest, level int) (*model.ApprovalHistoryEntry, error) {
	entry := &model.ApprovalHistoryEntry{
		ID:           uuid.New().String(),
		RequestID:    req.ID,
		Level:        level,
		Decision:     model.DecisionPending,
		RequestValue: req.EffectiveCost(),
		AssignedAt:   time.Now(),
		Active:       true,
	}
	if err := s.approvalRepo.CreateEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to open approval level %d: %w", level, err)
	}
	if err := s.requestRepo.UpdateCurrentLevel(req.ID, level); err != nil {
		return nil, fmt.Errorf("failed to advance current level: %w", err)
	}

	s.notifier.ApprovalRequested(req, entry)
	return entry, nil
}

// Decide 处理一次审批决定
// 决定只对仍处于活跃状态的记录生效；记录已被处理（并发决定、流程被取消）返回冲突
func (s *ApprovalService) Decide(requestID string, level int, approver *model.User, decision model.ApprovalDecision, comments string) (*model.SparePartRequest, error) {
	if !model.ValidDecision(decision) {
		return nil, validationErr("invalid decision %q", decision)
	}

	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("request %s not found", requestID)
		}
		return nil, err
	}

	if req.Status.IsTerminal() {
		return nil, terminalErr("request %s is %s, no further decisions are possible", req.RequestNumber, req.Status)
	}
	if req.Status != model.RequestStatusPending {
		return nil, terminalErr("request %s is %s, not awaiting approval", req.RequestNumber, req.Status)
	}

	entry, err := s.approvalRepo.GetActiveByRequest(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, conflictErr("request %s has no pending approval entry", req.RequestNumber)
		}
		return nil, err
	}
	if entry.Level != level {
		// 针对已处理级别的重放，或者流程已推进到更高级别
		return nil, conflictErr("approval level %d of request %s is no longer active (current level: %d)",
			level, req.RequestNumber, entry.Level)
	}

	allowed, err := s.authorizer.CanApproveLevel(approver.Role, level)
	if err != nil {
		return nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		return nil, validationErr("role %q is not authorized to decide approval level %d", approver.Role, level)
	}

	ok, err := s.approvalRepo.Decide(entry.ID, approver.ID, approver.FullName, decision, comments)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 另一位审批人抢先处理了这条记录
		return nil, conflictErr("approval level %d of request %s was already decided", level, req.RequestNumber)
	}

	metrics.ApprovalDecisionsTotal.WithLabelValues(string(decision)).Inc()
	s.recorder.Record(approver.ID, approver.FullName, "decide", "request", req.ID, map[string]interface{}{
		"level":    level,
		"decision": decision,
		"comments": comments,
	})

	switch decision {
	case model.DecisionRejected:
		return s.finalizeRejected(req)
	case model.DecisionApproved:
		if level >= req.RequiredLevels {
			return s.finalizeApproved(req)
		}
		return s.advance(req, level+1)
	case model.DecisionEscalated:
		// 上报无条件进入下一级，即使已是按金额算出的末级
		return s.advance(req, level+1)
	}
	return nil, validationErr("unsupported decision %q", decision)
}

// finalizeRejected 拒绝即整单终止
func (s *ApprovalService) finalizeRejected(req *model.SparePartRequest) (*model.SparePartRequest, error) {
	ok, err := s.requestRepo.TransitionStatus(req.ID, model.RequestStatusPending, model.RequestStatusRejected, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflictErr("request %s changed state during rejection", req.RequestNumber)
	}

	updated, err := s.requestRepo.GetByID(req.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.RequestDecided(updated, model.DecisionRejected)
	return updated, nil
}

// finalizeApproved 末级批准：申请生效并尝试预留库存
// 预留失败（库存不足）不回滚审批结果，申请保持已批准未预留，由出库环节重试
func (s *ApprovalService) finalizeApproved(req *model.SparePartRequest) (*model.SparePartRequest, error) {
	now := time.Now()
	ok, err := s.requestRepo.TransitionStatus(req.ID, model.RequestStatusPending, model.RequestStatusApproved,
		map[string]interface{}{"approved_at": &now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflictErr("request %s changed state during approval", req.RequestNumber)
	}

	updated, err := s.requestRepo.GetByID(req.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.RequestDecided(updated, model.DecisionApproved)

	if s.resSvc != nil {
		if _, err := s.resSvc.ReserveForRequest(updated, "", "system"); err != nil {
			// 已批准未预留是合法的中间态
			logger.Warnf("Stock reservation after approval failed for request %s: %v", updated.RequestNumber, err)
		}
	}

	return updated, nil
}

// advance 开启下一级审批
func (s *ApprovalService) advance(req *model.SparePartRequest, nextLevel int) (*model.SparePartRequest, error) {
	if _, err := s.OpenLevel(req, nextLevel); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(req.ID)
}

// History 返回申请的审批历史（级别升序）
func (s *ApprovalService) History(requestID string) ([]model.ApprovalHistoryEntry, error) {
	return s.approvalRepo.ListByRequest(requestID)
}
