package service

import (
	"fmt"
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

// LimitOutcome 限额检查结论
type LimitOutcome string

const (
	OutcomeAutoApprovable   LimitOutcome = "AUTO_APPROVABLE"   // 可自动审批
	OutcomeApprovalRequired LimitOutcome = "APPROVAL_REQUIRED" // 需人工审批
	OutcomeLimitExceeded    LimitOutcome = "LIMIT_EXCEEDED"    // 超出强制上限
)

// LimitCheckResult 限额检查结果
// 超限时 ViolatedScope/ViolatedRule/Ceiling 指明被触发的作用域和上限
type LimitCheckResult struct {
	Outcome       LimitOutcome `json:"outcome"`
	ViolatedScope string       `json:"violatedScope,omitempty"` // part/category/total + 维度，如 "total/day-value"
	ViolatedRule  string       `json:"violatedRule,omitempty"`  // 触发的限额策略ID
	Ceiling       string       `json:"ceiling,omitempty"`       // 被突破的上限值
	Accumulated   string       `json:"accumulated,omitempty"`   // 窗口内已累计的数量/金额
}

// LimitService 限额检查器
// 只读评估，不产生任何状态变更；在申请创建前同步执行
type LimitService struct {
	limitRepo   *repository.LimitRepository
	requestRepo *repository.RequestRepository
	partRepo    *repository.PartRepository

	// defaultAutoApprove 技术员没有配置任何限额时的全局自动审批阈值
	defaultAutoApprove decimal.Decimal

	// now 可替换的时钟（测试注入）
	now func() time.Time
}

// NewLimitService 创建限额检查器
func NewLimitService(
	limitRepo *repository.LimitRepository,
	requestRepo *repository.RequestRepository,
	partRepo *repository.PartRepository,
	defaultAutoApprove decimal.Decimal,
) *LimitService {
	return &LimitService{
		limitRepo:          limitRepo,
		requestRepo:        requestRepo,
		partRepo:           partRepo,
		defaultAutoApprove: defaultAutoApprove,
		now:                time.Now,
	}
}

// SetClock 替换时钟（仅测试使用）
func (s *LimitService) SetClock(now func() time.Time) {
	s.now = now
}

// Check 评估一笔拟创建的申请
// 命中多条限额时逐条评估，任何一条被突破立即返回 LIMIT_EXCEEDED（最严格者生效）
func (s *LimitService) Check(technicianID, partID string, quantity int, estimatedCost decimal.Decimal) (*LimitCheckResult, error) {
	if quantity <= 0 {
		return nil, validationErr("quantity must be positive, got %d", quantity)
	}
	if estimatedCost.IsNegative() {
		return nil, validationErr("estimated cost must not be negative, got %s", estimatedCost.String())
	}

	categoryID := ""
	if partID != "" {
		part, err := s.partRepo.GetPart(partID)
		if err != nil {
			return nil, notFoundErr("part %s not found", partID)
		}
		categoryID = part.CategoryID
	}

	limits, err := s.limitRepo.ListActiveByTechnician(technicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to load technician limits: %w", err)
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	requiresApproval := false
	hasAutoApproveThreshold := false
	underEveryThreshold := true

	for i := range limits {
		limit := &limits[i]
		if !limit.AppliesTo(partID, categoryID) {
			continue
		}

		if violation, err := s.evaluate(limit, technicianID, partID, categoryID, quantity, estimatedCost, dayStart, monthStart); err != nil {
			return nil, err
		} else if violation != nil {
			metrics.LimitExceededTotal.WithLabelValues(violation.ViolatedScope).Inc()
			return violation, nil
		}

		if limit.RequiresApproval {
			requiresApproval = true
		}
		if limit.AutoApproveThreshold != nil {
			hasAutoApproveThreshold = true
			if estimatedCost.GreaterThanOrEqual(*limit.AutoApproveThreshold) {
				underEveryThreshold = false
			}
		}
	}

	if requiresApproval {
		return &LimitCheckResult{Outcome: OutcomeApprovalRequired}, nil
	}

	// 未配置任何阈值时退回全局默认阈值
	if !hasAutoApproveThreshold {
		if estimatedCost.LessThan(s.defaultAutoApprove) {
			return &LimitCheckResult{Outcome: OutcomeAutoApprovable}, nil
		}
		return &LimitCheckResult{Outcome: OutcomeApprovalRequired}, nil
	}

	if underEveryThreshold {
		return &LimitCheckResult{Outcome: OutcomeAutoApprovable}, nil
	}
	return &LimitCheckResult{Outcome: OutcomeApprovalRequired}, nil
}

// evaluate 评估单条限额，被突破时返回 LIMIT_EXCEEDED 结果
func (s *LimitService) evaluate(
	limit *model.TechnicianLimit,
	technicianID, partID, categoryID string,
	quantity int,
	estimatedCost decimal.Decimal,
	dayStart, monthStart time.Time,
) (*LimitCheckResult, error) {
	// 单次申请上限不依赖历史，先查
	if limit.MaxQtyPerRequest > 0 && quantity > limit.MaxQtyPerRequest {
		return s.violation(limit, "request-quantity", fmt.Sprintf("%d", limit.MaxQtyPerRequest), fmt.Sprintf("%d", quantity)), nil
	}
	if limit.MaxValuePerRequest != nil && estimatedCost.GreaterThan(*limit.MaxValuePerRequest) {
		return s.violation(limit, "request-value", limit.MaxValuePerRequest.String(), estimatedCost.String()), nil
	}

	// 窗口累计：part作用域按备件过滤，category作用域按分类过滤，total不过滤
	usagePart, usageCategory := "", ""
	switch limit.Scope {
	case model.ScopePart:
		usagePart = partID
	case model.ScopeCategory:
		usageCategory = categoryID
	}

	needDay := limit.MaxQtyPerDay > 0 || limit.MaxValuePerDay != nil
	needMonth := limit.MaxQtyPerMonth > 0 || limit.MaxValuePerMonth != nil

	if needDay {
		dayQty, dayValue, err := s.requestRepo.AccumulatedUsage(technicianID, dayStart, usagePart, usageCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to compute daily usage: %w", err)
		}
		if limit.MaxQtyPerDay > 0 && dayQty+quantity > limit.MaxQtyPerDay {
			return s.violation(limit, "day-quantity", fmt.Sprintf("%d", limit.MaxQtyPerDay), fmt.Sprintf("%d", dayQty+quantity)), nil
		}
		if limit.MaxValuePerDay != nil && dayValue.Add(estimatedCost).GreaterThan(*limit.MaxValuePerDay) {
			return s.violation(limit, "day-value", limit.MaxValuePerDay.String(), dayValue.Add(estimatedCost).String()), nil
		}
	}

	if needMonth {
		monthQty, monthValue, err := s.requestRepo.AccumulatedUsage(technicianID, monthStart, usagePart, usageCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to compute monthly usage: %w", err)
		}
		if limit.MaxQtyPerMonth > 0 && monthQty+quantity > limit.MaxQtyPerMonth {
			return s.violation(limit, "month-quantity", fmt.Sprintf("%d", limit.MaxQtyPerMonth), fmt.Sprintf("%d", monthQty+quantity)), nil
		}
		if limit.MaxValuePerMonth != nil && monthValue.Add(estimatedCost).GreaterThan(*limit.MaxValuePerMonth) {
			return s.violation(limit, "month-value", limit.MaxValuePerMonth.String(), monthValue.Add(estimatedCost).String()), nil
		}
	}

	return nil, nil
}

// violation 构造超限结果
func (s *LimitService) violation(limit *model.TechnicianLimit, dimension, ceiling, accumulated string) *LimitCheckResult {
	return &LimitCheckResult{
		Outcome:       OutcomeLimitExceeded,
		ViolatedScope: fmt.Sprintf("%s/%s", limit.Scope, dimension),
		ViolatedRule:  limit.ID,
		Ceiling:       ceiling,
		Accumulated:   accumulated,
	}
}

// CreateLimit 创建限额策略
func (s *LimitService) CreateLimit(limit *model.TechnicianLimit) error {
	if limit.TechnicianID == "" {
		return validationErr("technician id is required")
	}
	if !model.ValidLimitScope(limit.Scope) {
		return validationErr("invalid limit scope %q", limit.Scope)
	}
	if limit.Scope != model.ScopeTotal && limit.TargetID == "" {
		return validationErr("target id is required for %s scope limits", limit.Scope)
	}
	if limit.Scope == model.ScopeTotal && limit.TargetID != "" {
		return validationErr("target id must be empty for total scope limits")
	}
	limit.Active = true
	return s.limitRepo.Create(limit)
}

// UpdateLimit 更新限额策略
func (s *LimitService) UpdateLimit(limit *model.TechnicianLimit) error {
	if !model.ValidLimitScope(limit.Scope) {
		return validationErr("invalid limit scope %q", limit.Scope)
	}
	return s.limitRepo.Update(limit)
}

// DeactivateLimit 停用限额策略（停用而不是删除，保留历史可追溯）
func (s *LimitService) DeactivateLimit(id string) error {
	return s.limitRepo.Deactivate(id)
}

// GetLimit 查询限额策略
func (s *LimitService) GetLimit(id string) (*model.TechnicianLimit, error) {
	limit, err := s.limitRepo.GetByID(id)
	if err != nil {
		return nil, notFoundErr("limit %s not found", id)
	}
	return limit, nil
}

// ListLimits 分页查询限额策略
func (s *LimitService) ListLimits(technicianID string, page, pageSize int) (int64, []model.TechnicianLimit, error) {
	return s.limitRepo.List(technicianID, page, pageSize)
}
