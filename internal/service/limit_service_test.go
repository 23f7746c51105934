package service

import (
	"testing"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func (f *fixture) addLimit(t *testing.T, limit *model.TechnicianLimit) *model.TechnicianLimit {
	t.Helper()
	limit.ID = uuid.New().String()
	limit.TechnicianID = f.technician.ID
	limit.Active = true
	require.NoError(t, f.limits.Create(limit))
	return limit
}

func TestLimitCheck_NoLimitsUsesGlobalThreshold(t *testing.T) {
	f := newFixture(t)

	// 低于全局阈值1000 -> 自动审批
	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("800"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAutoApprovable, result.Outcome)

	// 达到阈值 -> 人工审批
	result, err = f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApprovalRequired, result.Outcome)
}

func TestLimitCheck_PerRequestCeilings(t *testing.T) {
	f := newFixture(t)
	f.addLimit(t, &model.TechnicianLimit{
		Scope:              model.ScopeTotal,
		MaxQtyPerRequest:   5,
		MaxValuePerRequest: ptr(dec("2000")),
	})

	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 6, dec("500"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeLimitExceeded, result.Outcome)
	assert.Equal(t, "total/request-quantity", result.ViolatedScope)
	assert.Equal(t, "5", result.Ceiling)

	result, err = f.limitSvc.Check(f.technician.ID, f.part.ID, 2, dec("2500"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeLimitExceeded, result.Outcome)
	assert.Equal(t, "total/request-value", result.ViolatedScope)
}

func TestLimitCheck_DailyValueWindowAccumulation(t *testing.T) {
	f := newFixture(t)
	f.addLimit(t, &model.TechnicianLimit{
		Scope:          model.ScopeTotal,
		MaxValuePerDay: ptr(dec("5000")),
	})

	// 当天已有一笔3000的已批准申请
	f.newApprovedRequest(t, 1, dec("3000"))

	// 再来一笔3000：3000 + 3000 > 5000 -> 超限
	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("3000"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeLimitExceeded, result.Outcome)
	assert.Equal(t, "total/day-value", result.ViolatedScope)
	assert.Equal(t, "5000", result.Ceiling)
	assert.Equal(t, "6000", result.Accumulated)

	// 2000 刚好填满窗口 -> 通过
	result, err = f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("2000"))
	require.NoError(t, err)
	assert.NotEqual(t, OutcomeLimitExceeded, result.Outcome)
}

func TestLimitCheck_RejectedRequestsDoNotCount(t *testing.T) {
	f := newFixture(t)
	f.addLimit(t, &model.TechnicianLimit{
		Scope:          model.ScopeTotal,
		MaxValuePerDay: ptr(dec("5000")),
	})

	// 被拒绝的申请不计入窗口累计
	req := f.newApprovedRequest(t, 1, dec("4000"))
	ok, err := f.requests.TransitionStatus(req.ID, model.RequestStatusApproved, model.RequestStatusIssued, nil)
	require.NoError(t, err)
	require.True(t, ok)

	rejected := f.newApprovedRequest(t, 1, dec("9999"))
	require.NoError(t, f.db.Model(&model.SparePartRequest{}).
		Where("id = ?", rejected.ID).
		Update("status", model.RequestStatusRejected).Error)

	// 已出库的4000计入，被拒绝的9999不计入：4000 + 500 <= 5000
	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("500"))
	require.NoError(t, err)
	assert.NotEqual(t, OutcomeLimitExceeded, result.Outcome)
}

func TestLimitCheck_CategoryScopeOnlyCountsMatchingParts(t *testing.T) {
	f := newFixture(t)

	// 另一分类的备件，其用量不应计入本分类限额
	otherCategory := &model.PartCategory{ID: uuid.New().String(), Name: "制动系统"}
	require.NoError(t, f.db.Create(otherCategory).Error)
	otherPart := &model.Part{
		ID: uuid.New().String(), PartNumber: "P-BRK-001", Name: "刹车片",
		CategoryID: otherCategory.ID, UnitPrice: dec("50"), Status: "active",
	}
	require.NoError(t, f.db.Create(otherPart).Error)

	f.addLimit(t, &model.TechnicianLimit{
		Scope:        model.ScopeCategory,
		TargetID:     f.category.ID,
		MaxQtyPerDay: 3,
	})

	// 本分类已用2件
	f.newApprovedRequest(t, 2, dec("200"))

	// 其他分类的大量申请不占本分类配额
	other := f.newApprovedRequest(t, 10, dec("500"))
	require.NoError(t, f.db.Model(&model.SparePartRequest{}).
		Where("id = ?", other.ID).
		Update("part_id", otherPart.ID).Error)

	// 本分类再申请1件：2 + 1 <= 3 -> 通过
	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("100"))
	require.NoError(t, err)
	assert.NotEqual(t, OutcomeLimitExceeded, result.Outcome)

	// 再申请2件：2 + 2 > 3 -> 超限
	result, err = f.limitSvc.Check(f.technician.ID, f.part.ID, 2, dec("200"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeLimitExceeded, result.Outcome)
	assert.Equal(t, "category/day-quantity", result.ViolatedScope)
}

func TestLimitCheck_RequiresApprovalOverridesThreshold(t *testing.T) {
	f := newFixture(t)
	f.addLimit(t, &model.TechnicianLimit{
		Scope:            model.ScopeTotal,
		RequiresApproval: true,
	})

	// 金额再小也必须人工审批
	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApprovalRequired, result.Outcome)
}

func TestLimitCheck_AutoApproveThresholdFromLimit(t *testing.T) {
	f := newFixture(t)
	f.addLimit(t, &model.TechnicianLimit{
		Scope:                model.ScopeTotal,
		AutoApproveThreshold: ptr(dec("300")),
	})

	result, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("200"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAutoApprovable, result.Outcome)

	result, err = f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("300"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApprovalRequired, result.Outcome)
}

func TestLimitCheck_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.limitSvc.Check(f.technician.ID, f.part.ID, 0, dec("100"))
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.limitSvc.Check(f.technician.ID, f.part.ID, 1, dec("-1"))
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.limitSvc.Check(f.technician.ID, uuid.New().String(), 1, dec("100"))
	assert.True(t, IsKind(err, KindNotFound))
}
