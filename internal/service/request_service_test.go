package service

import (
	"strings"
	"testing"
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequest_AutoApprovalReservesImmediately(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)

	req, err := f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         2,
		EstimatedCost:    dec("400"), // 低于全局自动审批阈值1000
	})
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusApproved, req.Status)
	assert.Equal(t, 0, req.RequiredLevels)
	require.NotNil(t, req.ApprovedAt)
	assert.True(t, strings.HasPrefix(req.RequestNumber, "SPR-"))

	// 自动审批直接预留库存
	res, err := f.res.GetActiveByRequest(req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Quantity)
	assert.Equal(t, f.store.ID, res.StoreID)

	// 没有审批历史
	entries, err := f.approvals.ListByRequest(req.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateRequest_ApprovalRequiredOpensFirstLevel(t *testing.T) {
	f := newFixture(t)

	req := f.createPending(t, 1, dec("8000"))
	assert.Equal(t, 2, req.RequiredLevels) // 8000 -> 2级
	assert.Equal(t, 1, req.CurrentLevel)

	entries, err := f.approvals.ListByRequest(req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Level)
	assert.True(t, entries[0].Active)
	assert.Equal(t, model.DecisionPending, entries[0].Decision)
	assert.True(t, entries[0].RequestValue.Equal(dec("8000")))
}

func TestCreateRequest_LimitExceededCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.addLimit(t, &model.TechnicianLimit{
		Scope:          model.ScopeTotal,
		MaxValuePerDay: ptr(dec("5000")),
	})
	f.newApprovedRequest(t, 1, dec("3000"))

	var before int64
	require.NoError(t, f.db.Model(&model.SparePartRequest{}).Count(&before).Error)

	_, err := f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         1,
		EstimatedCost:    dec("3000"),
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindLimitExceeded))
	assert.Contains(t, err.Error(), "total/day-value")

	var after int64
	require.NoError(t, f.db.Model(&model.SparePartRequest{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         0,
		EstimatedCost:    dec("100"),
	})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         1,
		Priority:         "urgent-ish",
		EstimatedCost:    dec("100"),
	})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           uuid.New().String(),
		Quantity:         1,
		EstimatedCost:    dec("100"),
	})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: uuid.New().String(),
		PartID:           f.part.ID,
		Quantity:         1,
		EstimatedCost:    dec("100"),
	})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCancel_ClosesApprovalAndReleasesReservation(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)

	// 自动审批并预留
	req, err := f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         4,
		EstimatedCost:    dec("400"),
	})
	require.NoError(t, err)
	require.Equal(t, 4, f.mustStock(t).Reserved)

	cancelled, err := f.requestSvc.Cancel(req.ID, f.technician, "车辆已报废")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, cancelled.Status)
	assert.Equal(t, 0, f.mustStock(t).Reserved)

	// 取消是终态
	_, err = f.requestSvc.Cancel(req.ID, f.technician, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTerminal))
}

func TestCancel_PendingRequestClosesActiveEntry(t *testing.T) {
	f := newFixture(t)
	req := f.createPending(t, 1, dec("8000"))

	_, err := f.requestSvc.Cancel(req.ID, f.technician, "误提交")
	require.NoError(t, err)

	entries, err := f.approvals.ListByRequest(req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Active)

	// 取消后的审批决定被拒之门外
	_, err = f.approvalSvc.Decide(req.ID, 1, f.approver, model.DecisionApproved, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTerminal))
}

func TestGetRequest_DetailAggregatesHistory(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.createPending(t, 2, dec("12000"))

	_, err := f.approvalSvc.Decide(req.ID, 1, f.approver, model.DecisionApproved, "")
	require.NoError(t, err)
	_, err = f.approvalSvc.Decide(req.ID, 2, f.approver, model.DecisionApproved, "")
	require.NoError(t, err)
	_, err = f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.NoError(t, err)
	installed, err := f.issuanceSvc.Install(req.ID, f.technician.ID, InstallInput{
		UnitCost: dec("100"), ServiceCost: dec("50"), LaborCost: dec("20"),
	})
	require.NoError(t, err)

	detail, err := f.requestSvc.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusInstalled, detail.Request.Status)
	assert.Len(t, detail.Approvals, 2)
	assert.Len(t, detail.Reservations, 1)
	require.NotNil(t, detail.Installed)
	assert.Equal(t, installed.ID, detail.Installed.ID)
	// 2×100 + 50 + 20
	require.NotNil(t, detail.Request.ActualCost)
	assert.True(t, detail.Request.ActualCost.Equal(dec("270")))
}

func TestList_FiltersByStatusAndTechnician(t *testing.T) {
	f := newFixture(t)
	f.createPending(t, 1, dec("8000"))
	f.newApprovedRequest(t, 1, dec("100"))

	total, pending, err := f.requestSvc.List(string(model.RequestStatusPending), "", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, model.RequestStatusPending, pending[0].Status)

	total, mine, err := f.requestSvc.List("", f.technician.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)
}

func TestRequestNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local)
	number := generateRequestNumber(now)
	assert.True(t, strings.HasPrefix(number, "SPR-20260310093000-"))
	assert.Len(t, number, len("SPR-")+14+1+8)
}
