package service

import (
	"testing"
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_ConsumesReservationAndDeductsStock(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 3, dec("300"))

	res, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)

	issued, err := f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)

	// 出库后预留失效，库存永久扣减
	stored, err := f.res.GetByID(res.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, "consumed", stored.ReleaseReason)

	stock := f.mustStock(t)
	assert.Equal(t, 7, stock.Quantity)
	assert.Equal(t, 0, stock.Reserved)
}

func TestIssue_ExpiredReservationRollsBack(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 3, dec("300"))

	res, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)

	// 预留TTL为2小时，推进3小时后出库
	f.clock.Advance(3 * time.Hour)

	_, err = f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable))

	// 整个事务回滚：申请仍为已批准，预留留给后台扫描，库存未动
	reloaded, err := f.requests.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, reloaded.Status)

	stored, err := f.res.GetByID(res.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)

	stock := f.mustStock(t)
	assert.Equal(t, 10, stock.Quantity)
	assert.Equal(t, 3, stock.Reserved)

	// 后台扫描回收后可重新预留出库
	swept, err := f.resSvc.Sweep(100)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, 0, f.mustStock(t).Reserved)
}

func TestIssue_WithoutReservationConflicts(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 1, dec("100"))

	_, err := f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestIssue_PendingRequestRejected(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.createPending(t, 1, dec("2000"))

	_, err := f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTerminal))
}

func TestInstall_ReconcilesActualCost(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 2, dec("250"))

	_, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)
	_, err = f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.NoError(t, err)

	installed, err := f.issuanceSvc.Install(req.ID, f.technician.ID, InstallInput{
		UnitCost:    dec("100"),
		ServiceCost: dec("50"),
		LaborCost:   dec("20"),
	})
	require.NoError(t, err)

	// 实际成本 = 100×2 + 50 + 20 = 270
	assert.True(t, installed.TotalCost().Equal(dec("270")))

	reloaded, err := f.requests.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusInstalled, reloaded.Status)
	require.NotNil(t, reloaded.ActualCost)
	assert.True(t, reloaded.ActualCost.Equal(dec("270")))
	assert.True(t, reloaded.EffectiveCost().Equal(dec("270")))
}

func TestInstall_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 1, dec("100"))

	_, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)
	_, err = f.issuanceSvc.Issue(req.ID, "", f.technician.ID, nil)
	require.NoError(t, err)

	first, err := f.issuanceSvc.Install(req.ID, f.technician.ID, InstallInput{
		UnitCost: dec("100"),
	})
	require.NoError(t, err)

	// 重复登记返回首次记录，不重复计费
	second, err := f.issuanceSvc.Install(req.ID, f.technician.ID, InstallInput{
		UnitCost:    dec("999"),
		ServiceCost: dec("999"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.UnitCost.Equal(dec("100")))

	reloaded, err := f.requests.GetByID(req.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ActualCost)
	assert.True(t, reloaded.ActualCost.Equal(dec("100")))
}

func TestInstall_RequiresIssuedStatus(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 1, dec("100"))

	_, err := f.issuanceSvc.Install(req.ID, f.technician.ID, InstallInput{UnitCost: dec("100")})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTerminal))
}

func TestIssue_ActualCostAtIssuance(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 1, dec("120"))

	_, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)

	cost := dec("95.50")
	issued, err := f.issuanceSvc.Issue(req.ID, "", f.technician.ID, &cost)
	require.NoError(t, err)
	require.NotNil(t, issued.ActualCost)
	assert.True(t, issued.ActualCost.Equal(dec("95.50")))
}
