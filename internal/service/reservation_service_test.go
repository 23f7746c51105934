package service

import (
	"testing"
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_StockGateAdmitsOnlyOne(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)

	first := f.newApprovedRequest(t, 6, dec("600"))
	second := f.newApprovedRequest(t, 6, dec("600"))

	// 库存10，两笔各要6：只有一笔能通过库存闸门
	res1, err := f.resSvc.ReserveForRequest(first, "", f.technician.ID)
	require.NoError(t, err)
	require.NotNil(t, res1)

	_, err = f.resSvc.ReserveForRequest(second, "", f.technician.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable))

	// 库存竞争属于可重试错误（等预留释放或补货后重试有意义）
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.True(t, werr.Retryable())

	stock := f.mustStock(t)
	assert.Equal(t, 10, stock.Quantity) // 预留不扣在库数量
	assert.Equal(t, 6, stock.Reserved)
	assert.Equal(t, 4, stock.Available())
}

func TestReserve_RequiresApprovedStatus(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.createPending(t, 1, dec("2000"))

	_, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestReserve_DuplicateReservationConflicts(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 2, dec("200"))

	_, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)

	_, err = f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, 2, f.mustStock(t).Reserved)
}

func TestRelease_ReturnsStockAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)
	req := f.newApprovedRequest(t, 4, dec("400"))

	res, err := f.resSvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)
	require.Equal(t, 4, f.mustStock(t).Reserved)

	require.NoError(t, f.resSvc.Release(res.ID, "not needed", f.technician.ID))
	assert.Equal(t, 0, f.mustStock(t).Reserved)

	// 重复释放是空操作，不会把 reserved 减成负数
	require.NoError(t, f.resSvc.Release(res.ID, "again", f.technician.ID))
	assert.Equal(t, 0, f.mustStock(t).Reserved)

	stored, err := f.res.GetByID(res.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, "not needed", stored.ReleaseReason)
}

func TestSweep_ReleasesOnlyExpiredReservations(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)

	expiredReq := f.newApprovedRequest(t, 3, dec("300"))
	freshReq := f.newApprovedRequest(t, 2, dec("200"))

	expiredRes, err := f.resSvc.ReserveForRequest(expiredReq, "", f.technician.ID)
	require.NoError(t, err)

	// 第一笔预留过期后再创建第二笔
	f.clock.Advance(3 * time.Hour)
	freshRes, err := f.resSvc.ReserveForRequest(freshReq, "", f.technician.ID)
	require.NoError(t, err)

	swept, err := f.resSvc.Sweep(100)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	stored, err := f.res.GetByID(expiredRes.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, "expired", stored.ReleaseReason)

	stillActive, err := f.res.GetByID(freshRes.ID)
	require.NoError(t, err)
	assert.True(t, stillActive.Active)

	// 过期的3件已归还，未过期的2件仍被占用
	assert.Equal(t, 2, f.mustStock(t).Reserved)

	// 再扫一遍没有新的可释放
	swept, err = f.resSvc.Sweep(100)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestReserve_ZeroTTLNeverExpires(t *testing.T) {
	f := newFixture(t)
	f.setStock(t, 10)

	// ttl为0时预留不带过期时间，后台扫描永远不会回收
	noExpirySvc := NewReservationService(f.db, f.res, f.requests, f.parts,
		notification.NewLogNotifier(), audit.NewRecorder(f.db), 0)
	noExpirySvc.SetClock(f.clock.Now)

	req := f.newApprovedRequest(t, 3, dec("300"))
	res, err := noExpirySvc.ReserveForRequest(req, "", f.technician.ID)
	require.NoError(t, err)
	assert.Nil(t, res.ExpiresAt)

	f.clock.Advance(30 * 24 * time.Hour)
	swept, err := noExpirySvc.Sweep(100)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	stored, err := f.res.GetByID(res.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Equal(t, 3, f.mustStock(t).Reserved)
}

func TestReserve_ExplicitStoreOverride(t *testing.T) {
	f := newFixture(t)

	other := &model.Store{ID: "store-2", Code: "ST-002", Name: "华南二号仓", Status: "active"}
	require.NoError(t, f.db.Create(other).Error)
	require.NoError(t, f.stocks.Upsert(&model.StoreStock{
		PartID: f.part.ID, StoreID: other.ID, Quantity: 5,
	}))

	req := f.newApprovedRequest(t, 2, dec("200"))
	res, err := f.resSvc.ReserveForRequest(req, other.ID, f.technician.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, res.StoreID)

	stock, err := f.stocks.Get(f.part.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stock.Reserved)
}
