package service

import (
	"testing"
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/config"
	"github.com/fisker/fleetops-backend/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fixture 测试环境：内存sqlite + 全量服务装配
type fixture struct {
	db          *gorm.DB
	users       *repository.UserRepository
	parts       *repository.PartRepository
	stocks      *repository.StockRepository
	requests    *repository.RequestRepository
	approvals   *repository.ApprovalRepository
	res         *repository.ReservationRepository
	installed   *repository.InstalledPartRepository
	limits      *repository.LimitRepository
	limitSvc    *LimitService
	approvalSvc *ApprovalService
	resSvc      *ReservationService
	issuanceSvc *IssuanceService
	requestSvc  *RequestService
	stockSvc    *StockService

	// 固定时钟，测试中可推进
	clock *fakeClock

	technician *model.User
	approver   *model.User
	store      *model.Store
	category   *model.PartCategory
	part       *model.Part
	serviceReq *model.ServiceRequest
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库限制单连接，避免每个连接各自一份空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	for _, m := range database.Models() {
		require.NoError(t, db.AutoMigrate(m))
	}

	f := &fixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		parts:     repository.NewPartRepository(db),
		stocks:    repository.NewStockRepository(db),
		requests:  repository.NewRequestRepository(db),
		approvals: repository.NewApprovalRepository(db),
		res:       repository.NewReservationRepository(db),
		installed: repository.NewInstalledPartRepository(db),
		limits:    repository.NewLimitRepository(db),
		clock:     &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)},
	}

	recorder := audit.NewRecorder(db)
	notifier := notification.NewLogNotifier()

	f.limitSvc = NewLimitService(f.limits, f.requests, f.parts, decimal.NewFromInt(1000))
	f.limitSvc.SetClock(f.clock.Now)

	f.resSvc = NewReservationService(db, f.res, f.requests, f.parts, notifier, recorder, 2*time.Hour)
	f.resSvc.SetClock(f.clock.Now)

	f.approvalSvc = NewApprovalService(db, f.requests, f.approvals, f.resSvc, notifier, AllowAllAuthorizer{}, recorder)

	f.issuanceSvc = NewIssuanceService(db, f.requests, f.res, f.installed, recorder)
	f.issuanceSvc.SetClock(f.clock.Now)

	levelPolicy := NewLevelPolicy([]config.ApprovalLevelRule{
		{MaxValue: "5000", Levels: 1},
		{MaxValue: "20000", Levels: 2},
		{MaxValue: "", Levels: 3},
	})
	f.requestSvc = NewRequestService(db, f.requests, f.approvals, f.res, f.installed, f.parts,
		f.limitSvc, f.approvalSvc, f.resSvc, levelPolicy, notifier, recorder)
	f.requestSvc.SetClock(f.clock.Now)

	f.stockSvc = NewStockService(f.stocks, f.parts)

	f.seed(t)
	return f
}

// seed 基础主数据：技术员、审批人、门店、分类、备件、维修工单
func (f *fixture) seed(t *testing.T) {
	t.Helper()

	f.technician = &model.User{
		ID: uuid.New().String(), Username: "tech01", Password: "x", Email: "tech01@example.com",
		FullName: "张伟", Role: "technician", Status: "active",
	}
	f.approver = &model.User{
		ID: uuid.New().String(), Username: "mgr01", Password: "x", Email: "mgr01@example.com",
		FullName: "李娜", Role: "manager", Status: "active",
	}
	require.NoError(t, f.users.Create(f.technician))
	require.NoError(t, f.users.Create(f.approver))

	f.store = &model.Store{ID: uuid.New().String(), Code: "ST-001", Name: "华东一号仓", Status: "active"}
	require.NoError(t, f.db.Create(f.store).Error)

	f.category = &model.PartCategory{ID: uuid.New().String(), Name: "电机系统"}
	require.NoError(t, f.db.Create(f.category).Error)

	f.part = &model.Part{
		ID: uuid.New().String(), PartNumber: "P-MTR-001", Name: "轮毂电机",
		CategoryID: f.category.ID, UnitPrice: decimal.NewFromInt(100), Status: "active",
	}
	require.NoError(t, f.db.Create(f.part).Error)

	f.serviceReq = &model.ServiceRequest{
		ID: uuid.New().String(), RequestNumber: "SR-0001",
		StoreID: f.store.ID, TechnicianID: f.technician.ID, Status: "open",
	}
	require.NoError(t, f.db.Create(f.serviceReq).Error)
}

// setStock 设置门店库存
func (f *fixture) setStock(t *testing.T, quantity int) {
	t.Helper()
	require.NoError(t, f.stocks.Upsert(&model.StoreStock{
		PartID: f.part.ID, StoreID: f.store.ID, Quantity: quantity,
	}))
}

// mustStock 读取门店库存
func (f *fixture) mustStock(t *testing.T) *model.StoreStock {
	t.Helper()
	stock, err := f.stocks.Get(f.part.ID, f.store.ID)
	require.NoError(t, err)
	return stock
}

// newApprovedRequest 直接落库一条已批准的申请（绕过限额/审批，聚焦预留与出库测试）
func (f *fixture) newApprovedRequest(t *testing.T, quantity int, estimatedCost decimal.Decimal) *model.SparePartRequest {
	t.Helper()
	now := f.clock.Now()
	req := &model.SparePartRequest{
		ID:               uuid.New().String(),
		RequestNumber:    generateRequestNumber(now),
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         quantity,
		Priority:         model.PriorityMedium,
		EstimatedCost:    estimatedCost,
		Status:           model.RequestStatusApproved,
		RequiredLevels:   1,
		CurrentLevel:     1,
		TechnicianID:     f.technician.ID,
		RequestedAt:      now,
		ApprovedAt:       &now,
	}
	require.NoError(t, f.requests.Create(req))
	return req
}

// createPending 通过服务入口创建一条需要人工审批的申请
func (f *fixture) createPending(t *testing.T, quantity int, estimatedCost decimal.Decimal) *model.SparePartRequest {
	t.Helper()
	req, err := f.requestSvc.Create(f.technician, CreateRequestInput{
		ServiceRequestID: f.serviceReq.ID,
		PartID:           f.part.ID,
		Quantity:         quantity,
		EstimatedCost:    estimatedCost,
		Justification:    "电机异响，需更换",
	})
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusPending, req.Status)
	return req
}
