package service

import (
	"strings"
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallInput 安装登记入参
type InstallInput struct {
	UnitCost      decimal.Decimal `json:"unitCost" binding:"required"`
	ServiceCost   decimal.Decimal `json:"serviceCost"`
	LaborCost     decimal.Decimal `json:"laborCost"`
	WarrantyStart *time.Time      `json:"warrantyStart,omitempty"`
	WarrantyEnd   *time.Time      `json:"warrantyEnd,omitempty"`
	Mileage       *int            `json:"mileage,omitempty"`
}

// IssuanceService 出库与安装登记
// 出库 = 申请状态流转 + 预留消耗，两步在同一数据库事务内提交
type IssuanceService struct {
	db            *gorm.DB
	requestRepo   *repository.RequestRepository
	resRepo       *repository.ReservationRepository
	installedRepo *repository.InstalledPartRepository
	recorder      *audit.Recorder
	now           func() time.Time
}

// NewIssuanceService 创建出库服务
func NewIssuanceService(
	db *gorm.DB,
	requestRepo *repository.RequestRepository,
	resRepo *repository.ReservationRepository,
	installedRepo *repository.InstalledPartRepository,
	recorder *audit.Recorder,
) *IssuanceService {
	return &IssuanceService{
		db:            db,
		requestRepo:   requestRepo,
		resRepo:       resRepo,
		installedRepo: installedRepo,
		recorder:      recorder,
		now:           time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (s *IssuanceService) SetClock(now func() time.Time) { s.now = now }

// Issue 出库：消耗申请名下的活跃预留并把申请推进到已出库
// 预留已过期时整个操作回滚，申请保持已批准，预留交给后台扫描释放；
// actualCost 允许库管出库时直接登记实际领用成本
func (s *IssuanceService) Issue(requestID, storeID, actorID string, actualCost *decimal.Decimal) (*model.SparePartRequest, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("request %s not found", requestID)
		}
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, terminalErr("request %s is %s and cannot be issued", req.RequestNumber, req.Status)
	}
	if req.Status != model.RequestStatusApproved {
		return nil, terminalErr("request %s is %s, only approved requests can be issued", req.RequestNumber, req.Status)
	}

	res, err := s.resRepo.GetActiveByRequest(requestID, storeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, conflictErr("request %s has no active stock reservation, reserve stock before issuing", req.RequestNumber)
		}
		return nil, err
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, terr := s.requestRepo.WithTx(tx).TransitionStatus(requestID,
			model.RequestStatusApproved, model.RequestStatusIssued,
			map[string]interface{}{"issued_at": &now})
		if terr != nil {
			return terr
		}
		if !ok {
			return conflictErr("request %s changed state during issuance", req.RequestNumber)
		}

		if _, cerr := s.resRepo.WithTx(tx).Consume(res.ID, now); cerr != nil {
			switch cerr {
			case repository.ErrReservationExpired:
				return reservationExpiredErr("reservation %s for request %s expired at %s",
					res.ID, req.RequestNumber, res.ExpiresAt.Format(time.RFC3339))
			case repository.ErrReservationInactive:
				return conflictErr("reservation %s for request %s was already consumed or released", res.ID, req.RequestNumber)
			}
			return cerr
		}

		if actualCost != nil {
			if actualCost.IsNegative() {
				return validationErr("actual cost must not be negative")
			}
			if serr := s.requestRepo.WithTx(tx).SetActualCost(requestID, *actualCost); serr != nil {
				return serr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ActiveReservations.Dec()
	metrics.SparePartRequestsTotal.WithLabelValues(string(model.RequestStatusIssued)).Inc()
	s.recorder.Record(actorID, "", "issue", "request", requestID, map[string]interface{}{
		"reservation_id": res.ID,
		"store_id":       res.StoreID,
		"quantity":       res.Quantity,
	})

	return s.requestRepo.GetByID(requestID)
}

// Install 安装登记并完成成本核销
// 每个申请只允许登记一次；重复登记返回首次写入的记录，不重复计费。
// 实际成本 = 单价×数量 + 服务费 + 工时费，回写到申请的 actual_cost
func (s *IssuanceService) Install(requestID, actorID string, input InstallInput) (*model.InstalledPart, error) {
	req, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("request %s not found", requestID)
		}
		return nil, err
	}

	// 重复登记按幂等处理
	if existing, gerr := s.installedRepo.GetByRequestID(requestID); gerr == nil {
		return existing, nil
	} else if gerr != gorm.ErrRecordNotFound {
		return nil, gerr
	}

	if req.Status != model.RequestStatusIssued {
		return nil, terminalErr("request %s is %s, only issued parts can be recorded as installed", req.RequestNumber, req.Status)
	}
	if input.UnitCost.IsNegative() || input.ServiceCost.IsNegative() || input.LaborCost.IsNegative() {
		return nil, validationErr("cost components must not be negative")
	}

	installed := &model.InstalledPart{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		Quantity:      req.Quantity,
		UnitCost:      input.UnitCost,
		ServiceCost:   input.ServiceCost,
		LaborCost:     input.LaborCost,
		InstalledBy:   actorID,
		InstalledAt:   s.now(),
		WarrantyStart: input.WarrantyStart,
		WarrantyEnd:   input.WarrantyEnd,
		Mileage:       input.Mileage,
	}
	totalCost := installed.TotalCost()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if cerr := s.installedRepo.WithTx(tx).Create(installed); cerr != nil {
			return cerr
		}
		if serr := s.requestRepo.WithTx(tx).SetActualCost(requestID, totalCost); serr != nil {
			return serr
		}
		ok, terr := s.requestRepo.WithTx(tx).TransitionStatus(requestID,
			model.RequestStatusIssued, model.RequestStatusInstalled, nil)
		if terr != nil {
			return terr
		}
		if !ok {
			return conflictErr("request %s changed state during installation", req.RequestNumber)
		}
		return nil
	})
	if err != nil {
		// 并发重复登记会撞 request_id 唯一索引，取回已存在的记录
		if isUniqueViolation(err) {
			if existing, gerr := s.installedRepo.GetByRequestID(requestID); gerr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	metrics.PartsInstalledTotal.Inc()
	s.recorder.Record(actorID, "", "install", "request", requestID, map[string]interface{}{
		"installed_part_id": installed.ID,
		"quantity":          installed.Quantity,
		"total_cost":        totalCost.String(),
	})
	return installed, nil
}

// GetInstalled 查询申请的安装记录
func (s *IssuanceService) GetInstalled(requestID string) (*model.InstalledPart, error) {
	installed, err := s.installedRepo.GetByRequestID(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("no installation record for request %s", requestID)
		}
		return nil, err
	}
	return installed, nil
}

// isUniqueViolation 各方言的唯一约束错误没有统一类型，按关键字识别
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique index")
}
