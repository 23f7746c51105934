package service

import (
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/logger"
	"github.com/fisker/fleetops-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationService 库存预留
// 预留带有效期，扣减门店库存的 reserved 计数而不是直接扣库存，
// 过期未出库的预留由后台清扫任务释放回库存
type ReservationService struct {
	db          *gorm.DB
	resRepo     *repository.ReservationRepository
	requestRepo *repository.RequestRepository
	partRepo    *repository.PartRepository
	notifier    notification.Notifier
	recorder    *audit.Recorder
	ttl         time.Duration
	now         func() time.Time
}

// NewReservationService 创建预留服务
func NewReservationService(
	db *gorm.DB,
	resRepo *repository.ReservationRepository,
	requestRepo *repository.RequestRepository,
	partRepo *repository.PartRepository,
	notifier notification.Notifier,
	recorder *audit.Recorder,
	ttl time.Duration,
) *ReservationService {
	return &ReservationService{
		db:          db,
		resRepo:     resRepo,
		requestRepo: requestRepo,
		partRepo:    partRepo,
		notifier:    notifier,
		recorder:    recorder,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (s *ReservationService) SetClock(now func() time.Time) { s.now = now }

// ReserveForRequest 为已批准的申请预留库存
// storeID 为空时使用申请关联维修单的门店；同一申请已有活跃预留返回冲突
func (s *ReservationService) ReserveForRequest(req *model.SparePartRequest, storeID, actor string) (*model.StockReservation, error) {
	if req.Status != model.RequestStatusApproved {
		return nil, conflictErr("request %s is %s, stock can only be reserved for approved requests", req.RequestNumber, req.Status)
	}

	if storeID == "" {
		sr, err := s.partRepo.GetServiceRequest(req.ServiceRequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, notFoundErr("service request %s not found", req.ServiceRequestID)
			}
			return nil, err
		}
		storeID = sr.StoreID
	}

	if existing, err := s.resRepo.GetActiveByRequest(req.ID, ""); err == nil && existing != nil {
		return nil, conflictErr("request %s already has an active reservation %s", req.RequestNumber, existing.ID)
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := s.now()
	res := &model.StockReservation{
		ID:         uuid.New().String(),
		RequestID:  req.ID,
		PartID:     req.PartID,
		StoreID:    storeID,
		Quantity:   req.Quantity,
		ReservedBy: actor,
		ReservedAt: now,
		Active:     true,
	}
	// ttl<=0 表示预留不自动过期，ExpiresAt 留空
	if s.ttl > 0 {
		expiresAt := now.Add(s.ttl)
		res.ExpiresAt = &expiresAt
	}

	if err := s.resRepo.Reserve(res); err != nil {
		if err == repository.ErrInsufficientStock {
			metrics.StockUnavailableTotal.Inc()
			return nil, stockUnavailableErr("insufficient available stock for part %s at store %s (requested %d)",
				req.PartID, storeID, req.Quantity)
		}
		return nil, err
	}

	metrics.ActiveReservations.Inc()
	s.recorder.Record(actor, "", "reserve", "reservation", res.ID, map[string]interface{}{
		"request_id": req.ID,
		"part_id":    req.PartID,
		"store_id":   storeID,
		"quantity":   req.Quantity,
		"expires_at": res.ExpiresAt,
	})
	return res, nil
}

// Release 释放预留并归还库存
// 对已释放或已消耗的预留幂等返回成功
func (s *ReservationService) Release(reservationID, reason, actor string) error {
	err := s.resRepo.Release(reservationID, reason)
	if err != nil {
		if err == repository.ErrReservationInactive {
			return nil
		}
		if err == gorm.ErrRecordNotFound {
			return notFoundErr("reservation %s not found", reservationID)
		}
		return err
	}

	metrics.ActiveReservations.Dec()
	s.recorder.Record(actor, "", "release", "reservation", reservationID, map[string]interface{}{
		"reason": reason,
	})
	return nil
}

// ReleaseByRequest 释放申请名下的活跃预留（取消申请时调用），无活跃预留时为空操作
func (s *ReservationService) ReleaseByRequest(requestID, reason, actor string) error {
	res, err := s.resRepo.GetActiveByRequest(requestID, "")
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return s.Release(res.ID, reason, actor)
}

// Get 查询预留
func (s *ReservationService) Get(reservationID string) (*model.StockReservation, error) {
	res, err := s.resRepo.GetByID(reservationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("reservation %s not found", reservationID)
		}
		return nil, err
	}
	return res, nil
}

// List 分页查询预留
func (s *ReservationService) List(storeID, partID string, activeOnly bool, page, pageSize int) (int64, []model.StockReservation, error) {
	return s.resRepo.List(storeID, partID, activeOnly, page, pageSize)
}

// Sweep 释放所有已过期的活跃预留，返回释放条数
// 由后台清扫任务周期调用；单次最多处理 batch 条，剩余留给下一轮
func (s *ReservationService) Sweep(batch int) (int, error) {
	now := s.now()
	expired, err := s.resRepo.ListExpired(now, batch)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range expired {
		res := &expired[i]
		if err := s.resRepo.Release(res.ID, "expired"); err != nil {
			if err == repository.ErrReservationInactive {
				continue
			}
			logger.Errorf("Failed to release expired reservation %s: %v", res.ID, err)
			continue
		}
		swept++
		metrics.ActiveReservations.Dec()
		metrics.ReservationsSweptTotal.Inc()
		s.notifier.ReservationExpired(res)
	}

	if swept > 0 {
		logger.Infof("Reservation sweep released %d expired reservation(s)", swept)
	}
	return swept, nil
}
