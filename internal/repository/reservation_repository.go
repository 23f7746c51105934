package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientStock 可用库存不足（quantity - reserved 小于申请数量）
	ErrInsufficientStock = errors.New("insufficient available stock")
	// ErrReservationInactive 预留已失效（被消耗/释放/过期回收）
	ErrReservationInactive = errors.New("reservation is not active")
	// ErrReservationExpired 预留已过期，不能被消耗
	ErrReservationExpired = errors.New("reservation has expired")
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Reserve 在一个事务内完成库存占用与预留记录创建
// 库存闸门是一条带条件的原子更新（quantity - reserved >= 申请数量），
// 两个并发预留不可能同时通过只够一个的库存
func (r *ReservationRepository) Reserve(res *model.StockReservation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.StoreStock{}).
			Where("part_id = ? AND store_id = ? AND quantity - reserved >= ?",
				res.PartID, res.StoreID, res.Quantity).
			Update("reserved", gorm.Expr("reserved + ?", res.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		return tx.Create(res).Error
	})
}

// Release 将预留标记为失效并归还占用的库存
// 预留的失效是终态：条件更新只在 active=true 时生效，重复释放返回 ErrReservationInactive，
// 由调用方决定是否按幂等no-op处理
func (r *ReservationRepository) Release(reservationID, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var res model.StockReservation
		if err := tx.First(&res, "id = ?", reservationID).Error; err != nil {
			return err
		}

		deactivated, err := r.deactivate(tx, reservationID, reason)
		if err != nil {
			return err
		}
		if !deactivated {
			return ErrReservationInactive
		}

		// 归还占用：reserved 永远不会被减成负数（guard与deactivate在同一事务）
		result := tx.Model(&model.StoreStock{}).
			Where("part_id = ? AND store_id = ? AND reserved >= ?", res.PartID, res.StoreID, res.Quantity).
			Update("reserved", gorm.Expr("reserved - ?", res.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("stock row for part=%s store=%s missing or reserved underflow", res.PartID, res.StoreID)
		}
		return nil
	})
}

// Consume 将活跃且未过期的预留转换为永久出库扣减
// 与 Release 通过同一条 active=true 条件更新互斥：同一预留上消耗和释放只会有一个成功
func (r *ReservationRepository) Consume(reservationID string, now time.Time) (*model.StockReservation, error) {
	var consumed *model.StockReservation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var res model.StockReservation
		if err := tx.First(&res, "id = ?", reservationID).Error; err != nil {
			return err
		}
		if !res.Active {
			return ErrReservationInactive
		}
		if res.Expired(now) {
			// 过期预留留给后台扫描释放，这里不做任何变更
			return ErrReservationExpired
		}

		deactivated, err := r.deactivate(tx, reservationID, "consumed")
		if err != nil {
			return err
		}
		if !deactivated {
			return ErrReservationInactive
		}

		// 永久扣减：在库数量与占用同时减少
		result := tx.Model(&model.StoreStock{}).
			Where("part_id = ? AND store_id = ? AND quantity >= ? AND reserved >= ?",
				res.PartID, res.StoreID, res.Quantity, res.Quantity).
			Updates(map[string]interface{}{
				"quantity": gorm.Expr("quantity - ?", res.Quantity),
				"reserved": gorm.Expr("reserved - ?", res.Quantity),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("stock row for part=%s store=%s missing or quantity underflow", res.PartID, res.StoreID)
		}

		consumed = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// deactivate 条件失效：只有 active=true 的预留才会被更新
func (r *ReservationRepository) deactivate(tx *gorm.DB, reservationID, reason string) (bool, error) {
	now := time.Now()
	result := tx.Model(&model.StockReservation{}).
		Where("id = ? AND active = ?", reservationID, true).
		Updates(map[string]interface{}{
			"active":         false,
			"release_reason": reason,
			"released_at":    &now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByID 根据ID获取预留
func (r *ReservationRepository) GetByID(id string) (*model.StockReservation, error) {
	var res model.StockReservation
	if err := r.db.First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// GetActiveByRequest 获取申请的活跃预留（可指定门店）
func (r *ReservationRepository) GetActiveByRequest(requestID, storeID string) (*model.StockReservation, error) {
	query := r.db.Where("request_id = ? AND active = ?", requestID, true)
	if storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	var res model.StockReservation
	if err := query.First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByRequest 返回申请的全部预留记录（预留日志）
func (r *ReservationRepository) ListByRequest(requestID string) ([]model.StockReservation, error) {
	var list []model.StockReservation
	err := r.db.Where("request_id = ?", requestID).Order("reserved_at ASC").Find(&list).Error
	return list, err
}

// List 查询预留列表
func (r *ReservationRepository) List(storeID, partID string, activeOnly bool, page, pageSize int) (total int64, list []model.StockReservation, err error) {
	query := r.db.Model(&model.StockReservation{})
	if storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	err = query.Count(&total).Error
	if err != nil {
		return
	}
	if total == 0 {
		return 0, []model.StockReservation{}, nil
	}

	if pageSize > 0 && page > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	err = query.Order("reserved_at DESC").Find(&list).Error
	return
}

// ListExpired 返回已过期但仍处于活跃状态的预留（后台扫描用）
func (r *ReservationRepository) ListExpired(now time.Time, limit int) ([]model.StockReservation, error) {
	var list []model.StockReservation
	query := r.db.Where("active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&list).Error
	return list, err
}

// CountActive 当前活跃预留数量（指标上报用）
func (r *ReservationRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.StockReservation{}).Where("active = ?", true).Count(&count).Error
	return count, err
}
