package repository

import (
	"github.com/fisker/fleetops-backend/internal/model"
	"gorm.io/gorm"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Get 获取某门店某备件的库存记录
func (r *StockRepository) Get(partID, storeID string) (*model.StoreStock, error) {
	var stock model.StoreStock
	if err := r.db.First(&stock, "part_id = ? AND store_id = ?", partID, storeID).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// List 查询库存列表（可按门店/备件过滤）
func (r *StockRepository) List(storeID, partID string, page, pageSize int) (total int64, stocks []model.StoreStock, err error) {
	query := r.db.Model(&model.StoreStock{})
	if storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}

	err = query.Count(&total).Error
	if err != nil {
		return
	}
	if total == 0 {
		return 0, []model.StoreStock{}, nil
	}

	if pageSize > 0 && page > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	err = query.Find(&stocks).Error
	return
}

// Upsert 创建或覆盖库存记录（入库/盘点用）
func (r *StockRepository) Upsert(stock *model.StoreStock) error {
	var existing model.StoreStock
	err := r.db.First(&existing, "part_id = ? AND store_id = ?", stock.PartID, stock.StoreID).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(stock).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(&existing).Update("quantity", stock.Quantity).Error
}
