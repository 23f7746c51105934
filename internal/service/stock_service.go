package service

import (
	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/repository"
	"gorm.io/gorm"
)

// StockService 门店库存查询与盘点
type StockService struct {
	stockRepo *repository.StockRepository
	partRepo  *repository.PartRepository
}

// NewStockService 创建库存服务
func NewStockService(stockRepo *repository.StockRepository, partRepo *repository.PartRepository) *StockService {
	return &StockService{stockRepo: stockRepo, partRepo: partRepo}
}

// Get 查询某门店某备件的库存
func (s *StockService) Get(partID, storeID string) (*model.StoreStock, error) {
	stock, err := s.stockRepo.Get(partID, storeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("no stock record for part %s at store %s", partID, storeID)
		}
		return nil, err
	}
	return stock, nil
}

// List 分页查询库存
func (s *StockService) List(storeID, partID string, page, pageSize int) (int64, []model.StoreStock, error) {
	return s.stockRepo.List(storeID, partID, page, pageSize)
}

// Adjust 入库/盘点：写入某门店某备件的在库数量
// 不触碰 reserved 计数，活跃预留占用的部分不受盘点影响
func (s *StockService) Adjust(partID, storeID string, quantity int) (*model.StoreStock, error) {
	if quantity < 0 {
		return nil, validationErr("stock quantity must not be negative, got %d", quantity)
	}
	if _, err := s.partRepo.GetPart(partID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("part %s not found", partID)
		}
		return nil, err
	}
	if _, err := s.partRepo.GetStore(storeID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("store %s not found", storeID)
		}
		return nil, err
	}

	if err := s.stockRepo.Upsert(&model.StoreStock{
		PartID:   partID,
		StoreID:  storeID,
		Quantity: quantity,
	}); err != nil {
		return nil, err
	}
	return s.stockRepo.Get(partID, storeID)
}
