package handler

import (
	"net/http"
	"strconv"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// StockHandler 门店库存接口
type StockHandler struct {
	stockSvc *service.StockService
}

// NewStockHandler 创建库存处理器
func NewStockHandler(stockSvc *service.StockService) *StockHandler {
	return &StockHandler{stockSvc: stockSvc}
}

// List 分页查询库存
// GET /api/stocks
func (h *StockHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	total, stocks, err := h.stockSvc.List(c.Query("storeId"), c.Query("partId"), page, pageSize)
	if err != nil {
		handleServiceError(c, err, "查询库存列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"items":    stocks,
	}))
}

// Get 查询某门店某备件的库存
// GET /api/stocks/:partId/:storeId
func (h *StockHandler) Get(c *gin.Context) {
	stock, err := h.stockSvc.Get(c.Param("partId"), c.Param("storeId"))
	if err != nil {
		handleServiceError(c, err, "查询库存失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(stock))
}

// AdjustRequest 盘点/入库请求体
type AdjustRequest struct {
	PartID   string `json:"partId" binding:"required"`
	StoreID  string `json:"storeId" binding:"required"`
	Quantity int    `json:"quantity"`
}

// Adjust 入库/盘点
// POST /api/stocks/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	var body AdjustRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	stock, err := h.stockSvc.Adjust(body.PartID, body.StoreID, body.Quantity)
	if err != nil {
		handleServiceError(c, err, "库存盘点失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(stock))
}
