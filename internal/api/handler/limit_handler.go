package handler

import (
	"net/http"
	"strconv"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LimitHandler 技术员限额接口
type LimitHandler struct {
	limitSvc *service.LimitService
	authSvc  *service.AuthService
}

// NewLimitHandler 创建限额处理器
func NewLimitHandler(limitSvc *service.LimitService, authSvc *service.AuthService) *LimitHandler {
	return &LimitHandler{limitSvc: limitSvc, authSvc: authSvc}
}

// CheckRequest 限额预检请求体
type CheckRequest struct {
	TechnicianID  string          `json:"technicianId"`
	PartID        string          `json:"partId" binding:"required"`
	Quantity      int             `json:"quantity" binding:"required"`
	EstimatedCost decimal.Decimal `json:"estimatedCost" binding:"required"`
}

// Check 限额预检（只读，不创建申请）
// POST /api/limits/check
func (h *LimitHandler) Check(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var body CheckRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	// 技术员只能查自己的限额，管理角色可以指定技术员
	technicianID := body.TechnicianID
	if technicianID == "" || user.Role == "technician" {
		technicianID = user.ID
	}

	result, err := h.limitSvc.Check(technicianID, body.PartID, body.Quantity, body.EstimatedCost)
	if err != nil {
		handleServiceError(c, err, "限额检查失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(result))
}

// Create 创建限额策略
// POST /api/limits
func (h *LimitHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var limit model.TechnicianLimit
	if err := c.ShouldBindJSON(&limit); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}
	limit.ID = uuid.New().String()
	limit.CreatedBy = user.ID

	if err := h.limitSvc.CreateLimit(&limit); err != nil {
		handleServiceError(c, err, "创建限额策略失败")
		return
	}
	c.JSON(http.StatusCreated, model.Success(limit))
}

// Update 更新限额策略
// PUT /api/limits/:id
func (h *LimitHandler) Update(c *gin.Context) {
	existing, err := h.limitSvc.GetLimit(c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询限额策略失败")
		return
	}

	var limit model.TechnicianLimit
	if err := c.ShouldBindJSON(&limit); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}
	limit.ID = existing.ID
	limit.TechnicianID = existing.TechnicianID
	limit.CreatedBy = existing.CreatedBy

	if err := h.limitSvc.UpdateLimit(&limit); err != nil {
		handleServiceError(c, err, "更新限额策略失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(limit))
}

// Deactivate 停用限额策略
// DELETE /api/limits/:id
func (h *LimitHandler) Deactivate(c *gin.Context) {
	if _, err := h.limitSvc.GetLimit(c.Param("id")); err != nil {
		handleServiceError(c, err, "查询限额策略失败")
		return
	}
	if err := h.limitSvc.DeactivateLimit(c.Param("id")); err != nil {
		handleServiceError(c, err, "停用限额策略失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(nil))
}

// Get 查询限额策略
// GET /api/limits/:id
func (h *LimitHandler) Get(c *gin.Context) {
	limit, err := h.limitSvc.GetLimit(c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询限额策略失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(limit))
}

// List 分页查询限额策略
// GET /api/limits
func (h *LimitHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	total, limits, err := h.limitSvc.ListLimits(c.Query("technicianId"), page, pageSize)
	if err != nil {
		handleServiceError(c, err, "查询限额策略列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"items":    limits,
	}))
}
