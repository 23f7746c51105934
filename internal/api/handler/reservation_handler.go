package handler

import (
	"net/http"
	"strconv"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReservationHandler 库存预留接口
type ReservationHandler struct {
	resSvc      *service.ReservationService
	requestRepo *repository.RequestRepository
	authSvc     *service.AuthService
}

// NewReservationHandler 创建预留处理器
func NewReservationHandler(resSvc *service.ReservationService, requestRepo *repository.RequestRepository, authSvc *service.AuthService) *ReservationHandler {
	return &ReservationHandler{resSvc: resSvc, requestRepo: requestRepo, authSvc: authSvc}
}

// ReserveRequest 手动预留请求体（门店可选，默认取维修工单所在门店）
type ReserveRequest struct {
	StoreID string `json:"storeId"`
}

// Reserve 为已批准的申请预留库存
// POST /api/spare-part-requests/:id/reserve
func (h *ReservationHandler) Reserve(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var body ReserveRequest
	_ = c.ShouldBindJSON(&body)

	req, err := h.requestRepo.GetByID(c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, model.Error(404, "备件申请不存在"))
			return
		}
		model.HandleError(c, http.StatusInternalServerError, err, "查询备件申请失败")
		return
	}

	res, err := h.resSvc.ReserveForRequest(req, body.StoreID, user.ID)
	if err != nil {
		handleServiceError(c, err, "预留库存失败")
		return
	}

	c.JSON(http.StatusCreated, model.Success(res))
}

// ReleaseRequest 释放预留请求体
type ReleaseRequest struct {
	Reason string `json:"reason"`
}

// Release 释放预留
// POST /api/reservations/:id/release
func (h *ReservationHandler) Release(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var body ReleaseRequest
	_ = c.ShouldBindJSON(&body)
	reason := body.Reason
	if reason == "" {
		reason = "released"
	}

	if err := h.resSvc.Release(c.Param("id"), reason, user.ID); err != nil {
		handleServiceError(c, err, "释放预留失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(nil))
}

// Get 查询预留
// GET /api/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	res, err := h.resSvc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询预留失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(res))
}

// List 分页查询预留
// GET /api/reservations
func (h *ReservationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	activeOnly := c.Query("active") == "true"

	total, list, err := h.resSvc.List(c.Query("storeId"), c.Query("partId"), activeOnly, page, pageSize)
	if err != nil {
		handleServiceError(c, err, "查询预留列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"items":    list,
	}))
}
