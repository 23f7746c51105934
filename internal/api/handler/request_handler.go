package handler

import (
	"net/http"
	"strconv"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler 备件申请接口
type RequestHandler struct {
	requestSvc *service.RequestService
	authSvc    *service.AuthService
}

// NewRequestHandler 创建备件申请处理器
func NewRequestHandler(requestSvc *service.RequestService, authSvc *service.AuthService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc, authSvc: authSvc}
}

// Create 创建备件申请
// POST /api/spare-part-requests
func (h *RequestHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	req, err := h.requestSvc.Create(user, input)
	if err != nil {
		handleServiceError(c, err, "创建备件申请失败")
		return
	}

	c.JSON(http.StatusCreated, model.Success(req))
}

// Get 查询申请详情（含审批历史、预留日志、安装记录）
// GET /api/spare-part-requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	detail, err := h.requestSvc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询备件申请失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(detail))
}

// List 分页查询申请
// GET /api/spare-part-requests
func (h *RequestHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	total, requests, err := h.requestSvc.List(
		c.Query("status"), c.Query("technicianId"), c.Query("serviceRequestId"),
		page, pageSize,
	)
	if err != nil {
		handleServiceError(c, err, "查询备件申请列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"items":    requests,
	}))
}

// CancelRequest 取消申请请求体
type CancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel 取消申请
// POST /api/spare-part-requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var body CancelRequest
	_ = c.ShouldBindJSON(&body)

	req, err := h.requestSvc.Cancel(c.Param("id"), user, body.Reason)
	if err != nil {
		handleServiceError(c, err, "取消备件申请失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(req))
}
