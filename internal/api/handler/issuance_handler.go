package handler

import (
	"net/http"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IssuanceHandler 出库与安装登记接口
type IssuanceHandler struct {
	issuanceSvc *service.IssuanceService
	authSvc     *service.AuthService
}

// NewIssuanceHandler 创建出库处理器
func NewIssuanceHandler(issuanceSvc *service.IssuanceService, authSvc *service.AuthService) *IssuanceHandler {
	return &IssuanceHandler{issuanceSvc: issuanceSvc, authSvc: authSvc}
}

// IssueRequest 出库请求体
type IssueRequest struct {
	StoreID    string           `json:"storeId"`
	ActualCost *decimal.Decimal `json:"actualCost,omitempty"`
}

// Issue 备件出库
// POST /api/spare-part-requests/:id/issue
func (h *IssuanceHandler) Issue(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var body IssueRequest
	_ = c.ShouldBindJSON(&body)

	req, err := h.issuanceSvc.Issue(c.Param("id"), body.StoreID, user.ID, body.ActualCost)
	if err != nil {
		handleServiceError(c, err, "备件出库失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(req))
}

// Install 安装登记
// POST /api/spare-part-requests/:id/install
func (h *IssuanceHandler) Install(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var input service.InstallInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	installed, err := h.issuanceSvc.Install(c.Param("id"), user.ID, input)
	if err != nil {
		handleServiceError(c, err, "安装登记失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(installed))
}

// GetInstalled 查询安装记录
// GET /api/spare-part-requests/:id/installed
func (h *IssuanceHandler) GetInstalled(c *gin.Context) {
	installed, err := h.issuanceSvc.GetInstalled(c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询安装记录失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(installed))
}
