package handler

import (
	"net/http"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ApprovalHandler 审批接口
type ApprovalHandler struct {
	approvalSvc *service.ApprovalService
	authSvc     *service.AuthService
}

// NewApprovalHandler 创建审批处理器
func NewApprovalHandler(approvalSvc *service.ApprovalService, authSvc *service.AuthService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc, authSvc: authSvc}
}

// DecisionRequest 审批决定请求体
type DecisionRequest struct {
	Level    int    `json:"level" binding:"required"`
	Decision string `json:"decision" binding:"required"` // approved / rejected / escalated
	Comments string `json:"comments"`
}

// Decide 提交审批决定
// POST /api/spare-part-requests/:id/decision
func (h *ApprovalHandler) Decide(c *gin.Context) {
	user, ok := currentUser(c, h.authSvc)
	if !ok {
		return
	}

	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, model.Error(400, "请求参数错误: "+err.Error()))
		return
	}

	req, err := h.approvalSvc.Decide(c.Param("id"), body.Level, user,
		model.ApprovalDecision(body.Decision), body.Comments)
	if err != nil {
		handleServiceError(c, err, "处理审批决定失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(req))
}

// History 查询审批历史
// GET /api/spare-part-requests/:id/approvals
func (h *ApprovalHandler) History(c *gin.Context) {
	entries, err := h.approvalSvc.History(c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "查询审批历史失败")
		return
	}
	c.JSON(http.StatusOK, model.Success(entries))
}
