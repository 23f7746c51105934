package handler

import (
	"errors"
	"net/http"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// statusFor 工作流错误分类到HTTP状态码的映射
func statusFor(err error) int {
	var werr *service.Error
	if !errors.As(err, &werr) {
		return http.StatusInternalServerError
	}
	switch werr.Kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnavailable:
		return http.StatusConflict
	case service.KindTerminal:
		return http.StatusUnprocessableEntity
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// handleServiceError 统一处理service层错误
// 竞态冲突类错误（预留竞争、审批重放等）提示客户端稍后重试
func handleServiceError(c *gin.Context, err error, context string) {
	var werr *service.Error
	if errors.As(err, &werr) && werr.Retryable() {
		c.Header("Retry-After", "1")
	}
	model.HandleError(c, statusFor(err), err, context)
}

// currentUser 从上下文取当前登录用户
func currentUser(c *gin.Context, authSvc *service.AuthService) (*model.User, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, model.Error(401, "未找到用户信息"))
		return nil, false
	}
	user, err := authSvc.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.Error(401, "用户不存在或已被删除"))
		return nil, false
	}
	return user, true
}
