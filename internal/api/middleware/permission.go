package middleware

import (
	"net/http"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/pkg/casbin"
	"github.com/gin-gonic/gin"
)

// LimitAdminMiddleware Casbin权限中间件
// 限额策略的增删改只对具备 limits/manage 授权的角色开放
func LimitAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.JSON(http.StatusUnauthorized, model.Error(401, "未找到用户信息"))
			c.Abort()
			return
		}

		hasPermission, err := casbin.Enforce(role, "limits", "manage")
		if err != nil {
			c.JSON(http.StatusInternalServerError, model.Error(500, "权限检查失败: "+err.Error()))
			c.Abort()
			return
		}
		if !hasPermission {
			c.JSON(http.StatusForbidden, model.Error(403, "无权管理限额策略"))
			c.Abort()
			return
		}

		c.Next()
	}
}
