package service

import (
	"github.com/fisker/fleetops-backend/pkg/casbin"
)

// CasbinAuthorizer 基于Casbin策略的审批授权
type CasbinAuthorizer struct{}

// NewCasbinAuthorizer 创建Casbin审批授权器
func NewCasbinAuthorizer() *CasbinAuthorizer {
	return &CasbinAuthorizer{}
}

func (CasbinAuthorizer) CanApproveLevel(role string, level int) (bool, error) {
	return casbin.CanApproveLevel(role, level)
}
