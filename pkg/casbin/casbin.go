package casbin

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// rbacModel RBAC权限模型
// sub: 角色或用户, obj: 资源（审批级别/管理接口）, act: 操作
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act || r.sub == "admin"
`

var (
	enforcer     *casbin.SyncedCachedEnforcer
	enforcerOnce sync.Once
	enforcerMu   sync.RWMutex // 保护 enforcer 的读写
)

// Init 初始化Casbin权限管理器
func Init(db *gorm.DB) error {
	var initErr error
	enforcerOnce.Do(func() {
		initErr = initEnforcer(db)
	})
	return initErr
}

// initEnforcer 初始化Casbin执行器
func initEnforcer(db *gorm.DB) error {
	// 使用GORM适配器，将策略存储到数据库
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return fmt.Errorf("failed to parse casbin model: %w", err)
	}

	// SyncedCachedEnforcer: 线程安全 + 缓存
	e, err := casbin.NewSyncedCachedEnforcer(m, adapter)
	if err != nil {
		return fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to load casbin policy: %w", err)
	}

	enforcerMu.Lock()
	enforcer = e
	enforcerMu.Unlock()

	// 默认策略：各角色对应的审批级别（admin 走超级用户子句）
	ensureDefaultPolicies(e)
	return nil
}

// ensureDefaultPolicies 写入缺省策略（已存在时AddPolicy返回false，不报错）
// admin 由模型中的超级用户子句放行，不需要逐级授权；
// 升级可能把审批推到配置级数之上，admin 兜底保证这类申请始终有人能批
func ensureDefaultPolicies(e *casbin.SyncedCachedEnforcer) {
	defaults := [][]string{
		{"supervisor", "approval-level", "1"},
		{"manager", "approval-level", "2"},
		{"director", "approval-level", "3"},
	}
	for _, p := range defaults {
		e.AddPolicy(p[0], p[1], p[2])
	}
}

// Enforce 权限检查
func Enforce(sub, obj, act string) (bool, error) {
	enforcerMu.RLock()
	defer enforcerMu.RUnlock()
	if enforcer == nil {
		return false, fmt.Errorf("casbin enforcer is not initialized")
	}
	return enforcer.Enforce(sub, obj, act)
}

// CanApproveLevel 检查角色是否具备某一审批级别的授权
func CanApproveLevel(role string, level int) (bool, error) {
	return Enforce(role, "approval-level", fmt.Sprintf("%d", level))
}

// ReloadPolicy 重新加载策略（策略被外部修改后调用）
func ReloadPolicy() error {
	enforcerMu.RLock()
	defer enforcerMu.RUnlock()
	if enforcer == nil {
		return fmt.Errorf("casbin enforcer is not initialized")
	}
	return enforcer.LoadPolicy()
}
