package service

import (
	"errors"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 错误定义 ====================

var (
	// ErrUnauthorized 资源有归属但请求没有解析出店铺上下文 → 401
	ErrUnauthorized = errors.New("需要店铺身份")
	// ErrForbidden 请求的店铺上下文与资源归属不一致 → 403
	ErrForbidden = errors.New("无权访问该资源")
)

// ==================== 越权守卫 ====================

// Guard 租户归属守卫
// 所有租户资源的读/改/删路径必须经过 Authorize，漏掉任何一条路由
// 都等于租户隔离被整体击穿
type Guard struct {
	audit *AuditService
}

// NewGuard 创建越权守卫
func NewGuard(audit *AuditService) *Guard {
	return &Guard{audit: audit}
}

// Authorize 判定访问是否合法
// ownerStoreID: 资源归属店铺，0 表示无租户归属（全局资源）
// storeCtx: 请求解析出的店铺上下文，nil 表示未解析
//
// 判定矩阵：
//   - 归属为 0          → 放行（没有可越权的归属）
//   - 有归属、无上下文   → ErrUnauthorized，审计 unauthorized
//   - 有归属、上下文不符 → ErrForbidden，审计 cross_tenant_attempt
//   - 归属一致          → 放行
func (g *Guard) Authorize(meta RequestMeta, storeCtx *model.StoreContext, ownerStoreID int64) error {
	if ownerStoreID == 0 {
		return nil
	}

	if storeCtx == nil {
		g.audit.Record(model.AuditKindUnauthorized, meta, nil, &ownerStoreID, nil)
		return ErrUnauthorized
	}

	if storeCtx.StoreID != ownerStoreID {
		resolved := storeCtx.StoreID
		g.audit.Record(model.AuditKindCrossTenant, meta, &resolved, &ownerStoreID, map[string]interface{}{
			"shop_domain": storeCtx.ShopDomain,
		})
		return ErrForbidden
	}

	return nil
}

// RequireStore 仅要求存在店铺上下文（创建类操作用，此时还没有资源归属可比）
func (g *Guard) RequireStore(meta RequestMeta, storeCtx *model.StoreContext) error {
	if storeCtx == nil {
		g.audit.Record(model.AuditKindUnauthorized, meta, nil, nil, nil)
		return ErrUnauthorized
	}
	return nil
}
