// 文件: pkg/token/registry.go
// 代币托管 - 余额与授权登记表
//
// 引擎移动资金只有两个原语:
// - Pull: 从外部持有人拉入托管 (需要授权额度)
// - Push: 从托管推给外部持有人
// 任何一步失败都必须让上层操作整体中止，不能留下半截状态。

package token

import (
	"errors"
	"sync"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrTransferFailed = errors.New("token: transfer failed")
	ErrInvalidAmount  = errors.New("token: invalid amount")
)

// =============================================================================
// Registry
// =============================================================================

// balanceKey (代币, 持有人)
type balanceKey struct {
	token  string
	holder string
}

// allowanceKey (代币, 持有人, 被授权人)
type allowanceKey struct {
	token   string
	owner   string
	spender string
}

// Registry 代币登记表
//
// 管理所有持有人的余额和授权额度。
// 真实部署里这是外部的代币合约/账务系统，这里用同样的
// pull/push 语义建模，方便引擎和测试共用一套资金移动规则。
type Registry struct {
	mu         sync.RWMutex
	balances   map[balanceKey]int64
	allowances map[allowanceKey]int64
}

// NewRegistry 创建登记表
func NewRegistry() *Registry {
	return &Registry{
		balances:   make(map[balanceKey]int64),
		allowances: make(map[allowanceKey]int64),
	}
}

// BalanceOf 查询余额
func (r *Registry) BalanceOf(token, holder string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[balanceKey{token, holder}]
}

// Mint 铸造余额 (测试/模拟入金)
func (r *Registry) Mint(token, holder string, amount int64) {
	if amount <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[balanceKey{token, holder}] += amount
}

// Approve 设置授权额度: owner 允许 spender 拉走至多 amount
func (r *Registry) Approve(token, owner, spender string, amount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowances[allowanceKey{token, owner, spender}] = amount
}

// Allowance 查询授权额度
func (r *Registry) Allowance(token, owner, spender string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allowances[allowanceKey{token, owner, spender}]
}

// Pull 托管方 spender 从 from 拉入 amount
//
// 余额不足或授权不足都返回 ErrTransferFailed，
// 调用方据此中止整个业务操作。
func (r *Registry) Pull(token, from, spender string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ak := allowanceKey{token, from, spender}
	if r.allowances[ak] < amount {
		return ErrTransferFailed
	}

	bk := balanceKey{token, from}
	if r.balances[bk] < amount {
		return ErrTransferFailed
	}

	r.allowances[ak] -= amount
	r.balances[bk] -= amount
	r.balances[balanceKey{token, spender}] += amount
	return nil
}

// Push 从 from 直接转给 to (from 自己持有的余额)
func (r *Registry) Push(token, from, to string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bk := balanceKey{token, from}
	if r.balances[bk] < amount {
		return ErrTransferFailed
	}

	r.balances[bk] -= amount
	r.balances[balanceKey{token, to}] += amount
	return nil
}
