// 文件: pkg/collateral/store.go
// 仓位存储 - id 竞技场 + 所有权登记 + 债务索引
//
// 三张表一把锁:
// - entries: id -> Entry，id 从 1 单调递增，0 保留表示"无仓位"
// - owners/approvals: 仓位所有权 + 委托授权关系
// - debtIndex: debtID -> entryID，一笔债务同时只能有一个活跃仓位

package collateral

import (
	"sync"
)

// Store 仓位存储
type Store struct {
	mu        sync.RWMutex
	entries   map[int64]Entry
	owners    map[int64]string
	approvals map[approvalKey]bool
	debtIndex map[string]int64
	nextID    int64
}

// approvalKey (所有者, 操作员) 委托关系
type approvalKey struct {
	owner    string
	operator string
}

// NewStore 创建仓位存储
func NewStore() *Store {
	return &Store{
		entries:   make(map[int64]Entry),
		owners:    make(map[int64]string),
		approvals: make(map[approvalKey]bool),
		debtIndex: make(map[string]int64),
		nextID:    1,
	}
}

// Create 校验并登记新仓位，返回分配的 id
//
// 校验顺序固定: 费率边界 -> 清算阈值 -> 平衡阈值 -> 费率带宽 -> 债务唯一性。
// 任何一步失败都不改动任何状态。
func (s *Store) Create(owner, debtID, tok string, amount, liquidationRatio, balanceRatio, burnFee, rewardFee int64) (int64, error) {
	if err := validateConfig(liquidationRatio, balanceRatio, burnFee, rewardFee); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debtIndex[debtID] != 0 {
		return 0, ErrDebtCollateralized
	}

	id := s.nextID
	s.nextID++

	s.entries[id] = Entry{
		ID:               id,
		DebtID:           debtID,
		Token:            tok,
		Amount:           amount,
		LiquidationRatio: liquidationRatio,
		BalanceRatio:     balanceRatio,
		BurnFee:          burnFee,
		RewardFee:        rewardFee,
	}
	s.owners[id] = owner
	s.debtIndex[debtID] = id

	return id, nil
}

// Get 读仓位；未知/已删除 id 返回零值 Entry，调用方用 IsZero 区分
func (s *Store) Get(id int64) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

// Put 写回已存在的仓位 (引擎在条带锁内调用)
func (s *Store) Put(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; ok {
		s.entries[e.ID] = e
	}
}

// EntryIDByDebt 债务索引查询；无映射返回 0
func (s *Store) EntryIDByDebt(debtID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debtIndex[debtID]
}

// Owner 查询仓位所有者
func (s *Store) Owner(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owners[id]
}

// TransferOwnership 转移仓位所有权
func (s *Store) TransferOwnership(id int64, caller, newOwner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owners[id] != caller {
		return ErrNotAuthorized
	}
	s.owners[id] = newOwner
	return nil
}

// SetApproval 设置/撤销委托: owner 允许 operator 代为操作名下所有仓位
func (s *Store) SetApproval(owner, operator string, approved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := approvalKey{owner, operator}
	if approved {
		s.approvals[k] = true
	} else {
		delete(s.approvals, k)
	}
}

// IsAuthorized 所有者本人或被委托的操作员
func (s *Store) IsAuthorized(id int64, caller string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return false
	}
	if owner == caller {
		return true
	}
	return s.approvals[approvalKey{owner, caller}]
}

// Delete 删除仓位: 清记录、清所有者、清债务索引
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	delete(s.entries, id)
	delete(s.owners, id)
	delete(s.debtIndex, e.DebtID)
}

// Snapshot 所有活跃仓位的一致性快照 (监控扫描用)
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Count 活跃仓位数
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
