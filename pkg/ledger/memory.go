// 文件: pkg/ledger/memory.go
// 内存债务账本 - 测试/模拟用的贷款模型
//
// 模拟真实账本的最小行为: 请求 -> 放款 -> 还款 -> 结清，
// 外加到期判定和错误标记。

package ledger

import (
	"errors"
	"sync"

	"colend.com/pkg/oracle"
)

var (
	ErrLoanNotFound = errors.New("ledger: loan not found")
	ErrLoanNotLent  = errors.New("ledger: loan not lent")
)

type loan struct {
	amount   int64 // 本金 (贷款币)
	paid     int64 // 已还 (贷款币)
	currency string
	dueAt    int64 // 到期时间 (unix 秒)
	lent     bool
	errored  bool
}

// MemoryLedger 内存账本
type MemoryLedger struct {
	mu    sync.RWMutex
	loans map[string]*loan
}

// NewMemoryLedger 创建内存账本
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{loans: make(map[string]*loan)}
}

// Request 创建贷款请求
func (l *MemoryLedger) Request(debtID string, amount int64, currency string, dueAt int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loans[debtID] = &loan{amount: amount, currency: currency, dueAt: dueAt}
}

// Lend 放款，请求关闭
func (l *MemoryLedger) Lend(debtID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, ok := l.loans[debtID]
	if !ok {
		return ErrLoanNotFound
	}
	ln.lent = true
	return nil
}

// AddDebt 放款后追加本金 (模拟计息/罚息)
func (l *MemoryLedger) AddDebt(debtID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, ok := l.loans[debtID]
	if !ok {
		return ErrLoanNotFound
	}
	ln.amount += amount
	return nil
}

// SetError 标记不可恢复错误
func (l *MemoryLedger) SetError(debtID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ln, ok := l.loans[debtID]; ok {
		ln.errored = true
	}
}

// GetStatus 实现 DebtLedger
func (l *MemoryLedger) GetStatus(debtID string) Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ln, ok := l.loans[debtID]
	if !ok || !ln.lent {
		return StatusOpen
	}
	if ln.errored {
		return StatusError
	}
	if ln.paid >= ln.amount {
		return StatusPaid
	}
	return StatusOngoing
}

// RequestInfo 实现 DebtLedger
func (l *MemoryLedger) RequestInfo(debtID string) (int64, string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ln, ok := l.loans[debtID]
	if !ok {
		return 0, "", false
	}
	return ln.amount, ln.currency, !ln.lent
}

// GetClosingObligation 实现 DebtLedger
func (l *MemoryLedger) GetClosingObligation(debtID string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ln, ok := l.loans[debtID]
	if !ok || !ln.lent {
		return 0
	}
	return ln.amount - ln.paid
}

// GetObligation 实现 DebtLedger
// 未到期时不可强制执行，返回 (0, false)
func (l *MemoryLedger) GetObligation(debtID string, now int64) (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ln, ok := l.loans[debtID]
	if !ok || !ln.lent {
		return 0, false
	}
	if now < ln.dueAt {
		return 0, false
	}
	return ln.amount - ln.paid, true
}

// Pay 实现 DebtLedger
// 折算向下取整，多付的零头不冲减也不退还 (和估值方向一致)
func (l *MemoryLedger) Pay(debtID string, tokens int64, rate oracle.Rate) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, ok := l.loans[debtID]
	if !ok {
		return 0, ErrLoanNotFound
	}
	if !ln.lent {
		return 0, ErrLoanNotLent
	}

	applied := rate.LoanAmount(tokens)
	if remaining := ln.amount - ln.paid; applied > remaining {
		applied = remaining
	}
	ln.paid += applied
	return applied, nil
}
