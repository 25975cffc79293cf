// 文件: pkg/ledger/ledger.go
// 债务账本接口
//
// 贷款的发起、计息、到期都归外部的债务账本管。
// 抵押引擎只消费一个窄接口: 查状态、查应还、还款。

package ledger

import (
	"colend.com/pkg/oracle"
)

// Status 贷款状态
type Status int

const (
	// StatusOpen 请求已创建但还没被出借 (未放款)
	StatusOpen Status = iota

	// StatusOngoing 已放款，还在还款期
	StatusOngoing

	// StatusPaid 已结清
	StatusPaid

	// StatusError 账本标记的不可恢复错误状态
	StatusError
)

// String 状态的日志表示
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusOngoing:
		return "ONGOING"
	case StatusPaid:
		return "PAID"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DebtLedger 债务账本接口
//
// 金额约定:
// - GetClosingObligation / GetObligation 返回贷款币金额
// - Pay 收债务币金额，内部按汇率折算冲减贷款
type DebtLedger interface {
	// GetStatus 查询贷款状态；不存在的 id 返回 StatusOpen 之前的语义
	// 由调用方通过 RequestInfo 区分
	GetStatus(debtID string) Status

	// RequestInfo 查询贷款请求: 本金、计价货币、请求是否仍然开放
	RequestInfo(debtID string) (amount int64, currency string, open bool)

	// GetClosingObligation 当前一次性结清需要的贷款币金额
	GetClosingObligation(debtID string) int64

	// GetObligation now 时刻可强制执行的应还金额; due 表示贷款已过期
	GetObligation(debtID string, now int64) (amount int64, due bool)

	// Pay 用债务币还款，按 rate 折算冲减贷款本金 (向下取整)
	// 返回实际冲减的贷款币金额
	Pay(debtID string, tokens int64, rate oracle.Rate) (int64, error)
}
