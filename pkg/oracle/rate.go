// 文件: pkg/oracle/rate.go
// 预解码的预言机汇率对
//
// 债务账本的贷款可以用另一种货币计价。外部预言机负责提供
// (tokens, equivalent) 汇率对: 1 贷款单位 = tokens/equivalent 债务币单位。
// 引擎不解析预言机的线格式 —— 调用方预先解码好汇率对传进来，
// 原始字节 (Data) 只在审计事件里原样透传。

package oracle

// Rate 预言机汇率对
//
// Tokens == 0 && Equivalent == 0 表示"无预言机贷款"，按 1:1 处理。
type Rate struct {
	// Tokens 债务币数量 (分子)
	Tokens int64 `json:"tokens"`

	// Equivalent 贷款币数量 (分母)
	Equivalent int64 `json:"equivalent"`

	// Data 预言机原始数据，仅用于审计回放，引擎不解析
	Data []byte `json:"data,omitempty"`
}

// IsZero 是否为 1:1 无预言机汇率
func (r Rate) IsZero() bool {
	return r.Tokens == 0 && r.Equivalent == 0
}

// DebtAmount 贷款币金额 -> 债务币金额 (向下取整)
// 用于估值方向: 算多了会高估债务。
func (r Rate) DebtAmount(loanAmount int64) int64 {
	if r.IsZero() {
		return loanAmount
	}
	return loanAmount * r.Tokens / r.Equivalent
}

// DebtAmountCeil 贷款币金额 -> 债务币金额 (向上取整)
// 用于应付方向: 零头进位，不能少付账本。
func (r Rate) DebtAmountCeil(loanAmount int64) int64 {
	if r.IsZero() {
		return loanAmount
	}
	x := loanAmount * r.Tokens
	if x%r.Equivalent == 0 {
		return x / r.Equivalent
	}
	return x/r.Equivalent + 1
}

// LoanAmount 债务币金额 -> 贷款币金额 (向下取整)
// 账本收款后按这个方向冲减贷款本金。
func (r Rate) LoanAmount(debtAmount int64) int64 {
	if r.IsZero() {
		return debtAmount
	}
	return debtAmount * r.Equivalent / r.Tokens
}
