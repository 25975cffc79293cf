// 文件: pkg/collateral/events.go
// 审计事件定义
//
// 每个改变仓位状态的操作都发一条事件；每次真正移动资金的换币发
// ConvertPay；每次手续费拆分发 TakeFee。
// 事件实现 kafka.Message 接口，Kafka 和 NATS 发布器共用。
// 按 EntryID 做分区 key，同一仓位的事件保持顺序。

package collateral

import (
	"encoding/json"
	"strconv"
	"time"
)

// =============================================================================
// Topic / 事件类型
// =============================================================================

const (
	// TopicEntryEvents 仓位生命周期事件
	TopicEntryEvents = "collateral.entries"

	// TopicClaimEvents 清算/还款资金流事件
	TopicClaimEvents = "collateral.claims"
)

const (
	EventCreated           = "created"
	EventDeposited         = "deposited"
	EventWithdrawn         = "withdrawn"
	EventRedeemed          = "redeemed"
	EventEmergencyRedeemed = "emergency_redeemed"
	EventPayOffDebt        = "pay_off_debt"
	EventCancelDebt        = "cancel_debt"
	EventCollateralBalance = "collateral_balance"
	EventConvertPay        = "convert_pay"
	EventTakeFee           = "take_fee"
)

// =============================================================================
// 仓位生命周期事件
// =============================================================================

// CreatedEvent 仓位创建
type CreatedEvent struct {
	EventID          int64     `json:"event_id"`
	Type             string    `json:"type"`
	EntryID          int64     `json:"entry_id"`
	DebtID           string    `json:"debt_id"`
	Token            string    `json:"token"`
	Amount           int64     `json:"amount"`
	LiquidationRatio int64     `json:"liquidation_ratio"`
	BalanceRatio     int64     `json:"balance_ratio"`
	BurnFee          int64     `json:"burn_fee"`
	RewardFee        int64     `json:"reward_fee"`
	Owner            string    `json:"owner"`
	CreatedAt        time.Time `json:"created_at"`
}

func (e *CreatedEvent) Topic() string          { return TopicEntryEvents }
func (e *CreatedEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *CreatedEvent) Value() ([]byte, error) { return json.Marshal(e) }

// DepositedEvent 追加抵押; Amount 为追加后的仓位余额
type DepositedEvent struct {
	EventID   int64     `json:"event_id"`
	Type      string    `json:"type"`
	EntryID   int64     `json:"entry_id"`
	From      string    `json:"from"`
	Deposit   int64     `json:"deposit"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *DepositedEvent) Topic() string          { return TopicEntryEvents }
func (e *DepositedEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *DepositedEvent) Value() ([]byte, error) { return json.Marshal(e) }

// WithdrawnEvent 提取抵押; Amount 为提取后的仓位余额
type WithdrawnEvent struct {
	EventID    int64     `json:"event_id"`
	Type       string    `json:"type"`
	EntryID    int64     `json:"entry_id"`
	To         string    `json:"to"`
	Withdrawal int64     `json:"withdrawal"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *WithdrawnEvent) Topic() string          { return TopicEntryEvents }
func (e *WithdrawnEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *WithdrawnEvent) Value() ([]byte, error) { return json.Marshal(e) }

// RedeemedEvent 正常赎回，仓位删除
type RedeemedEvent struct {
	EventID   int64     `json:"event_id"`
	Type      string    `json:"type"`
	EntryID   int64     `json:"entry_id"`
	To        string    `json:"to"`
	Paid      int64     `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *RedeemedEvent) Topic() string          { return TopicEntryEvents }
func (e *RedeemedEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *RedeemedEvent) Value() ([]byte, error) { return json.Marshal(e) }

// EmergencyRedeemedEvent 紧急赎回 (债务处于错误状态时的兜底通道)
type EmergencyRedeemedEvent struct {
	EventID   int64     `json:"event_id"`
	Type      string    `json:"type"`
	EntryID   int64     `json:"entry_id"`
	To        string    `json:"to"`
	Paid      int64     `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *EmergencyRedeemedEvent) Topic() string          { return TopicEntryEvents }
func (e *EmergencyRedeemedEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *EmergencyRedeemedEvent) Value() ([]byte, error) { return json.Marshal(e) }

// =============================================================================
// 清算/还款资金流事件
// =============================================================================

// PayOffDebtEvent 仓位持有人主动用抵押一次性还清
type PayOffDebtEvent struct {
	EventID            int64     `json:"event_id"`
	Type               string    `json:"type"`
	EntryID            int64     `json:"entry_id"`
	DebtID             string    `json:"debt_id"`
	ObligationInTokens int64     `json:"obligation_in_tokens"`
	PaidTokens         int64     `json:"paid_tokens"`
	Amount             int64     `json:"amount"`
	CreatedAt          time.Time `json:"created_at"`
}

func (e *PayOffDebtEvent) Topic() string          { return TopicClaimEvents }
func (e *PayOffDebtEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *PayOffDebtEvent) Value() ([]byte, error) { return json.Marshal(e) }

// CancelDebtEvent 过期结清: 清算把全部应还一次付掉
type CancelDebtEvent struct {
	EventID            int64     `json:"event_id"`
	Type               string    `json:"type"`
	EntryID            int64     `json:"entry_id"`
	DebtID             string    `json:"debt_id"`
	ObligationInTokens int64     `json:"obligation_in_tokens"`
	PaidTokens         int64     `json:"paid_tokens"`
	Amount             int64     `json:"amount"`
	CreatedAt          time.Time `json:"created_at"`
}

func (e *CancelDebtEvent) Topic() string          { return TopicClaimEvents }
func (e *CancelDebtEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *CancelDebtEvent) Value() ([]byte, error) { return json.Marshal(e) }

// CollateralBalanceEvent 比率击穿清算线后的部分清算 (拉回平衡目标)
type CollateralBalanceEvent struct {
	EventID        int64     `json:"event_id"`
	Type           string    `json:"type"`
	EntryID        int64     `json:"entry_id"`
	DebtID         string    `json:"debt_id"`
	RequiredTokens int64     `json:"required_tokens"`
	PaidTokens     int64     `json:"paid_tokens"`
	Amount         int64     `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func (e *CollateralBalanceEvent) Topic() string          { return TopicClaimEvents }
func (e *CollateralBalanceEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *CollateralBalanceEvent) Value() ([]byte, error) { return json.Marshal(e) }

// ConvertPayEvent 一次真实换币: 卖出抵押币、买入债务币
// OracleData 原样透传预言机数据，审计回放用
type ConvertPayEvent struct {
	EventID    int64     `json:"event_id"`
	Type       string    `json:"type"`
	EntryID    int64     `json:"entry_id"`
	DebtID     string    `json:"debt_id"`
	FromAmount int64     `json:"from_amount"`
	ToAmount   int64     `json:"to_amount"`
	OracleData []byte    `json:"oracle_data,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *ConvertPayEvent) Topic() string          { return TopicClaimEvents }
func (e *ConvertPayEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *ConvertPayEvent) Value() ([]byte, error) { return json.Marshal(e) }

// TakeFeeEvent 手续费拆分: burned 销毁、rewarded 奖励触发方
type TakeFeeEvent struct {
	EventID   int64     `json:"event_id"`
	Type      string    `json:"type"`
	EntryID   int64     `json:"entry_id"`
	DebtID    string    `json:"debt_id"`
	Burned    int64     `json:"burned"`
	Rewarded  int64     `json:"rewarded"`
	RewardTo  string    `json:"reward_to"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *TakeFeeEvent) Topic() string          { return TopicClaimEvents }
func (e *TakeFeeEvent) Key() string            { return strconv.FormatInt(e.EntryID, 10) }
func (e *TakeFeeEvent) Value() ([]byte, error) { return json.Marshal(e) }
