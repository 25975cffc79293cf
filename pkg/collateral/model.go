// 文件: pkg/collateral/model.go
// 抵押仓位数据模型 + 错误定义
//
// 一个 Entry 是一笔贷款背后的抵押仓位:
// 持有某种抵押币的余额，配置两条基点阈值和两个手续费率。
// 抵押率跌破 liquidationRatio 触发清算，清算把仓位拉回 balanceRatio。

package collateral

import (
	"errors"

	"colend.com/pkg/ratio"
	"colend.com/pkg/token"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// 创建校验
	ErrInvalidFeeConfig        = errors.New("collateral: invalid fee configuration")
	ErrInvalidLiquidationRatio = errors.New("collateral: liquidation ratio must exceed base")
	ErrInvalidBalanceRatio     = errors.New("collateral: balance ratio must exceed liquidation ratio")
	ErrFeeExceedsBand          = errors.New("collateral: fee exceeds equilibration band")
	ErrDebtNotOpen             = errors.New("collateral: debt request not open")
	ErrDebtCollateralized      = errors.New("collateral: debt already collateralized")

	// 授权 / 状态
	ErrEntryNotFound          = errors.New("collateral: entry not found")
	ErrNotAuthorized          = errors.New("collateral: caller not authorized")
	ErrNotOwner               = errors.New("collateral: caller not engine owner")
	ErrInsufficientCollateral = errors.New("collateral: insufficient collateral")
	ErrDebtNotClosed          = errors.New("collateral: debt not closed")
	ErrDebtNotInError         = errors.New("collateral: debt not in error state")
	ErrDebtNotFound           = errors.New("collateral: debt not ongoing")
	ErrNoEntryForDebt         = errors.New("collateral: no entry for debt")
	ErrNotCollateralized      = errors.New("collateral: entry not sufficiently collateralized")

	// 资金移动失败直接复用托管层的哨兵，调用方统一 errors.Is 判断
	ErrTransferFailed = token.ErrTransferFailed
)

// =============================================================================
// Entry
// =============================================================================

// Entry 抵押仓位
//
// 不变量 (创建时校验，存续期间保持):
// - Amount >= 0
// - LiquidationRatio > ratio.BASE
// - BalanceRatio > LiquidationRatio
// - BurnFee + RewardFee < BASE 且 < BalanceRatio - LiquidationRatio
type Entry struct {
	ID     int64  `json:"id"`
	DebtID string `json:"debt_id"`
	Token  string `json:"token"`

	// Amount 引擎托管的抵押余额 (抵押币最小单位)
	Amount int64 `json:"amount"`

	// LiquidationRatio 清算阈值 (基点)
	LiquidationRatio int64 `json:"liquidation_ratio"`

	// BalanceRatio 平衡目标 (基点)，清算把抵押率拉回这条线
	BalanceRatio int64 `json:"balance_ratio"`

	// BurnFee / RewardFee 清算换币时的手续费率 (基点)
	// burn 部分销毁，reward 部分奖励给触发清算的调用方
	BurnFee   int64 `json:"burn_fee"`
	RewardFee int64 `json:"reward_fee"`
}

// IsZero 零值仓位 (不存在或已删除)
func (e Entry) IsZero() bool {
	return e.ID == 0
}

// validateConfig 创建参数校验，按固定顺序返回第一个违反的哨兵错误
func validateConfig(liquidationRatio, balanceRatio, burnFee, rewardFee int64) error {
	if burnFee < 0 || rewardFee < 0 ||
		burnFee >= ratio.BASE || rewardFee >= ratio.BASE ||
		burnFee+rewardFee >= ratio.BASE {
		return ErrInvalidFeeConfig
	}
	if liquidationRatio <= ratio.BASE {
		return ErrInvalidLiquidationRatio
	}
	if balanceRatio <= liquidationRatio {
		return ErrInvalidBalanceRatio
	}
	// 手续费必须塞得进平衡带，否则清算永远追不上目标
	if burnFee+rewardFee >= balanceRatio-liquidationRatio {
		return ErrFeeExceedsBand
	}
	return nil
}
