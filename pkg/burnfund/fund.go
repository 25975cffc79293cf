// 文件: pkg/burnfund/fund.go
// 销毁池账本
//
// 清算手续费的 burn 部分推到销毁地址后，需要一本独立的账:
// 每种代币一个池子余额，外加逐笔流水。
// 对账时销毁地址的链上/托管余额必须等于这里的池子余额。

package burnfund

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidBurnAmount = errors.New("burnfund: amount must be positive")
)

// =============================================================================
// 数据模型
// =============================================================================

// BurnBalance 每种代币的销毁池余额
type BurnBalance struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Token     string `gorm:"column:token;type:varchar(32);uniqueIndex"`
	Balance   int64  `gorm:"column:balance"`
	UpdatedAt int64  `gorm:"column:updated_at"`
}

func (BurnBalance) TableName() string {
	return "burn_fund_balances"
}

// BurnLog 销毁流水，事件 ID 唯一键保证重放幂等
type BurnLog struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	EventID      int64  `gorm:"column:event_id;uniqueIndex"`
	Token        string `gorm:"column:token;type:varchar(32);index"`
	Amount       int64  `gorm:"column:amount"`
	BalanceAfter int64  `gorm:"column:balance_after"`
	EntryID      int64  `gorm:"column:entry_id;index"`
	DebtID       string `gorm:"column:debt_id;type:varchar(64);index"`
	CreatedAt    int64  `gorm:"column:created_at;index"`
}

func (BurnLog) TableName() string {
	return "burn_fund_logs"
}

// =============================================================================
// Fund
// =============================================================================

// Fund 销毁池账本
//
// 每种代币一个池子，余额缓存在内存里减少查询。
type Fund struct {
	db *gorm.DB

	// token -> balance
	balanceCache sync.Map
}

// NewFund 创建销毁池账本
func NewFund(db *gorm.DB) *Fund {
	f := &Fund{db: db}
	f.loadAll()
	return f
}

// AutoMigrate 建表
func (f *Fund) AutoMigrate() error {
	return f.db.AutoMigrate(&BurnBalance{}, &BurnLog{})
}

// GetBalance 查询池子余额
func (f *Fund) GetBalance(token string) int64 {
	if v, ok := f.balanceCache.Load(token); ok {
		return v.(int64)
	}
	return 0
}

// Record 入账一笔销毁
//
// eventID 来自审计事件，重复投递时流水唯一键拦下，余额不会重复累加。
func (f *Fund) Record(ctx context.Context, eventID int64, token string, amount, entryID int64, debtID string) error {
	if amount <= 0 {
		return ErrInvalidBurnAmount
	}

	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 流水先行: 唯一键冲突说明重放，整笔跳过
		var balance BurnBalance
		err := tx.Where("token = ?", token).First(&balance).Error
		if err == gorm.ErrRecordNotFound {
			balance = BurnBalance{
				Token:     token,
				Balance:   0,
				UpdatedAt: time.Now().UnixMilli(),
			}
			if err := tx.Create(&balance).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		newBalance := balance.Balance + amount
		logEntry := &BurnLog{
			EventID:      eventID,
			Token:        token,
			Amount:       amount,
			BalanceAfter: newBalance,
			EntryID:      entryID,
			DebtID:       debtID,
			CreatedAt:    time.Now().UnixMilli(),
		}
		res := tx.Clauses(clause.Insert{Modifier: "IGNORE"}).Create(logEntry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 重放事件，不动余额
			return nil
		}

		if err := tx.Model(&balance).Updates(map[string]any{
			"balance":    newBalance,
			"updated_at": time.Now().UnixMilli(),
		}).Error; err != nil {
			return err
		}

		f.balanceCache.Store(token, newBalance)
		log.Printf("[BurnFund] recorded %d %s, new balance: %d (entry=%d)", amount, token, newBalance, entryID)
		return nil
	})
}

// loadAll 启动时把所有池子余额加载进缓存
func (f *Fund) loadAll() {
	var balances []BurnBalance
	f.db.Find(&balances)

	for _, b := range balances {
		f.balanceCache.Store(b.Token, b.Balance)
	}

	log.Printf("[BurnFund] loaded %d token balances", len(balances))
}

// GetAllBalances 全部池子余额 (管理接口)
func (f *Fund) GetAllBalances() map[string]int64 {
	result := make(map[string]int64)
	f.balanceCache.Range(func(key, value any) bool {
		result[key.(string)] = value.(int64)
		return true
	})
	return result
}
