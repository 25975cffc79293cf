// 文件: pkg/collateral/engine.go
// 抵押引擎 - 估值、清算与结算核心
//
// 所有改状态的操作走同一套规则:
// - 仓位条带锁串行化 (同一仓位单写者)
// - 校验全部通过、资金可动性确认之后才动任何状态
// - 任何协作方失败都让整个操作原样中止
//
// 引擎自身没有后台 goroutine，全部同步请求/响应；
// 无许可的 claim 由外部监控进程驱动。

package collateral

import (
	"fmt"
	"log"
	"sync"
	"time"

	"colend.com/pkg/converter"
	"colend.com/pkg/kafka"
	"colend.com/pkg/ledger"
	"colend.com/pkg/oracle"
	"colend.com/pkg/ratio"
	"colend.com/pkg/token"
)

// 条带锁数量，按仓位 id 路由
const lockStripes = 64

// =============================================================================
// 配置
// =============================================================================

// Config 引擎配置
type Config struct {
	// Address 引擎托管账户，抵押和换来的债务币都停在这里
	Address string

	// Owner 引擎管理员 (紧急赎回的唯一授权方)
	Owner string

	// DebtToken 债务币符号，债务账本收款、手续费结算都用它
	DebtToken string

	// BurnAddress 销毁地址
	BurnAddress string

	// ConverterAddress 转换器的对手方账户
	ConverterAddress string

	// LedgerAddress 债务账本收款账户
	LedgerAddress string

	// NowFunc 当前时间 (unix 秒)，测试可注入
	NowFunc func() int64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Address:          "collateral-engine",
		Owner:            "engine-admin",
		DebtToken:        "RCN",
		BurnAddress:      "burn",
		ConverterAddress: "converter",
		LedgerAddress:    "debt-ledger",
	}
}

// =============================================================================
// Engine
// =============================================================================

// Engine 抵押引擎
type Engine struct {
	cfg    Config
	store  *Store
	ledger ledger.DebtLedger
	conv   converter.Converter
	tokens *token.Registry
	rec    Recorder

	locks [lockStripes]sync.Mutex
}

// NewEngine 创建引擎
func NewEngine(cfg Config, store *Store, dl ledger.DebtLedger, conv converter.Converter, tokens *token.Registry, rec Recorder) *Engine {
	if cfg.NowFunc == nil {
		cfg.NowFunc = func() int64 { return time.Now().Unix() }
	}
	return &Engine{
		cfg:    cfg,
		store:  store,
		ledger: dl,
		conv:   conv,
		tokens: tokens,
		rec:    rec,
	}
}

// Store 仓位存储 (监控进程扫描用)
func (g *Engine) Store() *Store {
	return g.store
}

func (g *Engine) lockFor(id int64) *sync.Mutex {
	return &g.locks[uint64(id)%lockStripes]
}

// record 发布审计事件
// 状态已提交，发布失败只记日志，不回滚不传播
func (g *Engine) record(msg kafka.Message) {
	if g.rec == nil {
		return
	}
	if err := g.rec.Record(msg); err != nil {
		log.Printf("[Collateral] audit publish failed: topic=%s key=%s err=%v", msg.Topic(), msg.Key(), err)
	}
}

// =============================================================================
// 估值
//
// 全部只读。rate 是调用方预解码好的预言机汇率对，零值按 1:1。
// =============================================================================

// valueCollateralToTokens 抵押币 -> 债务币，同币恒等，零额短路
func (g *Engine) valueCollateralToTokens(tok string, amount int64) (int64, error) {
	if amount == 0 {
		return 0, nil
	}
	if tok == g.cfg.DebtToken {
		return amount, nil
	}
	return g.conv.GetReturn(tok, g.cfg.DebtToken, amount)
}

// valueTokensToCollateral 债务币 -> 抵押币
func (g *Engine) valueTokensToCollateral(tok string, amount int64) (int64, error) {
	if amount == 0 {
		return 0, nil
	}
	if tok == g.cfg.DebtToken {
		return amount, nil
	}
	return g.conv.GetReturn(g.cfg.DebtToken, tok, amount)
}

// debtTokens 未偿贷款折成债务币 (向下取整，估值方向)
func (g *Engine) debtTokens(e Entry, rate oracle.Rate) int64 {
	return rate.DebtAmount(g.ledger.GetClosingObligation(e.DebtID))
}

// DebtInTokens 未偿债务的债务币估值
func (g *Engine) DebtInTokens(id int64, rate oracle.Rate) (int64, error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	return g.debtTokens(e, rate), nil
}

// CollateralInTokens 抵押余额的债务币估值
func (g *Engine) CollateralInTokens(id int64) (int64, error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	return g.valueCollateralToTokens(e.Token, e.Amount)
}

// collateralRatio 抵押率 (基点，向下取整)
// 债务为零时 hasDebt=false，调用方按"完全足额"处理
func (g *Engine) collateralRatio(e Entry, rate oracle.Rate) (r int64, hasDebt bool, err error) {
	debt := g.debtTokens(e, rate)
	if debt == 0 {
		return 0, false, nil
	}
	col, err := g.valueCollateralToTokens(e.Token, e.Amount)
	if err != nil {
		return 0, false, err
	}
	return col * ratio.BASE / debt, true, nil
}

// CollateralRatio 抵押率查询
func (g *Engine) CollateralRatio(id int64, rate oracle.Rate) (r int64, hasDebt bool, err error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, false, ErrEntryNotFound
	}
	return g.collateralRatio(e, rate)
}

// LiquidationDeltaRatio 抵押率到清算线的有符号距离 (基点)
// 负数表示已击穿清算线；无债务按完全足额返回 0 距离之上的最大语义，
// 调用方先看 hasDebt
func (g *Engine) LiquidationDeltaRatio(id int64, rate oracle.Rate) (delta int64, hasDebt bool, err error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, false, ErrEntryNotFound
	}
	r, hasDebt, err := g.collateralRatio(e, rate)
	if err != nil || !hasDebt {
		return 0, hasDebt, err
	}
	return r - e.LiquidationRatio, true, nil
}

// BalanceDeltaRatio 抵押率到平衡目标的有符号距离 (基点)
func (g *Engine) BalanceDeltaRatio(id int64, rate oracle.Rate) (delta int64, hasDebt bool, err error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, false, ErrEntryNotFound
	}
	r, hasDebt, err := g.collateralRatio(e, rate)
	if err != nil || !hasDebt {
		return 0, hasDebt, err
	}
	return r - e.BalanceRatio, true, nil
}

// canWithdraw 保持抵押率 >= balanceRatio 的最大可提取量 (抵押币)
// 负数表示缺口: 不但不能提，还差这么多
func (g *Engine) canWithdraw(e Entry, rate oracle.Rate) (int64, error) {
	r, hasDebt, err := g.collateralRatio(e, rate)
	if err != nil {
		return 0, err
	}
	if !hasDebt {
		return e.Amount, nil
	}
	// 抵押估值归零 (封顶清算卖光仓位后债务仍在，或汇率把余额抹成零):
	// 比率为 0，什么都提不出来
	if r == 0 {
		return 0, nil
	}
	// 有符号整数除法向零截断，和定点估值约定一致
	return e.Amount * (r - e.BalanceRatio) / r, nil
}

// CanWithdraw 可提取量查询
func (g *Engine) CanWithdraw(id int64, rate oracle.Rate) (int64, error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	return g.canWithdraw(e, rate)
}

// collateralToPay 平衡清算的定量规则 (抵押币)
//
// 三者取最小:
// (a) 把比率拉回 balanceRatio 的理想量 |缺口| * BASE / (balanceRatio - BASE)
// (b) 仓位全部抵押 —— 不能卖不存在的东西
// (c) 全部债务折成抵押币 —— 不多还一分
func (g *Engine) collateralToPay(e Entry, rate oracle.Rate) (int64, error) {
	r, hasDebt, err := g.collateralRatio(e, rate)
	if err != nil {
		return 0, err
	}
	if !hasDebt || r >= e.LiquidationRatio {
		return 0, nil
	}

	debtInCollateral, err := g.valueTokensToCollateral(e.Token, g.debtTokens(e, rate))
	if err != nil {
		return 0, err
	}

	// 抵押估值归零时平衡目标无解，退化为卖掉能卖的、还掉能还的
	if r == 0 {
		if e.Amount < debtInCollateral {
			return e.Amount, nil
		}
		return debtInCollateral, nil
	}

	cw, err := g.canWithdraw(e, rate)
	if err != nil {
		return 0, err
	}
	ideal := ratio.Abs(cw) * ratio.BASE / (e.BalanceRatio - ratio.BASE)

	return ratio.Min3(ideal, e.Amount, debtInCollateral), nil
}

// CollateralToPay 平衡清算需要卖出的抵押量
func (g *Engine) CollateralToPay(id int64, rate oracle.Rate) (int64, error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	return g.collateralToPay(e, rate)
}

// TokensToPay 平衡清算需要买入的债务币量
func (g *Engine) TokensToPay(id int64, rate oracle.Rate) (int64, error) {
	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	return g.tokensToPay(e, rate)
}

func (g *Engine) tokensToPay(e Entry, rate oracle.Rate) (int64, error) {
	pay, err := g.collateralToPay(e, rate)
	if err != nil {
		return 0, err
	}
	return g.valueCollateralToTokens(e.Token, pay)
}

// =============================================================================
// 操作 - 仓位生命周期
// =============================================================================

// Create 创建仓位并拉入初始抵押
//
// 债务请求必须开放且未被其他仓位抵押。
// 校验全部通过后才拉币，拉币失败不留任何状态。
func (g *Engine) Create(caller, debtID, tok string, amount, liquidationRatio, balanceRatio, burnFee, rewardFee int64) (int64, error) {
	if err := validateConfig(liquidationRatio, balanceRatio, burnFee, rewardFee); err != nil {
		return 0, err
	}

	if _, _, open := g.ledger.RequestInfo(debtID); !open {
		return 0, ErrDebtNotOpen
	}
	if g.store.EntryIDByDebt(debtID) != 0 {
		return 0, ErrDebtCollateralized
	}

	if err := g.tokens.Pull(tok, caller, g.cfg.Address, amount); err != nil {
		return 0, fmt.Errorf("pull collateral: %w", err)
	}

	id, err := g.store.Create(caller, debtID, tok, amount, liquidationRatio, balanceRatio, burnFee, rewardFee)
	if err != nil {
		// 创建和拉币之间有并发窗口 (同一 debtID 抢先建仓)，退回抵押
		if perr := g.tokens.Push(tok, g.cfg.Address, caller, amount); perr != nil {
			log.Printf("[Collateral] ERROR: refund after failed create did not go through: to=%s token=%s amount=%d err=%v", caller, tok, amount, perr)
		}
		return 0, err
	}

	log.Printf("[Collateral] entry created: id=%d debt=%s token=%s amount=%d", id, debtID, tok, amount)
	g.record(&CreatedEvent{
		EventID:          NextEventID(),
		Type:             EventCreated,
		EntryID:          id,
		DebtID:           debtID,
		Token:            tok,
		Amount:           amount,
		LiquidationRatio: liquidationRatio,
		BalanceRatio:     balanceRatio,
		BurnFee:          burnFee,
		RewardFee:        rewardFee,
		Owner:            caller,
		CreatedAt:        time.Now(),
	})
	return id, nil
}

// Deposit 追加抵押，任何人都可以给任何仓位补仓
func (g *Engine) Deposit(caller string, id, amount int64) error {
	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	e := g.store.Get(id)
	if e.IsZero() {
		return ErrEntryNotFound
	}

	if err := g.tokens.Pull(e.Token, caller, g.cfg.Address, amount); err != nil {
		return fmt.Errorf("pull deposit: %w", err)
	}

	e.Amount += amount
	g.store.Put(e)

	g.record(&DepositedEvent{
		EventID:   NextEventID(),
		Type:      EventDeposited,
		EntryID:   id,
		From:      caller,
		Deposit:   amount,
		Amount:    e.Amount,
		CreatedAt: time.Now(),
	})
	return nil
}

// Withdraw 提取抵押
//
// 贷款进行中时额度受 canWithdraw 约束 (提完比率仍 >= balanceRatio)；
// 其他状态只受余额约束。
func (g *Engine) Withdraw(caller string, id int64, to string, amount int64, rate oracle.Rate) error {
	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	e := g.store.Get(id)
	if e.IsZero() {
		return ErrEntryNotFound
	}
	if !g.store.IsAuthorized(id, caller) {
		return ErrNotAuthorized
	}
	if amount < 0 {
		return token.ErrInvalidAmount
	}

	limit := e.Amount
	if g.ledger.GetStatus(e.DebtID) == ledger.StatusOngoing {
		cw, err := g.canWithdraw(e, rate)
		if err != nil {
			return err
		}
		if cw < limit {
			limit = cw
		}
	}
	if amount > limit {
		return ErrInsufficientCollateral
	}

	if err := g.tokens.Push(e.Token, g.cfg.Address, to, amount); err != nil {
		return fmt.Errorf("push withdrawal: %w", err)
	}

	e.Amount -= amount
	g.store.Put(e)

	g.record(&WithdrawnEvent{
		EventID:    NextEventID(),
		Type:       EventWithdrawn,
		EntryID:    id,
		To:         to,
		Withdrawal: amount,
		Amount:     e.Amount,
		CreatedAt:  time.Now(),
	})
	return nil
}

// ApproveLend 放款前置闸门
//
// 放款方在把贷款标记为进行中之前调用:
// 仓位对请求本金的抵押率必须不低于 balanceRatio。
func (g *Engine) ApproveLend(id int64, rate oracle.Rate) error {
	e := g.store.Get(id)
	if e.IsZero() {
		return ErrEntryNotFound
	}

	reqAmount, _, _ := g.ledger.RequestInfo(e.DebtID)
	debt := rate.DebtAmount(reqAmount)
	if debt == 0 {
		return nil
	}

	col, err := g.valueCollateralToTokens(e.Token, e.Amount)
	if err != nil {
		return err
	}
	if col*ratio.BASE/debt < e.BalanceRatio {
		return ErrNotCollateralized
	}
	return nil
}

// Redeem 正常赎回: 贷款从未放出或已结清时取回全部抵押
func (g *Engine) Redeem(caller string, id int64) (int64, error) {
	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	if !g.store.IsAuthorized(id, caller) {
		return 0, ErrNotAuthorized
	}

	switch g.ledger.GetStatus(e.DebtID) {
	case ledger.StatusOpen, ledger.StatusPaid:
		// 可赎回
	default:
		return 0, ErrDebtNotClosed
	}

	if err := g.tokens.Push(e.Token, g.cfg.Address, caller, e.Amount); err != nil {
		return 0, fmt.Errorf("push redemption: %w", err)
	}

	g.store.Delete(id)
	log.Printf("[Collateral] entry redeemed: id=%d to=%s amount=%d", id, caller, e.Amount)

	g.record(&RedeemedEvent{
		EventID:   NextEventID(),
		Type:      EventRedeemed,
		EntryID:   id,
		To:        caller,
		Paid:      e.Amount,
		CreatedAt: time.Now(),
	})
	return e.Amount, nil
}

// EmergencyRedeem 紧急赎回
//
// 仅引擎管理员可调，且债务账本必须处于错误状态。
// 账本侧可能还留有残值，仓位仍然整个删除 —— 错误状态下残值已不可清算。
func (g *Engine) EmergencyRedeem(caller string, id int64, to string) (int64, error) {
	if caller != g.cfg.Owner {
		return 0, ErrNotOwner
	}

	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	e := g.store.Get(id)
	if e.IsZero() {
		return 0, ErrEntryNotFound
	}
	if g.ledger.GetStatus(e.DebtID) != ledger.StatusError {
		return 0, ErrDebtNotInError
	}

	if err := g.tokens.Push(e.Token, g.cfg.Address, to, e.Amount); err != nil {
		return 0, fmt.Errorf("push emergency redemption: %w", err)
	}

	g.store.Delete(id)
	log.Printf("[Collateral] entry emergency-redeemed: id=%d to=%s amount=%d", id, to, e.Amount)

	g.record(&EmergencyRedeemedEvent{
		EventID:   NextEventID(),
		Type:      EventEmergencyRedeemed,
		EntryID:   id,
		To:        to,
		Paid:      e.Amount,
		CreatedAt: time.Now(),
	})
	return e.Amount, nil
}

// =============================================================================
// 操作 - 还款与清算
// =============================================================================

// PayOffDebt 仓位持有人用抵押一次性结清贷款
//
// 应还取整向上 (零头进位，不能少付账本)，手续费同样向上加在应付之上。
func (g *Engine) PayOffDebt(caller string, id int64, rate oracle.Rate) error {
	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	e := g.store.Get(id)
	if e.IsZero() {
		return ErrEntryNotFound
	}
	if !g.store.IsAuthorized(id, caller) {
		return ErrNotAuthorized
	}
	if g.ledger.GetStatus(e.DebtID) != ledger.StatusOngoing {
		return ErrDebtNotFound
	}

	obligation := rate.DebtAmountCeil(g.ledger.GetClosingObligation(e.DebtID))
	paid, newAmount, err := g.convertAndPay(e, obligation, rate, caller, true)
	if err != nil {
		return err
	}

	log.Printf("[Collateral] debt paid off: entry=%d debt=%s tokens=%d", id, e.DebtID, paid)
	g.record(&PayOffDebtEvent{
		EventID:            NextEventID(),
		Type:               EventPayOffDebt,
		EntryID:            id,
		DebtID:             e.DebtID,
		ObligationInTokens: obligation,
		PaidTokens:         paid,
		Amount:             newAmount,
		CreatedAt:          time.Now(),
	})
	return nil
}

// Claim 无许可清算入口，任何人可调
//
// 判定顺序:
// 1. 贷款已过期 -> 结清路径: 全部应还一次付掉 (CancelDebt)
// 2. 抵押率 < liquidationRatio -> 平衡路径: 按三最小规则部分清算 (CollateralBalance)
// 3. 否则无事发生，claimed=false (健康仓位不是错误)
func (g *Engine) Claim(caller, debtID string, rate oracle.Rate) (bool, error) {
	id := g.store.EntryIDByDebt(debtID)
	if id == 0 {
		return false, ErrNoEntryForDebt
	}

	mu := g.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	e := g.store.Get(id)
	if e.IsZero() || e.DebtID != debtID {
		return false, ErrNoEntryForDebt
	}

	// 1. 过期结清
	obligation, due := g.ledger.GetObligation(debtID, g.cfg.NowFunc())
	if due && obligation > 0 {
		required := rate.DebtAmountCeil(obligation)
		paid, newAmount, err := g.convertAndPay(e, required, rate, caller, true)
		if err != nil {
			return false, err
		}

		log.Printf("[Collateral] claim settled overdue debt: entry=%d debt=%s required=%d paid=%d", id, debtID, required, paid)
		g.record(&CancelDebtEvent{
			EventID:            NextEventID(),
			Type:               EventCancelDebt,
			EntryID:            id,
			DebtID:             debtID,
			ObligationInTokens: required,
			PaidTokens:         paid,
			Amount:             newAmount,
			CreatedAt:          time.Now(),
		})
		return true, nil
	}

	// 2. 比率击穿，平衡清算
	r, hasDebt, err := g.collateralRatio(e, rate)
	if err != nil {
		return false, err
	}
	if hasDebt && r < e.LiquidationRatio {
		required, err := g.tokensToPay(e, rate)
		if err != nil {
			return false, err
		}
		if required > 0 {
			paid, newAmount, err := g.convertAndPay(e, required, rate, caller, false)
			if err != nil {
				return false, err
			}

			log.Printf("[Collateral] claim equilibrated entry: entry=%d debt=%s ratio=%d required=%d paid=%d", id, debtID, r, required, paid)
			g.record(&CollateralBalanceEvent{
				EventID:        NextEventID(),
				Type:           EventCollateralBalance,
				EntryID:        id,
				DebtID:         debtID,
				RequiredTokens: required,
				PaidTokens:     paid,
				Amount:         newAmount,
				CreatedAt:      time.Now(),
			})
			return true, nil
		}
	}

	// 3. 健康仓位，无事可做
	return false, nil
}

// convertAndPay 共享的卖抵押-还账本路径 (调用方持有条带锁)
//
// requiredTokens: 本次要还给账本的债务币量
// ceilFees: 手续费取整方向 (结清向上、平衡向下)
//
// 未封顶: 手续费加在应付之上，total = required + burned + rewarded，
// 卖出 valueTokensToCollateral(total) 的抵押。
// 封顶 (需要的抵押超过仓位余额): 卖光仓位，按实际买到的债务币
// 重算手续费 (向上取整、从所得中扣除)，余下的全部还账本。
//
// 返回实际还给账本的债务币量和结算后的仓位余额。
func (g *Engine) convertAndPay(e Entry, requiredTokens int64, rate oracle.Rate, caller string, ceilFees bool) (int64, int64, error) {
	burned, rewarded := SplitFee(requiredTokens, e.BurnFee, e.RewardFee, ceilFees)
	totalTokens := requiredTokens + burned + rewarded

	sold, err := g.valueTokensToCollateral(e.Token, totalTokens)
	if err != nil {
		return 0, 0, err
	}

	var bought, payTokens int64
	if sold > e.Amount {
		// 封顶: 仓位不够，卖光、手续费从所得净额里扣
		sold = e.Amount
		bought, err = g.valueCollateralToTokens(e.Token, sold)
		if err != nil {
			return 0, 0, err
		}
		burned, rewarded = SplitFee(bought, e.BurnFee, e.RewardFee, true)
		// 向上取整的两笔手续费可能吃穿零头所得，压到所得以内:
		// 销毁优先，奖励拿剩下的，账本收非负净额
		if burned+rewarded > bought {
			if burned > bought {
				burned = bought
			}
			rewarded = bought - burned
		}
		payTokens = bought - burned - rewarded
	} else {
		bought = totalTokens
		payTokens = requiredTokens
	}

	// 动账前确认转换器吃得下这一单，之后的每次移动都不应失败
	if g.tokens.BalanceOf(g.cfg.DebtToken, g.cfg.ConverterAddress) < bought {
		return 0, 0, fmt.Errorf("converter liquidity %d short of %d: %w", g.tokens.BalanceOf(g.cfg.DebtToken, g.cfg.ConverterAddress), bought, ErrTransferFailed)
	}

	// 换币: 抵押给转换器，债务币进托管
	if err := g.tokens.Push(e.Token, g.cfg.Address, g.cfg.ConverterAddress, sold); err != nil {
		return 0, 0, fmt.Errorf("push collateral to converter: %w", err)
	}
	if err := g.tokens.Push(g.cfg.DebtToken, g.cfg.ConverterAddress, g.cfg.Address, bought); err != nil {
		return 0, 0, fmt.Errorf("pull tokens from converter: %w", err)
	}

	g.record(&ConvertPayEvent{
		EventID:    NextEventID(),
		Type:       EventConvertPay,
		EntryID:    e.ID,
		DebtID:     e.DebtID,
		FromAmount: sold,
		ToAmount:   bought,
		OracleData: rate.Data,
		CreatedAt:  time.Now(),
	})

	// 还账本
	if err := g.tokens.Push(g.cfg.DebtToken, g.cfg.Address, g.cfg.LedgerAddress, payTokens); err != nil {
		return 0, 0, fmt.Errorf("push payment to ledger: %w", err)
	}
	if _, err := g.ledger.Pay(e.DebtID, payTokens, rate); err != nil {
		return 0, 0, fmt.Errorf("ledger pay: %w", err)
	}

	// 手续费分流
	if burned > 0 {
		if err := g.tokens.Push(g.cfg.DebtToken, g.cfg.Address, g.cfg.BurnAddress, burned); err != nil {
			return 0, 0, fmt.Errorf("push burn fee: %w", err)
		}
	}
	if rewarded > 0 {
		if err := g.tokens.Push(g.cfg.DebtToken, g.cfg.Address, caller, rewarded); err != nil {
			return 0, 0, fmt.Errorf("push reward fee: %w", err)
		}
	}
	if burned > 0 || rewarded > 0 {
		g.record(&TakeFeeEvent{
			EventID:   NextEventID(),
			Type:      EventTakeFee,
			EntryID:   e.ID,
			DebtID:    e.DebtID,
			Burned:    burned,
			Rewarded:  rewarded,
			RewardTo:  caller,
			CreatedAt: time.Now(),
		})
	}

	e.Amount -= sold
	g.store.Put(e)

	return payTokens, e.Amount, nil
}
