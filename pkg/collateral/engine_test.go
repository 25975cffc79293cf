package collateral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colend.com/pkg/converter"
	"colend.com/pkg/kafka"
	"colend.com/pkg/ledger"
	"colend.com/pkg/oracle"
	"colend.com/pkg/ratio"
	"colend.com/pkg/token"
)

// =============================================================================
// 测试脚手架
// =============================================================================

type fixture struct {
	eng   *Engine
	store *Store
	lgr   *ledger.MemoryLedger
	reg   *token.Registry
	conv  *converter.FixedRate
	rec   *MemoryRecorder
	now   int64
}

func newFixture() *fixture {
	f := &fixture{now: 1000}

	f.store = NewStore()
	f.lgr = ledger.NewMemoryLedger()
	f.reg = token.NewRegistry()
	f.conv = converter.NewFixedRate()
	f.rec = NewMemoryRecorder()

	// 抵押币 AUX 和债务币 RCN 1:1 互换
	f.conv.SetRate("AUX", "RCN", 1, 1)
	f.conv.SetRate("RCN", "AUX", 1, 1)

	cfg := DefaultConfig()
	cfg.Address = "engine"
	cfg.Owner = "admin"
	cfg.DebtToken = "RCN"
	cfg.BurnAddress = "burn"
	cfg.ConverterAddress = "amm"
	cfg.LedgerAddress = "loans"
	cfg.NowFunc = func() int64 { return f.now }

	f.eng = NewEngine(cfg, f.store, f.lgr, f.conv, f.reg, f.rec)
	return f
}

// fund 给持有人铸币并授权引擎拉取
func (f *fixture) fund(tok, holder string, amount int64) {
	f.reg.Mint(tok, holder, amount)
	f.reg.Approve(tok, holder, "engine", amount)
}

// createEntry 开贷款请求 + 建仓
func (f *fixture) createEntry(t *testing.T, owner, debtID string, loanAmount, dueAt, amount, liq, bal, burnFee, rewardFee int64) int64 {
	t.Helper()
	f.lgr.Request(debtID, loanAmount, "RCN", dueAt)
	f.fund("AUX", owner, amount)

	id, err := f.eng.Create(owner, debtID, "AUX", amount, liq, bal, burnFee, rewardFee)
	require.NoError(t, err)
	return id
}

// eventsOf 从记录器里按类型过滤事件
func eventsOf[T kafka.Message](rec *MemoryRecorder) []T {
	var out []T
	for _, m := range rec.Events() {
		if ev, ok := m.(T); ok {
			out = append(out, ev)
		}
	}
	return out
}

var noRate = oracle.Rate{}

// =============================================================================
// 创建
// =============================================================================

func TestCreate_PullsCollateral(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)

	assert.Equal(t, int64(1), id)
	assert.Equal(t, int64(1100), f.reg.BalanceOf("AUX", "engine"))
	assert.Zero(t, f.reg.BalanceOf("AUX", "alice"))

	e := f.store.Get(id)
	assert.Equal(t, "debt-1", e.DebtID)
	assert.Equal(t, int64(1100), e.Amount)
	assert.Equal(t, "alice", f.store.Owner(id))
	assert.Equal(t, id, f.store.EntryIDByDebt("debt-1"))

	created := eventsOf[*CreatedEvent](f.rec)
	require.Len(t, created, 1)
	assert.Equal(t, int64(1100), created[0].Amount)
	assert.Equal(t, "alice", created[0].Owner)
}

func TestCreate_Preconditions(t *testing.T) {
	f := newFixture()

	// 请求不存在
	_, err := f.eng.Create("alice", "missing", "AUX", 100, 15000, 20000, 0, 0)
	assert.ErrorIs(t, err, ErrDebtNotOpen)

	// 已放款的请求不再开放
	f.lgr.Request("debt-lent", 1000, "RCN", 99999)
	require.NoError(t, f.lgr.Lend("debt-lent"))
	_, err = f.eng.Create("alice", "debt-lent", "AUX", 100, 15000, 20000, 0, 0)
	assert.ErrorIs(t, err, ErrDebtNotOpen)

	// 同一笔债务不能二次抵押
	f.createEntry(t, "alice", "debt-1", 1000, 99999, 100, 15000, 20000, 0, 0)
	f.fund("AUX", "bob", 100)
	_, err = f.eng.Create("bob", "debt-1", "AUX", 100, 15000, 20000, 0, 0)
	assert.ErrorIs(t, err, ErrDebtCollateralized)

	// 未授权拉币
	f.lgr.Request("debt-2", 1000, "RCN", 99999)
	f.reg.Mint("AUX", "carol", 100)
	_, err = f.eng.Create("carol", "debt-2", "AUX", 100, 15000, 20000, 0, 0)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Zero(t, f.store.EntryIDByDebt("debt-2"))
}

// =============================================================================
// 追加 / 提取
// =============================================================================

func TestDepositWithdraw_RoundTrip(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1000, 15000, 20000, 0, 0)

	// 任何人都可以补仓
	f.fund("AUX", "bob", 100)
	require.NoError(t, f.eng.Deposit("bob", id, 100))
	assert.Equal(t, int64(1100), f.store.Get(id).Amount)

	// 贷款未放出，提取只受余额约束: 等量取回后回到原状
	require.NoError(t, f.eng.Withdraw("alice", id, "bob", 100, noRate))
	assert.Equal(t, int64(1000), f.store.Get(id).Amount)
	assert.Equal(t, int64(100), f.reg.BalanceOf("AUX", "bob"))

	// 非所有者不能提取
	err := f.eng.Withdraw("bob", id, "bob", 1, noRate)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// 委托后可以
	f.store.SetApproval("alice", "bob", true)
	require.NoError(t, f.eng.Withdraw("bob", id, "bob", 1, noRate))
}

func TestWithdraw_EmptyEntry(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 0, 15000, 20000, 0, 0)

	err := f.eng.Withdraw("alice", id, "alice", 1, noRate)
	assert.ErrorIs(t, err, ErrInsufficientCollateral)
	assert.Zero(t, f.store.Get(id).Amount)
}

func TestWithdraw_OngoingRespectsBalanceRatio(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 2500, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	// ratio = 25000, canWithdraw = 2500*(25000-20000)/25000 = 500
	cw, err := f.eng.CanWithdraw(id, noRate)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cw)

	err = f.eng.Withdraw("alice", id, "alice", 501, noRate)
	assert.ErrorIs(t, err, ErrInsufficientCollateral)

	require.NoError(t, f.eng.Withdraw("alice", id, "alice", 500, noRate))
	assert.Equal(t, int64(2000), f.store.Get(id).Amount)

	// 提完正好停在平衡线上
	r, hasDebt, err := f.eng.CollateralRatio(id, noRate)
	require.NoError(t, err)
	assert.True(t, hasDebt)
	assert.Equal(t, int64(20000), r)
}

// =============================================================================
// 估值
// =============================================================================

func TestValuation_WithOracleRate(t *testing.T) {
	f := newFixture()
	// 贷款按 USD 计价: 1 USD = 2 RCN
	rate := oracle.Rate{Tokens: 2, Equivalent: 1}
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	debt, err := f.eng.DebtInTokens(id, rate)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), debt)

	r, hasDebt, err := f.eng.CollateralRatio(id, rate)
	require.NoError(t, err)
	assert.True(t, hasDebt)
	assert.Equal(t, int64(5500), r)

	delta, _, err := f.eng.LiquidationDeltaRatio(id, rate)
	require.NoError(t, err)
	assert.Equal(t, int64(-9500), delta)
}

func TestValuation_NoDebt(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)

	// 未放款，债务为零: 完全足额
	_, hasDebt, err := f.eng.CollateralRatio(id, noRate)
	require.NoError(t, err)
	assert.False(t, hasDebt)

	cw, err := f.eng.CanWithdraw(id, noRate)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), cw)

	pay, err := f.eng.CollateralToPay(id, noRate)
	require.NoError(t, err)
	assert.Zero(t, pay)
}

func TestValuation_ZeroCollateralWithDebt(t *testing.T) {
	f := newFixture()
	// 封顶清算卖光仓位后的形态: 余额 0，债务还在
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 0, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	r, hasDebt, err := f.eng.CollateralRatio(id, noRate)
	require.NoError(t, err)
	assert.True(t, hasDebt)
	assert.Zero(t, r)

	cw, err := f.eng.CanWithdraw(id, noRate)
	require.NoError(t, err)
	assert.Zero(t, cw)
	assert.ErrorIs(t, f.eng.Withdraw("alice", id, "alice", 1, noRate), ErrInsufficientCollateral)

	// 没东西可卖，平衡清算无事可做
	pay, err := f.eng.CollateralToPay(id, noRate)
	require.NoError(t, err)
	assert.Zero(t, pay)

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestCollateralToPay_WorthlessCollateral(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 5, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	// 汇率把 5 AUX 抹成 0 RCN: 比率归零，平衡目标无解，退化为全仓
	f.conv.SetRate("AUX", "RCN", 1, 1000)
	f.conv.SetRate("RCN", "AUX", 1000, 1)

	pay, err := f.eng.CollateralToPay(id, noRate)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pay)
}

func TestValuation_RoundTrip(t *testing.T) {
	f := newFixture()

	// 同币恒等，不经过转换器
	v, err := f.eng.valueCollateralToTokens("RCN", 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), v)

	// 互逆汇率下往返每个方向各截断一次，误差不超过 2 个最小单位
	f.conv.SetRate("AUX", "RCN", 3, 2)
	f.conv.SetRate("RCN", "AUX", 2, 3)

	for _, x := range []int64{1, 2, 3, 999, 1000, 12345} {
		tokens, err := f.eng.valueCollateralToTokens("AUX", x)
		require.NoError(t, err)
		back, err := f.eng.valueTokensToCollateral("AUX", tokens)
		require.NoError(t, err)

		assert.LessOrEqual(t, back, x, "x=%d", x)
		assert.LessOrEqual(t, ratio.Abs(back-x), int64(2), "x=%d", x)
	}
}

func TestCollateralToPay_NeverExceedsBounds(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	pay, err := f.eng.CollateralToPay(id, noRate)
	require.NoError(t, err)

	e := f.store.Get(id)
	debtInCollateral := int64(1000) // 1:1
	assert.LessOrEqual(t, pay, e.Amount)
	assert.LessOrEqual(t, pay, debtInCollateral)
	assert.Equal(t, int64(900), pay)
}

// =============================================================================
// Claim - 平衡清算
// =============================================================================

func TestClaim_EquilibratesToBalanceRatio(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 900)

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.True(t, claimed)

	// 卖 900 抵押还 900 债务，仓位剩 200，债务剩 100
	assert.Equal(t, int64(200), f.store.Get(id).Amount)
	assert.Equal(t, int64(100), f.lgr.GetClosingObligation("debt-1"))
	assert.Equal(t, int64(900), f.reg.BalanceOf("RCN", "loans"))
	assert.Equal(t, int64(900), f.reg.BalanceOf("AUX", "amm"))

	// 清算后回到平衡目标之上
	r, hasDebt, err := f.eng.CollateralRatio(id, noRate)
	require.NoError(t, err)
	assert.True(t, hasDebt)
	assert.GreaterOrEqual(t, r, int64(15000))
	assert.Equal(t, int64(20000), r)

	balances := eventsOf[*CollateralBalanceEvent](f.rec)
	require.Len(t, balances, 1)
	assert.Equal(t, int64(900), balances[0].RequiredTokens)
	assert.Equal(t, int64(900), balances[0].PaidTokens)
	assert.Equal(t, int64(200), balances[0].Amount)

	converts := eventsOf[*ConvertPayEvent](f.rec)
	require.Len(t, converts, 1)
	assert.Equal(t, int64(900), converts[0].FromAmount)
	assert.Equal(t, int64(900), converts[0].ToAmount)
}

func TestClaim_EquilibrationFeesAreFloored(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 500, 500)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 990)

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.True(t, claimed)

	// 900 应还 + 45 burn + 45 reward = 990 卖出
	assert.Equal(t, int64(110), f.store.Get(id).Amount)
	assert.Equal(t, int64(100), f.lgr.GetClosingObligation("debt-1"))
	assert.Equal(t, int64(900), f.reg.BalanceOf("RCN", "loans"))
	assert.Equal(t, int64(45), f.reg.BalanceOf("RCN", "burn"))
	assert.Equal(t, int64(45), f.reg.BalanceOf("RCN", "bob"))

	fees := eventsOf[*TakeFeeEvent](f.rec)
	require.Len(t, fees, 1)
	assert.Equal(t, int64(45), fees[0].Burned)
	assert.Equal(t, int64(45), fees[0].Rewarded)
	assert.Equal(t, "bob", fees[0].RewardTo)
}

func TestClaim_CappedSellsWholeEntry(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 500, 15000, 20000, 1000, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 500)

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.True(t, claimed)

	// 理想量 550 超过仓位 500: 卖光，手续费从所得净额扣
	// bought=500, burned=ceil(500*10%)=50, pay=450
	assert.Zero(t, f.store.Get(id).Amount)
	assert.Equal(t, int64(450), f.reg.BalanceOf("RCN", "loans"))
	assert.Equal(t, int64(50), f.reg.BalanceOf("RCN", "burn"))
	assert.Equal(t, int64(550), f.lgr.GetClosingObligation("debt-1"))

	balances := eventsOf[*CollateralBalanceEvent](f.rec)
	require.Len(t, balances, 1)
	assert.Equal(t, int64(500), balances[0].RequiredTokens)
	assert.Equal(t, int64(450), balances[0].PaidTokens)
}

// =============================================================================
// Claim - 过期结清
// =============================================================================

func TestClaim_SettlesOverdueDebt(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 500, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 1000)

	f.now = 600 // 过期

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.True(t, claimed)

	assert.Equal(t, ledger.StatusPaid, f.lgr.GetStatus("debt-1"))
	assert.Equal(t, int64(100), f.store.Get(id).Amount)

	cancels := eventsOf[*CancelDebtEvent](f.rec)
	require.Len(t, cancels, 1)
	assert.Equal(t, int64(1000), cancels[0].ObligationInTokens)
	assert.Equal(t, int64(1000), cancels[0].PaidTokens)

	// 结清后可以正常赎回剩余抵押
	paid, err := f.eng.Redeem("alice", id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), paid)
	assert.True(t, f.store.Get(id).IsZero())
	assert.Zero(t, f.store.EntryIDByDebt("debt-1"))
	assert.Equal(t, int64(100), f.reg.BalanceOf("AUX", "alice"))
}

func TestClaim_DustEntryFeesClampedToProceeds(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 500, 1, 15000, 20000, 400, 400)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 10)

	f.now = 600 // 过期

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.True(t, claimed)

	// 卖光 1 AUX 只买到 1 RCN，两笔向上取整的手续费压进所得:
	// 销毁优先拿 1，奖励和账本都是 0，支付永不为负
	assert.Zero(t, f.store.Get(id).Amount)
	assert.Equal(t, int64(1), f.reg.BalanceOf("AUX", "amm"))
	assert.Equal(t, int64(1), f.reg.BalanceOf("RCN", "burn"))
	assert.Zero(t, f.reg.BalanceOf("RCN", "bob"))
	assert.Zero(t, f.reg.BalanceOf("RCN", "loans"))
	assert.Equal(t, int64(1000), f.lgr.GetClosingObligation("debt-1"))

	// 托管账户里不能留下任何搁浅资金
	assert.Zero(t, f.reg.BalanceOf("AUX", "engine"))
	assert.Zero(t, f.reg.BalanceOf("RCN", "engine"))

	cancels := eventsOf[*CancelDebtEvent](f.rec)
	require.Len(t, cancels, 1)
	assert.Zero(t, cancels[0].PaidTokens)
	assert.Zero(t, cancels[0].Amount)
}

func TestClaim_HealthyEntryIsNoop(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 2500, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	claimed, err := f.eng.Claim("bob", "debt-1", noRate)
	require.NoError(t, err)
	assert.False(t, claimed)

	// 健康仓位什么都不动
	assert.Equal(t, int64(2500), f.store.Get(id).Amount)
	assert.Empty(t, eventsOf[*CollateralBalanceEvent](f.rec))
	assert.Empty(t, eventsOf[*CancelDebtEvent](f.rec))
}

func TestClaim_UnknownDebt(t *testing.T) {
	f := newFixture()

	_, err := f.eng.Claim("bob", "missing", noRate)
	assert.ErrorIs(t, err, ErrNoEntryForDebt)
}

func TestClaim_WithOracleRate(t *testing.T) {
	f := newFixture()
	// 1 USD = 2 RCN: 1000 USD 债务 = 2000 RCN，仓位 1100 深度穿仓
	rate := oracle.Rate{Tokens: 2, Equivalent: 1, Data: []byte{0x01, 0x02}}
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 1100)

	claimed, err := f.eng.Claim("bob", "debt-1", rate)
	require.NoError(t, err)
	assert.True(t, claimed)

	// min3(2900, 1100, 2000) = 1100: 全仓卖出，1100 RCN 冲减 550 USD
	assert.Zero(t, f.store.Get(id).Amount)
	assert.Equal(t, int64(450), f.lgr.GetClosingObligation("debt-1"))

	// 预言机数据原样出现在换币事件里
	converts := eventsOf[*ConvertPayEvent](f.rec)
	require.Len(t, converts, 1)
	assert.Equal(t, []byte{0x01, 0x02}, converts[0].OracleData)
}

func TestClaim_ConverterShortLiquidityAborts(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 899) // 差一个单位

	_, err := f.eng.Claim("bob", "debt-1", noRate)
	assert.ErrorIs(t, err, ErrTransferFailed)

	// 整体中止，不留半截状态
	assert.Equal(t, int64(1100), f.store.Get(id).Amount)
	assert.Equal(t, int64(1000), f.lgr.GetClosingObligation("debt-1"))
	assert.Equal(t, int64(1100), f.reg.BalanceOf("AUX", "engine"))
}

// =============================================================================
// PayOffDebt / Redeem / EmergencyRedeem / ApproveLend
// =============================================================================

func TestPayOffDebt(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))
	f.reg.Mint("RCN", "amm", 1000)

	// 非授权调用
	err := f.eng.PayOffDebt("bob", id, noRate)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, f.eng.PayOffDebt("alice", id, noRate))
	assert.Equal(t, ledger.StatusPaid, f.lgr.GetStatus("debt-1"))
	assert.Equal(t, int64(100), f.store.Get(id).Amount)

	payoffs := eventsOf[*PayOffDebtEvent](f.rec)
	require.Len(t, payoffs, 1)
	assert.Equal(t, int64(1000), payoffs[0].ObligationInTokens)
	assert.Equal(t, int64(1000), payoffs[0].PaidTokens)

	// 已结清不能再还
	err = f.eng.PayOffDebt("alice", id, noRate)
	assert.ErrorIs(t, err, ErrDebtNotFound)
}

func TestPayOffDebt_NotOngoing(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)

	// 请求还开放着，没有可还的进行中贷款
	err := f.eng.PayOffDebt("alice", id, noRate)
	assert.ErrorIs(t, err, ErrDebtNotFound)
}

func TestRedeem_OngoingDebtFails(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	_, err := f.eng.Redeem("alice", id)
	assert.ErrorIs(t, err, ErrDebtNotClosed)
	assert.Equal(t, int64(1100), f.store.Get(id).Amount)
}

func TestRedeem_NeverLent(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)

	paid, err := f.eng.Redeem("alice", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), paid)
	assert.Equal(t, int64(1100), f.reg.BalanceOf("AUX", "alice"))
	assert.True(t, f.store.Get(id).IsZero())
}

func TestEmergencyRedeem(t *testing.T) {
	f := newFixture()
	id := f.createEntry(t, "alice", "debt-1", 1000, 99999, 1100, 15000, 20000, 0, 0)
	require.NoError(t, f.lgr.Lend("debt-1"))

	// 债务未进入错误状态
	_, err := f.eng.EmergencyRedeem("admin", id, "vault")
	assert.ErrorIs(t, err, ErrDebtNotInError)

	f.lgr.SetError("debt-1")

	// 只有引擎管理员能走兜底通道
	_, err = f.eng.EmergencyRedeem("alice", id, "vault")
	assert.ErrorIs(t, err, ErrNotOwner)

	paid, err := f.eng.EmergencyRedeem("admin", id, "vault")
	require.NoError(t, err)
	assert.Equal(t, int64(1100), paid)
	assert.Equal(t, int64(1100), f.reg.BalanceOf("AUX", "vault"))
	assert.True(t, f.store.Get(id).IsZero())
}

func TestApproveLend(t *testing.T) {
	f := newFixture()

	// 2500 抵押对 1000 请求: 25000 >= 20000，放行
	healthy := f.createEntry(t, "alice", "debt-1", 1000, 99999, 2500, 15000, 20000, 0, 0)
	assert.NoError(t, f.eng.ApproveLend(healthy, noRate))

	// 1100 抵押对 1000 请求: 11000 < 20000，拦下
	thin := f.createEntry(t, "bob", "debt-2", 1000, 99999, 1100, 15000, 20000, 0, 0)
	assert.ErrorIs(t, f.eng.ApproveLend(thin, noRate), ErrNotCollateralized)
}
