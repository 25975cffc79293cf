package main

import (
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"colend.com/pkg/collateral"
	"colend.com/pkg/converter"
	"colend.com/pkg/ledger"
	"colend.com/pkg/monitor"
	"colend.com/pkg/token"
)

// =============================================================================
// 场景参数
// =============================================================================

const (
	collateralToken = "AUX"
	debtToken       = "RCN"

	borrower         = "alice"
	converterAccount = "amm"
)

// =============================================================================
// 主程序
// =============================================================================

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.Println("🚀 Starting Collateral Engine Simulation...")

	// 1. 初始化 代币账本 / 转换器 / 债务账本
	// -------------------------------------------------------------------------
	registry := token.NewRegistry()

	// AMM 对手方: 两边都给足流动性
	registry.Mint(debtToken, converterAccount, 10_000_000)
	registry.Mint(collateralToken, converterAccount, 10_000_000)

	// 初始价: 1 AUX = 2 RCN
	conv := converter.NewFixedRate()
	conv.SetRate(collateralToken, debtToken, 2, 1)
	conv.SetRate(debtToken, collateralToken, 1, 2)

	lgr := ledger.NewMemoryLedger()

	// 2. 初始化 抵押引擎
	// -------------------------------------------------------------------------
	cfg := collateral.DefaultConfig()
	cfg.DebtToken = debtToken
	cfg.ConverterAddress = converterAccount

	recorder := collateral.NewMemoryRecorder()
	engine := collateral.NewEngine(cfg, collateral.NewStore(), lgr, conv, registry, recorder)
	log.Println("✅ Collateral Engine Ready")

	// 3. 建仓: 一笔安全仓位 + 一笔贴线仓位
	// -------------------------------------------------------------------------
	now := time.Now().Unix()

	// alice 借 1000 RCN，押 2000 AUX (价值 4000, 比率 400%)
	lgr.Request("debt-safe", 1000, debtToken, now+3600)
	registry.Mint(collateralToken, borrower, 2000)
	registry.Approve(collateralToken, borrower, cfg.Address, 2000)
	safeID, err := engine.Create(borrower, "debt-safe", collateralToken, 2000, 15000, 20000, 500, 500)
	if err != nil {
		log.Fatalf("Failed to create safe entry: %v", err)
	}
	if err := lgr.Lend("debt-safe"); err != nil {
		log.Fatalf("Failed to lend: %v", err)
	}
	log.Printf("[Setup] 📄 Entry %d: debt=1000 %s, collateral=2000 %s", safeID, debtToken, collateralToken)

	// alice 再借 1000 RCN，只押 1200 AUX (价值 2400, 比率 240%)
	// 价格跌四成就会击穿 150% 的清算线
	lgr.Request("debt-risky", 1000, debtToken, now+3600)
	registry.Mint(collateralToken, borrower, 1200)
	registry.Approve(collateralToken, borrower, cfg.Address, 1200)
	riskyID, err := engine.Create(borrower, "debt-risky", collateralToken, 1200, 15000, 20000, 500, 500)
	if err != nil {
		log.Fatalf("Failed to create risky entry: %v", err)
	}
	if err := lgr.Lend("debt-risky"); err != nil {
		log.Fatalf("Failed to lend: %v", err)
	}
	log.Printf("[Setup] 📄 Entry %d: debt=1000 %s, collateral=1200 %s", riskyID, debtToken, collateralToken)

	// 4. 启动 清算监控
	// -------------------------------------------------------------------------
	mcfg := monitor.DefaultConfig()
	mcfg.ScanInterval = 500 * time.Millisecond
	mcfg.WatchInterval = 500 * time.Millisecond
	mcfg.DangerInterval = 200 * time.Millisecond

	mon := monitor.NewMonitor(mcfg, engine, lgr, engine, monitor.ZeroRates{}, monitor.NopCooldown{})
	if err := mon.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}
	defer mon.Stop()
	log.Println("✅ Claim Monitor Started")

	// 5. 行情模拟器: 2 秒后 AUX 暴跌
	// -------------------------------------------------------------------------
	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		startTime := time.Now()
		crashed := false

		// num/1000 = AUX 对 RCN 的价格
		priceNum := int64(2000)

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				if !crashed && time.Since(startTime) > 2*time.Second {
					priceNum = 1200 // 1 AUX = 1.2 RCN，跌掉 40%
					crashed = true
					log.Printf("[Market] 📉 FORCED CRASH! %s price dropped to %.2f %s", collateralToken, float64(priceNum)/1000, debtToken)
				} else if !crashed {
					priceNum += rand.Int63n(21) - 10 // 小幅随机波动
				}

				conv.SetRate(collateralToken, debtToken, priceNum, 1000)
				conv.SetRate(debtToken, collateralToken, 1000, priceNum)
			}
		}
	}()

	// 6. 状态播报
	// -------------------------------------------------------------------------
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				stats := mon.GetStats()
				safe := engine.Store().Get(safeID)
				risky := engine.Store().Get(riskyID)
				log.Printf("[Status] watch=%d danger=%d queued=%d | entry %d: %d %s | entry %d: %d %s | burned=%d reward=%d",
					stats.WatchEntries, stats.DangerEntries, stats.QueuedTasks,
					safeID, safe.Amount, collateralToken,
					riskyID, risky.Amount, collateralToken,
					registry.BalanceOf(debtToken, cfg.BurnAddress),
					registry.BalanceOf(debtToken, mcfg.Caller))
			}
		}
	}()

	// 等待信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	close(stopCh)

	log.Println("🛑 Shutting down...")
	log.Printf("[Final] audit events recorded: %d", len(recorder.Events()))
	log.Printf("[Final] debt-risky status: %v, remaining collateral: %d %s",
		lgr.GetStatus("debt-risky"), engine.Store().Get(riskyID).Amount, collateralToken)
}
