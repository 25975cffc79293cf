// 文件: pkg/monitor/monitor.go
// 清算监控
//
// 组成:
// 1. 全量扫描器: 周期性扫全部仓位，重建档位索引
// 2. 档位检查器: Watch / Danger 各一条循环，间隔不同
// 3. 清算队列 + Worker Pool: 真正去调引擎的 Claim
//
// 引擎保持同步无后台线程，所有 goroutine 都归监控管，
// Start/Stop 生命周期 + stopCh + WaitGroup。

package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"colend.com/pkg/collateral"
	"colend.com/pkg/ledger"
	"colend.com/pkg/oracle"
)

// =============================================================================
// 依赖接口
// =============================================================================

// Claimer 清算执行方 (引擎的 Claim 即实现)
type Claimer interface {
	Claim(caller, debtID string, rate oracle.Rate) (bool, error)
}

// RateSource 每笔债务的预言机汇率来源
type RateSource interface {
	RateFor(debtID string) oracle.Rate
}

// ZeroRates 全部按 1:1 (无预言机部署)
type ZeroRates struct{}

// RateFor 实现 RateSource
func (ZeroRates) RateFor(string) oracle.Rate {
	return oracle.Rate{}
}

// =============================================================================
// 配置
// =============================================================================

// Config 监控配置
type Config struct {
	// Caller claim 的署名账户，奖励费打到这里
	Caller string

	ScanInterval   time.Duration // 全量扫描
	WatchInterval  time.Duration // Watch 档复查
	DangerInterval time.Duration // Danger 档复查

	Workers   int // 清算 worker 数
	QueueSize int // 任务队列长度

	// NowFunc 当前时间 (unix 秒)，测试可注入
	NowFunc func() int64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Caller:         "claim-monitor",
		ScanInterval:   5 * time.Second,
		WatchInterval:  5 * time.Second,
		DangerInterval: 1 * time.Second,
		Workers:        4,
		QueueSize:      256,
	}
}

// =============================================================================
// Monitor
// =============================================================================

// Monitor 清算监控
type Monitor struct {
	cfg Config

	eng     *collateral.Engine
	lgr     ledger.DebtLedger
	claimer Claimer
	rates   RateSource
	guard   CooldownGuard

	index *BandIndex
	queue chan ClaimTask

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewMonitor 创建监控
func NewMonitor(cfg Config, eng *collateral.Engine, lgr ledger.DebtLedger, claimer Claimer, rates RateSource, guard CooldownGuard) *Monitor {
	if cfg.NowFunc == nil {
		cfg.NowFunc = func() int64 { return time.Now().Unix() }
	}
	if rates == nil {
		rates = ZeroRates{}
	}
	if guard == nil {
		guard = NopCooldown{}
	}

	return &Monitor{
		cfg:     cfg,
		eng:     eng,
		lgr:     lgr,
		claimer: claimer,
		rates:   rates,
		guard:   guard,
		index:   NewBandIndex(),
		queue:   make(chan ClaimTask, cfg.QueueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start 启动扫描器、检查器和 worker pool
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	m.running = true
	m.stopCh = make(chan struct{})

	m.startLoop("scanner", m.cfg.ScanInterval, m.scanOnce)
	m.startLoop("watch-checker", m.cfg.WatchInterval, func() { m.checkBand(BandWatch) })
	m.startLoop("danger-checker", m.cfg.DangerInterval, func() { m.checkBand(BandDanger) })
	m.startWorkers()

	log.Println("[Monitor] started")
	return nil
}

// Stop 停止并等待所有 goroutine 退出
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopCh)
	close(m.queue)
	m.wg.Wait()

	m.running = false
	log.Println("[Monitor] stopped")
}

func (m *Monitor) startLoop(name string, interval time.Duration, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	log.Printf("[Monitor] loop started: %s interval=%v", name, interval)
}

// =============================================================================
// 扫描 / 复查
// =============================================================================

// evaluate 给一个仓位算档位
func (m *Monitor) evaluate(e collateral.Entry) (EntryRisk, bool) {
	rate := m.rates.RateFor(e.DebtID)

	_, due := m.lgr.GetObligation(e.DebtID, m.cfg.NowFunc())

	ratio, hasDebt, err := m.eng.CollateralRatio(e.ID, rate)
	if err != nil {
		log.Printf("[Monitor] ratio failed: entry=%d err=%v", e.ID, err)
		return EntryRisk{}, false
	}
	if !hasDebt && !due {
		return EntryRisk{EntryID: e.ID, DebtID: e.DebtID, Band: BandSafe}, true
	}

	margin := ratio - e.LiquidationRatio
	return EntryRisk{
		EntryID:   e.ID,
		DebtID:    e.DebtID,
		Ratio:     ratio,
		Margin:    margin,
		Band:      CalculateBand(margin, due),
		UpdatedAt: time.Now().UnixNano(),
	}, true
}

// scanOnce 全量扫描，重建档位索引，可清算的直接进队列
func (m *Monitor) scanOnce() {
	entries := m.eng.Store().Snapshot()

	var watch, danger []EntryRisk
	claimable := 0

	for _, e := range entries {
		r, ok := m.evaluate(e)
		if !ok {
			continue
		}

		switch r.Band {
		case BandWatch:
			watch = append(watch, r)
		case BandDanger:
			danger = append(danger, r)
		case BandClaimable:
			claimable++
			m.enqueue(r)
		}
	}

	m.index.ReplaceBand(BandWatch, watch)
	m.index.ReplaceBand(BandDanger, danger)

	if len(watch)+len(danger)+claimable > 0 {
		log.Printf("[Monitor] scan: total=%d watch=%d danger=%d claimable=%d",
			len(entries), len(watch), len(danger), claimable)
	}
}

// checkBand 复查一个档位里的仓位
func (m *Monitor) checkBand(band RiskBand) {
	for _, prev := range m.index.GetByBand(band) {
		e := m.eng.Store().Get(prev.EntryID)
		if e.IsZero() {
			m.index.Remove(prev.EntryID)
			continue
		}

		r, ok := m.evaluate(e)
		if !ok {
			continue
		}

		if r.Band == BandClaimable {
			m.index.Remove(prev.EntryID)
			m.enqueue(r)
			continue
		}
		m.index.Update(r)
	}
}

// enqueue 非阻塞入队，队列满了丢任务记日志 (下轮扫描会重捡)
func (m *Monitor) enqueue(r EntryRisk) {
	task := ClaimTask{
		EntryID:   r.EntryID,
		DebtID:    r.DebtID,
		Margin:    r.Margin,
		CreatedAt: time.Now(),
	}

	select {
	case m.queue <- task:
		log.Printf("[Monitor] claim queued: entry=%d debt=%s margin=%d", r.EntryID, r.DebtID, r.Margin)
	default:
		log.Printf("[Monitor] WARNING: claim queue full, task dropped: entry=%d", r.EntryID)
	}
}

// =============================================================================
// Worker Pool
// =============================================================================

func (m *Monitor) startWorkers() {
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go func(workerID int) {
			defer m.wg.Done()
			for task := range m.queue {
				m.handleTask(workerID, task)
			}
		}(i)
	}
	log.Printf("[Monitor] %d claim workers started", m.cfg.Workers)
}

// handleTask 执行一个清算任务
func (m *Monitor) handleTask(workerID int, task ClaimTask) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !m.guard.Allow(ctx, task.DebtID) {
		return
	}

	rate := m.rates.RateFor(task.DebtID)
	claimed, err := m.claimer.Claim(m.cfg.Caller, task.DebtID, rate)
	if err != nil {
		log.Printf("[Worker-%d] claim failed: debt=%s err=%v", workerID, task.DebtID, err)
		return
	}
	if claimed {
		log.Printf("[Worker-%d] claim executed: entry=%d debt=%s", workerID, task.EntryID, task.DebtID)
	}
}

// =============================================================================
// 监控接口
// =============================================================================

// Stats 运行统计
type Stats struct {
	WatchEntries  int
	DangerEntries int
	QueuedTasks   int
}

// GetStats 获取运行统计
func (m *Monitor) GetStats() Stats {
	return Stats{
		WatchEntries:  len(m.index.GetByBand(BandWatch)),
		DangerEntries: len(m.index.GetByBand(BandDanger)),
		QueuedTasks:   len(m.queue),
	}
}
