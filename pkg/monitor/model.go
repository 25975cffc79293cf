// 文件: pkg/monitor/model.go
// 风险档位定义
//
// claim 是无许可的，但总得有人盯着盘口按下去。
// 监控进程把仓位按"抵押率距离自己清算线的余量"分档，
// 档位越低检查越频繁，击穿清算线或贷款过期就进清算队列。

package monitor

import "time"

// RiskBand 风险档位
type RiskBand int

const (
	// BandSafe 余量充足，不进任何索引
	BandSafe RiskBand = iota

	// BandWatch 余量收窄，低频复查
	BandWatch

	// BandDanger 贴着清算线，高频复查
	BandDanger

	// BandClaimable 已可清算: 比率击穿或贷款过期，进执行队列
	BandClaimable
)

// String 档位的日志表示
func (b RiskBand) String() string {
	switch b {
	case BandSafe:
		return "SAFE"
	case BandWatch:
		return "WATCH"
	case BandDanger:
		return "DANGER"
	case BandClaimable:
		return "CLAIMABLE"
	default:
		return "UNKNOWN"
	}
}

// 档位余量阈值 (基点，相对仓位自己的清算线)
const (
	// MarginWatch 余量低于 30% 进预警档
	MarginWatch = 3000

	// MarginDanger 余量低于 10% 进危险档
	MarginDanger = 1000
)

// CalculateBand 按余量和过期标志分档
func CalculateBand(margin int64, due bool) RiskBand {
	switch {
	case due || margin < 0:
		return BandClaimable
	case margin < MarginDanger:
		return BandDanger
	case margin < MarginWatch:
		return BandWatch
	default:
		return BandSafe
	}
}

// EntryRisk 索引里的仓位风险数据
type EntryRisk struct {
	EntryID int64
	DebtID  string

	// Ratio 最近一次计算的抵押率 (基点)
	Ratio int64

	// Margin 距离清算线的余量 (基点，可为负)
	Margin int64

	Band RiskBand

	// UpdatedAt unix 纳秒
	UpdatedAt int64
}

// ClaimTask 清算任务
type ClaimTask struct {
	EntryID   int64
	DebtID    string
	Margin    int64
	CreatedAt time.Time
}
