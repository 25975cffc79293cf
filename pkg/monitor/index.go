// 文件: pkg/monitor/index.go
// 风险档位索引 - Copy-on-Write Map
//
// 检查器每秒读很多次，全量扫描每几秒才写一次，典型的读多写少。
// 写路径复制整张表后原子替换指针，读路径完全无锁。
// 高风险仓位通常只有几百个，复制开销可以忽略。

package monitor

import (
	"sync"
	"sync/atomic"
)

// =============================================================================
// cowMap
// =============================================================================

type cowMap struct {
	// entryID -> EntryRisk
	data atomic.Pointer[map[int64]EntryRisk]

	// 写操作之间互斥，不影响读
	writeMu sync.Mutex
}

func newCowMap() *cowMap {
	m := &cowMap{}
	empty := make(map[int64]EntryRisk)
	m.data.Store(&empty)
	return m
}

// Get 无锁读取
func (m *cowMap) Get(entryID int64) (EntryRisk, bool) {
	current := m.data.Load()
	r, ok := (*current)[entryID]
	return r, ok
}

// GetAll 无锁快照
func (m *cowMap) GetAll() []EntryRisk {
	current := m.data.Load()
	out := make([]EntryRisk, 0, len(*current))
	for _, v := range *current {
		out = append(out, v)
	}
	return out
}

func (m *cowMap) Len() int {
	return len(*m.data.Load())
}

func (m *cowMap) Contains(entryID int64) bool {
	_, ok := (*m.data.Load())[entryID]
	return ok
}

// BatchUpdate 复制-修改-原子替换
func (m *cowMap) BatchUpdate(updates []EntryRisk, removes []int64) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	oldMap := m.data.Load()
	newMap := make(map[int64]EntryRisk, len(*oldMap)+len(updates))
	for k, v := range *oldMap {
		newMap[k] = v
	}
	for _, id := range removes {
		delete(newMap, id)
	}
	for _, r := range updates {
		newMap[r.EntryID] = r
	}

	m.data.Store(&newMap)
}

func (m *cowMap) Set(r EntryRisk) {
	m.BatchUpdate([]EntryRisk{r}, nil)
}

func (m *cowMap) Remove(entryID int64) {
	m.BatchUpdate(nil, []int64{entryID})
}

// =============================================================================
// BandIndex
// =============================================================================

// BandIndex 档位索引
//
// 只存 Watch 和 Danger:
// Safe 不需要盯，Claimable 直接进队列不落索引。
type BandIndex struct {
	bands [2]*cowMap
}

// NewBandIndex 创建档位索引
func NewBandIndex() *BandIndex {
	return &BandIndex{
		bands: [2]*cowMap{
			newCowMap(), // Watch
			newCowMap(), // Danger
		},
	}
}

func bandToIndex(b RiskBand) int {
	switch b {
	case BandWatch:
		return 0
	case BandDanger:
		return 1
	default:
		return -1
	}
}

// GetByBand 某档位的全部仓位
func (idx *BandIndex) GetByBand(b RiskBand) []EntryRisk {
	i := bandToIndex(b)
	if i < 0 {
		return nil
	}
	return idx.bands[i].GetAll()
}

// Update 更新单个仓位，档位变化自动迁移
func (idx *BandIndex) Update(r EntryRisk) {
	newIdx := bandToIndex(r.Band)

	for i, band := range idx.bands {
		if i != newIdx && band.Contains(r.EntryID) {
			band.Remove(r.EntryID)
		}
	}

	if newIdx >= 0 {
		idx.bands[newIdx].Set(r)
	}
}

// Remove 从所有档位移除
func (idx *BandIndex) Remove(entryID int64) {
	for _, band := range idx.bands {
		if band.Contains(entryID) {
			band.Remove(entryID)
		}
	}
}

// ReplaceBand 全量扫描后整档替换
func (idx *BandIndex) ReplaceBand(b RiskBand, entries []EntryRisk) {
	i := bandToIndex(b)
	if i < 0 {
		return
	}

	current := idx.bands[i].GetAll()
	keep := make(map[int64]struct{}, len(entries))
	for _, r := range entries {
		keep[r.EntryID] = struct{}{}
	}

	var removes []int64
	for _, r := range current {
		if _, ok := keep[r.EntryID]; !ok {
			removes = append(removes, r.EntryID)
		}
	}

	idx.bands[i].BatchUpdate(entries, removes)
}

// TotalCount 索引里的仓位总数
func (idx *BandIndex) TotalCount() int {
	total := 0
	for _, band := range idx.bands {
		total += band.Len()
	}
	return total
}
