// 文件: pkg/collateral/mysql_repo.go
// 仓位快照 + 清算流水仓库 (GORM 实现)
//
// 内存竞技场是运行时权威，这里是写后 (write-behind) 的持久化副本:
// DBWriter 消费审计事件落库，事件 ID 唯一键保证重放幂等。

package collateral

import (
	"context"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// OpenMySQL 连接 MySQL
//
// DSN 形如 "user:pass@tcp(127.0.0.1:3306)/colend?charset=utf8mb4&parseTime=True&loc=Local"
func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// =============================================================================
// 表模型
// =============================================================================

// EntryRecord 仓位快照行
type EntryRecord struct {
	ID               int64     `gorm:"primaryKey"`
	DebtID           string    `gorm:"size:64;index"`
	Token            string    `gorm:"size:32"`
	Amount           int64     `gorm:"not null"`
	LiquidationRatio int64     `gorm:"not null"`
	BalanceRatio     int64     `gorm:"not null"`
	BurnFee          int64     `gorm:"not null"`
	RewardFee        int64     `gorm:"not null"`
	Owner            string    `gorm:"size:64;index"`
	Deleted          bool      `gorm:"not null;default:false"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (EntryRecord) TableName() string {
	return "collateral_entries"
}

// ClaimRecord 清算/还款流水行，一条事件一行
type ClaimRecord struct {
	EventID        int64     `gorm:"primaryKey;autoIncrement:false"`
	EntryID        int64     `gorm:"index"`
	DebtID         string    `gorm:"size:64;index"`
	Kind           string    `gorm:"size:32"` // cancel_debt / collateral_balance / pay_off_debt / convert_pay / take_fee
	RequiredTokens int64     `gorm:"not null;default:0"`
	PaidTokens     int64     `gorm:"not null;default:0"`
	FromAmount     int64     `gorm:"not null;default:0"`
	ToAmount       int64     `gorm:"not null;default:0"`
	Burned         int64     `gorm:"not null;default:0"`
	Rewarded       int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"index"`
}

// TableName 指定表名
func (ClaimRecord) TableName() string {
	return "collateral_claims"
}

// =============================================================================
// Repo
// =============================================================================

// Repo 仓位持久化仓库
type Repo struct {
	db *gorm.DB
}

// NewRepo 创建仓库
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// AutoMigrate 建表
func (r *Repo) AutoMigrate() error {
	return r.db.AutoMigrate(&EntryRecord{}, &ClaimRecord{})
}

// UpsertEntry 更新或插入仓位快照
func (r *Repo) UpsertEntry(ctx context.Context, rec *EntryRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount":     rec.Amount,
				"owner":      rec.Owner,
				"deleted":    rec.Deleted,
				"updated_at": time.Now(),
			}),
		}).
		Create(rec).Error
}

// UpdateAmount 只更新余额 (存量仓位的增减)
func (r *Repo) UpdateAmount(ctx context.Context, entryID, amount int64) error {
	return r.db.WithContext(ctx).
		Model(&EntryRecord{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"amount":     amount,
			"updated_at": time.Now(),
		}).Error
}

// MarkDeleted 标记仓位已删除 (赎回/紧急赎回)
func (r *Repo) MarkDeleted(ctx context.Context, entryID int64) error {
	return r.db.WithContext(ctx).
		Model(&EntryRecord{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"amount":     0,
			"deleted":    true,
			"updated_at": time.Now(),
		}).Error
}

// GetEntry 查询仓位快照
func (r *Repo) GetEntry(ctx context.Context, entryID int64) (*EntryRecord, error) {
	var rec EntryRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", entryID).
		First(&rec).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertClaim 插入清算流水 (INSERT IGNORE，事件重放幂等)
func (r *Repo) InsertClaim(ctx context.Context, rec *ClaimRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.Insert{Modifier: "IGNORE"}).
		Create(rec).Error
}

// ListClaims 按仓位查清算流水
func (r *Repo) ListClaims(ctx context.Context, entryID int64, limit int) ([]*ClaimRecord, error) {
	var recs []*ClaimRecord
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// ListClaimsByDebt 按债务查清算流水
func (r *Repo) ListClaimsByDebt(ctx context.Context, debtID string) ([]*ClaimRecord, error) {
	var recs []*ClaimRecord
	err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}
