// 文件: pkg/collateral/dbwriter.go
// 审计事件落库器
//
// 消费审计主题，把仓位快照和清算流水写进 MySQL。
// 引擎不直接写库: 事件总线解耦热路径和持久化，
// 事件 ID 唯一键让重复投递天然幂等。
// 生产走 Kafka 消费者组，本地开发走 NATS。

package collateral

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"colend.com/pkg/kafka"
	"colend.com/pkg/nats"
)

// eventEnvelope 各事件字段的并集，按 type 分发
type eventEnvelope struct {
	EventID            int64     `json:"event_id"`
	Type               string    `json:"type"`
	EntryID            int64     `json:"entry_id"`
	DebtID             string    `json:"debt_id"`
	Token              string    `json:"token"`
	Amount             int64     `json:"amount"`
	LiquidationRatio   int64     `json:"liquidation_ratio"`
	BalanceRatio       int64     `json:"balance_ratio"`
	BurnFee            int64     `json:"burn_fee"`
	RewardFee          int64     `json:"reward_fee"`
	Owner              string    `json:"owner"`
	ObligationInTokens int64     `json:"obligation_in_tokens"`
	RequiredTokens     int64     `json:"required_tokens"`
	PaidTokens         int64     `json:"paid_tokens"`
	FromAmount         int64     `json:"from_amount"`
	ToAmount           int64     `json:"to_amount"`
	Burned             int64     `json:"burned"`
	Rewarded           int64     `json:"rewarded"`
	CreatedAt          time.Time `json:"created_at"`
}

// DBWriter 审计事件 -> MySQL 落库器
type DBWriter struct {
	repo     *Repo
	sub      *nats.Subscriber
	consumer *kafka.Consumer
}

// NewDBWriter 创建 NATS 链路的落库器
func NewDBWriter(natsURL string, repo *Repo) (*DBWriter, error) {
	w := &DBWriter{repo: repo}

	sub, err := nats.NewSubscriber(natsURL, w.handle)
	if err != nil {
		return nil, err
	}
	w.sub = sub
	return w, nil
}

// NewDBWriterKafka 创建 Kafka 链路的落库器
//
// 消费者组分摊审计主题，多实例落同一个库也幂等。
func NewDBWriterKafka(brokers []string, groupID string, repo *Repo) (*DBWriter, error) {
	w := &DBWriter{repo: repo}

	cfg := kafka.DefaultConsumerConfig(brokers, groupID, []string{TopicEntryEvents, TopicClaimEvents})
	consumer, err := kafka.NewConsumer(cfg, func(topic string, key, value []byte) error {
		return w.handle(topic, value)
	})
	if err != nil {
		return nil, err
	}
	w.consumer = consumer
	return w, nil
}

// Start 开始消费审计主题
func (w *DBWriter) Start() error {
	if w.consumer != nil {
		w.consumer.Start()
		log.Printf("[DBWriter] consuming from kafka: %s, %s", TopicEntryEvents, TopicClaimEvents)
		return nil
	}

	if err := w.sub.Subscribe(TopicEntryEvents, TopicClaimEvents); err != nil {
		return fmt.Errorf("subscribe audit topics: %w", err)
	}
	log.Printf("[DBWriter] subscribed: %s, %s", TopicEntryEvents, TopicClaimEvents)
	return nil
}

// Stop 停止
func (w *DBWriter) Stop() error {
	if w.consumer != nil {
		return w.consumer.Stop()
	}
	return w.sub.Close()
}

// handle 消费一条审计事件
func (w *DBWriter) handle(subject string, data []byte) error {
	var ev eventEnvelope
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode audit event: %w", err)
	}

	ctx := context.Background()

	switch ev.Type {
	case EventCreated:
		return w.repo.UpsertEntry(ctx, &EntryRecord{
			ID:               ev.EntryID,
			DebtID:           ev.DebtID,
			Token:            ev.Token,
			Amount:           ev.Amount,
			LiquidationRatio: ev.LiquidationRatio,
			BalanceRatio:     ev.BalanceRatio,
			BurnFee:          ev.BurnFee,
			RewardFee:        ev.RewardFee,
			Owner:            ev.Owner,
		})

	case EventDeposited, EventWithdrawn:
		return w.repo.UpdateAmount(ctx, ev.EntryID, ev.Amount)

	case EventRedeemed, EventEmergencyRedeemed:
		return w.repo.MarkDeleted(ctx, ev.EntryID)

	case EventPayOffDebt, EventCancelDebt:
		if err := w.repo.UpdateAmount(ctx, ev.EntryID, ev.Amount); err != nil {
			return err
		}
		return w.repo.InsertClaim(ctx, &ClaimRecord{
			EventID:        ev.EventID,
			EntryID:        ev.EntryID,
			DebtID:         ev.DebtID,
			Kind:           ev.Type,
			RequiredTokens: ev.ObligationInTokens,
			PaidTokens:     ev.PaidTokens,
			CreatedAt:      ev.CreatedAt,
		})

	case EventCollateralBalance:
		if err := w.repo.UpdateAmount(ctx, ev.EntryID, ev.Amount); err != nil {
			return err
		}
		return w.repo.InsertClaim(ctx, &ClaimRecord{
			EventID:        ev.EventID,
			EntryID:        ev.EntryID,
			DebtID:         ev.DebtID,
			Kind:           ev.Type,
			RequiredTokens: ev.RequiredTokens,
			PaidTokens:     ev.PaidTokens,
			CreatedAt:      ev.CreatedAt,
		})

	case EventConvertPay:
		return w.repo.InsertClaim(ctx, &ClaimRecord{
			EventID:    ev.EventID,
			EntryID:    ev.EntryID,
			DebtID:     ev.DebtID,
			Kind:       ev.Type,
			FromAmount: ev.FromAmount,
			ToAmount:   ev.ToAmount,
			CreatedAt:  ev.CreatedAt,
		})

	case EventTakeFee:
		return w.repo.InsertClaim(ctx, &ClaimRecord{
			EventID:   ev.EventID,
			EntryID:   ev.EntryID,
			DebtID:    ev.DebtID,
			Kind:      ev.Type,
			Burned:    ev.Burned,
			Rewarded:  ev.Rewarded,
			CreatedAt: ev.CreatedAt,
		})

	default:
		log.Printf("[DBWriter] unknown event type: subject=%s type=%s", subject, ev.Type)
		return nil
	}
}
