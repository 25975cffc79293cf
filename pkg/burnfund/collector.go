// 文件: pkg/burnfund/collector.go
// 手续费事件采集器
//
// 订阅清算资金流主题，只消费 take_fee 事件，把 burned 份额记进销毁池。

package burnfund

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"colend.com/pkg/collateral"
	"colend.com/pkg/nats"
)

// takeFeeEvent 只解码需要的字段
type takeFeeEvent struct {
	EventID   int64     `json:"event_id"`
	Type      string    `json:"type"`
	EntryID   int64     `json:"entry_id"`
	DebtID    string    `json:"debt_id"`
	Burned    int64     `json:"burned"`
	CreatedAt time.Time `json:"created_at"`
}

// Collector take_fee 事件 -> 销毁池落账
type Collector struct {
	fund *Fund
	sub  *nats.Subscriber

	// debtToken 手续费统一以债务币结算
	debtToken string
}

// NewCollector 创建采集器
func NewCollector(natsURL, debtToken string, fund *Fund) (*Collector, error) {
	c := &Collector{fund: fund, debtToken: debtToken}

	sub, err := nats.NewSubscriber(natsURL, c.handle)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

// Start 订阅清算资金流主题
func (c *Collector) Start() error {
	return c.sub.Subscribe(collateral.TopicClaimEvents)
}

// Stop 停止
func (c *Collector) Stop() error {
	return c.sub.Close()
}

func (c *Collector) handle(subject string, data []byte) error {
	var ev takeFeeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode claim event: %w", err)
	}

	if ev.Type != collateral.EventTakeFee || ev.Burned <= 0 {
		return nil
	}

	return c.fund.Record(context.Background(), ev.EventID, c.debtToken, ev.Burned, ev.EntryID, ev.DebtID)
}
