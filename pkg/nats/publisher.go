// 文件: pkg/nats/publisher.go
// NATS 审计事件发布
//
// 本地开发和单机部署用 NATS 代替 Kafka 跑同一套审计链路:
// subject 即主题名，消息体保持一致。

package nats

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

var ErrEmptySubject = errors.New("nats: empty subject")

// Publisher NATS 发布者
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher 连接 NATS 并创建发布者
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("colend-audit-pub"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// Publish 序列化为 JSON 后发布
func (p *Publisher) Publish(subject string, data any) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	return p.PublishRaw(subject, bytes)
}

// PublishRaw 发布已序列化的消息体
//
// 事件的 Topic 即 subject，空 subject 说明上游事件构造有误，
// 宁可报错也不能丢进默认主题。
func (p *Publisher) PublishRaw(subject string, data []byte) error {
	if subject == "" {
		return ErrEmptySubject
	}
	return p.conn.Publish(subject, data)
}

// Close 关闭连接
func (p *Publisher) Close() {
	p.conn.Close()
}
