// 文件: pkg/collateral/recorder.go
// 审计事件记录器
//
// 引擎只依赖 Recorder 接口。事件是可观测性数据:
// 状态变更已经提交，发布失败记日志但不回滚、不向调用方传播。
// 实现: 内存 (测试)、Kafka (生产)、NATS (本地开发)。

package collateral

import (
	"sync"

	"colend.com/pkg/kafka"
	"colend.com/pkg/nats"
)

// Recorder 审计事件出口
type Recorder interface {
	Record(msg kafka.Message) error
}

// =============================================================================
// MemoryRecorder - 内存记录器 (测试用)
// =============================================================================

// MemoryRecorder 把事件按顺序存在内存里
type MemoryRecorder struct {
	mu     sync.Mutex
	events []kafka.Message
}

// NewMemoryRecorder 创建内存记录器
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record 实现 Recorder
func (r *MemoryRecorder) Record(msg kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg)
	return nil
}

// Events 按记录顺序返回全部事件
func (r *MemoryRecorder) Events() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kafka.Message, len(r.events))
	copy(out, r.events)
	return out
}

// Reset 清空记录
func (r *MemoryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// =============================================================================
// KafkaRecorder - Kafka 发布 (生产环境)
// =============================================================================

// KafkaRecorder 通过通用 Kafka 生产者发布事件
type KafkaRecorder struct {
	producer *kafka.Producer
}

// NewKafkaRecorder 创建 Kafka 记录器
func NewKafkaRecorder(brokers []string) (*KafkaRecorder, error) {
	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(brokers))
	if err != nil {
		return nil, err
	}
	return &KafkaRecorder{producer: producer}, nil
}

// Record 实现 Recorder
func (r *KafkaRecorder) Record(msg kafka.Message) error {
	return r.producer.Send(msg)
}

// Stats 生产者统计
func (r *KafkaRecorder) Stats() kafka.ProducerStats {
	return r.producer.Stats()
}

// Close 关闭
func (r *KafkaRecorder) Close() error {
	return r.producer.Close()
}

// =============================================================================
// NatsRecorder - NATS 发布 (本地开发 / DBWriter 上游)
// =============================================================================

// NatsRecorder 把事件发到以 Topic 为 subject 的 NATS 主题
type NatsRecorder struct {
	publisher *nats.Publisher
}

// NewNatsRecorder 创建 NATS 记录器
func NewNatsRecorder(natsURL string) (*NatsRecorder, error) {
	publisher, err := nats.NewPublisher(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsRecorder{publisher: publisher}, nil
}

// Record 实现 Recorder
func (r *NatsRecorder) Record(msg kafka.Message) error {
	data, err := msg.Value()
	if err != nil {
		return err
	}
	return r.publisher.PublishRaw(msg.Topic(), data)
}

// Close 关闭
func (r *NatsRecorder) Close() error {
	r.publisher.Close()
	return nil
}
