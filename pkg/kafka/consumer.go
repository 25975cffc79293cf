// 文件: pkg/kafka/consumer.go
// 审计事件流 Kafka 消费者
//
// 落库器走这条链路消费审计主题。消费者组做分片，
// 处理失败不中断消费: 事件落库幂等，漏掉的下次重放补齐。

package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/IBM/sarama"
)

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string

	// OffsetInitial 无已提交 offset 时的起点: -1=newest -2=oldest
	OffsetInitial int64

	AutoCommit bool
}

// DefaultConsumerConfig 默认配置
func DefaultConsumerConfig(brokers []string, groupID string, topics []string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:       brokers,
		GroupID:       groupID,
		Topics:        topics,
		OffsetInitial: sarama.OffsetNewest,
		AutoCommit:    true,
	}
}

// MessageHandler 处理一条事件
type MessageHandler func(topic string, key, value []byte) error

// Consumer 消费者组成员
type Consumer struct {
	client  sarama.ConsumerGroup
	config  ConsumerConfig
	handler MessageHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer 创建消费者
func NewConsumer(cfg ConsumerConfig, handler MessageHandler) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	sc.Consumer.Offsets.Initial = cfg.OffsetInitial
	sc.Consumer.Offsets.AutoCommit.Enable = cfg.AutoCommit

	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		client:  client,
		config:  cfg,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start 加入消费者组开始消费
//
// Consume 在 rebalance 后返回，循环重入直到 Stop。
func (c *Consumer) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			session := &groupSession{handler: c.handler}
			if err := c.client.Consume(c.ctx, c.config.Topics, session); err != nil {
				log.Printf("[Kafka] consume error: %v", err)
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()
}

// Stop 退出消费者组
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// groupSession 实现 sarama.ConsumerGroupHandler
type groupSession struct {
	handler MessageHandler
}

func (s *groupSession) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (s *groupSession) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (s *groupSession) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := s.handler(msg.Topic, msg.Key, msg.Value); err != nil {
			log.Printf("[Kafka] handle error: topic=%s offset=%d err=%v", msg.Topic, msg.Offset, err)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
