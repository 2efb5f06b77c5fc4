package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"career-engine-go/internal/config"
	"career-engine-go/internal/constants"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RabbitMQ 反馈事件的消息队列封装
// 提交侧把反馈发布到交换机即返回，消费侧由多个worker串行拉取处理，
// 削峰的同时保证学习引擎的写入不阻塞HTTP请求
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	logger  zerolog.Logger
}

// NewRabbitMQ 建立连接并声明反馈事件拓扑
func NewRabbitMQ(cfg *config.Config, logger zerolog.Logger) (*RabbitMQ, error) {
	mqCfg := &cfg.RabbitMQ
	applyTopologyDefaults(mqCfg)

	conn, err := amqp.Dial(mqCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建RabbitMQ通道失败: %w", err)
	}

	r := &RabbitMQ{conn: conn, channel: channel, config: mqCfg, logger: logger}
	if err := r.declareTopology(); err != nil {
		r.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", mqCfg.FeedbackExchange).
		Str("queue", mqCfg.FeedbackQueue).
		Msg("RabbitMQ初始化完成")
	return r, nil
}

// applyTopologyDefaults 拓扑命名缺省值
func applyTopologyDefaults(cfg *config.RabbitMQConfig) {
	if cfg.FeedbackExchange == "" {
		cfg.FeedbackExchange = constants.DefaultFeedbackExchange
	}
	if cfg.FeedbackRoutingKey == "" {
		cfg.FeedbackRoutingKey = constants.DefaultFeedbackRoutingKey
	}
	if cfg.FeedbackQueue == "" {
		cfg.FeedbackQueue = constants.DefaultFeedbackQueue
	}
}

// declareTopology 声明交换机、队列与绑定，全部持久化
func (r *RabbitMQ) declareTopology() error {
	if err := r.channel.ExchangeDeclare(
		r.config.FeedbackExchange, "direct",
		true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("声明交换机失败: %w", err)
	}
	if _, err := r.channel.QueueDeclare(
		r.config.FeedbackQueue,
		true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("声明队列失败: %w", err)
	}
	if err := r.channel.QueueBind(
		r.config.FeedbackQueue, r.config.FeedbackRoutingKey,
		r.config.FeedbackExchange, false, nil,
	); err != nil {
		return fmt.Errorf("绑定队列失败: %w", err)
	}
	return nil
}

// PublishFeedback 发布一条反馈事件消息（持久化投递）
func (r *RabbitMQ) PublishFeedback(ctx context.Context, msg FeedbackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化反馈消息失败: %w", err)
	}
	err = r.channel.PublishWithContext(ctx,
		r.config.FeedbackExchange, r.config.FeedbackRoutingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.FeedbackID,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("发布反馈消息失败: %w", err)
	}
	return nil
}

// FeedbackHandler 消费侧的消息处理函数
// 返回错误时消息按配置重投，处理成功才确认
type FeedbackHandler func(ctx context.Context, msg FeedbackMessage) error

// ConsumeFeedback 启动 workers 个消费协程，阻塞直到 ctx 取消
// 处理失败的消息重新入队一次，二次失败丢弃并记录，避免毒消息无限循环
func (r *RabbitMQ) ConsumeFeedback(ctx context.Context, workers int, handler FeedbackHandler) error {
	if workers <= 0 {
		workers = 1
	}
	prefetch := r.config.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := r.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("设置QoS失败: %w", err)
	}

	deliveries, err := r.channel.Consume(
		r.config.FeedbackQueue, "",
		false, false, false, false, nil,
	)
	if err != nil {
		return fmt.Errorf("注册消费者失败: %w", err)
	}

	for i := 0; i < workers; i++ {
		workerID := i
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case delivery, ok := <-deliveries:
					if !ok {
						r.logger.Warn().Int("worker", workerID).Msg("消费通道已关闭")
						return
					}
					r.handleDelivery(ctx, workerID, delivery, handler)
				}
			}
		}()
	}

	<-ctx.Done()
	return nil
}

// handleDelivery 处理单条投递并完成确认/重投
func (r *RabbitMQ) handleDelivery(ctx context.Context, workerID int, delivery amqp.Delivery, handler FeedbackHandler) {
	var msg FeedbackMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		r.logger.Error().Err(err).Int("worker", workerID).Msg("反馈消息反序列化失败，丢弃")
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !delivery.Redelivered
		r.logger.Error().Err(err).
			Int("worker", workerID).
			Str("feedback_id", msg.FeedbackID).
			Bool("requeue", requeue).
			Msg("反馈消息处理失败")
		_ = delivery.Nack(false, requeue)
		return
	}
	_ = delivery.Ack(false)
}

// Close 关闭通道与连接
func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
