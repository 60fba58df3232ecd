package service

import (
	"context"

	"staff-roster/internal/dto"
	"staff-roster/pkg/redis"
)

// PublishNotifier 发布事件投递接口
//
// 发布事务提交后调用；投递失败只记日志，不回滚已发布状态。
type PublishNotifier interface {
	NotifyPublished(ctx context.Context, event *dto.PublishedEvent) error
}

type redisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier 创建基于 Redis 发布订阅的通知器
func NewRedisNotifier(client *redis.Client, channel string) PublishNotifier {
	return &redisNotifier{client: client, channel: channel}
}

func (n *redisNotifier) NotifyPublished(ctx context.Context, event *dto.PublishedEvent) error {
	return n.client.PublishEvent(ctx, n.channel, event)
}

// NopNotifier 空实现，单元测试与通知服务未接入的部署环境使用
type NopNotifier struct{}

func (NopNotifier) NotifyPublished(context.Context, *dto.PublishedEvent) error { return nil }
