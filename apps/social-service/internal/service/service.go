package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"gamepal-social/apps/social-service/internal/dao"
	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/kafka"
	"gamepal-social/pkg/logger"
)

// Service 社交服务：好友申请、游戏邀请、在线状态与用户目录
type Service struct {
	dao            dao.SocialDAO
	presenceDAO    dao.PresenceDAO
	sessionDAO     dao.SessionDAO
	directoryDAO   dao.DirectoryDAO
	sessionFactory SessionFactory
	kafka          *kafka.Producer
	logger         logger.Logger
	hub            *subscriptionHub

	graceDelay time.Duration
	retention  time.Duration
}

// NewService 创建社交服务实例
func NewService(
	socialDAO dao.SocialDAO,
	presenceDAO dao.PresenceDAO,
	sessionDAO dao.SessionDAO,
	directoryDAO dao.DirectoryDAO,
	sessionFactory SessionFactory,
	kafkaProducer *kafka.Producer,
	log logger.Logger,
) *Service {
	return &Service{
		dao:            socialDAO,
		presenceDAO:    presenceDAO,
		sessionDAO:     sessionDAO,
		directoryDAO:   directoryDAO,
		sessionFactory: sessionFactory,
		kafka:          kafkaProducer,
		logger:         log,
		hub:            newSubscriptionHub(),
		graceDelay:     model.InviteAcceptedGrace,
		retention:      model.InviteRetention,
	}
}

// SetInviteTuning 覆盖邀请的宽限期与保留窗口（配置与测试用）
func (s *Service) SetInviteTuning(graceDelay, retention time.Duration) {
	if graceDelay > 0 {
		s.graceDelay = graceDelay
	}
	if retention > 0 {
		s.retention = retention
	}
}

// socialEvent 发往Kafka的生命周期事件
type socialEvent struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// publishEvent 发布生命周期事件，失败只记录日志不影响主流程
func (s *Service) publishEvent(ctx context.Context, topic, eventType string, key int64, payload interface{}) {
	if s.kafka == nil {
		return
	}

	event := socialEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(ctx, "Failed to marshal event",
			logger.F("type", eventType),
			logger.F("error", err.Error()))
		return
	}

	if err := s.kafka.SendMessage(topic, []byte(strconv.FormatInt(key, 10)), data); err != nil {
		s.logger.Error(ctx, "Failed to publish event",
			logger.F("topic", topic),
			logger.F("type", eventType),
			logger.F("error", err.Error()))
	}
}
