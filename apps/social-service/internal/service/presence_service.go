package service

import (
	"context"
	"fmt"
	"time"

	"gamepal-social/apps/social-service/internal/model"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/logger"
)

// ============ 在线状态 ============

// SetActivity 上报用户活跃状态，时间戳取当前时刻
func (s *Service) SetActivity(ctx context.Context, userID int64, isActive bool) error {
	return s.SetActivityAt(ctx, userID, isActive, time.Now().UnixMilli())
}

// SetActivityAt 按指定时间戳上报活跃状态
// last-writer-wins：时间戳不高于已存状态的上报被丢弃
func (s *Service) SetActivityAt(ctx context.Context, userID int64, isActive bool, timestampMs int64) error {
	ctx = tracecontext.WithUserID(ctx, userID)

	status := &model.PresenceStatus{
		UserID:      userID,
		IsActive:    isActive,
		LastChanged: timestampMs,
	}

	applied, err := s.presenceDAO.SetPresence(ctx, status)
	if err != nil {
		return fmt.Errorf("更新在线状态失败: %v", err)
	}
	if !applied {
		s.logger.Debug(ctx, "Stale presence update dropped",
			logger.F("userID", userID),
			logger.F("timestamp", timestampMs))
		return nil
	}

	s.logger.Info(ctx, "Presence updated",
		logger.F("userID", userID),
		logger.F("isActive", isActive))
	return nil
}

// GetPresence 读取用户在线状态，从未上报过的用户视为不活跃
func (s *Service) GetPresence(ctx context.Context, userID int64) (*model.PresenceStatus, error) {
	status, err := s.presenceDAO.GetPresence(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("读取在线状态失败: %v", err)
	}
	if status == nil {
		return &model.PresenceStatus{UserID: userID}, nil
	}
	return status, nil
}

// IsQualified 判断用户是否满足邀请条件，每次实时读取不走缓存
func (s *Service) IsQualified(ctx context.Context, userID int64) (bool, error) {
	status, err := s.presenceDAO.GetPresence(ctx, userID)
	if err != nil {
		return false, err
	}
	return status != nil && status.IsActive, nil
}

// ListActiveUsers 获取当前活跃用户ID列表
func (s *Service) ListActiveUsers(ctx context.Context) ([]int64, error) {
	return s.presenceDAO.ListActiveUsers(ctx)
}
