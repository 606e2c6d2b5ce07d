package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gamepal-social/apps/social-service/internal/model"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/logger"
	"gamepal-social/pkg/snowflake"
	"gamepal-social/pkg/telemetry"
)

// ============ 游戏邀请状态机 ============

// retentionCutoff 保留窗口的起点，早于该时刻的待处理邀请视为过期
func (s *Service) retentionCutoff() time.Time {
	return time.Now().Add(-s.retention)
}

// SendInvite 发送游戏邀请
// 发送前重新读取双方在线状态，任一方不活跃返回 ErrPresenceNotQualified；
// 发送方已有待处理邀请返回 ErrTooManyInFlight
func (s *Service) SendInvite(ctx context.Context, senderID, receiverID int64, sessionType string) (*model.GameInvite, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.SendInvite")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("invite.sender_id", senderID),
		attribute.Int64("invite.receiver_id", receiverID),
		attribute.String("invite.session_type", sessionType),
	)

	ctx = tracecontext.WithUserID(ctx, senderID)

	if senderID == receiverID {
		span.SetStatus(codes.Error, "self invite")
		return nil, fmt.Errorf("%w: 不能邀请自己", model.ErrInvalidState)
	}

	// 在线状态逐一重新读取，不使用缓存
	for _, userID := range []int64{senderID, receiverID} {
		qualified, err := s.IsQualified(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to check presence")
			return nil, fmt.Errorf("%w: 读取在线状态失败: %v", model.ErrDependencyFailure, err)
		}
		if !qualified {
			span.SetStatus(codes.Error, "presence not qualified")
			return nil, fmt.Errorf("%w: 用户 %d 当前不活跃", model.ErrPresenceNotQualified, userID)
		}
	}

	invite := &model.GameInvite{
		ID:          snowflake.GenerateID(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		SessionType: sessionType,
		Status:      model.GameInviteStatusPending,
	}

	// 单槽规则在DAO事务内检查
	if err := s.dao.CreateInvite(ctx, invite); err != nil {
		if errors.Is(err, model.ErrTooManyInFlight) {
			span.SetStatus(codes.Error, "too many in flight")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create invite")
		return nil, fmt.Errorf("创建游戏邀请失败: %v", err)
	}

	s.logger.Info(ctx, "Game invite sent",
		logger.F("inviteID", invite.ID),
		logger.F("senderID", senderID),
		logger.F("receiverID", receiverID),
		logger.F("sessionType", sessionType))

	s.publishEvent(ctx, model.TopicInviteEvents, model.EventInviteSent, senderID, invite)
	s.hub.notifyUsers(senderID, receiverID)

	span.SetStatus(codes.Ok, "game invite sent")
	return invite, nil
}

// AcceptInvite 接受游戏邀请
// 会话工厂在任何事务之外调用，失败时邀请保持pending并返回可重试的
// ErrDependencyFailure。成功后邀请更新为accepted并记录会话ID，宽限期
// 结束由定时器删除，发送方在此窗口内能观察到会话ID
func (s *Service) AcceptInvite(ctx context.Context, inviteID, userID int64) (*model.GameInvite, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.AcceptInvite")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("invite.id", inviteID),
		attribute.Int64("invite.user_id", userID),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	invite, err := s.dao.GetInvite(ctx, inviteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load invite")
		return nil, fmt.Errorf("查询游戏邀请失败: %v", err)
	}
	if invite == nil {
		span.SetStatus(codes.Error, "invite not found")
		return nil, model.ErrInviteNotFound
	}
	if invite.ReceiverID != userID {
		span.SetStatus(codes.Error, "not the receiver")
		return nil, model.ErrForbidden
	}
	if invite.Status != model.GameInviteStatusPending {
		span.SetStatus(codes.Error, "invite not pending")
		return nil, fmt.Errorf("%w: 邀请状态为 %s", model.ErrInvalidState, invite.Status)
	}

	// 会话创建失败时邀请保持pending，调用方可重试
	sessionID, err := s.sessionFactory.CreateSession(ctx, invite)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session factory failed")
		s.logger.Error(ctx, "Session factory failed, invite stays pending",
			logger.F("inviteID", inviteID),
			logger.F("error", err.Error()))
		return nil, fmt.Errorf("%w: 创建游戏会话失败: %v", model.ErrDependencyFailure, err)
	}

	if err := s.dao.MarkInviteAccepted(ctx, inviteID, sessionID); err != nil {
		if errors.Is(err, model.ErrInviteNotFound) {
			// 接受与撤回竞态，会话记录成为孤儿，只记录日志
			s.logger.Warn(ctx, "Invite resolved concurrently, session orphaned",
				logger.F("inviteID", inviteID),
				logger.F("sessionID", sessionID))
			span.SetStatus(codes.Error, "invite resolved concurrently")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark invite accepted")
		return nil, fmt.Errorf("更新邀请状态失败: %v", err)
	}

	invite.Status = model.GameInviteStatusAccepted
	invite.SessionID = sessionID

	s.scheduleInviteRemoval(invite.ID, invite.SenderID, invite.ReceiverID)

	s.logger.Info(ctx, "Game invite accepted",
		logger.F("inviteID", inviteID),
		logger.F("sessionID", sessionID))

	s.publishEvent(ctx, model.TopicInviteEvents, model.EventInviteAccepted, userID, invite)
	s.hub.notifyUsers(invite.SenderID, invite.ReceiverID)

	span.SetStatus(codes.Ok, "game invite accepted")
	return invite, nil
}

// scheduleInviteRemoval 宽限期结束后删除已接受的邀请行
func (s *Service) scheduleInviteRemoval(inviteID, senderID, receiverID int64) {
	time.AfterFunc(s.graceDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.dao.DeleteAcceptedInvite(ctx, inviteID); err != nil {
			s.logger.Error(ctx, "Failed to remove accepted invite",
				logger.F("inviteID", inviteID),
				logger.F("error", err.Error()))
			return
		}
		s.hub.notifyUsers(senderID, receiverID)
	})
}

// DeclineInvite 拒绝游戏邀请，邀请行直接删除
// 重复拒绝返回 ErrInviteNotFound，调用方按已解决处理
func (s *Service) DeclineInvite(ctx context.Context, inviteID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.DeclineInvite")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("invite.id", inviteID),
		attribute.Int64("invite.user_id", userID),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	invite, err := s.dao.GetInvite(ctx, inviteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load invite")
		return fmt.Errorf("查询游戏邀请失败: %v", err)
	}
	if invite == nil {
		span.SetStatus(codes.Error, "invite not found")
		return model.ErrInviteNotFound
	}
	if invite.ReceiverID != userID {
		span.SetStatus(codes.Error, "not the receiver")
		return model.ErrForbidden
	}

	if err := s.dao.DeleteInvite(ctx, inviteID); err != nil {
		if errors.Is(err, model.ErrInviteNotFound) {
			span.SetStatus(codes.Error, "invite already resolved")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete invite")
		return fmt.Errorf("删除游戏邀请失败: %v", err)
	}

	s.logger.Info(ctx, "Game invite declined",
		logger.F("inviteID", inviteID),
		logger.F("userID", userID))

	s.publishEvent(ctx, model.TopicInviteEvents, model.EventInviteDeclined, userID, invite)
	s.hub.notifyUsers(invite.SenderID, invite.ReceiverID)

	span.SetStatus(codes.Ok, "game invite declined")
	return nil
}

// CancelInvite 撤回游戏邀请，仅发送方可操作
// 删除后顺带清理双方参与的过期待处理邀请，清理失败只记录日志
func (s *Service) CancelInvite(ctx context.Context, inviteID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.CancelInvite")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("invite.id", inviteID),
		attribute.Int64("invite.user_id", userID),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	invite, err := s.dao.GetInvite(ctx, inviteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load invite")
		return fmt.Errorf("查询游戏邀请失败: %v", err)
	}
	if invite == nil {
		span.SetStatus(codes.Error, "invite not found")
		return model.ErrInviteNotFound
	}
	if invite.SenderID != userID {
		span.SetStatus(codes.Error, "not the sender")
		return model.ErrForbidden
	}
	if invite.Status != model.GameInviteStatusPending {
		span.SetStatus(codes.Error, "invite not pending")
		return fmt.Errorf("%w: 邀请状态为 %s", model.ErrInvalidState, invite.Status)
	}

	if err := s.dao.DeleteInvite(ctx, inviteID); err != nil {
		if errors.Is(err, model.ErrInviteNotFound) {
			span.SetStatus(codes.Error, "invite already resolved")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete invite")
		return fmt.Errorf("删除游戏邀请失败: %v", err)
	}

	// 顺带清理，不影响撤回结果
	purged, err := s.dao.PurgeStaleInvites(ctx,
		[]int64{invite.SenderID, invite.ReceiverID}, s.retentionCutoff())
	if err != nil {
		s.logger.Warn(ctx, "Stale invite purge failed",
			logger.F("inviteID", inviteID),
			logger.F("error", err.Error()))
	} else if purged > 0 {
		s.logger.Info(ctx, "Stale invites purged",
			logger.F("count", purged))
	}

	s.logger.Info(ctx, "Game invite canceled",
		logger.F("inviteID", inviteID),
		logger.F("userID", userID))

	s.publishEvent(ctx, model.TopicInviteEvents, model.EventInviteCanceled, userID, invite)
	s.hub.notifyUsers(invite.SenderID, invite.ReceiverID)

	span.SetStatus(codes.Ok, "game invite canceled")
	return nil
}

// ListReceivedInvites 获取保留窗口内收到的待处理邀请
func (s *Service) ListReceivedInvites(ctx context.Context, userID int64) ([]*model.GameInvite, error) {
	ctx = tracecontext.WithUserID(ctx, userID)
	return s.dao.ListReceivedInvites(ctx, userID, s.retentionCutoff())
}

// ListSentInvites 获取发出的邀请（pending与accepted）
func (s *Service) ListSentInvites(ctx context.Context, userID int64) ([]*model.GameInvite, error) {
	ctx = tracecontext.WithUserID(ctx, userID)
	return s.dao.ListSentInvites(ctx, userID)
}

// SweepExpiredInvites 清理全表过期的待处理邀请
func (s *Service) SweepExpiredInvites(ctx context.Context) (int64, error) {
	purged, err := s.dao.PurgeExpiredInvites(ctx, s.retentionCutoff())
	if err != nil {
		return 0, fmt.Errorf("清理过期邀请失败: %v", err)
	}
	if purged > 0 {
		s.logger.Info(ctx, "Expired invites swept",
			logger.F("count", purged))
	}
	return purged, nil
}

// RunInviteSweeper 周期清理过期邀请，ctx取消即退出
func (s *Service) RunInviteSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = model.InviteSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpiredInvites(ctx); err != nil {
				s.logger.Error(ctx, "Invite sweep failed",
					logger.F("error", err.Error()))
			}
		}
	}
}
