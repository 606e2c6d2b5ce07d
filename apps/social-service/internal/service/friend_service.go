package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gamepal-social/apps/social-service/internal/model"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/logger"
	"gamepal-social/pkg/snowflake"
	"gamepal-social/pkg/telemetry"
)

// ============ 好友申请状态机 ============

// SendFriendRequest 发送好友申请
// 双方之间任一方向已有待处理申请时返回 ErrDuplicateRequest
func (s *Service) SendFriendRequest(ctx context.Context, senderID, receiverID int64, message string) (*model.FriendRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.SendFriendRequest")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("friend.sender_id", senderID),
		attribute.Int64("friend.receiver_id", receiverID),
	)

	ctx = tracecontext.WithUserID(ctx, senderID)

	if senderID == receiverID {
		span.SetStatus(codes.Error, "self request")
		return nil, fmt.Errorf("%w: 不能向自己发送好友申请", model.ErrInvalidState)
	}

	isFriend, err := s.dao.IsFriend(ctx, senderID, receiverID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check friendship")
		return nil, fmt.Errorf("检查好友关系失败: %v", err)
	}
	if isFriend {
		span.SetStatus(codes.Error, "already friends")
		return nil, fmt.Errorf("%w: 已经是好友关系", model.ErrInvalidState)
	}

	req := &model.FriendRequest{
		ID:         snowflake.GenerateID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Status:     model.FriendRequestStatusPending,
	}

	// 成对唯一性检查在DAO事务内完成
	if err := s.dao.CreateFriendRequest(ctx, req); err != nil {
		if errors.Is(err, model.ErrDuplicateRequest) {
			span.SetStatus(codes.Error, "duplicate request")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create friend request")
		return nil, fmt.Errorf("创建好友申请失败: %v", err)
	}

	s.logger.Info(ctx, "Friend request sent",
		logger.F("requestID", req.ID),
		logger.F("senderID", senderID),
		logger.F("receiverID", receiverID))

	s.publishEvent(ctx, model.TopicFriendEvents, model.EventFriendRequestSent, senderID, req)

	span.SetStatus(codes.Ok, "friend request sent")
	return req, nil
}

// AcceptFriendRequest 接受好友申请
// 单事务内建立双向好友关系并删除申请行。申请已被处理返回
// ErrRequestNotFound，属正常竞态，调用方按已解决处理
func (s *Service) AcceptFriendRequest(ctx context.Context, requestID, userID int64) (*model.FriendRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.AcceptFriendRequest")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("friend.request_id", requestID),
		attribute.Int64("friend.user_id", userID),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	req, err := s.dao.AcceptFriendRequestTx(ctx, requestID, userID)
	if err != nil {
		if errors.Is(err, model.ErrRequestNotFound) || errors.Is(err, model.ErrForbidden) {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to accept friend request")
		return nil, fmt.Errorf("接受好友申请失败: %v", err)
	}

	s.logger.Info(ctx, "Friend request accepted",
		logger.F("requestID", requestID),
		logger.F("senderID", req.SenderID),
		logger.F("receiverID", req.ReceiverID))

	s.publishEvent(ctx, model.TopicFriendEvents, model.EventFriendRequestAccepted, userID, req)

	span.SetStatus(codes.Ok, "friend request accepted")
	return req, nil
}

// DeclineFriendRequest 拒绝好友申请，申请行直接删除
func (s *Service) DeclineFriendRequest(ctx context.Context, requestID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.DeclineFriendRequest")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("friend.request_id", requestID),
		attribute.Int64("friend.user_id", userID),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	req, err := s.dao.GetFriendRequest(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load friend request")
		return fmt.Errorf("查询好友申请失败: %v", err)
	}
	if req == nil {
		span.SetStatus(codes.Error, "request not found")
		return model.ErrRequestNotFound
	}
	if req.ReceiverID != userID {
		span.SetStatus(codes.Error, "not the receiver")
		return model.ErrForbidden
	}

	if err := s.dao.DeleteFriendRequest(ctx, requestID); err != nil {
		if errors.Is(err, model.ErrRequestNotFound) {
			span.SetStatus(codes.Error, "request already resolved")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete friend request")
		return fmt.Errorf("删除好友申请失败: %v", err)
	}

	s.logger.Info(ctx, "Friend request declined",
		logger.F("requestID", requestID),
		logger.F("userID", userID))

	s.publishEvent(ctx, model.TopicFriendEvents, model.EventFriendRequestDeclined, userID, req)

	span.SetStatus(codes.Ok, "friend request declined")
	return nil
}

// CancelFriendRequest 撤回好友申请，仅发送方可操作
func (s *Service) CancelFriendRequest(ctx context.Context, requestID, userID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.service.CancelFriendRequest")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("friend.request_id", requestID),
		attribute.Int64("friend.user_id", userID),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	req, err := s.dao.GetFriendRequest(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load friend request")
		return fmt.Errorf("查询好友申请失败: %v", err)
	}
	if req == nil {
		span.SetStatus(codes.Error, "request not found")
		return model.ErrRequestNotFound
	}
	if req.SenderID != userID {
		span.SetStatus(codes.Error, "not the sender")
		return model.ErrForbidden
	}

	if err := s.dao.DeleteFriendRequest(ctx, requestID); err != nil {
		if errors.Is(err, model.ErrRequestNotFound) {
			span.SetStatus(codes.Error, "request already resolved")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete friend request")
		return fmt.Errorf("删除好友申请失败: %v", err)
	}

	s.logger.Info(ctx, "Friend request canceled",
		logger.F("requestID", requestID),
		logger.F("userID", userID))

	s.publishEvent(ctx, model.TopicFriendEvents, model.EventFriendRequestCanceled, userID, req)

	span.SetStatus(codes.Ok, "friend request canceled")
	return nil
}

// ListReceivedRequests 获取收到的待处理好友申请
func (s *Service) ListReceivedRequests(ctx context.Context, userID int64) ([]*model.FriendRequest, error) {
	ctx = tracecontext.WithUserID(ctx, userID)
	return s.dao.ListReceivedRequests(ctx, userID)
}

// ListSentRequests 获取发出的待处理好友申请
func (s *Service) ListSentRequests(ctx context.Context, userID int64) ([]*model.FriendRequest, error) {
	ctx = tracecontext.WithUserID(ctx, userID)
	return s.dao.ListSentRequests(ctx, userID)
}

// FindPendingRequest 查询双方之间任一方向的待处理申请，不存在返回 (nil, nil)
func (s *Service) FindPendingRequest(ctx context.Context, userA, userB int64) (*model.FriendRequest, error) {
	return s.dao.GetPendingRequestBetween(ctx, userA, userB)
}

// GetFriendList 获取好友列表
func (s *Service) GetFriendList(ctx context.Context, userID int64) ([]*model.Friend, error) {
	ctx = tracecontext.WithUserID(ctx, userID)
	return s.dao.ListFriends(ctx, userID)
}
