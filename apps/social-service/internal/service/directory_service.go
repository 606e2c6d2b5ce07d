package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gamepal-social/apps/social-service/internal/model"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/logger"
	"gamepal-social/pkg/telemetry"
)

// ============ 用户目录 ============

// UserSearchResult 带关系标注的目录搜索结果
type UserSearchResult struct {
	User     *model.UserDoc `json:"user"`
	Relation string         `json:"relation"`
}

// IndexUser 写入或更新用户目录文档
func (s *Service) IndexUser(ctx context.Context, doc *model.UserDoc) error {
	if doc.UserID <= 0 {
		return fmt.Errorf("%w: 无效的用户ID", model.ErrInvalidState)
	}
	if err := s.directoryDAO.IndexUser(ctx, doc); err != nil {
		return fmt.Errorf("更新用户目录失败: %v", err)
	}

	s.logger.Info(ctx, "User doc indexed",
		logger.F("userID", doc.UserID))
	return nil
}

// SearchUsers 搜索用户目录并标注与搜索者的关系
// 标注只做一次批量查询：先取好友集合，再批量查双方间的待处理申请
func (s *Service) SearchUsers(ctx context.Context, userID int64, keyword string, limit int) ([]*UserSearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.service.SearchUsers")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("directory.user_id", userID),
		attribute.String("directory.keyword", keyword),
	)

	ctx = tracecontext.WithUserID(ctx, userID)

	docs, err := s.directoryDAO.SearchUsers(ctx, keyword, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory search failed")
		return nil, fmt.Errorf("%w: 搜索用户目录失败: %v", model.ErrDependencyFailure, err)
	}
	if len(docs) == 0 {
		span.SetStatus(codes.Ok, "no results")
		return nil, nil
	}

	friends, err := s.dao.ListFriends(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load friends")
		return nil, fmt.Errorf("查询好友列表失败: %v", err)
	}
	friendSet := make(map[int64]struct{}, len(friends))
	for _, f := range friends {
		friendSet[f.FriendID] = struct{}{}
	}

	candidateIDs := make([]int64, 0, len(docs))
	for _, doc := range docs {
		if doc.UserID != userID {
			candidateIDs = append(candidateIDs, doc.UserID)
		}
	}

	pending, err := s.dao.ListPendingRequestsWithUsers(ctx, userID, candidateIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load pending requests")
		return nil, fmt.Errorf("查询待处理申请失败: %v", err)
	}
	pendingSet := make(map[int64]struct{}, len(pending))
	for _, req := range pending {
		other := req.SenderID
		if other == userID {
			other = req.ReceiverID
		}
		pendingSet[other] = struct{}{}
	}

	results := make([]*UserSearchResult, 0, len(docs))
	for _, doc := range docs {
		if doc.UserID == userID {
			continue
		}

		relation := model.RelationNone
		if _, ok := friendSet[doc.UserID]; ok {
			relation = model.RelationFriend
		} else if _, ok := pendingSet[doc.UserID]; ok {
			relation = model.RelationRequestPending
		}

		results = append(results, &UserSearchResult{
			User:     doc,
			Relation: relation,
		})
	}

	span.SetStatus(codes.Ok, "directory search completed")
	return results, nil
}
