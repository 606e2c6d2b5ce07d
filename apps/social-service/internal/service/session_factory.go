package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gamepal-social/apps/social-service/internal/dao"
	"gamepal-social/apps/social-service/internal/model"
)

// SessionFactory 游戏会话工厂
// 接受邀请时在事务之外调用，失败可重试
type SessionFactory interface {
	CreateSession(ctx context.Context, invite *model.GameInvite) (string, error)
}

// mongoSessionFactory 基于MongoDB会话记录的默认实现
type mongoSessionFactory struct {
	sessionDAO dao.SessionDAO
}

// NewSessionFactory 创建会话工厂实例
func NewSessionFactory(sessionDAO dao.SessionDAO) SessionFactory {
	return &mongoSessionFactory{sessionDAO: sessionDAO}
}

// CreateSession 生成会话ID并写入会话记录
func (f *mongoSessionFactory) CreateSession(ctx context.Context, invite *model.GameInvite) (string, error) {
	session := &model.GameSession{
		SessionID:   uuid.NewString(),
		SessionType: invite.SessionType,
		HostID:      invite.SenderID,
		GuestID:     invite.ReceiverID,
		InviteID:    invite.ID,
		CreatedAt:   time.Now(),
	}

	if err := f.sessionDAO.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("写入会话记录失败: %v", err)
	}
	return session.SessionID, nil
}

// GetGameSession 按会话ID查询会话记录
func (s *Service) GetGameSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	if s.sessionDAO == nil {
		return nil, fmt.Errorf("会话存储未初始化")
	}
	session, err := s.sessionDAO.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("会话不存在: %s", sessionID)
	}
	return session, nil
}
