package dao

import (
	"context"
	"time"

	"gamepal-social/apps/social-service/internal/model"
)

// SocialDAO 好友申请、好友关系与游戏邀请的数据访问接口
type SocialDAO interface {
	// 好友申请
	CreateFriendRequest(ctx context.Context, req *model.FriendRequest) error
	GetFriendRequest(ctx context.Context, requestID int64) (*model.FriendRequest, error)
	AcceptFriendRequestTx(ctx context.Context, requestID, receiverID int64) (*model.FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, requestID int64) error
	GetPendingRequestBetween(ctx context.Context, userA, userB int64) (*model.FriendRequest, error)
	ListReceivedRequests(ctx context.Context, receiverID int64) ([]*model.FriendRequest, error)
	ListSentRequests(ctx context.Context, senderID int64) ([]*model.FriendRequest, error)
	ListPendingRequestsWithUsers(ctx context.Context, userID int64, otherIDs []int64) ([]*model.FriendRequest, error)

	// 好友关系
	ListFriends(ctx context.Context, userID int64) ([]*model.Friend, error)
	IsFriend(ctx context.Context, userID, friendID int64) (bool, error)

	// 游戏邀请
	CreateInvite(ctx context.Context, invite *model.GameInvite) error
	GetInvite(ctx context.Context, inviteID int64) (*model.GameInvite, error)
	MarkInviteAccepted(ctx context.Context, inviteID int64, sessionID string) error
	DeleteInvite(ctx context.Context, inviteID int64) error
	DeleteAcceptedInvite(ctx context.Context, inviteID int64) error
	ListReceivedInvites(ctx context.Context, receiverID int64, since time.Time) ([]*model.GameInvite, error)
	ListSentInvites(ctx context.Context, senderID int64) ([]*model.GameInvite, error)
	PurgeStaleInvites(ctx context.Context, userIDs []int64, before time.Time) (int64, error)
	PurgeExpiredInvites(ctx context.Context, before time.Time) (int64, error)
}

// PresenceDAO 在线状态数据访问接口
type PresenceDAO interface {
	SetPresence(ctx context.Context, status *model.PresenceStatus) (bool, error)
	GetPresence(ctx context.Context, userID int64) (*model.PresenceStatus, error)
	ListActiveUsers(ctx context.Context) ([]int64, error)
}

// SessionDAO 游戏会话记录数据访问接口
type SessionDAO interface {
	CreateSession(ctx context.Context, session *model.GameSession) error
	GetSession(ctx context.Context, sessionID string) (*model.GameSession, error)
}

// DirectoryDAO 用户目录数据访问接口
type DirectoryDAO interface {
	IndexUser(ctx context.Context, doc *model.UserDoc) error
	SearchUsers(ctx context.Context, keyword string, limit int) ([]*model.UserDoc, error)
}
