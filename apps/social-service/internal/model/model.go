package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friend 好友关系（有向行，成对写入保证对称）
type Friend struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;index:idx_user_friend,unique"`
	FriendID  int64     `json:"friend_id" gorm:"not null;index:idx_user_friend,unique"`
	Remark    string    `json:"remark" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Friend) TableName() string {
	return "friends"
}

// FriendRequest 好友申请（终态不保留，接受/拒绝/撤回即删除）
type FriendRequest struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	SenderID   int64     `json:"sender_id" gorm:"not null;index"`
	ReceiverID int64     `json:"receiver_id" gorm:"not null;index"`
	Message    string    `json:"message" gorm:"type:varchar(200)"`
	Status     string    `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// GameInvite 游戏邀请
type GameInvite struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	SenderID    int64     `json:"sender_id" gorm:"not null;index"`
	ReceiverID  int64     `json:"receiver_id" gorm:"not null;index"`
	SessionType string    `json:"session_type" gorm:"type:varchar(50)"`
	Status      string    `json:"status" gorm:"type:varchar(20);default:'pending'"`
	SessionID   string    `json:"session_id" gorm:"type:varchar(64)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (GameInvite) TableName() string {
	return "game_invites"
}

// GameSession 游戏会话记录（MongoDB）
type GameSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	SessionType string             `bson:"session_type" json:"session_type"`
	HostID      int64              `bson:"host_id" json:"host_id"`
	GuestID     int64              `bson:"guest_id" json:"guest_id"`
	InviteID    int64              `bson:"invite_id" json:"invite_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// PresenceStatus 用户在线状态（Redis，last-writer-wins）
type PresenceStatus struct {
	UserID      int64 `json:"user_id"`
	IsActive    bool  `json:"is_active"`
	LastChanged int64 `json:"last_changed"` // unix毫秒
}

// UserDoc 用户目录文档（Elasticsearch）
type UserDoc struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Bio      string `json:"bio"`
}
