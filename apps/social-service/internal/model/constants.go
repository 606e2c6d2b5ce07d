package model

import "time"

// 好友申请状态
const (
	FriendRequestStatusPending = "pending"
)

// 游戏邀请状态
const (
	GameInviteStatusPending  = "pending"
	GameInviteStatusAccepted = "accepted"
)

// 目录搜索的关系标注
const (
	RelationNone           = "none"
	RelationFriend         = "friend"
	RelationRequestPending = "request_pending"
)

// 邀请生命周期参数
const (
	// InviteRetention 待处理邀请的保留窗口，超过视为过期
	InviteRetention = 24 * time.Hour
	// InviteAcceptedGrace 接受后的宽限期，期满删除邀请行
	InviteAcceptedGrace = 10 * time.Second
	// InviteSweepInterval 后台清理过期邀请的周期
	InviteSweepInterval = 10 * time.Minute
)

// Kafka事件主题
const (
	TopicFriendEvents = "social_friend_events"
	TopicInviteEvents = "social_invite_events"
)

// 事件类型
const (
	EventFriendRequestSent     = "friend_request_sent"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRequestDeclined = "friend_request_declined"
	EventFriendRequestCanceled = "friend_request_canceled"
	EventInviteSent            = "invite_sent"
	EventInviteAccepted        = "invite_accepted"
	EventInviteDeclined        = "invite_declined"
	EventInviteCanceled        = "invite_canceled"
)

// Redis键
const (
	PresenceKeyPrefix = "presence:"
	ActiveUsersKey    = "active_users"
)

// Elasticsearch索引
const (
	UserIndexName = "users"
)
