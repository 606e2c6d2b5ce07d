package converter

import (
	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/apps/social-service/internal/service"
)

// Converter 转换器
type Converter struct{}

// NewConverter 创建转换器
func NewConverter() *Converter {
	return &Converter{}
}

// ============ 响应DTO ============

// BaseResponse 通用响应
type BaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FriendRequestInfo 好友申请信息
type FriendRequestInfo struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

// FriendRequestResponse 单条好友申请响应
type FriendRequestResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Request *FriendRequestInfo `json:"request,omitempty"`
}

// FriendRequestListResponse 好友申请列表响应
type FriendRequestListResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Requests []*FriendRequestInfo `json:"requests"`
	Total    int32                `json:"total"`
}

// FriendInfo 好友信息
type FriendInfo struct {
	UserID    int64  `json:"user_id"`
	FriendID  int64  `json:"friend_id"`
	Remark    string `json:"remark"`
	CreatedAt int64  `json:"created_at"`
}

// FriendListResponse 好友列表响应
type FriendListResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Friends []*FriendInfo `json:"friends"`
	Total   int32         `json:"total"`
}

// GameInviteInfo 游戏邀请信息
type GameInviteInfo struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	ReceiverID  int64  `json:"receiver_id"`
	SessionType string `json:"session_type"`
	Status      string `json:"status"`
	SessionID   string `json:"session_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// GameInviteResponse 单条游戏邀请响应
type GameInviteResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Invite  *GameInviteInfo `json:"invite,omitempty"`
}

// GameInviteListResponse 游戏邀请列表响应
type GameInviteListResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Invites []*GameInviteInfo `json:"invites"`
	Total   int32             `json:"total"`
}

// PresenceResponse 在线状态响应
type PresenceResponse struct {
	Success     bool  `json:"success"`
	UserID      int64 `json:"user_id"`
	IsActive    bool  `json:"is_active"`
	LastChanged int64 `json:"last_changed"`
}

// ActiveUsersResponse 活跃用户列表响应
type ActiveUsersResponse struct {
	Success bool    `json:"success"`
	UserIDs []int64 `json:"user_ids"`
	Total   int32   `json:"total"`
}

// UserSearchInfo 带关系标注的目录搜索结果
type UserSearchInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Bio      string `json:"bio"`
	Relation string `json:"relation"`
}

// UserSearchResponse 目录搜索响应
type UserSearchResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Users   []*UserSearchInfo `json:"users"`
	Total   int32             `json:"total"`
}

// GameSessionResponse 游戏会话响应
type GameSessionResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Session *model.GameSession `json:"session,omitempty"`
}

// ============ 模型转换 ============

// FriendRequestToInfo 转换好友申请
func (c *Converter) FriendRequestToInfo(req *model.FriendRequest) *FriendRequestInfo {
	if req == nil {
		return nil
	}
	return &FriendRequestInfo{
		ID:         req.ID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Message:    req.Message,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt.Unix(),
	}
}

// FriendRequestsToInfos 批量转换好友申请
func (c *Converter) FriendRequestsToInfos(reqs []*model.FriendRequest) []*FriendRequestInfo {
	infos := make([]*FriendRequestInfo, len(reqs))
	for i, req := range reqs {
		infos[i] = c.FriendRequestToInfo(req)
	}
	return infos
}

// FriendToInfo 转换好友信息
func (c *Converter) FriendToInfo(friend *model.Friend) *FriendInfo {
	if friend == nil {
		return nil
	}
	return &FriendInfo{
		UserID:    friend.UserID,
		FriendID:  friend.FriendID,
		Remark:    friend.Remark,
		CreatedAt: friend.CreatedAt.Unix(),
	}
}

// FriendsToInfos 批量转换好友信息
func (c *Converter) FriendsToInfos(friends []*model.Friend) []*FriendInfo {
	infos := make([]*FriendInfo, len(friends))
	for i, friend := range friends {
		infos[i] = c.FriendToInfo(friend)
	}
	return infos
}

// GameInviteToInfo 转换游戏邀请
func (c *Converter) GameInviteToInfo(invite *model.GameInvite) *GameInviteInfo {
	if invite == nil {
		return nil
	}
	return &GameInviteInfo{
		ID:          invite.ID,
		SenderID:    invite.SenderID,
		ReceiverID:  invite.ReceiverID,
		SessionType: invite.SessionType,
		Status:      invite.Status,
		SessionID:   invite.SessionID,
		CreatedAt:   invite.CreatedAt.Unix(),
	}
}

// GameInvitesToInfos 批量转换游戏邀请
func (c *Converter) GameInvitesToInfos(invites []*model.GameInvite) []*GameInviteInfo {
	infos := make([]*GameInviteInfo, len(invites))
	for i, invite := range invites {
		infos[i] = c.GameInviteToInfo(invite)
	}
	return infos
}

// SearchResultsToInfos 批量转换目录搜索结果
func (c *Converter) SearchResultsToInfos(results []*service.UserSearchResult) []*UserSearchInfo {
	infos := make([]*UserSearchInfo, len(results))
	for i, result := range results {
		infos[i] = &UserSearchInfo{
			UserID:   result.User.UserID,
			Username: result.User.Username,
			Nickname: result.User.Nickname,
			Bio:      result.User.Bio,
			Relation: result.Relation,
		}
	}
	return infos
}
