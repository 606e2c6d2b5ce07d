package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gamepal-social/apps/social-service/internal/converter"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/httpx"
	"gamepal-social/pkg/logger"
)

// SendInvite 发送游戏邀请
func (h *HTTPHandler) SendInvite(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			SenderID    int64  `json:"sender_id" binding:"required"`
			ReceiverID  int64  `json:"receiver_id" binding:"required"`
			SessionType string `json:"session_type"`
		}
		resp *converter.GameInviteResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid send invite request", logger.F("error", err.Error()))
		resp = &converter.GameInviteResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.SenderID)

	invite, err := h.svc.SendInvite(ctx, req.SenderID, req.ReceiverID, req.SessionType)
	if err != nil {
		h.logger.Error(ctx, "Send invite failed",
			logger.F("error", err.Error()),
			logger.F("senderID", req.SenderID),
			logger.F("receiverID", req.ReceiverID))
		resp = &converter.GameInviteResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Send invite successful",
			logger.F("senderID", req.SenderID),
			logger.F("receiverID", req.ReceiverID))
		resp = &converter.GameInviteResponse{
			Success: true,
			Message: "游戏邀请发送成功",
			Invite:  h.converter.GameInviteToInfo(invite),
		}
	}

	h.writeResult(c, resp, err)
}

// AcceptInvite 接受游戏邀请
func (h *HTTPHandler) AcceptInvite(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			InviteID int64 `json:"invite_id" binding:"required"`
			UserID   int64 `json:"user_id" binding:"required"`
		}
		resp *converter.GameInviteResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid accept invite request", logger.F("error", err.Error()))
		resp = &converter.GameInviteResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	invite, err := h.svc.AcceptInvite(ctx, req.InviteID, req.UserID)
	if err != nil {
		h.logger.Error(ctx, "Accept invite failed",
			logger.F("error", err.Error()),
			logger.F("inviteID", req.InviteID),
			logger.F("userID", req.UserID))
		resp = &converter.GameInviteResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Accept invite successful",
			logger.F("inviteID", req.InviteID),
			logger.F("sessionID", invite.SessionID))
		resp = &converter.GameInviteResponse{
			Success: true,
			Message: "游戏邀请接受成功",
			Invite:  h.converter.GameInviteToInfo(invite),
		}
	}

	h.writeResult(c, resp, err)
}

// DeclineInvite 拒绝游戏邀请
func (h *HTTPHandler) DeclineInvite(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			InviteID int64 `json:"invite_id" binding:"required"`
			UserID   int64 `json:"user_id" binding:"required"`
		}
		resp *converter.BaseResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid decline invite request", logger.F("error", err.Error()))
		resp = &converter.BaseResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	err = h.svc.DeclineInvite(ctx, req.InviteID, req.UserID)
	if err != nil {
		h.logger.Error(ctx, "Decline invite failed",
			logger.F("error", err.Error()),
			logger.F("inviteID", req.InviteID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Decline invite successful",
			logger.F("inviteID", req.InviteID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: true, Message: "游戏邀请拒绝成功"}
	}

	h.writeResult(c, resp, err)
}

// CancelInvite 撤回游戏邀请
func (h *HTTPHandler) CancelInvite(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			InviteID int64 `json:"invite_id" binding:"required"`
			UserID   int64 `json:"user_id" binding:"required"`
		}
		resp *converter.BaseResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid cancel invite request", logger.F("error", err.Error()))
		resp = &converter.BaseResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	err = h.svc.CancelInvite(ctx, req.InviteID, req.UserID)
	if err != nil {
		h.logger.Error(ctx, "Cancel invite failed",
			logger.F("error", err.Error()),
			logger.F("inviteID", req.InviteID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Cancel invite successful",
			logger.F("inviteID", req.InviteID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: true, Message: "游戏邀请撤回成功"}
	}

	h.writeResult(c, resp, err)
}

// ListReceivedInvites 获取收到的游戏邀请列表
func (h *HTTPHandler) ListReceivedInvites(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserIDQuery(c)
	if !ok {
		httpx.WriteObject(c, &converter.GameInviteListResponse{
			Success: false, Message: "Invalid user_id",
		}, strconv.ErrSyntax)
		return
	}

	ctx = tracecontext.WithUserID(ctx, userID)

	invites, err := h.svc.ListReceivedInvites(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "List received invites failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.writeResult(c, &converter.GameInviteListResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.GameInviteListResponse{
		Success: true,
		Message: "获取邀请列表成功",
		Invites: h.converter.GameInvitesToInfos(invites),
		Total:   int32(len(invites)),
	}
	httpx.WriteObject(c, resp, nil)
}

// ListSentInvites 获取发出的游戏邀请列表
func (h *HTTPHandler) ListSentInvites(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserIDQuery(c)
	if !ok {
		httpx.WriteObject(c, &converter.GameInviteListResponse{
			Success: false, Message: "Invalid user_id",
		}, strconv.ErrSyntax)
		return
	}

	ctx = tracecontext.WithUserID(ctx, userID)

	invites, err := h.svc.ListSentInvites(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "List sent invites failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.writeResult(c, &converter.GameInviteListResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.GameInviteListResponse{
		Success: true,
		Message: "获取邀请列表成功",
		Invites: h.converter.GameInvitesToInfos(invites),
		Total:   int32(len(invites)),
	}
	httpx.WriteObject(c, resp, nil)
}

// GetGameSession 获取游戏会话记录
func (h *HTTPHandler) GetGameSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("session_id")

	session, err := h.svc.GetGameSession(ctx, sessionID)
	if err != nil {
		h.logger.Error(ctx, "Get game session failed",
			logger.F("error", err.Error()),
			logger.F("sessionID", sessionID))
		h.writeResult(c, &converter.GameSessionResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.GameSessionResponse{
		Success: true,
		Message: "获取会话成功",
		Session: session,
	}
	httpx.WriteObject(c, resp, nil)
}
