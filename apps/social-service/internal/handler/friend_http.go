package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gamepal-social/apps/social-service/internal/converter"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/httpx"
	"gamepal-social/pkg/logger"
)

// SendFriendRequest 发送好友申请
func (h *HTTPHandler) SendFriendRequest(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			SenderID   int64  `json:"sender_id" binding:"required"`
			ReceiverID int64  `json:"receiver_id" binding:"required"`
			Message    string `json:"message"`
		}
		resp *converter.FriendRequestResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid send friend request", logger.F("error", err.Error()))
		resp = &converter.FriendRequestResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.SenderID)

	request, err := h.svc.SendFriendRequest(ctx, req.SenderID, req.ReceiverID, req.Message)
	if err != nil {
		h.logger.Error(ctx, "Send friend request failed",
			logger.F("error", err.Error()),
			logger.F("senderID", req.SenderID),
			logger.F("receiverID", req.ReceiverID))
		resp = &converter.FriendRequestResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Send friend request successful",
			logger.F("senderID", req.SenderID),
			logger.F("receiverID", req.ReceiverID))
		resp = &converter.FriendRequestResponse{
			Success: true,
			Message: "好友申请发送成功",
			Request: h.converter.FriendRequestToInfo(request),
		}
	}

	h.writeResult(c, resp, err)
}

// AcceptFriendRequest 接受好友申请
func (h *HTTPHandler) AcceptFriendRequest(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			RequestID int64 `json:"request_id" binding:"required"`
			UserID    int64 `json:"user_id" binding:"required"`
		}
		resp *converter.FriendRequestResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid accept friend request", logger.F("error", err.Error()))
		resp = &converter.FriendRequestResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	request, err := h.svc.AcceptFriendRequest(ctx, req.RequestID, req.UserID)
	if err != nil {
		h.logger.Error(ctx, "Accept friend request failed",
			logger.F("error", err.Error()),
			logger.F("requestID", req.RequestID),
			logger.F("userID", req.UserID))
		resp = &converter.FriendRequestResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Accept friend request successful",
			logger.F("requestID", req.RequestID),
			logger.F("userID", req.UserID))
		resp = &converter.FriendRequestResponse{
			Success: true,
			Message: "好友申请接受成功",
			Request: h.converter.FriendRequestToInfo(request),
		}
	}

	h.writeResult(c, resp, err)
}

// DeclineFriendRequest 拒绝好友申请
func (h *HTTPHandler) DeclineFriendRequest(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			RequestID int64 `json:"request_id" binding:"required"`
			UserID    int64 `json:"user_id" binding:"required"`
		}
		resp *converter.BaseResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid decline friend request", logger.F("error", err.Error()))
		resp = &converter.BaseResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	err = h.svc.DeclineFriendRequest(ctx, req.RequestID, req.UserID)
	if err != nil {
		h.logger.Error(ctx, "Decline friend request failed",
			logger.F("error", err.Error()),
			logger.F("requestID", req.RequestID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Decline friend request successful",
			logger.F("requestID", req.RequestID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: true, Message: "好友申请拒绝成功"}
	}

	h.writeResult(c, resp, err)
}

// CancelFriendRequest 撤回好友申请
func (h *HTTPHandler) CancelFriendRequest(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			RequestID int64 `json:"request_id" binding:"required"`
			UserID    int64 `json:"user_id" binding:"required"`
		}
		resp *converter.BaseResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid cancel friend request", logger.F("error", err.Error()))
		resp = &converter.BaseResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	err = h.svc.CancelFriendRequest(ctx, req.RequestID, req.UserID)
	if err != nil {
		h.logger.Error(ctx, "Cancel friend request failed",
			logger.F("error", err.Error()),
			logger.F("requestID", req.RequestID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: false, Message: err.Error()}
	} else {
		h.logger.Info(ctx, "Cancel friend request successful",
			logger.F("requestID", req.RequestID),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: true, Message: "好友申请撤回成功"}
	}

	h.writeResult(c, resp, err)
}

// parseUserIDQuery 从query中解析user_id
func parseUserIDQuery(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// ListReceivedRequests 获取收到的好友申请列表
func (h *HTTPHandler) ListReceivedRequests(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserIDQuery(c)
	if !ok {
		httpx.WriteObject(c, &converter.FriendRequestListResponse{
			Success: false, Message: "Invalid user_id",
		}, strconv.ErrSyntax)
		return
	}

	ctx = tracecontext.WithUserID(ctx, userID)

	requests, err := h.svc.ListReceivedRequests(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "List received requests failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.writeResult(c, &converter.FriendRequestListResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.FriendRequestListResponse{
		Success:  true,
		Message:  "获取申请列表成功",
		Requests: h.converter.FriendRequestsToInfos(requests),
		Total:    int32(len(requests)),
	}
	httpx.WriteObject(c, resp, nil)
}

// ListSentRequests 获取发出的好友申请列表
func (h *HTTPHandler) ListSentRequests(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserIDQuery(c)
	if !ok {
		httpx.WriteObject(c, &converter.FriendRequestListResponse{
			Success: false, Message: "Invalid user_id",
		}, strconv.ErrSyntax)
		return
	}

	ctx = tracecontext.WithUserID(ctx, userID)

	requests, err := h.svc.ListSentRequests(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "List sent requests failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.writeResult(c, &converter.FriendRequestListResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.FriendRequestListResponse{
		Success:  true,
		Message:  "获取申请列表成功",
		Requests: h.converter.FriendRequestsToInfos(requests),
		Total:    int32(len(requests)),
	}
	httpx.WriteObject(c, resp, nil)
}

// FindPendingRequest 查询两个用户间任一方向的待处理好友申请
func (h *HTTPHandler) FindPendingRequest(c *gin.Context) {
	ctx := c.Request.Context()

	userA, errA := strconv.ParseInt(c.Query("user_id"), 10, 64)
	userB, errB := strconv.ParseInt(c.Query("peer_id"), 10, 64)
	if errA != nil || errB != nil || userA <= 0 || userB <= 0 {
		httpx.WriteObject(c, &converter.FriendRequestResponse{
			Success: false, Message: "Invalid user_id or peer_id",
		}, strconv.ErrSyntax)
		return
	}

	ctx = tracecontext.WithUserID(ctx, userA)

	request, err := h.svc.FindPendingRequest(ctx, userA, userB)
	if err != nil {
		h.logger.Error(ctx, "Find pending request failed",
			logger.F("error", err.Error()),
			logger.F("userA", userA),
			logger.F("userB", userB))
		h.writeResult(c, &converter.FriendRequestResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.FriendRequestResponse{
		Success: true,
		Message: "查询成功",
		Request: h.converter.FriendRequestToInfo(request),
	}
	httpx.WriteObject(c, resp, nil)
}

// GetFriendList 获取好友列表
func (h *HTTPHandler) GetFriendList(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserIDQuery(c)
	if !ok {
		httpx.WriteObject(c, &converter.FriendListResponse{
			Success: false, Message: "Invalid user_id",
		}, strconv.ErrSyntax)
		return
	}

	ctx = tracecontext.WithUserID(ctx, userID)

	friends, err := h.svc.GetFriendList(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "Get friend list failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.writeResult(c, &converter.FriendListResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	h.logger.Info(ctx, "Get friend list successful",
		logger.F("userID", userID),
		logger.F("count", len(friends)))

	resp := &converter.FriendListResponse{
		Success: true,
		Message: "获取好友列表成功",
		Friends: h.converter.FriendsToInfos(friends),
		Total:   int32(len(friends)),
	}
	httpx.WriteObject(c, resp, nil)
}
