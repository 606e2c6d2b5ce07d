package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gamepal-social/apps/social-service/internal/converter"
	"gamepal-social/apps/social-service/internal/model"
	tracecontext "gamepal-social/pkg/context"
	"gamepal-social/pkg/httpx"
	"gamepal-social/pkg/logger"
)

// SetPresence 上报在线状态
func (h *HTTPHandler) SetPresence(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req struct {
			UserID   int64 `json:"user_id" binding:"required"`
			IsActive bool  `json:"is_active"`
		}
		resp *converter.BaseResponse
		err  error
	)

	if err = c.Bind(&req); err != nil {
		h.logger.Error(ctx, "Invalid set presence request", logger.F("error", err.Error()))
		resp = &converter.BaseResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, req.UserID)

	err = h.svc.SetActivity(ctx, req.UserID, req.IsActive)
	if err != nil {
		h.logger.Error(ctx, "Set presence failed",
			logger.F("error", err.Error()),
			logger.F("userID", req.UserID))
		resp = &converter.BaseResponse{Success: false, Message: err.Error()}
	} else {
		resp = &converter.BaseResponse{Success: true, Message: "在线状态更新成功"}
	}

	h.writeResult(c, resp, err)
}

// GetPresence 查询在线状态
func (h *HTTPHandler) GetPresence(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.WriteObject(c, &converter.PresenceResponse{Success: false}, strconv.ErrSyntax)
		return
	}

	status, err := h.svc.GetPresence(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "Get presence failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID))
		h.writeResult(c, &converter.PresenceResponse{Success: false, UserID: userID}, err)
		return
	}

	resp := &converter.PresenceResponse{
		Success:     true,
		UserID:      status.UserID,
		IsActive:    status.IsActive,
		LastChanged: status.LastChanged,
	}
	httpx.WriteObject(c, resp, nil)
}

// ListActiveUsers 获取活跃用户列表
func (h *HTTPHandler) ListActiveUsers(c *gin.Context) {
	ctx := c.Request.Context()

	userIDs, err := h.svc.ListActiveUsers(ctx)
	if err != nil {
		h.logger.Error(ctx, "List active users failed", logger.F("error", err.Error()))
		h.writeResult(c, &converter.ActiveUsersResponse{Success: false}, err)
		return
	}

	resp := &converter.ActiveUsersResponse{
		Success: true,
		UserIDs: userIDs,
		Total:   int32(len(userIDs)),
	}
	httpx.WriteObject(c, resp, nil)
}

// IndexUser 写入用户目录文档
func (h *HTTPHandler) IndexUser(c *gin.Context) {
	var (
		ctx  = c.Request.Context()
		doc  model.UserDoc
		resp *converter.BaseResponse
		err  error
	)

	if err = c.Bind(&doc); err != nil {
		h.logger.Error(ctx, "Invalid index user request", logger.F("error", err.Error()))
		resp = &converter.BaseResponse{Success: false, Message: "Invalid request format"}
		httpx.WriteObject(c, resp, err)
		return
	}

	// 将业务信息添加到context
	ctx = tracecontext.WithUserID(ctx, doc.UserID)

	err = h.svc.IndexUser(ctx, &doc)
	if err != nil {
		h.logger.Error(ctx, "Index user failed",
			logger.F("error", err.Error()),
			logger.F("userID", doc.UserID))
		resp = &converter.BaseResponse{Success: false, Message: err.Error()}
	} else {
		resp = &converter.BaseResponse{Success: true, Message: "用户目录更新成功"}
	}

	h.writeResult(c, resp, err)
}

// SearchUsers 搜索用户目录
func (h *HTTPHandler) SearchUsers(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserIDQuery(c)
	if !ok {
		httpx.WriteObject(c, &converter.UserSearchResponse{
			Success: false, Message: "Invalid user_id",
		}, strconv.ErrSyntax)
		return
	}

	keyword := c.Query("keyword")
	if keyword == "" {
		httpx.WriteObject(c, &converter.UserSearchResponse{
			Success: false, Message: "Missing keyword",
		}, strconv.ErrSyntax)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	ctx = tracecontext.WithUserID(ctx, userID)

	results, err := h.svc.SearchUsers(ctx, userID, keyword, limit)
	if err != nil {
		h.logger.Error(ctx, "Search users failed",
			logger.F("error", err.Error()),
			logger.F("userID", userID),
			logger.F("keyword", keyword))
		h.writeResult(c, &converter.UserSearchResponse{
			Success: false, Message: err.Error(),
		}, err)
		return
	}

	resp := &converter.UserSearchResponse{
		Success: true,
		Message: "搜索成功",
		Users:   h.converter.SearchResultsToInfos(results),
		Total:   int32(len(results)),
	}
	httpx.WriteObject(c, resp, nil)
}
