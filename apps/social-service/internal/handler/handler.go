package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gamepal-social/apps/social-service/internal/converter"
	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/apps/social-service/internal/service"
	"gamepal-social/pkg/httpx"
	"gamepal-social/pkg/logger"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc       *service.Service
	converter *converter.Converter
	logger    logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc *service.Service, conv *converter.Converter, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		converter: conv,
		logger:    log,
	}
}

// RegisterRoutes 注册HTTP路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/social")
	{
		// 好友申请
		api.POST("/friend-requests", h.SendFriendRequest)
		api.POST("/friend-requests/accept", h.AcceptFriendRequest)
		api.POST("/friend-requests/decline", h.DeclineFriendRequest)
		api.POST("/friend-requests/cancel", h.CancelFriendRequest)
		api.GET("/friend-requests/received", h.ListReceivedRequests)
		api.GET("/friend-requests/sent", h.ListSentRequests)
		api.GET("/friend-requests/pending", h.FindPendingRequest)
		api.GET("/friends", h.GetFriendList)

		// 游戏邀请
		api.POST("/invites", h.SendInvite)
		api.POST("/invites/accept", h.AcceptInvite)
		api.POST("/invites/decline", h.DeclineInvite)
		api.POST("/invites/cancel", h.CancelInvite)
		api.GET("/invites/received", h.ListReceivedInvites)
		api.GET("/invites/sent", h.ListSentInvites)
		api.GET("/sessions/:session_id", h.GetGameSession)

		// 在线状态
		api.POST("/presence", h.SetPresence)
		api.GET("/presence/active", h.ListActiveUsers)
		api.GET("/presence/:user_id", h.GetPresence)

		// 用户目录
		api.POST("/users/index", h.IndexUser)
		api.GET("/users/search", h.SearchUsers)

		// 订阅推送
		api.GET("/ws", h.SubscribeWS)
	}
}

// statusForError 业务错误到HTTP状态码的映射
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrRequestNotFound), errors.Is(err, model.ErrInviteNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrDuplicateRequest),
		errors.Is(err, model.ErrTooManyInFlight),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrPresenceNotQualified):
		return http.StatusConflict
	case errors.Is(err, model.ErrDependencyFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeResult 输出响应，业务错误按错误类型映射状态码
func (h *HTTPHandler) writeResult(c *gin.Context, resp interface{}, err error) {
	if err == nil {
		httpx.WriteObject(c, resp, nil)
		return
	}
	c.JSON(statusForError(err), resp)
}
