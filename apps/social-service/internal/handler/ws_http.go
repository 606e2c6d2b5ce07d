package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsPush 推送给订阅端的消息
type wsPush struct {
	Type    string              `json:"type"`
	Invites []*model.GameInvite `json:"invites"`
}

// SubscribeWS 邀请订阅长连接
// 连接建立即把用户标记为活跃并订阅收到/发出的邀请快照，
// 连接断开时标记为不活跃
func (h *HTTPHandler) SubscribeWS(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少或无效 user_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(c.Request.Context(), "WebSocket upgrade failed", logger.F("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接即活跃
	if err := h.svc.SetActivity(ctx, userID, true); err != nil {
		h.logger.Error(ctx, "Failed to mark user active", logger.F("error", err.Error()))
	}
	defer func() {
		offCtx, offCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer offCancel()
		if err := h.svc.SetActivity(offCtx, userID, false); err != nil {
			h.logger.Error(offCtx, "Failed to mark user inactive", logger.F("error", err.Error()))
		}
		h.logger.Info(offCtx, "WebSocket connection closed", logger.F("userID", userID))
	}()

	received := h.svc.SubscribeReceivedInvites(ctx, userID)
	sent := h.svc.SubscribeSentInvites(ctx, userID)

	// 推送协程，读协程只用于探测断开
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case invites, ok := <-received:
				if !ok {
					return
				}
				h.pushInvites(ctx, conn, "received_invites", invites)
			case invites, ok := <-sent:
				if !ok {
					return
				}
				h.pushInvites(ctx, conn, "sent_invites", invites)
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// pushInvites 序列化并写出邀请快照
func (h *HTTPHandler) pushInvites(ctx context.Context, conn *websocket.Conn, kind string, invites []*model.GameInvite) {
	if invites == nil {
		invites = []*model.GameInvite{}
	}
	if err := conn.WriteJSON(&wsPush{Type: kind, Invites: invites}); err != nil {
		h.logger.Error(ctx, "WebSocket push failed",
			logger.F("kind", kind),
			logger.F("error", err.Error()))
	}
}
