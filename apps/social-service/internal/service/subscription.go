package service

import (
	"context"
	"sync"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/logger"
)

// 订阅种类
const (
	subKindReceived = "received"
	subKindSent     = "sent"
)

// subscriber 单个订阅者，signal上的信号表示快照需要刷新
type subscriber struct {
	userID int64
	kind   string
	signal chan struct{}
}

// notify 非阻塞投递刷新信号，信号是水位而非队列，挤掉旧信号即可
func (sub *subscriber) notify() {
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

// subscriptionHub 进程内邀请订阅中心
// 推送是最终一致的：变更只投递刷新信号，订阅协程自行重查快照
type subscriptionHub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func newSubscriptionHub() *subscriptionHub {
	return &subscriptionHub{
		subs: make(map[*subscriber]struct{}),
	}
}

// add 注册订阅者
func (h *subscriptionHub) add(userID int64, kind string) *subscriber {
	sub := &subscriber{
		userID: userID,
		kind:   kind,
		signal: make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// remove 注销订阅者
func (h *subscriptionHub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// notifyUsers 通知涉及这些用户的所有订阅者
func (h *subscriptionHub) notifyUsers(userIDs ...int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		for _, id := range userIDs {
			if sub.userID == id {
				sub.notify()
				break
			}
		}
	}
}

// SubscribeReceivedInvites 订阅收到的待处理邀请
// 返回的通道按变化推送完整快照，首个快照立即推送；调用方取消ctx即退出
func (s *Service) SubscribeReceivedInvites(ctx context.Context, userID int64) <-chan []*model.GameInvite {
	return s.subscribeInvites(ctx, userID, subKindReceived)
}

// SubscribeSentInvites 订阅发出的邀请（含已接受，发送方据此观察会话ID）
func (s *Service) SubscribeSentInvites(ctx context.Context, userID int64) <-chan []*model.GameInvite {
	return s.subscribeInvites(ctx, userID, subKindSent)
}

func (s *Service) subscribeInvites(ctx context.Context, userID int64, kind string) <-chan []*model.GameInvite {
	sub := s.hub.add(userID, kind)
	out := make(chan []*model.GameInvite, 1)

	go func() {
		defer s.hub.remove(sub)
		defer close(out)

		// 注册即推首个快照
		s.pushSnapshot(ctx, sub, out)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.signal:
				s.pushSnapshot(ctx, sub, out)
			}
		}
	}()

	return out
}

// pushSnapshot 重查快照并推送，通道满时先丢弃旧快照
func (s *Service) pushSnapshot(ctx context.Context, sub *subscriber, out chan []*model.GameInvite) {
	var (
		invites []*model.GameInvite
		err     error
	)

	switch sub.kind {
	case subKindReceived:
		invites, err = s.dao.ListReceivedInvites(ctx, sub.userID, s.retentionCutoff())
	case subKindSent:
		invites, err = s.dao.ListSentInvites(ctx, sub.userID)
	}
	if err != nil {
		s.logger.Error(ctx, "Failed to load invite snapshot",
			logger.F("userID", sub.userID),
			logger.F("kind", sub.kind),
			logger.F("error", err.Error()))
		return
	}

	select {
	case out <- invites:
	default:
		select {
		case <-out:
		default:
		}
		select {
		case out <- invites:
		default:
		}
	}
}
