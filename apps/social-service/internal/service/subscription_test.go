package service

import (
	"context"
	"testing"
	"time"

	"gamepal-social/apps/social-service/internal/model"
)

// waitForSnapshot 等待订阅通道推出满足条件的快照
func waitForSnapshot(t *testing.T, ch <-chan []*model.GameInvite, match func([]*model.GameInvite) bool) []*model.GameInvite {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				t.Fatal("subscription channel closed unexpectedly")
			}
			if match(snapshot) {
				return snapshot
			}
		case <-deadline:
			t.Fatal("timed out waiting for invite snapshot")
		}
	}
}

func TestSubscribeReceivedInvitesPushesOnChange(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.setActive(t, 1, 2)

	ch := env.svc.SubscribeReceivedInvites(ctx, 2)

	// 注册即收到空快照
	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 0
	})

	invite, err := env.svc.SendInvite(context.Background(), 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 1 && invites[0].ID == invite.ID
	})

	if err := env.svc.DeclineInvite(context.Background(), invite.ID, 2); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 0
	})
}

func TestSubscribeSentInvitesObservesSessionID(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.setActive(t, 1, 2)

	ch := env.svc.SubscribeSentInvites(ctx, 1)

	invite, err := env.svc.SendInvite(context.Background(), 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 1 && invites[0].Status == model.GameInviteStatusPending
	})

	accepted, err := env.svc.AcceptInvite(context.Background(), invite.ID, 2)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// 发送方在宽限期内观察到accepted状态和会话ID
	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 1 &&
			invites[0].Status == model.GameInviteStatusAccepted &&
			invites[0].SessionID == accepted.SessionID
	})

	// 宽限期结束后快照清空
	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 0
	})
}

func TestSubscriptionStopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	env.setActive(t, 1, 2)

	ch := env.svc.SubscribeReceivedInvites(ctx, 2)
	waitForSnapshot(t, ch, func(invites []*model.GameInvite) bool {
		return len(invites) == 0
	})

	cancel()

	// 取消后通道关闭
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel not closed after cancel")
		}
	}
}
