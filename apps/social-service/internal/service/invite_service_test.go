package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/snowflake"
)

func TestSendInviteRequiresPresenceBothSides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 双方都未上报过状态
	if _, err := env.svc.SendInvite(ctx, 1, 2, "duo"); !errors.Is(err, model.ErrPresenceNotQualified) {
		t.Fatalf("expected ErrPresenceNotQualified, got %v", err)
	}

	// 只有发送方活跃
	env.setActive(t, 1)
	if _, err := env.svc.SendInvite(ctx, 1, 2, "duo"); !errors.Is(err, model.ErrPresenceNotQualified) {
		t.Fatalf("expected ErrPresenceNotQualified for inactive receiver, got %v", err)
	}

	// 双方活跃后放行
	env.setActive(t, 2)
	if _, err := env.svc.SendInvite(ctx, 1, 2, "duo"); err != nil {
		t.Fatalf("send invite failed: %v", err)
	}
}

func TestSendInviteSingleSlotPerSender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2, 3)

	invite, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	// 不论目标是谁，发送方同时只允许一条待处理邀请
	if _, err := env.svc.SendInvite(ctx, 1, 3, "duo"); !errors.Is(err, model.ErrTooManyInFlight) {
		t.Fatalf("expected ErrTooManyInFlight, got %v", err)
	}

	// 接收方的槽位不受影响
	if _, err := env.svc.SendInvite(ctx, 2, 3, "duo"); err != nil {
		t.Fatalf("receiver's own invite failed: %v", err)
	}

	// 邀请被拒绝后槽位释放
	if err := env.svc.DeclineInvite(ctx, invite.ID, 2); err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if _, err := env.svc.SendInvite(ctx, 1, 3, "duo"); err != nil {
		t.Fatalf("send after decline failed: %v", err)
	}
}

func TestAcceptInviteCreatesSessionAndExpiresAfterGrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2)
	env.svc.SetInviteTuning(250*time.Millisecond, model.InviteRetention)

	invite, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	accepted, err := env.svc.AcceptInvite(ctx, invite.ID, 2)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != model.GameInviteStatusAccepted || accepted.SessionID == "" {
		t.Fatalf("unexpected accepted invite: %+v", accepted)
	}

	// 会话记录已落盘
	session, err := env.sessions.GetSession(ctx, accepted.SessionID)
	if err != nil || session == nil {
		t.Fatalf("session record missing: %v", err)
	}
	if session.HostID != 1 || session.GuestID != 2 {
		t.Fatalf("unexpected session: %+v", session)
	}

	// 宽限期内发送方能看到已接受的邀请和会话ID
	sent, err := env.svc.ListSentInvites(ctx, 1)
	if err != nil {
		t.Fatalf("list sent failed: %v", err)
	}
	if len(sent) != 1 || sent[0].SessionID != accepted.SessionID {
		t.Fatalf("sender should observe accepted invite, got %+v", sent)
	}

	// 宽限期结束后邀请行被删除
	deadline := time.Now().Add(time.Second)
	for {
		sent, err = env.svc.ListSentInvites(ctx, 1)
		if err != nil {
			t.Fatalf("list sent failed: %v", err)
		}
		if len(sent) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("accepted invite not removed after grace, still %+v", sent)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAcceptInviteDependencyFailureKeepsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2)

	invite, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	env.factory.setFail(true)
	if _, err := env.svc.AcceptInvite(ctx, invite.ID, 2); !errors.Is(err, model.ErrDependencyFailure) {
		t.Fatalf("expected ErrDependencyFailure, got %v", err)
	}

	// 邀请保持pending，可重试
	stored, err := env.social.GetInvite(ctx, invite.ID)
	if err != nil || stored == nil {
		t.Fatalf("invite missing after factory failure: %v", err)
	}
	if stored.Status != model.GameInviteStatusPending {
		t.Fatalf("invite must stay pending, got %s", stored.Status)
	}
	if env.sessions.count() != 0 {
		t.Fatal("no session record should exist after factory failure")
	}

	env.factory.setFail(false)
	accepted, err := env.svc.AcceptInvite(ctx, invite.ID, 2)
	if err != nil {
		t.Fatalf("retry accept failed: %v", err)
	}
	if accepted.SessionID == "" {
		t.Fatal("retried accept must carry session ID")
	}
}

func TestAcceptInviteOwnershipAndState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2)
	env.svc.SetInviteTuning(5*time.Second, model.InviteRetention)

	invite, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	// 非接收方不能接受
	if _, err := env.svc.AcceptInvite(ctx, invite.ID, 3); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := env.svc.AcceptInvite(ctx, invite.ID, 2); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// 已接受的邀请不能再次接受
	if _, err := env.svc.AcceptInvite(ctx, invite.ID, 2); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for second accept, got %v", err)
	}

	// 不存在的邀请
	if _, err := env.svc.AcceptInvite(ctx, 424242, 2); !errors.Is(err, model.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}

func TestDeclineInviteSecondDeclineSignalsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2)

	invite, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	if err := env.svc.DeclineInvite(ctx, invite.ID, 2); err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if err := env.svc.DeclineInvite(ctx, invite.ID, 2); !errors.Is(err, model.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound for second decline, got %v", err)
	}
}

func TestCancelInviteSenderOnlyWithStalePurge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2)

	invite, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	// 构造一条超过保留窗口、涉及发送方的过期邀请
	stale := &model.GameInvite{
		ID:         snowflake.GenerateID(),
		SenderID:   7,
		ReceiverID: 1,
		Status:     model.GameInviteStatusPending,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	}
	env.social.insertInvite(stale)

	// 接收方不能撤回
	if err := env.svc.CancelInvite(ctx, invite.ID, 2); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for receiver cancel, got %v", err)
	}

	if err := env.svc.CancelInvite(ctx, invite.ID, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// 撤回顺带清理了过期邀请
	gone, err := env.social.GetInvite(ctx, stale.ID)
	if err != nil {
		t.Fatalf("get invite failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("stale invite should be purged on cancel, got %+v", gone)
	}
}

func TestSweepExpiredInvites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setActive(t, 1, 2)

	fresh, err := env.svc.SendInvite(ctx, 1, 2, "duo")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}

	stale := &model.GameInvite{
		ID:         snowflake.GenerateID(),
		SenderID:   5,
		ReceiverID: 6,
		Status:     model.GameInviteStatusPending,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	}
	env.social.insertInvite(stale)

	purged, err := env.svc.SweepExpiredInvites(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged invite, got %d", purged)
	}

	kept, err := env.social.GetInvite(ctx, fresh.ID)
	if err != nil || kept == nil {
		t.Fatalf("fresh invite must survive sweep: %v", err)
	}
}

func TestEndToEndFriendInviteSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 建立好友关系
	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "加个好友")
	if err != nil {
		t.Fatalf("send friend request failed: %v", err)
	}
	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2); err != nil {
		t.Fatalf("accept friend request failed: %v", err)
	}

	// 双方上线后发起并接受邀请
	env.setActive(t, 1, 2)
	invite, err := env.svc.SendInvite(ctx, 1, 2, "ranked")
	if err != nil {
		t.Fatalf("send invite failed: %v", err)
	}
	accepted, err := env.svc.AcceptInvite(ctx, invite.ID, 2)
	if err != nil {
		t.Fatalf("accept invite failed: %v", err)
	}

	// 双方通过会话ID拿到同一条会话记录
	session, err := env.svc.GetGameSession(ctx, accepted.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.HostID != 1 || session.GuestID != 2 || session.SessionType != "ranked" {
		t.Fatalf("unexpected session: %+v", session)
	}
}
