package service

import (
	"context"
	"errors"
	"testing"

	"gamepal-social/apps/social-service/internal/model"
)

func TestSendFriendRequestRejectsDuplicateBothDirections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.SendFriendRequest(ctx, 1, 2, "hi"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// 同方向重复
	if _, err := env.svc.SendFriendRequest(ctx, 1, 2, "again"); !errors.Is(err, model.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	// 反方向同样视为重复
	if _, err := env.svc.SendFriendRequest(ctx, 2, 1, "back"); !errors.Is(err, model.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest for reverse direction, got %v", err)
	}
}

func TestSendFriendRequestInvalidTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.SendFriendRequest(ctx, 1, 1, ""); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for self request, got %v", err)
	}

	// 先成为好友
	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if _, err := env.svc.SendFriendRequest(ctx, 1, 2, ""); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for already friends, got %v", err)
	}
}

func TestAcceptFriendRequestCreatesSymmetricFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	accepted, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.SenderID != 1 || accepted.ReceiverID != 2 {
		t.Fatalf("unexpected accepted request: %+v", accepted)
	}

	// 关系双向成立
	for _, pair := range [][2]int64{{1, 2}, {2, 1}} {
		isFriend, err := env.social.IsFriend(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("IsFriend failed: %v", err)
		}
		if !isFriend {
			t.Fatalf("friendship missing for %v", pair)
		}
	}

	// 申请行已删除，再次接受按已解决处理
	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2); !errors.Is(err, model.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound for second accept, got %v", err)
	}
}

func TestAcceptFriendRequestForbiddenForOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 3); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeclineFriendRequestDeletesWithoutFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// 非接收方不能拒绝
	if err := env.svc.DeclineFriendRequest(ctx, req.ID, 1); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for sender decline, got %v", err)
	}

	if err := env.svc.DeclineFriendRequest(ctx, req.ID, 2); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	// 拒绝后接受：竞态的败方收到NotFound，不产生关系
	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2); !errors.Is(err, model.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound after decline, got %v", err)
	}
	isFriend, _ := env.social.IsFriend(ctx, 1, 2)
	if isFriend {
		t.Fatal("declined request must not create friendship")
	}

	// 拒绝后可以重新申请
	if _, err := env.svc.SendFriendRequest(ctx, 1, 2, "retry"); err != nil {
		t.Fatalf("resend after decline failed: %v", err)
	}
}

func TestCancelFriendRequestSenderOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// 接收方不能撤回
	if err := env.svc.CancelFriendRequest(ctx, req.ID, 2); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for receiver cancel, got %v", err)
	}

	if err := env.svc.CancelFriendRequest(ctx, req.ID, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// 撤回后接受按已解决处理
	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2); !errors.Is(err, model.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound after cancel, got %v", err)
	}

	// 撤回释放了成对唯一性约束
	if _, err := env.svc.SendFriendRequest(ctx, 2, 1, ""); err != nil {
		t.Fatalf("reverse request after cancel failed: %v", err)
	}
}

func TestListAndFindPendingRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req12, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := env.svc.SendFriendRequest(ctx, 3, 2, ""); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	received, err := env.svc.ListReceivedRequests(ctx, 2)
	if err != nil {
		t.Fatalf("list received failed: %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("expected 2 received requests, got %d", len(received))
	}

	sent, err := env.svc.ListSentRequests(ctx, 1)
	if err != nil {
		t.Fatalf("list sent failed: %v", err)
	}
	if len(sent) != 1 || sent[0].ID != req12.ID {
		t.Fatalf("unexpected sent requests: %+v", sent)
	}

	// 双方向查询命中同一条申请
	for _, pair := range [][2]int64{{1, 2}, {2, 1}} {
		found, err := env.svc.FindPendingRequest(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("find pending failed: %v", err)
		}
		if found == nil || found.ID != req12.ID {
			t.Fatalf("expected request %d for pair %v, got %+v", req12.ID, pair, found)
		}
	}

	none, err := env.svc.FindPendingRequest(ctx, 1, 99)
	if err != nil {
		t.Fatalf("find pending failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no pending request, got %+v", none)
	}
}
