package service

import (
	"context"
	"testing"
)

func TestPresenceLastWriterWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.svc.SetActivityAt(ctx, 1, true, 2000); err != nil {
		t.Fatalf("set activity failed: %v", err)
	}

	// 携带过期时间戳的更新被丢弃
	if err := env.svc.SetActivityAt(ctx, 1, false, 1000); err != nil {
		t.Fatalf("stale update must not error: %v", err)
	}
	status, err := env.svc.GetPresence(ctx, 1)
	if err != nil {
		t.Fatalf("get presence failed: %v", err)
	}
	if !status.IsActive || status.LastChanged != 2000 {
		t.Fatalf("stale update must be dropped, got %+v", status)
	}

	// 相同时间戳同样被丢弃
	if err := env.svc.SetActivityAt(ctx, 1, false, 2000); err != nil {
		t.Fatalf("tie update must not error: %v", err)
	}
	status, _ = env.svc.GetPresence(ctx, 1)
	if !status.IsActive {
		t.Fatal("tie-breaking must keep the stored value")
	}

	// 更新的时间戳正常生效
	if err := env.svc.SetActivityAt(ctx, 1, false, 3000); err != nil {
		t.Fatalf("newer update failed: %v", err)
	}
	status, _ = env.svc.GetPresence(ctx, 1)
	if status.IsActive || status.LastChanged != 3000 {
		t.Fatalf("newer update must apply, got %+v", status)
	}
}

func TestPresenceDefaultsToInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, err := env.svc.GetPresence(ctx, 42)
	if err != nil {
		t.Fatalf("get presence failed: %v", err)
	}
	if status.IsActive {
		t.Fatal("unknown user must default to inactive")
	}

	qualified, err := env.svc.IsQualified(ctx, 42)
	if err != nil {
		t.Fatalf("is qualified failed: %v", err)
	}
	if qualified {
		t.Fatal("unknown user must not qualify")
	}
}

func TestIsQualifiedReadsFreshState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setActive(t, 1)
	qualified, _ := env.svc.IsQualified(ctx, 1)
	if !qualified {
		t.Fatal("active user must qualify")
	}

	// 下线立即反映在下一次读取
	if err := env.svc.SetActivityAt(ctx, 1, false, 1<<60); err != nil {
		t.Fatalf("set inactive failed: %v", err)
	}
	qualified, _ = env.svc.IsQualified(ctx, 1)
	if qualified {
		t.Fatal("inactive user must not qualify")
	}
}

func TestListActiveUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setActive(t, 1, 2)
	if err := env.svc.SetActivityAt(ctx, 3, false, 1); err != nil {
		t.Fatalf("set inactive failed: %v", err)
	}

	userIDs, err := env.svc.ListActiveUsers(ctx)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}

	active := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		active[id] = true
	}
	if !active[1] || !active[2] || active[3] {
		t.Fatalf("unexpected active set: %v", userIDs)
	}
}
