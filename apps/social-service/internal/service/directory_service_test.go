package service

import (
	"context"
	"testing"

	"gamepal-social/apps/social-service/internal/model"
)

func TestSearchUsersAnnotatesRelations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, doc := range []*model.UserDoc{
		{UserID: 1, Username: "alice"},
		{UserID: 2, Username: "bob"},
		{UserID: 3, Username: "carol"},
		{UserID: 4, Username: "dave"},
	} {
		if err := env.svc.IndexUser(ctx, doc); err != nil {
			t.Fatalf("index user failed: %v", err)
		}
	}

	// 2是好友，3有待处理申请，4无关系
	req, err := env.svc.SendFriendRequest(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := env.svc.AcceptFriendRequest(ctx, req.ID, 2); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := env.svc.SendFriendRequest(ctx, 3, 1, ""); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	results, err := env.svc.SearchUsers(ctx, 1, "a", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	relations := make(map[int64]string, len(results))
	for _, r := range results {
		relations[r.User.UserID] = r.Relation
	}

	// 搜索者自己不出现在结果里
	if _, ok := relations[1]; ok {
		t.Fatal("searcher must be excluded from results")
	}
	if relations[2] != model.RelationFriend {
		t.Fatalf("expected friend relation for user 2, got %q", relations[2])
	}
	if relations[3] != model.RelationRequestPending {
		t.Fatalf("expected pending relation for user 3, got %q", relations[3])
	}
	if relations[4] != model.RelationNone {
		t.Fatalf("expected none relation for user 4, got %q", relations[4])
	}
}

func TestIndexUserRejectsInvalidID(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.IndexUser(context.Background(), &model.UserDoc{UserID: 0, Username: "ghost"})
	if err == nil {
		t.Fatal("expected error for invalid user ID")
	}
}
