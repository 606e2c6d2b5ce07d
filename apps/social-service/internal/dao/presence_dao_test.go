package dao

import (
	"testing"

	"gamepal-social/apps/social-service/internal/model"
)

func TestShouldApplyPresence(t *testing.T) {
	tests := []struct {
		name     string
		stored   *model.PresenceStatus
		incoming *model.PresenceStatus
		want     bool
	}{
		{
			name:     "first write always applies",
			stored:   nil,
			incoming: &model.PresenceStatus{UserID: 1, IsActive: true, LastChanged: 100},
			want:     true,
		},
		{
			name:     "newer timestamp wins",
			stored:   &model.PresenceStatus{UserID: 1, IsActive: true, LastChanged: 100},
			incoming: &model.PresenceStatus{UserID: 1, IsActive: false, LastChanged: 200},
			want:     true,
		},
		{
			name:     "older timestamp dropped",
			stored:   &model.PresenceStatus{UserID: 1, IsActive: false, LastChanged: 200},
			incoming: &model.PresenceStatus{UserID: 1, IsActive: true, LastChanged: 100},
			want:     false,
		},
		{
			name:     "equal timestamp dropped",
			stored:   &model.PresenceStatus{UserID: 1, IsActive: true, LastChanged: 100},
			incoming: &model.PresenceStatus{UserID: 1, IsActive: false, LastChanged: 100},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldApplyPresence(tt.stored, tt.incoming); got != tt.want {
				t.Fatalf("shouldApplyPresence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPresenceKey(t *testing.T) {
	if got := presenceKey(42); got != "presence:42" {
		t.Fatalf("presenceKey(42) = %q", got)
	}
}
