package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/logger"
	"gamepal-social/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
	m.Run()
}

// ============ 内存版 SocialDAO ============

type fakeSocialDAO struct {
	mu       sync.Mutex
	requests map[int64]*model.FriendRequest
	friends  map[int64]map[int64]*model.Friend
	invites  map[int64]*model.GameInvite
}

func newFakeSocialDAO() *fakeSocialDAO {
	return &fakeSocialDAO{
		requests: make(map[int64]*model.FriendRequest),
		friends:  make(map[int64]map[int64]*model.Friend),
		invites:  make(map[int64]*model.GameInvite),
	}
}

func copyRequest(req *model.FriendRequest) *model.FriendRequest {
	c := *req
	return &c
}

func copyInvite(invite *model.GameInvite) *model.GameInvite {
	c := *invite
	return &c
}

func (d *fakeSocialDAO) CreateFriendRequest(ctx context.Context, req *model.FriendRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.requests {
		if existing.Status != model.FriendRequestStatusPending {
			continue
		}
		samePair := (existing.SenderID == req.SenderID && existing.ReceiverID == req.ReceiverID) ||
			(existing.SenderID == req.ReceiverID && existing.ReceiverID == req.SenderID)
		if samePair {
			return model.ErrDuplicateRequest
		}
	}

	stored := copyRequest(req)
	stored.CreatedAt = time.Now()
	d.requests[stored.ID] = stored
	return nil
}

func (d *fakeSocialDAO) GetFriendRequest(ctx context.Context, requestID int64) (*model.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	req, ok := d.requests[requestID]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

func (d *fakeSocialDAO) AcceptFriendRequestTx(ctx context.Context, requestID, receiverID int64) (*model.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	req, ok := d.requests[requestID]
	if !ok || req.Status != model.FriendRequestStatusPending {
		return nil, model.ErrRequestNotFound
	}
	if req.ReceiverID != receiverID {
		return nil, model.ErrForbidden
	}

	d.addFriendLocked(req.SenderID, req.ReceiverID)
	d.addFriendLocked(req.ReceiverID, req.SenderID)
	delete(d.requests, requestID)
	return copyRequest(req), nil
}

func (d *fakeSocialDAO) addFriendLocked(userID, friendID int64) {
	if d.friends[userID] == nil {
		d.friends[userID] = make(map[int64]*model.Friend)
	}
	d.friends[userID][friendID] = &model.Friend{
		UserID:    userID,
		FriendID:  friendID,
		CreatedAt: time.Now(),
	}
}

func (d *fakeSocialDAO) DeleteFriendRequest(ctx context.Context, requestID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.requests[requestID]; !ok {
		return model.ErrRequestNotFound
	}
	delete(d.requests, requestID)
	return nil
}

func (d *fakeSocialDAO) GetPendingRequestBetween(ctx context.Context, userA, userB int64) (*model.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, req := range d.requests {
		if req.Status != model.FriendRequestStatusPending {
			continue
		}
		if (req.SenderID == userA && req.ReceiverID == userB) ||
			(req.SenderID == userB && req.ReceiverID == userA) {
			return copyRequest(req), nil
		}
	}
	return nil, nil
}

func (d *fakeSocialDAO) ListReceivedRequests(ctx context.Context, receiverID int64) ([]*model.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*model.FriendRequest
	for _, req := range d.requests {
		if req.ReceiverID == receiverID && req.Status == model.FriendRequestStatusPending {
			out = append(out, copyRequest(req))
		}
	}
	return out, nil
}

func (d *fakeSocialDAO) ListSentRequests(ctx context.Context, senderID int64) ([]*model.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*model.FriendRequest
	for _, req := range d.requests {
		if req.SenderID == senderID && req.Status == model.FriendRequestStatusPending {
			out = append(out, copyRequest(req))
		}
	}
	return out, nil
}

func (d *fakeSocialDAO) ListPendingRequestsWithUsers(ctx context.Context, userID int64, otherIDs []int64) ([]*model.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	others := make(map[int64]struct{}, len(otherIDs))
	for _, id := range otherIDs {
		others[id] = struct{}{}
	}

	var out []*model.FriendRequest
	for _, req := range d.requests {
		if req.Status != model.FriendRequestStatusPending {
			continue
		}
		if req.SenderID == userID {
			if _, ok := others[req.ReceiverID]; ok {
				out = append(out, copyRequest(req))
			}
		} else if req.ReceiverID == userID {
			if _, ok := others[req.SenderID]; ok {
				out = append(out, copyRequest(req))
			}
		}
	}
	return out, nil
}

func (d *fakeSocialDAO) ListFriends(ctx context.Context, userID int64) ([]*model.Friend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*model.Friend
	for _, f := range d.friends[userID] {
		c := *f
		out = append(out, &c)
	}
	return out, nil
}

func (d *fakeSocialDAO) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.friends[userID][friendID]
	return ok, nil
}

func (d *fakeSocialDAO) CreateInvite(ctx context.Context, invite *model.GameInvite) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.invites {
		if existing.SenderID == invite.SenderID && existing.Status == model.GameInviteStatusPending {
			return model.ErrTooManyInFlight
		}
	}

	stored := copyInvite(invite)
	stored.CreatedAt = time.Now()
	d.invites[stored.ID] = stored
	return nil
}

// insertInvite 直接插入邀请行，用于构造过期数据
func (d *fakeSocialDAO) insertInvite(invite *model.GameInvite) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invites[invite.ID] = copyInvite(invite)
}

func (d *fakeSocialDAO) GetInvite(ctx context.Context, inviteID int64) (*model.GameInvite, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	invite, ok := d.invites[inviteID]
	if !ok {
		return nil, nil
	}
	return copyInvite(invite), nil
}

func (d *fakeSocialDAO) MarkInviteAccepted(ctx context.Context, inviteID int64, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	invite, ok := d.invites[inviteID]
	if !ok || invite.Status != model.GameInviteStatusPending {
		return model.ErrInviteNotFound
	}
	invite.Status = model.GameInviteStatusAccepted
	invite.SessionID = sessionID
	return nil
}

func (d *fakeSocialDAO) DeleteInvite(ctx context.Context, inviteID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.invites[inviteID]; !ok {
		return model.ErrInviteNotFound
	}
	delete(d.invites, inviteID)
	return nil
}

func (d *fakeSocialDAO) DeleteAcceptedInvite(ctx context.Context, inviteID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	invite, ok := d.invites[inviteID]
	if ok && invite.Status == model.GameInviteStatusAccepted {
		delete(d.invites, inviteID)
	}
	return nil
}

func (d *fakeSocialDAO) ListReceivedInvites(ctx context.Context, receiverID int64, since time.Time) ([]*model.GameInvite, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*model.GameInvite
	for _, invite := range d.invites {
		if invite.ReceiverID == receiverID &&
			invite.Status == model.GameInviteStatusPending &&
			invite.CreatedAt.After(since) {
			out = append(out, copyInvite(invite))
		}
	}
	return out, nil
}

func (d *fakeSocialDAO) ListSentInvites(ctx context.Context, senderID int64) ([]*model.GameInvite, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*model.GameInvite
	for _, invite := range d.invites {
		if invite.SenderID != senderID {
			continue
		}
		if invite.Status == model.GameInviteStatusPending ||
			invite.Status == model.GameInviteStatusAccepted {
			out = append(out, copyInvite(invite))
		}
	}
	return out, nil
}

func (d *fakeSocialDAO) PurgeStaleInvites(ctx context.Context, userIDs []int64, before time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}

	var purged int64
	for id, invite := range d.invites {
		if invite.Status != model.GameInviteStatusPending || !invite.CreatedAt.Before(before) {
			continue
		}
		_, sender := users[invite.SenderID]
		_, receiver := users[invite.ReceiverID]
		if sender || receiver {
			delete(d.invites, id)
			purged++
		}
	}
	return purged, nil
}

func (d *fakeSocialDAO) PurgeExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var purged int64
	for id, invite := range d.invites {
		if invite.Status == model.GameInviteStatusPending && invite.CreatedAt.Before(before) {
			delete(d.invites, id)
			purged++
		}
	}
	return purged, nil
}

// ============ 内存版 PresenceDAO ============

type fakePresenceDAO struct {
	mu       sync.Mutex
	statuses map[int64]*model.PresenceStatus
}

func newFakePresenceDAO() *fakePresenceDAO {
	return &fakePresenceDAO{statuses: make(map[int64]*model.PresenceStatus)}
}

func (d *fakePresenceDAO) SetPresence(ctx context.Context, status *model.PresenceStatus) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.statuses[status.UserID]
	if ok && status.LastChanged <= stored.LastChanged {
		return false, nil
	}
	c := *status
	d.statuses[status.UserID] = &c
	return true, nil
}

func (d *fakePresenceDAO) GetPresence(ctx context.Context, userID int64) (*model.PresenceStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	status, ok := d.statuses[userID]
	if !ok {
		return nil, nil
	}
	c := *status
	return &c, nil
}

func (d *fakePresenceDAO) ListActiveUsers(ctx context.Context) ([]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []int64
	for id, status := range d.statuses {
		if status.IsActive {
			out = append(out, id)
		}
	}
	return out, nil
}

// ============ 内存版 SessionDAO ============

type fakeSessionDAO struct {
	mu       sync.Mutex
	sessions map[string]*model.GameSession
}

func newFakeSessionDAO() *fakeSessionDAO {
	return &fakeSessionDAO{sessions: make(map[string]*model.GameSession)}
}

func (d *fakeSessionDAO) CreateSession(ctx context.Context, session *model.GameSession) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *session
	d.sessions[session.SessionID] = &c
	return nil
}

func (d *fakeSessionDAO) GetSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, ok := d.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	c := *session
	return &c, nil
}

func (d *fakeSessionDAO) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// ============ 内存版 DirectoryDAO ============

type fakeDirectoryDAO struct {
	mu   sync.Mutex
	docs []*model.UserDoc
}

func newFakeDirectoryDAO() *fakeDirectoryDAO {
	return &fakeDirectoryDAO{}
}

func (d *fakeDirectoryDAO) IndexUser(ctx context.Context, doc *model.UserDoc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.docs {
		if existing.UserID == doc.UserID {
			c := *doc
			d.docs[i] = &c
			return nil
		}
	}
	c := *doc
	d.docs = append(d.docs, &c)
	return nil
}

func (d *fakeDirectoryDAO) SearchUsers(ctx context.Context, keyword string, limit int) ([]*model.UserDoc, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*model.UserDoc
	for _, doc := range d.docs {
		c := *doc
		out = append(out, &c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ============ 可控的会话工厂 ============

type stubSessionFactory struct {
	mu      sync.Mutex
	fail    bool
	created int
	dao     *fakeSessionDAO
}

func (f *stubSessionFactory) CreateSession(ctx context.Context, invite *model.GameInvite) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return "", fmt.Errorf("session backend unavailable")
	}

	f.created++
	sessionID := fmt.Sprintf("sess-%d", f.created)
	if f.dao != nil {
		f.dao.CreateSession(ctx, &model.GameSession{
			SessionID:   sessionID,
			SessionType: invite.SessionType,
			HostID:      invite.SenderID,
			GuestID:     invite.ReceiverID,
			InviteID:    invite.ID,
			CreatedAt:   time.Now(),
		})
	}
	return sessionID, nil
}

func (f *stubSessionFactory) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// ============ 测试环境 ============

type testEnv struct {
	svc       *Service
	social    *fakeSocialDAO
	presence  *fakePresenceDAO
	sessions  *fakeSessionDAO
	directory *fakeDirectoryDAO
	factory   *stubSessionFactory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	social := newFakeSocialDAO()
	presence := newFakePresenceDAO()
	sessions := newFakeSessionDAO()
	directory := newFakeDirectoryDAO()
	factory := &stubSessionFactory{dao: sessions}

	svc := NewService(social, presence, sessions, directory, factory, nil, logger.GetLogger())
	svc.SetInviteTuning(30*time.Millisecond, model.InviteRetention)

	return &testEnv{
		svc:       svc,
		social:    social,
		presence:  presence,
		sessions:  sessions,
		directory: directory,
		factory:   factory,
	}
}

// setActive 将用户标记为活跃
func (env *testEnv) setActive(t *testing.T, userIDs ...int64) {
	t.Helper()
	for _, id := range userIDs {
		if err := env.svc.SetActivity(context.Background(), id, true); err != nil {
			t.Fatalf("SetActivity(%d) failed: %v", id, err)
		}
	}
}
