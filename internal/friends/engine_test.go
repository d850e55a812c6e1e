package friends

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/linkup/backend/internal/models"
	"github.com/linkup/backend/internal/repositories"
)

type inMemoryRelationStore struct {
	requests map[string]models.FriendRequest
	failWith error
}

func newInMemoryRelationStore() *inMemoryRelationStore {
	return &inMemoryRelationStore{requests: make(map[string]models.FriendRequest)}
}

func (s *inMemoryRelationStore) CreateRequest(_ context.Context, request models.FriendRequest) error {
	if s.failWith != nil {
		return s.failWith
	}
	for _, existing := range s.requests {
		same := existing.Sender == request.Sender && existing.Receiver == request.Receiver
		reversed := existing.Sender == request.Receiver && existing.Receiver == request.Sender
		if same || reversed {
			return repositories.ErrConflict
		}
	}
	s.requests[request.ID] = request
	return nil
}

func (s *inMemoryRelationStore) Exists(_ context.Context, senderID, receiverID string) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	for _, existing := range s.requests {
		same := existing.Sender == senderID && existing.Receiver == receiverID
		reversed := existing.Sender == receiverID && existing.Receiver == senderID
		if same || reversed {
			return true, nil
		}
	}
	return false, nil
}

func (s *inMemoryRelationStore) Get(_ context.Context, requestID string) (models.FriendRequest, error) {
	if s.failWith != nil {
		return models.FriendRequest{}, s.failWith
	}
	request, ok := s.requests[requestID]
	if !ok {
		return models.FriendRequest{}, repositories.ErrNotFound
	}
	return request, nil
}

func (s *inMemoryRelationStore) Find(_ context.Context, filter repositories.FriendRequestFilter) ([]models.FriendRequest, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []models.FriendRequest
	for _, request := range s.requests {
		if filter.Participant != "" && request.Sender != filter.Participant && request.Receiver != filter.Participant {
			continue
		}
		if filter.Receiver != "" && request.Receiver != filter.Receiver {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		out = append(out, request)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryRelationStore) UpdateStatus(_ context.Context, requestID string, status models.FriendStatus) error {
	if s.failWith != nil {
		return s.failWith
	}
	request, ok := s.requests[requestID]
	if !ok {
		return repositories.ErrNotFound
	}
	if request.Status.Terminal() {
		return repositories.ErrConflict
	}
	request.Status = status
	respondedAt := time.Now().UTC()
	request.RespondedAt = &respondedAt
	s.requests[requestID] = request
	return nil
}

type inMemoryDirectory struct {
	users    map[string]models.User
	failWith error
}

func newInMemoryDirectory(ids ...string) *inMemoryDirectory {
	dir := &inMemoryDirectory{users: make(map[string]models.User)}
	for _, id := range ids {
		dir.users[id] = models.User{ID: id, Name: "user " + id, Email: id + "@example.com"}
	}
	return dir
}

func (d *inMemoryDirectory) FindByID(_ context.Context, id string) (models.User, error) {
	if d.failWith != nil {
		return models.User{}, d.failWith
	}
	user, ok := d.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (d *inMemoryDirectory) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	var out []models.User
	for _, id := range ids {
		if user, ok := d.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (d *inMemoryDirectory) ListExcept(_ context.Context, excludeIDs []string) ([]models.User, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	var out []models.User
	for id, user := range d.users {
		if _, ok := excluded[id]; !ok {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func newTestEngine(store *inMemoryRelationStore, dir *inMemoryDirectory, opts ...Option) *Engine {
	return NewEngine(store, dir, opts...)
}

func TestSendRequest(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(store, dir, WithClock(func() time.Time { return now }))

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	if request.Sender != "alice" || request.Receiver != "bob" {
		t.Fatalf("unexpected participants: %+v", request)
	}
	if request.Status != models.FriendStatusPending {
		t.Fatalf("expected pending status got %q", request.Status)
	}
	if !request.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt to use injected clock")
	}
	if _, ok := store.requests[request.ID]; !ok {
		t.Fatal("expected request to be stored")
	}
}

func TestSendRequestToSelf(t *testing.T) {
	engine := newTestEngine(newInMemoryRelationStore(), newInMemoryDirectory("alice"))

	if _, err := engine.SendRequest(context.Background(), "alice", "alice"); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest got %v", err)
	}
}

func TestSendRequestValidation(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	if _, err := engine.SendRequest(context.Background(), "alice", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty receiver got %v", err)
	}
	if _, err := engine.SendRequest(context.Background(), "alice", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank receiver got %v", err)
	}
	if _, err := engine.SendRequest(context.Background(), "alice", "ghost"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown receiver got %v", err)
	}
	if len(store.requests) != 0 {
		t.Fatalf("expected no requests stored, have %d", len(store.requests))
	}
}

func TestSendRequestDuplicate(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	if _, err := engine.SendRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := engine.SendRequest(context.Background(), "alice", "bob"); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest got %v", err)
	}
	if len(store.requests) != 1 {
		t.Fatalf("expected exactly one stored edge, have %d", len(store.requests))
	}
}

func TestSendRequestReverseDirectionIsDuplicate(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	if _, err := engine.SendRequest(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := engine.SendRequest(context.Background(), "alice", "bob"); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest for reverse direction got %v", err)
	}
	if len(store.requests) != 1 {
		t.Fatalf("expected a single edge per unordered pair, have %d", len(store.requests))
	}
}

func TestRespond(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	updated, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusAccepted)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if updated.Status != models.FriendStatusAccepted {
		t.Fatalf("expected accepted got %q", updated.Status)
	}
	if updated.RespondedAt == nil {
		t.Fatal("expected respondedAt to be set")
	}
	if store.requests[request.ID].Status != models.FriendStatusAccepted {
		t.Fatal("expected stored edge to be accepted")
	}
}

func TestRespondAuthorization(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob", "carol")
	engine := newTestEngine(store, dir)

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	// Neither the sender nor a third party may respond.
	for _, caller := range []string{"alice", "carol"} {
		if _, err := engine.Respond(context.Background(), caller, request.ID, models.FriendStatusRejected); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("caller %s: expected ErrUnauthorized got %v", caller, err)
		}
	}

	if store.requests[request.ID].Status != models.FriendStatusPending {
		t.Fatal("expected edge to remain pending after rejected attempts")
	}
}

func TestRespondFailures(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	if _, err := engine.Respond(context.Background(), "bob", "missing", models.FriendStatusAccepted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusPending); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for pending target got %v", err)
	}
	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatus("maybe")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status got %v", err)
	}

	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusAccepted); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusRejected); !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded got %v", err)
	}
	if store.requests[request.ID].Status != models.FriendStatusAccepted {
		t.Fatal("terminal status must be immutable")
	}
}

func TestIncomingRequests(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob", "carol")
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	engine := newTestEngine(store, dir, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	first, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	second, err := engine.SendRequest(context.Background(), "carol", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	incoming, err := engine.IncomingRequests(context.Background(), "bob")
	if err != nil {
		t.Fatalf("incoming requests: %v", err)
	}
	if len(incoming) != 2 {
		t.Fatalf("expected 2 incoming requests got %d", len(incoming))
	}
	if incoming[0].ID != second.ID || incoming[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", incoming[0].ID, incoming[1].ID)
	}

	if _, err := engine.Respond(context.Background(), "bob", first.ID, models.FriendStatusAccepted); err != nil {
		t.Fatalf("respond: %v", err)
	}

	incoming, err = engine.IncomingRequests(context.Background(), "bob")
	if err != nil {
		t.Fatalf("incoming requests: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != second.ID {
		t.Fatalf("expected only the pending request, got %+v", incoming)
	}
}

func TestFriendshipIsSymmetric(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusAccepted); err != nil {
		t.Fatalf("respond: %v", err)
	}

	aliceFriends, err := engine.FriendIDs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("friend ids: %v", err)
	}
	bobFriends, err := engine.FriendIDs(context.Background(), "bob")
	if err != nil {
		t.Fatalf("friend ids: %v", err)
	}

	if len(aliceFriends) != 1 || aliceFriends[0] != "bob" {
		t.Fatalf("expected alice's friends to be [bob], got %v", aliceFriends)
	}
	if len(bobFriends) != 1 || bobFriends[0] != "alice" {
		t.Fatalf("expected bob's friends to be [alice], got %v", bobFriends)
	}
}

func TestRejectedEdgeIsNotFriendship(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusRejected); err != nil {
		t.Fatalf("respond: %v", err)
	}

	ids, err := engine.FriendIDs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("friend ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no friends after rejection, got %v", ids)
	}
}

func TestFriendsListsBothSides(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	incoming, err := engine.IncomingRequests(context.Background(), "bob")
	if err != nil {
		t.Fatalf("incoming requests: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != request.ID {
		t.Fatalf("expected bob's incoming to contain the request, got %+v", incoming)
	}

	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusAccepted); err != nil {
		t.Fatalf("respond: %v", err)
	}

	aliceFriends, err := engine.Friends(context.Background(), "alice")
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	bobFriends, err := engine.Friends(context.Background(), "bob")
	if err != nil {
		t.Fatalf("friends: %v", err)
	}

	if len(aliceFriends) != 1 || aliceFriends[0].ID != "bob" {
		t.Fatalf("expected bob in alice's friend list, got %+v", aliceFriends)
	}
	if len(bobFriends) != 1 || bobFriends[0].ID != "alice" {
		t.Fatalf("expected alice in bob's friend list, got %+v", bobFriends)
	}
}

func TestSuggestionsExcludeSelfAndFriends(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob", "carol", "dave")
	engine := newTestEngine(store, dir)

	request, err := engine.SendRequest(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := engine.Respond(context.Background(), "bob", request.ID, models.FriendStatusAccepted); err != nil {
		t.Fatalf("respond: %v", err)
	}

	suggestions, err := engine.Suggestions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}

	if len(suggestions) != 2 {
		t.Fatalf("expected exactly two suggestions got %+v", suggestions)
	}
	got := []string{suggestions[0].ID, suggestions[1].ID}
	sort.Strings(got)
	if got[0] != "carol" || got[1] != "dave" {
		t.Fatalf("expected suggestions {carol, dave} got %v", got)
	}
}

func TestSuggestionsPendingEdgeStillSuggested(t *testing.T) {
	store := newInMemoryRelationStore()
	dir := newInMemoryDirectory("alice", "bob", "carol")
	engine := newTestEngine(store, dir)

	// A pending request is not yet a friendship, so the receiver remains a
	// suggestion candidate.
	if _, err := engine.SendRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}

	suggestions, err := engine.Suggestions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected bob and carol suggested, got %+v", suggestions)
	}
}

func TestQueriesSoftFailToEmpty(t *testing.T) {
	store := newInMemoryRelationStore()
	store.failWith = errors.New("db down")
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir)

	friendsList, err := engine.Friends(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected soft failure, got error %v", err)
	}
	if len(friendsList) != 0 {
		t.Fatalf("expected empty result got %+v", friendsList)
	}

	suggestions, err := engine.Suggestions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected soft failure, got error %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected empty result got %+v", suggestions)
	}
}

func TestQueriesHardFailWhenConfigured(t *testing.T) {
	store := newInMemoryRelationStore()
	store.failWith = errors.New("db down")
	dir := newInMemoryDirectory("alice", "bob")
	engine := newTestEngine(store, dir, WithHardFailQueries())

	if _, err := engine.Friends(context.Background(), "alice"); err == nil {
		t.Fatal("expected store failure to surface")
	}
	if _, err := engine.Suggestions(context.Background(), "alice"); err == nil {
		t.Fatal("expected store failure to surface")
	}

	// Mutations always surface failures regardless of mode.
	softEngine := newTestEngine(store, dir)
	if _, err := softEngine.SendRequest(context.Background(), "alice", "bob"); err == nil {
		t.Fatal("expected send to surface store failure")
	}
}
