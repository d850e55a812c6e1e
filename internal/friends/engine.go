package friends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linkup/backend/internal/logging"
	"github.com/linkup/backend/internal/models"
	"github.com/linkup/backend/internal/repositories"
)

// RelationStore is the persistence contract the engine requires for friend
// request edges. Implementations report repositories.ErrNotFound and
// repositories.ErrConflict for missing records and uniqueness violations.
type RelationStore interface {
	CreateRequest(ctx context.Context, request models.FriendRequest) error
	Exists(ctx context.Context, senderID, receiverID string) (bool, error)
	Get(ctx context.Context, requestID string) (models.FriendRequest, error)
	Find(ctx context.Context, filter repositories.FriendRequestFilter) ([]models.FriendRequest, error)
	UpdateStatus(ctx context.Context, requestID string, status models.FriendStatus) error
}

// UserDirectory resolves user identities for friend listing and suggestions.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListExcept(ctx context.Context, excludeIDs []string) ([]models.User, error)
}

// Engine implements the friend-request state machine and the queries derived
// from it. It holds no state of its own; every call projects the relation
// store. The caller identity is always passed explicitly and is trusted to
// have been authenticated upstream.
type Engine struct {
	relations RelationStore
	users     UserDirectory
	softFail  bool
	nowFunc   func() time.Time
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = now }
}

// WithHardFailQueries makes Friends and Suggestions surface store failures
// instead of degrading to an empty result.
func WithHardFailQueries() Option {
	return func(e *Engine) { e.softFail = false }
}

// NewEngine constructs a friend graph engine over the provided collaborators.
// Query operations default to soft-fail mode: infrastructure failures degrade
// to an empty result rather than an error.
func NewEngine(relations RelationStore, users UserDirectory, opts ...Option) *Engine {
	if relations == nil {
		panic("friends: relation store must not be nil")
	}
	if users == nil {
		panic("friends: user directory must not be nil")
	}

	e := &Engine{
		relations: relations,
		users:     users,
		softFail:  true,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SendRequest creates a pending friend request from the caller to receiverID.
// A request to self, or any existing edge between the pair in either
// direction, is rejected before anything is written.
func (e *Engine) SendRequest(ctx context.Context, callerID, receiverID string) (request models.FriendRequest, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.send_request")
	defer func() {
		span.Fail(err)
		span.End()
	}()

	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return models.FriendRequest{}, fmt.Errorf("%w: receiver id is required", ErrInvalidInput)
	}
	if receiverID == callerID {
		return models.FriendRequest{}, ErrSelfRequest
	}

	if _, err := e.users.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, fmt.Errorf("%w: receiver does not exist", ErrInvalidInput)
		}
		return models.FriendRequest{}, fmt.Errorf("look up receiver: %w", err)
	}

	exists, err := e.relations.Exists(ctx, callerID, receiverID)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("check existing request: %w", err)
	}
	if exists {
		return models.FriendRequest{}, ErrDuplicateRequest
	}

	request = models.FriendRequest{
		ID:        uuid.NewString(),
		Sender:    callerID,
		Receiver:  receiverID,
		Status:    models.FriendStatusPending,
		CreatedAt: e.nowFunc(),
	}

	if err := e.relations.CreateRequest(ctx, request); err != nil {
		// A concurrent send can slip past the existence check; the store's
		// uniqueness constraint wins the race.
		if errors.Is(err, repositories.ErrConflict) {
			return models.FriendRequest{}, ErrDuplicateRequest
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, fmt.Errorf("%w: receiver does not exist", ErrInvalidInput)
		}
		return models.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	return request, nil
}

// Respond transitions a pending request into accepted or rejected. Only the
// receiver may respond, and a terminal request cannot be responded to again.
func (e *Engine) Respond(ctx context.Context, callerID, requestID string, status models.FriendStatus) (request models.FriendRequest, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.respond")
	defer func() {
		span.Fail(err)
		span.End()
	}()

	request, err = e.relations.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("load friend request: %w", err)
	}

	if request.Receiver != callerID {
		return models.FriendRequest{}, ErrUnauthorized
	}

	if !status.Terminal() {
		return models.FriendRequest{}, fmt.Errorf("%w: status must be accepted or rejected", ErrInvalidInput)
	}

	if request.Status.Terminal() {
		return models.FriendRequest{}, ErrAlreadyResponded
	}

	if err := e.relations.UpdateStatus(ctx, requestID, status); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.FriendRequest{}, ErrNotFound
		case errors.Is(err, repositories.ErrConflict):
			return models.FriendRequest{}, ErrAlreadyResponded
		default:
			return models.FriendRequest{}, fmt.Errorf("update friend request: %w", err)
		}
	}

	request.Status = status
	respondedAt := e.nowFunc()
	request.RespondedAt = &respondedAt
	return request, nil
}

// IncomingRequests returns the pending requests addressed to the caller,
// newest first.
func (e *Engine) IncomingRequests(ctx context.Context, callerID string) ([]models.FriendRequest, error) {
	requests, err := e.relations.Find(ctx, repositories.FriendRequestFilter{
		Receiver: callerID,
		Status:   models.FriendStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return requests, nil
}

// FriendIDs computes the caller's friend set: the opposite participant of
// every accepted edge touching the user, in either direction. This is the
// authoritative definition of friendship used by Friends and Suggestions.
func (e *Engine) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	edges, err := e.relations.Find(ctx, repositories.FriendRequestFilter{
		Participant: userID,
		Status:      models.FriendStatusAccepted,
	})
	if err != nil {
		return nil, fmt.Errorf("list accepted edges: %w", err)
	}

	seen := make(map[string]struct{}, len(edges))
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		other := edge.Other(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}

	sort.Strings(ids)
	return ids, nil
}

// Friends returns the user records for the caller's friend set.
func (e *Engine) Friends(ctx context.Context, callerID string) (users []models.User, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.list")
	defer func() {
		span.Fail(err)
		span.End()
	}()

	ids, err := e.FriendIDs(ctx, callerID)
	if err != nil {
		return e.queryFailure(ctx, "friends", err)
	}

	users, err = e.users.FindByIDs(ctx, ids)
	if err != nil {
		return e.queryFailure(ctx, "friends", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Suggestions returns every user who is neither the caller nor already a
// friend of the caller. A naive full scan is acceptable at moderate scale;
// the exclusion set is the same one Friends is built from.
func (e *Engine) Suggestions(ctx context.Context, callerID string) (users []models.User, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.suggestions")
	defer func() {
		span.Fail(err)
		span.End()
	}()

	ids, err := e.FriendIDs(ctx, callerID)
	if err != nil {
		return e.queryFailure(ctx, "suggestions", err)
	}

	exclude := append(ids, callerID)
	users, err = e.users.ListExcept(ctx, exclude)
	if err != nil {
		return e.queryFailure(ctx, "suggestions", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// queryFailure applies the engine's soft-fail policy: in soft-fail mode a
// query degrades to an empty result and the fault is only logged.
func (e *Engine) queryFailure(ctx context.Context, op string, err error) ([]models.User, error) {
	if e.softFail {
		logging.FromContext(ctx).Warn("friend query degraded to empty result", "op", op, "error", err)
		return []models.User{}, nil
	}
	return nil, err
}
