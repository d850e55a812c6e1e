package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/linkup/backend/internal/friends"
	"github.com/linkup/backend/internal/logging"
	"github.com/linkup/backend/internal/models"
)

// FriendHandler exposes the friend graph engine over HTTP. Every endpoint
// requires an authenticated caller.
type FriendHandler struct {
	Engine   FriendService
	Sessions SessionManager
}

// Invite handles POST /api/v1/friends/invite.
func (h FriendHandler) Invite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Engine == nil {
		logger.Error("friend engine unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)
	logger = logging.FromContext(ctx)

	var req inviteFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid invite payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	request, err := h.Engine.SendRequest(ctx, callerID, req.ReceiverID)
	if err != nil {
		h.respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, friendRequestResponse{Request: toFriendRequestPayload(request)})
}

// Respond handles POST /api/v1/friends/respond.
func (h FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Engine == nil {
		logger.Error("friend engine unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)
	logger = logging.FromContext(ctx)

	var req respondFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid respond payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.RequestID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "request id is required"})
		return
	}

	status, ok := statusFromAction(req.Action)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "action must be accept or reject"})
		return
	}

	request, err := h.Engine.Respond(ctx, callerID, req.RequestID, status)
	if err != nil {
		h.respondFriendError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendRequestResponse{Request: toFriendRequestPayload(request)})
}

// Incoming handles GET /api/v1/friends/requests: pending requests addressed
// to the caller, newest first.
func (h FriendHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Engine == nil {
		logging.FromContext(ctx).Error("friend engine unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)

	requests, err := h.Engine.IncomingRequests(ctx, callerID)
	if err != nil {
		logging.FromContext(ctx).Error("list incoming requests failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list friend requests"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendRequestListResponse{Requests: toFriendRequestPayloads(requests)})
}

// List handles GET /api/v1/friends: the caller's friends with search and
// pagination applied.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	h.listUsers(w, r, func(ctx context.Context, callerID string) ([]models.User, error) {
		return h.Engine.Friends(ctx, callerID)
	})
}

// Suggestions handles GET /api/v1/friends/suggestions: everyone who is not
// the caller and not already a friend, with search and pagination applied.
func (h FriendHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	h.listUsers(w, r, func(ctx context.Context, callerID string) ([]models.User, error) {
		return h.Engine.Suggestions(ctx, callerID)
	})
}

func (h FriendHandler) listUsers(w http.ResponseWriter, r *http.Request, query func(context.Context, string) ([]models.User, error)) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Engine == nil {
		logging.FromContext(ctx).Error("friend engine unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)

	users, err := query(ctx, callerID)
	if err != nil {
		logging.FromContext(ctx).Error("friend query failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list users"})
		return
	}

	q := parseListQuery(r)
	page, total := q.apply(users)

	respondJSON(ctx, w, http.StatusOK, userListResponse{
		Users:    toUserPayloads(page),
		Page:     q.page,
		PageSize: q.pageSize,
		Total:    total,
	})
}

func (h FriendHandler) respondFriendError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	switch {
	case errors.Is(err, friends.ErrInvalidInput):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, friends.ErrSelfRequest):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": friends.ErrSelfRequest.Error()})
	case errors.Is(err, friends.ErrDuplicateRequest):
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": friends.ErrDuplicateRequest.Error()})
	case errors.Is(err, friends.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": friends.ErrNotFound.Error()})
	case errors.Is(err, friends.ErrUnauthorized):
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": friends.ErrUnauthorized.Error()})
	case errors.Is(err, friends.ErrAlreadyResponded):
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": friends.ErrAlreadyResponded.Error()})
	default:
		logger.Error("friend operation failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend operation failed"})
	}
}

func statusFromAction(action string) (models.FriendStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "accept", "accepted":
		return models.FriendStatusAccepted, true
	case "reject", "rejected":
		return models.FriendStatusRejected, true
	default:
		return "", false
	}
}

type inviteFriendRequest struct {
	ReceiverID string `json:"receiverId"`
}

type respondFriendRequest struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
}

type friendRequestResponse struct {
	Request friendRequestPayload `json:"request"`
}

type friendRequestListResponse struct {
	Requests []friendRequestPayload `json:"requests"`
}
