package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linkup/backend/internal/logging"
	"github.com/linkup/backend/internal/repositories"
)

// UserHandler implements profile and user-listing endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Avatars  AvatarIngestor
	NowFunc  func() time.Time
}

// Profile handles GET and PATCH /api/v1/users/profile for the caller's own record.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPatch:
		h.updateProfile(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Users == nil {
		logging.FromContext(ctx).Error("user store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "user services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)

	user, err := h.Users.FindByID(ctx, callerID)
	if err != nil {
		logging.FromContext(ctx).Error("profile lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load profile"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{User: toUserPayload(user)})
}

func (h UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil {
		logger.Error("user store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "user services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)
	logger = logging.FromContext(ctx)

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.Users.FindByID(ctx, callerID)
	if err != nil {
		logger.Error("profile lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load profile"})
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "name must not be empty"})
			return
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Location != nil {
		user.Location = strings.TrimSpace(*req.Location)
	}

	var avatarSource string
	if req.AvatarURL != nil {
		avatarSource = strings.TrimSpace(*req.AvatarURL)
		if avatarSource != "" {
			if _, err := url.ParseRequestURI(avatarSource); err != nil {
				respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar url is not valid"})
				return
			}
			// The remote image is ingested in the background; until then the
			// profile points at the source location.
			user.AvatarURL = avatarSource
		} else {
			user.AvatarURL = ""
		}
	}

	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		logger.Error("profile update failed", "error", err, "userId", callerID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to update profile"})
		return
	}

	if avatarSource != "" && h.Avatars != nil {
		if err := h.Avatars.Enqueue(ctx, callerID, avatarSource); err != nil {
			logger.Warn("avatar ingestion not scheduled", "error", err, "userId", callerID)
		}
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{User: toUserPayload(user)})
}

// List handles GET /api/v1/users: every user except the caller, with search
// and pagination applied.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Users == nil {
		logging.FromContext(ctx).Error("user store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "user services unavailable"})
		return
	}

	callerID, ok := requireCaller(w, r, h.Sessions)
	if !ok {
		return
	}
	ctx = logging.WithUserID(ctx, callerID)

	users, err := h.Users.ListExcept(ctx, []string{callerID})
	if err != nil {
		logging.FromContext(ctx).Error("user listing failed", "error", err)
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

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type updateProfileRequest struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	AvatarURL *string `json:"avatarUrl"`
}

type profileResponse struct {
	User userPayload `json:"user"`
}
