package handlers

import (
	"context"

	"github.com/linkup/backend/internal/auth"
	"github.com/linkup/backend/internal/models"
)

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	ListExcept(ctx context.Context, excludeIDs []string) ([]models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionManager issues, refreshes and resolves authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, refreshToken string)
}

// FriendService exposes the friend graph engine to the HTTP layer.
type FriendService interface {
	SendRequest(ctx context.Context, callerID, receiverID string) (models.FriendRequest, error)
	Respond(ctx context.Context, callerID, requestID string, status models.FriendStatus) (models.FriendRequest, error)
	IncomingRequests(ctx context.Context, callerID string) ([]models.FriendRequest, error)
	Friends(ctx context.Context, callerID string) ([]models.User, error)
	Suggestions(ctx context.Context, callerID string) ([]models.User, error)
}

// GoogleVerifier validates third-party identity tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (auth.GoogleIdentity, error)
}

// AvatarIngestor schedules background persistence of profile pictures.
type AvatarIngestor interface {
	Enqueue(ctx context.Context, userID, sourceURL string) error
}
