package repositories

import (
	"context"

	"github.com/linkup/backend/internal/models"
)

// FriendRequestFilter narrows a friend-request query. Zero-value fields are
// ignored. Participant matches edges where the user is sender or receiver.
type FriendRequestFilter struct {
	Participant string
	Receiver    string
	Status      models.FriendStatus
}

// FriendRepository defines data access for directed friend-request edges.
// It performs no business-rule or authorization checks; those belong to the
// friends engine.
type FriendRepository interface {
	CreateRequest(ctx context.Context, request models.FriendRequest) error
	Exists(ctx context.Context, senderID, receiverID string) (bool, error)
	Get(ctx context.Context, requestID string) (models.FriendRequest, error)
	Find(ctx context.Context, filter FriendRequestFilter) ([]models.FriendRequest, error)
	UpdateStatus(ctx context.Context, requestID string, status models.FriendStatus) error
}
