package models

import "time"

// User represents an account within the LinkUp platform.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Bio       string
	Location  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendStatus enumerates the lifecycle states of a friend request.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusRejected FriendStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s FriendStatus) Terminal() bool {
	return s == FriendStatusAccepted || s == FriendStatusRejected
}

// FriendRequest is a directed friend-request edge between two users.
// Friendship itself is never stored; it is derived from accepted edges.
type FriendRequest struct {
	ID          string
	Sender      string
	Receiver    string
	Status      FriendStatus
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// Other returns the participant opposite to userID on the edge.
func (r FriendRequest) Other(userID string) string {
	if r.Sender == userID {
		return r.Receiver
	}
	return r.Sender
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
