package handlers

import (
	"time"

	"github.com/linkup/backend/internal/models"
)

type userPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio,omitempty"`
	Location  string `json:"location,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func toUserPayload(user models.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Bio:       user.Bio,
		Location:  user.Location,
		AvatarURL: user.AvatarURL,
	}
}

func ptrUserPayload(user models.User) *userPayload {
	p := toUserPayload(user)
	return &p
}

func toUserPayloads(users []models.User) []userPayload {
	out := make([]userPayload, 0, len(users))
	for _, user := range users {
		out = append(out, toUserPayload(user))
	}
	return out
}

type friendRequestPayload struct {
	ID          string     `json:"id"`
	Sender      string     `json:"sender"`
	Receiver    string     `json:"receiver"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

func toFriendRequestPayload(request models.FriendRequest) friendRequestPayload {
	return friendRequestPayload{
		ID:          request.ID,
		Sender:      request.Sender,
		Receiver:    request.Receiver,
		Status:      string(request.Status),
		CreatedAt:   request.CreatedAt,
		RespondedAt: request.RespondedAt,
	}
}

func toFriendRequestPayloads(requests []models.FriendRequest) []friendRequestPayload {
	out := make([]friendRequestPayload, 0, len(requests))
	for _, request := range requests {
		out = append(out, toFriendRequestPayload(request))
	}
	return out
}

type userListResponse struct {
	Users    []userPayload `json:"users"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
}
