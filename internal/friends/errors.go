package friends

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed field on the request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSelfRequest indicates a user attempted to befriend themselves.
	ErrSelfRequest = errors.New("cannot send friend request to yourself")
	// ErrDuplicateRequest indicates an edge already connects the two users.
	ErrDuplicateRequest = errors.New("friend request already exists")
	// ErrNotFound indicates the referenced friend request does not exist.
	ErrNotFound = errors.New("friend request not found")
	// ErrUnauthorized indicates the caller is not the receiver of the request.
	ErrUnauthorized = errors.New("not authorized to respond to this request")
	// ErrAlreadyResponded indicates the request has already reached a terminal status.
	ErrAlreadyResponded = errors.New("friend request already responded to")
)
