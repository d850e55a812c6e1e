package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.Health}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Google: deps.Google, Limiter: deps.AuthLimiter}
	users := UserHandler{Users: deps.Users, Sessions: deps.Sessions, Avatars: deps.Avatars}
	friends := FriendHandler{Engine: deps.Friends, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/google", auth.GoogleAuth)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/users", users.List)
	mux.HandleFunc("/api/v1/users/profile", users.Profile)
	mux.HandleFunc("/api/v1/friends", friends.List)
	mux.HandleFunc("/api/v1/friends/invite", friends.Invite)
	mux.HandleFunc("/api/v1/friends/respond", friends.Respond)
	mux.HandleFunc("/api/v1/friends/requests", friends.Incoming)
	mux.HandleFunc("/api/v1/friends/suggestions", friends.Suggestions)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Sessions    SessionManager
	Friends     FriendService
	Google      GoogleVerifier
	Avatars     AvatarIngestor
	AuthLimiter RateLimiter
	Health      Pinger
}
