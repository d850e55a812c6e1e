package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkup/backend/internal/auth"
	"github.com/linkup/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		Email:     "ana@example.com",
		Password:  "secret-hash",
		Name:      "Ana Silva",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		Email:     user.Email,
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Name != user.Name || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != user.Email {
		t.Fatalf("unexpected user fetched by id: %+v", byID)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	updated := user
	updated.Name = "Ana S."
	updated.Bio = "gopher"
	updated.Location = "Lisbon"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)

	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if fetched.Bio != "gopher" || fetched.Location != "Lisbon" {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	missing := models.User{
		ID:        uuid.NewString(),
		Email:     "missing@example.com",
		Password:  "hash",
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_Listing(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	ana := createTestUser(t, repo, "ana@example.com")
	ben := createTestUser(t, repo, "ben@example.com")
	chloe := createTestUser(t, repo, "chloe@example.com")

	found, err := repo.FindByIDs(ctx, []string{ana.ID, chloe.ID, uuid.NewString()})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 users, got %d", len(found))
	}

	if found, err = repo.FindByIDs(ctx, nil); err != nil || found != nil {
		t.Fatalf("expected empty result for no ids, got %v %v", found, err)
	}

	rest, err := repo.ListExcept(ctx, []string{ben.ID})
	if err != nil {
		t.Fatalf("list except: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 users, got %d", len(rest))
	}
	for _, user := range rest {
		if user.ID == ben.ID {
			t.Fatalf("excluded user %s returned", ben.ID)
		}
	}

	all, err := repo.ListExcept(ctx, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
}

func TestPostgresUserRepository_SetAvatarURL(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "ana@example.com")

	if err := repo.SetAvatarURL(ctx, user.ID, "https://cdn.example.com/avatars/a.png"); err != nil {
		t.Fatalf("set avatar url: %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fetched.AvatarURL != "https://cdn.example.com/avatars/a.png" {
		t.Fatalf("expected avatar url to persist, got %q", fetched.AvatarURL)
	}

	if err := repo.SetAvatarURL(ctx, uuid.NewString(), "https://cdn.example.com/x.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestPostgresFriendRepository_CreateAndPairUniqueness(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	sender := createTestUser(t, userRepo, "sender@example.com")
	receiver := createTestUser(t, userRepo, "receiver@example.com")

	repo := NewPostgresFriendRepository(testPool)

	request := models.FriendRequest{
		ID:        uuid.NewString(),
		Sender:    sender.ID,
		Receiver:  receiver.ID,
		Status:    models.FriendStatusPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	if err := repo.CreateRequest(ctx, request); err != nil {
		t.Fatalf("create friend request: %v", err)
	}

	duplicate := request
	duplicate.ID = uuid.NewString()
	if err := repo.CreateRequest(ctx, duplicate); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate friend request, got %v", err)
	}

	reversed := models.FriendRequest{
		ID:        uuid.NewString(),
		Sender:    receiver.ID,
		Receiver:  sender.ID,
		Status:    models.FriendStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateRequest(ctx, reversed); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on reverse-direction request, got %v", err)
	}

	orphan := models.FriendRequest{
		ID:        uuid.NewString(),
		Sender:    sender.ID,
		Receiver:  uuid.NewString(),
		Status:    models.FriendStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateRequest(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown receiver, got %v", err)
	}

	exists, err := repo.Exists(ctx, sender.ID, receiver.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected edge to exist")
	}

	exists, err = repo.Exists(ctx, receiver.ID, sender.ID)
	if err != nil {
		t.Fatalf("exists reversed: %v", err)
	}
	if !exists {
		t.Fatal("edge existence must be direction-independent")
	}

	exists, err = repo.Exists(ctx, sender.ID, uuid.NewString())
	if err != nil {
		t.Fatalf("exists unknown: %v", err)
	}
	if exists {
		t.Fatal("expected no edge for unrelated pair")
	}
}

func TestPostgresFriendRepository_FindAndUpdateStatus(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	viewer := createTestUser(t, userRepo, "viewer@example.com")
	friend := createTestUser(t, userRepo, "friend@example.com")
	stranger := createTestUser(t, userRepo, "stranger@example.com")

	repo := NewPostgresFriendRepository(testPool)

	older := models.FriendRequest{
		ID:        uuid.NewString(),
		Sender:    friend.ID,
		Receiver:  viewer.ID,
		Status:    models.FriendStatusPending,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	newer := models.FriendRequest{
		ID:        uuid.NewString(),
		Sender:    stranger.ID,
		Receiver:  viewer.ID,
		Status:    models.FriendStatusPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	for _, req := range []models.FriendRequest{older, newer} {
		if err := repo.CreateRequest(ctx, req); err != nil {
			t.Fatalf("create request %s: %v", req.ID, err)
		}
	}

	incoming, err := repo.Find(ctx, FriendRequestFilter{Receiver: viewer.ID, Status: models.FriendStatusPending})
	if err != nil {
		t.Fatalf("find incoming: %v", err)
	}
	if len(incoming) != 2 {
		t.Fatalf("expected 2 incoming requests, got %d", len(incoming))
	}
	if incoming[0].ID != newer.ID || incoming[1].ID != older.ID {
		t.Fatalf("expected newest-first ordering, got %+v", incoming)
	}

	participating, err := repo.Find(ctx, FriendRequestFilter{Participant: friend.ID})
	if err != nil {
		t.Fatalf("find participant: %v", err)
	}
	if len(participating) != 1 || participating[0].ID != older.ID {
		t.Fatalf("unexpected participant requests: %+v", participating)
	}

	if err := repo.UpdateStatus(ctx, older.ID, models.FriendStatusAccepted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	accepted, err := repo.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if accepted.Status != models.FriendStatusAccepted {
		t.Fatalf("expected accepted status, got %s", accepted.Status)
	}
	if accepted.RespondedAt == nil {
		t.Fatal("expected responded_at to be set after acceptance")
	}

	if err := repo.UpdateStatus(ctx, older.ID, models.FriendStatusRejected); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict responding twice, got %v", err)
	}

	if err := repo.UpdateStatus(ctx, uuid.NewString(), models.FriendStatusAccepted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown request, got %v", err)
	}

	if _, err := repo.Get(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown request id, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner@example.com")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		RefreshToken:    uuid.NewString(),
		AccessToken:     uuid.NewString(),
		UserID:          user.ID,
		AccessExpiresAt: time.Now().UTC().Add(15 * time.Minute),
		ExpiresAt:       expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.UserID != session.UserID || !timesClose(loaded.ExpiresAt, expires.UTC(), time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	byAccess, err := store.FindByAccessToken(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("find session by access token: %v", err)
	}
	if byAccess.RefreshToken != session.RefreshToken {
		t.Fatalf("unexpected session by access token: %+v", byAccess)
	}

	updated := session
	updated.AccessToken = uuid.NewString()
	updated.ExpiresAt = expires.Add(48 * time.Hour)
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("update session: %v", err)
	}

	loaded, err = store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session after update: %v", err)
	}
	if loaded.AccessToken != updated.AccessToken || !timesClose(loaded.ExpiresAt, updated.ExpiresAt.UTC(), time.Millisecond) {
		t.Fatalf("expected updated session, got %+v", loaded)
	}

	if _, err := store.FindByAccessToken(ctx, session.AccessToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected stale access token to be gone, got %v", err)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := store.Find(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE friend_requests, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  "password-hash",
		Name:      email,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
