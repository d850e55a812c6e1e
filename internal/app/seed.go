package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkup/backend/internal/db"
	"github.com/linkup/backend/internal/models"
	"github.com/linkup/backend/internal/repositories"
)

const (
	defaultFakeUserCount = 25
	// Every generated account shares this password for local testing.
	fakeUserPassword = "password123"
)

// seedFakeUsers inserts generated user accounts for local development.
func seedFakeUsers(ctx context.Context, pool db.Pool, args []string) error {
	count := defaultFakeUserCount
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			return fmt.Errorf("invalid fake user count %q", args[0])
		}
		count = parsed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(fakeUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	repo := repositories.NewPostgresUserRepository(pool)
	faker := gofakeit.New(0)

	created := 0
	for created < count {
		now := time.Now().UTC()
		user := models.User{
			ID:        uuid.NewString(),
			Email:     faker.Email(),
			Password:  string(hashed),
			Name:      faker.Name(),
			Bio:       faker.Sentence(8),
			Location:  fmt.Sprintf("%s, %s", faker.City(), faker.Country()),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				// Generated email collided with an existing row; roll again.
				continue
			}
			return fmt.Errorf("insert fake user: %w", err)
		}
		created++
	}

	slog.New(slog.NewJSONHandler(os.Stdout, nil)).Info("seeded fake users", "count", created, "password", fakeUserPassword)
	return nil
}
