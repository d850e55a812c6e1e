package repositories

import (
	"context"

	"github.com/linkup/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListExcept(ctx context.Context, excludeIDs []string) ([]models.User, error)
	Update(ctx context.Context, user models.User) error
}
