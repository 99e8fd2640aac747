package repositories

import (
	"context"

	"brickshelf/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create stores a new user. A taken user name yields a *ConstraintError
	// wrapping ErrDuplicateKey.
	Create(ctx context.Context, user *models.User) error
	// GetByUserName returns ErrNotFound when no user has the exact name.
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// RecordLogin atomically puts entry at the head of the user's login
	// history, keeping at most models.MaxLoginHistory entries, and returns
	// the user as stored after the write.
	RecordLogin(ctx context.Context, userName string, entry models.LoginEntry) (*models.User, error)
}
