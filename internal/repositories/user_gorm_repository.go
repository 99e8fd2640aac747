package repositories

import (
	"context"
	"errors"
	"fmt"

	"brickshelf/internal/logger"
	"brickshelf/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.LoginHistory == nil {
		user.LoginHistory = models.LoginHistory{}
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("user_name", user.UserName).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", classifyDBError(r.db, err))
	}
	return nil
}

// GetByUserName retrieves a user by their user name from the database.
func (r *GORMUserRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "user_name = ?", userName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userName, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by user name %s: %w", userName, err)
	}
	return &user, nil
}

// RecordLogin reads and rewrites the login history inside one transaction,
// holding a row lock where the dialect supports it.
func (r *GORMUserRepository) RecordLogin(ctx context.Context, userName string, entry models.LoginEntry) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "user_name = ?", userName).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", userName, ErrNotFound)
			}
			return err
		}

		user.LoginHistory = user.LoginHistory.Record(entry)
		return tx.Model(&user).Select("LoginHistory").Updates(&user).Error
	})
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("user_name", userName).Msg("failed to record login")
		return nil, fmt.Errorf("failed to record login for %s: %w", userName, err)
	}
	return &user, nil
}
