package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brickshelf/internal/logger"
	"brickshelf/internal/models"
	"brickshelf/internal/repositories"
)

// AuthService handles registration and credential verification.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// RegisterUser hashes the password and stores a new user. Nothing is hashed
// or stored when the two passwords differ.
func (s *AuthService) RegisterUser(ctx context.Context, req models.RegisterRequest) error {
	if req.Password != req.Password2 {
		return ErrPasswordMismatch
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return &ValidationError{Message: err.Error()}
		}
		return &PersistenceError{Op: "hash password", Err: err}
	}

	user := &models.User{
		UserName:     req.UserName,
		Password:     hashed,
		Email:        req.Email,
		LoginHistory: models.LoginHistory{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateUserName, req.UserName)
		}
		return &PersistenceError{Op: "create user", Err: err}
	}

	logger.FromContext(ctx).Info().Str("user_name", user.UserName).Msg("user registered")
	return nil
}

// VerifyUser checks the credentials and, on a match, records the login.
// It returns the user as stored after the history write; a failed write
// fails the whole call.
func (s *AuthService) VerifyUser(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	log := logger.FromContext(ctx)

	user, err := s.userRepo.GetByUserName(ctx, req.UserName)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Error().Err(err).Str("user_name", req.UserName).Msg("user lookup failed")
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, req.UserName)
	}

	if err := s.hasher.Compare(user.Password, req.Password); err != nil {
		if errors.Is(err, ErrHashMismatch) {
			return nil, fmt.Errorf("%w for user: %s", ErrWrongPassword, req.UserName)
		}
		return nil, &PersistenceError{Op: "verify user", Err: err}
	}

	entry := models.LoginEntry{
		DateTime:  s.now().UTC(),
		UserAgent: req.UserAgent,
	}
	updated, err := s.userRepo.RecordLogin(ctx, user.UserName, entry)
	if err != nil {
		return nil, &PersistenceError{Op: "record login", Err: err}
	}

	log.Info().Str("user_name", updated.UserName).Int("history", len(updated.LoginHistory)).Msg("user verified")
	return updated, nil
}
