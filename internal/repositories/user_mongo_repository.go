package repositories

import (
	"context"
	"errors"
	"fmt"

	"brickshelf/internal/logger"
	"brickshelf/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoUserRepository stores users as documents in a MongoDB collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a repository over coll. The collection is
// expected to carry the unique userName index (see database.EnsureUserIndexes).
func NewMongoUserRepository(coll *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{coll: coll}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	// $push needs an array, never null
	if user.LoginHistory == nil {
		user.LoginHistory = models.LoginHistory{}
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("user_name", user.UserName).Msg("failed to insert user")
		return fmt.Errorf("failed to create user: %w", classifyMongoError(err))
	}
	return nil
}

func (r *MongoUserRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.D{{Key: "userName", Value: userName}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userName, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user %s: %w", userName, err)
	}
	return &user, nil
}

// RecordLogin pushes entry to the front of loginHistory and slices the array
// to models.MaxLoginHistory in a single atomic update.
func (r *MongoUserRepository) RecordLogin(ctx context.Context, userName string, entry models.LoginEntry) (*models.User, error) {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "loginHistory", Value: bson.D{
		{Key: "$each", Value: bson.A{entry}},
		{Key: "$position", Value: 0},
		{Key: "$slice", Value: models.MaxLoginHistory},
	}}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "userName", Value: userName}}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userName, ErrNotFound)
		}
		logger.FromContext(ctx).Error().Err(err).Str("user_name", userName).Msg("failed to record login")
		return nil, fmt.Errorf("failed to record login for %s: %w", userName, err)
	}
	return &user, nil
}
