package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"brickshelf/internal/models"
	"brickshelf/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMUserRepository_CreateAndGet(t *testing.T) {
	repo := repositories.NewGORMUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &models.User{UserName: "alice", Password: "$2a$10$hash", Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	got, err := repo.GetByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Empty(t, got.LoginHistory)

	_, err = repo.GetByUserName(ctx, "Alice")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMUserRepository_CreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{UserName: "alice", Password: "h", Email: "a@x.com"}))
	err := repo.Create(ctx, &models.User{UserName: "alice", Password: "h2", Email: "b@x.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("user_name = ?", "alice").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGORMUserRepository_RecordLogin(t *testing.T) {
	repo := repositories.NewGORMUserRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.User{UserName: "alice", Password: "h", Email: "a@x.com"}))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		user, err := repo.RecordLogin(ctx, "alice", models.LoginEntry{
			DateTime:  base.Add(time.Duration(i) * time.Minute),
			UserAgent: fmt.Sprintf("agent-%d", i),
		})
		require.NoError(t, err)
		assert.Len(t, user.LoginHistory, min(i, models.MaxLoginHistory))
		assert.Equal(t, fmt.Sprintf("agent-%d", i), user.LoginHistory[0].UserAgent)
	}

	stored, err := repo.GetByUserName(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stored.LoginHistory, models.MaxLoginHistory)
	assert.Equal(t, "agent-10", stored.LoginHistory[0].UserAgent)
	assert.Equal(t, "agent-3", stored.LoginHistory[models.MaxLoginHistory-1].UserAgent)
	assert.True(t, stored.LoginHistory[0].DateTime.Equal(base.Add(10*time.Minute)))
}

func TestGORMUserRepository_RecordLoginUnknownUser(t *testing.T) {
	repo := repositories.NewGORMUserRepository(newTestDB(t))

	_, err := repo.RecordLogin(context.Background(), "ghost", models.LoginEntry{UserAgent: "x"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMUserRepository_RecordLoginConcurrent(t *testing.T) {
	repo := repositories.NewGORMUserRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.User{UserName: "alice", Password: "h", Email: "a@x.com"}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.RecordLogin(ctx, "alice", models.LoginEntry{DateTime: time.Now(), UserAgent: fmt.Sprintf("agent-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := repo.GetByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, stored.LoginHistory, 8)
}
