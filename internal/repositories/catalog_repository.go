package repositories

import (
	"context"

	"brickshelf/internal/models"
)

// CatalogRepository defines the interface for theme and set data access.
// Sets are always returned with their Theme joined.
type CatalogRepository interface {
	GetAllSets(ctx context.Context) ([]models.Set, error)
	GetSetByNum(ctx context.Context, setNum string) (*models.Set, error)
	// GetSetsByTheme matches theme names containing the substring,
	// ignoring case. An empty result is not an error at this layer.
	GetSetsByTheme(ctx context.Context, theme string) ([]models.Set, error)
	GetAllThemes(ctx context.Context) ([]models.Theme, error)
	CreateSet(ctx context.Context, set *models.Set) error
	// UpdateSet and DeleteSet return ErrNotFound when no row has setNum.
	UpdateSet(ctx context.Context, setNum string, patch models.SetPatch) error
	DeleteSet(ctx context.Context, setNum string) error
	// Import inserts all themes and then all sets in a single transaction.
	Import(ctx context.Context, themes []models.Theme, sets []models.Set) error
}
