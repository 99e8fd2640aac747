package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brickshelf/internal/logger"
	"brickshelf/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 200

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GORMCatalogRepository is a GORM implementation of CatalogRepository.
type GORMCatalogRepository struct {
	db *gorm.DB
}

// NewGORMCatalogRepository creates a new instance of GORMCatalogRepository.
func NewGORMCatalogRepository(db *gorm.DB) *GORMCatalogRepository {
	return &GORMCatalogRepository{
		db: db,
	}
}

// GetAllSets retrieves every set with its theme, in store order.
func (r *GORMCatalogRepository) GetAllSets(ctx context.Context) ([]models.Set, error) {
	var sets []models.Set
	if err := r.db.WithContext(ctx).Joins("Theme").Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("failed to get all sets: %w", err)
	}
	return sets, nil
}

// GetSetByNum retrieves a single set by its set number.
func (r *GORMCatalogRepository) GetSetByNum(ctx context.Context, setNum string) (*models.Set, error) {
	var set models.Set
	if err := r.db.WithContext(ctx).Joins("Theme").Where("sets.set_num = ?", setNum).Take(&set).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("set %s: %w", setNum, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get set %s: %w", setNum, err)
	}
	return &set, nil
}

// GetSetsByTheme inner-joins themes and filters on the joined theme name,
// case-insensitively. LIKE wildcards in theme are matched literally.
func (r *GORMCatalogRepository) GetSetsByTheme(ctx context.Context, theme string) ([]models.Set, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(theme)) + "%"

	cond := `LOWER("Theme"."name") LIKE ? ESCAPE '\'`
	if r.db.Dialector.Name() == "postgres" {
		cond = `"Theme"."name" ILIKE ? ESCAPE '\'`
	}

	var sets []models.Set
	err := r.db.WithContext(ctx).
		InnerJoins("Theme").
		Where(cond, pattern).
		Find(&sets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get sets by theme %q: %w", theme, err)
	}
	return sets, nil
}

// GetAllThemes retrieves every theme ordered by ID.
func (r *GORMCatalogRepository) GetAllThemes(ctx context.Context) ([]models.Theme, error) {
	var themes []models.Theme
	if err := r.db.WithContext(ctx).Order("id").Find(&themes).Error; err != nil {
		return nil, fmt.Errorf("failed to get all themes: %w", err)
	}
	return themes, nil
}

// CreateSet inserts one set row. A joined Theme on the input is ignored.
func (r *GORMCatalogRepository) CreateSet(ctx context.Context, set *models.Set) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(set).Error; err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("set_num", set.SetNum).Msg("failed to create set")
		return fmt.Errorf("failed to create set: %w", classifyDBError(r.db, err))
	}
	return nil
}

// UpdateSet applies the non-nil fields of patch to the set.
func (r *GORMCatalogRepository) UpdateSet(ctx context.Context, setNum string, patch models.SetPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		// nothing to write, but a missing set is still reported
		_, err := r.GetSetByNum(ctx, setNum)
		return err
	}

	res := r.db.WithContext(ctx).Model(&models.Set{}).Where("set_num = ?", setNum).Updates(cols)
	if res.Error != nil {
		logger.FromContext(ctx).Error().Err(res.Error).Str("set_num", setNum).Msg("failed to update set")
		return fmt.Errorf("failed to update set: %w", classifyDBError(r.db, res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set %s: %w", setNum, ErrNotFound)
	}
	return nil
}

// DeleteSet deletes a set by its set number.
func (r *GORMCatalogRepository) DeleteSet(ctx context.Context, setNum string) error {
	res := r.db.WithContext(ctx).Where("set_num = ?", setNum).Delete(&models.Set{})
	if res.Error != nil {
		logger.FromContext(ctx).Error().Err(res.Error).Str("set_num", setNum).Msg("failed to delete set")
		return fmt.Errorf("failed to delete set: %w", classifyDBError(r.db, res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set %s: %w", setNum, ErrNotFound)
	}
	return nil
}

// Import inserts themes then sets in one transaction. Themes carrying an
// ID keep it; themes with ID 0 are numbered by the store after them. Any
// failure rolls back the whole import.
func (r *GORMCatalogRepository) Import(ctx context.Context, themes []models.Theme, sets []models.Set) error {
	numbered, unnumbered := lo.FilterReject(themes, func(t models.Theme, _ int) bool { return t.ID > 0 })

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(numbered) > 0 {
			if err := tx.CreateInBatches(numbered, importBatchSize).Error; err != nil {
				return fmt.Errorf("failed to import themes: %w", classifyDBError(tx, err))
			}
			// explicit ids leave the serial sequence behind
			if tx.Dialector.Name() == "postgres" {
				if err := tx.Exec(`SELECT setval(pg_get_serial_sequence('themes', 'id'), (SELECT MAX(id) FROM themes))`).Error; err != nil {
					return fmt.Errorf("failed to advance themes sequence: %w", err)
				}
			}
		}
		if len(unnumbered) > 0 {
			if err := tx.CreateInBatches(unnumbered, importBatchSize).Error; err != nil {
				return fmt.Errorf("failed to import themes: %w", classifyDBError(tx, err))
			}
		}
		if len(sets) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(sets, importBatchSize).Error; err != nil {
				return fmt.Errorf("failed to import sets: %w", classifyDBError(tx, err))
			}
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Int("themes", len(themes)).Int("sets", len(sets)).Msg("catalog import rolled back")
		return err
	}
	return nil
}
