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

// EventPublisher receives catalog changes after they are committed.
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event models.CatalogEvent) error
}

// CatalogService handles business logic related to themes and sets.
type CatalogService struct {
	repo   repositories.CatalogRepository
	events EventPublisher
	now    func() time.Time
}

// NewCatalogService creates a new CatalogService. events may be nil.
func NewCatalogService(repo repositories.CatalogRepository, events EventPublisher) *CatalogService {
	return &CatalogService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// GetAllSets retrieves every set with its theme.
func (s *CatalogService) GetAllSets(ctx context.Context) ([]models.Set, error) {
	sets, err := s.repo.GetAllSets(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "get all sets", Err: err}
	}
	return sets, nil
}

// GetSetByNum retrieves a single set by its set number.
func (s *CatalogService) GetSetByNum(ctx context.Context, setNum string) (*models.Set, error) {
	set, err := s.repo.GetSetByNum(ctx, setNum)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSetNotFound, setNum)
		}
		return nil, &PersistenceError{Op: "get set", Err: err}
	}
	return set, nil
}

// GetSetsByTheme retrieves the sets whose theme name contains theme,
// ignoring case. No match is ErrSetNotFound, not an empty slice.
func (s *CatalogService) GetSetsByTheme(ctx context.Context, theme string) ([]models.Set, error) {
	sets, err := s.repo.GetSetsByTheme(ctx, theme)
	if err != nil {
		return nil, &PersistenceError{Op: "get sets by theme", Err: err}
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: theme %q", ErrSetNotFound, theme)
	}
	return sets, nil
}

// GetAllThemes retrieves every theme.
func (s *CatalogService) GetAllThemes(ctx context.Context) ([]models.Theme, error) {
	themes, err := s.repo.GetAllThemes(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "get all themes", Err: err}
	}
	return themes, nil
}

// AddSet validates and inserts a set.
func (s *CatalogService) AddSet(ctx context.Context, set *models.Set) error {
	if err := ValidateStruct(set); err != nil {
		return err
	}
	if err := s.repo.CreateSet(ctx, set); err != nil {
		return writeError("create set", set.SetNum, err)
	}
	s.publish(ctx, models.SetCreated, set.SetNum)
	return nil
}

// EditSet applies a partial update to an existing set.
func (s *CatalogService) EditSet(ctx context.Context, setNum string, patch models.SetPatch) error {
	if err := ValidateStruct(patch); err != nil {
		return err
	}
	if err := s.repo.UpdateSet(ctx, setNum, patch); err != nil {
		return writeError("update set", setNum, err)
	}
	s.publish(ctx, models.SetUpdated, setNum)
	return nil
}

// DeleteSet removes a set.
func (s *CatalogService) DeleteSet(ctx context.Context, setNum string) error {
	if err := s.repo.DeleteSet(ctx, setNum); err != nil {
		return writeError("delete set", setNum, err)
	}
	s.publish(ctx, models.SetDeleted, setNum)
	return nil
}

// Import validates every set and loads themes and sets in one transaction.
func (s *CatalogService) Import(ctx context.Context, data models.CatalogImport) error {
	for i := range data.Sets {
		if err := ValidateStruct(&data.Sets[i]); err != nil {
			return &ValidationError{Message: fmt.Sprintf("set %d (%s): %s", i, data.Sets[i].SetNum, err)}
		}
	}
	if err := s.repo.Import(ctx, data.Themes, data.Sets); err != nil {
		return writeError("import catalog", "", err)
	}
	logger.FromContext(ctx).Info().Int("themes", len(data.Themes)).Int("sets", len(data.Sets)).Msg("catalog imported")
	return nil
}

func writeError(op, setNum string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSetNotFound, setNum)
	}
	var ce *repositories.ConstraintError
	if errors.As(err, &ce) {
		return &ValidationError{Message: ce.Message}
	}
	return &PersistenceError{Op: op, Err: err}
}

// publish sends a change event. The write has already committed, so a
// failure is only logged.
func (s *CatalogService) publish(ctx context.Context, typ models.CatalogEventType, setNum string) {
	if s.events == nil {
		return
	}
	event := models.CatalogEvent{Type: typ, SetNum: setNum, At: s.now().UTC()}
	if err := s.events.PublishCatalogEvent(ctx, event); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("event", string(typ)).Str("set_num", setNum).Msg("failed to publish catalog event")
	}
}
