package cmd

import (
	"context"
	"errors"
	"time"

	"brickshelf/internal/config"
	"brickshelf/internal/database"
	"brickshelf/internal/handlers"
	"brickshelf/internal/logger"
	"brickshelf/internal/repositories"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const connectTimeout = 15 * time.Second

// stores holds the open connections behind the repositories.
type stores struct {
	catalogDB   *gorm.DB
	mongoClient *mongo.Client
	users       repositories.UserRepository
	catalog     *repositories.GORMCatalogRepository
}

// openStores connects the catalog database and, when selected, the document
// store concurrently, then brings both schemas up to date.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	st := &stores{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		db, err := database.OpenSQL(gctx, cfg)
		if err != nil {
			return err
		}
		st.catalogDB = db
		log.Info().Str("driver", cfg.DBDriver).Msg("catalog database connected")
		return nil
	})

	var usersColl *mongo.Collection
	if cfg.UsersDriver == config.DriverMongo {
		g.Go(func() error {
			client, coll, err := database.ConnectMongo(gctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return err
			}
			st.mongoClient, usersColl = client, coll
			log.Info().Str("database", cfg.MongoDatabase).Msg("user store connected")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		st.Close(log)
		return nil, err
	}

	if err := database.MigrateCatalog(ctx, st.catalogDB); err != nil {
		st.Close(log)
		return nil, err
	}

	switch cfg.UsersDriver {
	case config.DriverMongo:
		st.users = repositories.NewMongoUserRepository(usersColl)
	default:
		if err := database.MigrateUsers(ctx, st.catalogDB); err != nil {
			st.Close(log)
			return nil, err
		}
		st.users = repositories.NewGORMUserRepository(st.catalogDB)
	}
	st.catalog = repositories.NewGORMCatalogRepository(st.catalogDB)
	return st, nil
}

// healthChecks pings every open store.
func (s *stores) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"catalog": func(ctx context.Context) error {
			sqlDB, err := s.catalogDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if s.mongoClient != nil {
		checks["users"] = func(ctx context.Context) error {
			return s.mongoClient.Ping(ctx, readpref.Primary())
		}
	}
	return checks
}

// Close releases every open connection, logging failures.
func (s *stores) Close(log *logger.Logger) {
	var errs []error
	if s.catalogDB != nil {
		errs = append(errs, database.CloseSQL(s.catalogDB))
	}
	if s.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, s.mongoClient.Disconnect(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("error closing stores")
	}
}
