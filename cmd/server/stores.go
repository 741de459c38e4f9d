package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	dutytypeService "guardhouse/internal/dutytype/service"
	dutytypeStore "guardhouse/internal/dutytype/store"
	notificationService "guardhouse/internal/notification/service"
	notificationStore "guardhouse/internal/notification/store"
	"guardhouse/internal/outbox"
	"guardhouse/internal/platform/config"
	"guardhouse/internal/platform/database"
	rosterService "guardhouse/internal/roster/service"
	dependentStore "guardhouse/internal/roster/store/dependent"
	ownerStore "guardhouse/internal/roster/store/owner"
	"guardhouse/internal/sequence"
	"guardhouse/pkg/platform/tx"
)

// dependents also answers duty-type usage for the duty-type directory.
type dependents interface {
	rosterService.DependentStore
	dutytypeService.UsageCounter
}

// storeSet is everything the services persist through. The Postgres and
// memory backends are interchangeable behind it.
type storeSet struct {
	db         *sql.DB
	runner     tx.Runner
	allocator  sequence.Allocator
	owners     rosterService.OwnerStore
	dependents dependents
	dutyTypes  dutytypeService.Store
	events     notificationService.Store
	outbox     outbox.Store
}

func openStores(ctx context.Context, cfg config.Database, logger *zap.Logger) (*storeSet, error) {
	if cfg.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		return &storeSet{
			runner:     tx.NewMemoryRunner(),
			allocator:  sequence.NewInMemory(),
			owners:     ownerStore.NewInMemory(),
			dependents: dependentStore.NewInMemory(),
			dutyTypes:  dutytypeStore.NewInMemory(),
			events:     notificationStore.NewInMemory(),
			outbox:     outbox.NewInMemory(),
		}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("connected to postgres", zap.Int("max_open_conns", cfg.MaxOpenConns))
	return &storeSet{
		db: db,
		runner: tx.NewPostgresRunner(db,
			tx.WithTimeout(cfg.TxTimeout),
			tx.WithErrorMapper(database.Classify),
		),
		allocator:  sequence.NewPostgres(),
		owners:     ownerStore.NewPostgres(db),
		dependents: dependentStore.NewPostgres(db),
		dutyTypes:  dutytypeStore.NewPostgres(db),
		events:     notificationStore.NewPostgres(db),
		outbox:     outbox.NewPostgres(db),
	}, nil
}

func (s *storeSet) ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *storeSet) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
