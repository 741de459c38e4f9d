package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guardhouse/internal/dutytype/models"
	"guardhouse/internal/platform/database"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, dt *models.DutyType) error {
	var dutyTypeID int64
	err := database.Q(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO duty_types (name, created_at) VALUES ($1, $2) RETURNING id`,
		dt.Name, dt.CreatedAt,
	).Scan(&dutyTypeID)
	if err != nil {
		return fmt.Errorf("insert duty type: %w", database.Classify(err))
	}
	dt.ID = id.DutyTypeID(dutyTypeID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, dutyTypeID id.DutyTypeID) (*models.DutyType, error) {
	var dt models.DutyType
	var rawID int64
	err := database.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM duty_types WHERE id = $1`, int64(dutyTypeID),
	).Scan(&rawID, &dt.Name, &dt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find duty type: %w", database.Classify(err))
	}
	dt.ID = id.DutyTypeID(rawID)
	return &dt, nil
}

// Exists takes a share lock on the row when called inside a transaction, so a
// concurrent delete waits until the referencing write commits.
func (s *PostgresStore) Exists(ctx context.Context, dutyTypeID id.DutyTypeID) (bool, error) {
	var one int
	err := database.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM duty_types WHERE id = $1 FOR SHARE`, int64(dutyTypeID),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check duty type: %w", database.Classify(err))
	}
	return true, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.DutyType, error) {
	rows, err := database.Q(ctx, s.db).QueryContext(ctx,
		`SELECT id, name, created_at FROM duty_types ORDER BY LOWER(name)`)
	if err != nil {
		return nil, fmt.Errorf("list duty types: %w", database.Classify(err))
	}
	defer rows.Close()

	out := []*models.DutyType{}
	for rows.Next() {
		var dt models.DutyType
		var rawID int64
		if err := rows.Scan(&rawID, &dt.Name, &dt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan duty type: %w", err)
		}
		dt.ID = id.DutyTypeID(rawID)
		out = append(out, &dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duty types: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, dutyTypeID id.DutyTypeID) error {
	res, err := database.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM duty_types WHERE id = $1`, int64(dutyTypeID))
	if err != nil {
		return fmt.Errorf("delete duty type: %w", database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
