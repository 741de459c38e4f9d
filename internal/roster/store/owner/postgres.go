package owner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guardhouse/internal/platform/database"
	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
)

const ownerColumns = `id, name, email, phone, player_id, device_type, status, termination_reason, created_at, updated_at`

// PostgresStore persists owners in the employees table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, o *models.Owner) error {
	query := `
		INSERT INTO employees (name, email, phone, player_id, device_type, status, termination_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var ownerID int64
	err := database.Q(ctx, s.db).QueryRowContext(ctx, query,
		o.Name,
		o.Email,
		o.Phone,
		database.NullString(o.PushAddress),
		database.NullString(o.DeviceType),
		string(o.Status),
		database.NullString(o.TerminationReason),
		o.CreatedAt,
		o.UpdatedAt,
	).Scan(&ownerID)
	if err != nil {
		return fmt.Errorf("insert owner: %w", database.Classify(err))
	}
	o.ID = id.OwnerID(ownerID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	row := database.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM employees WHERE id = $1`, int64(ownerID))
	o, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("find owner %d: %w", ownerID, err)
	}
	return o, nil
}

// FindByIDForShare reads the owner under a share lock, so a concurrent
// status change waits until the caller's unit of work ends.
func (s *PostgresStore) FindByIDForShare(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	row := database.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM employees WHERE id = $1 FOR SHARE`, int64(ownerID))
	o, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("share-lock owner %d: %w", ownerID, err)
	}
	return o, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Owner, error) {
	rows, err := database.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+ownerColumns+` FROM employees ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", database.Classify(err))
	}
	defer rows.Close()

	var owners []*models.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := database.Q(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count owners: %w", database.Classify(err))
	}
	return n, nil
}

func (s *PostgresStore) update(ctx context.Context, o *models.Owner) error {
	query := `
		UPDATE employees
		SET name = $2, email = $3, phone = $4, player_id = $5, device_type = $6,
			status = $7, termination_reason = $8, updated_at = $9
		WHERE id = $1`
	res, err := database.Q(ctx, s.db).ExecContext(ctx, query,
		int64(o.ID),
		o.Name,
		o.Email,
		o.Phone,
		database.NullString(o.PushAddress),
		database.NullString(o.DeviceType),
		string(o.Status),
		database.NullString(o.TerminationReason),
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update owner %d: %w", o.ID, database.Classify(err))
	}
	return requireRow(res)
}

// Execute locks the owner row, validates, mutates and saves it. Call it inside
// a unit of work so the lock lasts until commit.
func (s *PostgresStore) Execute(ctx context.Context, ownerID id.OwnerID, validate func(*models.Owner) error, mutate func(*models.Owner)) (*models.Owner, error) {
	row := database.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM employees WHERE id = $1 FOR UPDATE`, int64(ownerID))
	o, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("lock owner %d: %w", ownerID, err)
	}
	if err := validate(o); err != nil {
		return nil, err
	}
	mutate(o)
	if err := s.update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID id.OwnerID) error {
	res, err := database.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, int64(ownerID))
	if err != nil {
		return fmt.Errorf("delete owner %d: %w", ownerID, database.Classify(err))
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOwner(row scanner) (*models.Owner, error) {
	var (
		o                            models.Owner
		ownerID                      int64
		status                       string
		playerID, deviceType, reason sql.NullString
	)
	err := row.Scan(&ownerID, &o.Name, &o.Email, &o.Phone, &playerID, &deviceType, &status, &reason, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, database.Classify(err)
	}
	o.ID = id.OwnerID(ownerID)
	o.Status = models.Status(status)
	o.PushAddress = playerID.String
	o.DeviceType = deviceType.String
	o.TerminationReason = reason.String
	return &o, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
