package dependent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"guardhouse/internal/platform/database"
	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
)

const guardColumns = `id, supervisor_id, local_guard_id, name, phone, email, current_address, permanent_address,
	emergency_address, duty_type_id, duty_start_time, duty_end_time, working_location, work_experience, reference_by,
	profile_photo, status, termination_reason, created_at, updated_at`

// PostgresStore persists dependent aggregates across the guards,
// emergency_contacts and documents tables. Multi-statement writes expect the
// caller to provide a transaction through the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Dependent) error {
	q := database.Q(ctx, s.db)
	query := `
		INSERT INTO guards (
			supervisor_id, local_guard_id, name, phone, email, current_address, permanent_address,
			emergency_address, duty_type_id, duty_start_time, duty_end_time, working_location,
			work_experience, reference_by, profile_photo, status, termination_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`
	var dependentID int64
	err := q.QueryRowContext(ctx, query,
		int64(d.OwnerID),
		int64(d.Sequence),
		d.Name,
		d.Phone,
		database.NullString(d.Email),
		database.NullString(d.CurrentAddress),
		database.NullString(d.PermanentAddress),
		database.NullString(d.EmergencyAddress),
		int64(d.DutyTypeID),
		database.NullString(d.DutyStartTime),
		database.NullString(d.DutyEndTime),
		database.NullString(d.WorkingLocation),
		database.NullString(d.WorkExperience),
		database.NullString(d.ReferenceBy),
		database.NullString(d.ProfilePhoto),
		string(d.Status),
		database.NullString(d.TerminationReason),
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&dependentID)
	if err != nil {
		return fmt.Errorf("insert guard: %w", database.Classify(err))
	}
	d.ID = id.DependentID(dependentID)

	if err := insertContacts(ctx, q, d.ID, d.Contacts); err != nil {
		return err
	}
	return insertDocuments(ctx, q, d.ID, d.Documents)
}

func (s *PostgresStore) FindByID(ctx context.Context, dependentID id.DependentID) (*models.Dependent, error) {
	q := database.Q(ctx, s.db)
	d, err := scanGuard(q.QueryRowContext(ctx, `SELECT `+guardColumns+` FROM guards WHERE id = $1`, int64(dependentID)))
	if err != nil {
		return nil, fmt.Errorf("find guard %d: %w", dependentID, err)
	}
	return d, loadChildren(ctx, q, d)
}

func (s *PostgresStore) FindBySequence(ctx context.Context, ownerID id.OwnerID, seq id.Sequence) (*models.Dependent, error) {
	q := database.Q(ctx, s.db)
	d, err := scanGuard(q.QueryRowContext(ctx,
		`SELECT `+guardColumns+` FROM guards WHERE supervisor_id = $1 AND local_guard_id = $2`,
		int64(ownerID), int64(seq)))
	if err != nil {
		return nil, fmt.Errorf("find guard %d of supervisor %d: %w", seq, ownerID, err)
	}
	return d, loadChildren(ctx, q, d)
}

// Execute locks the guard row, validates, mutates and saves its own columns.
// Call it inside a unit of work so the lock lasts until commit.
func (s *PostgresStore) Execute(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, validate func(*models.Dependent) error, mutate func(*models.Dependent)) (*models.Dependent, error) {
	q := database.Q(ctx, s.db)
	d, err := scanGuard(q.QueryRowContext(ctx,
		`SELECT `+guardColumns+` FROM guards WHERE supervisor_id = $1 AND local_guard_id = $2 FOR UPDATE`,
		int64(ownerID), int64(seq)))
	if err != nil {
		return nil, fmt.Errorf("lock guard %d of supervisor %d: %w", seq, ownerID, err)
	}
	if err := loadChildren(ctx, q, d); err != nil {
		return nil, err
	}
	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)

	query := `
		UPDATE guards
		SET name = $2, phone = $3, email = $4, current_address = $5, permanent_address = $6,
			emergency_address = $7, duty_type_id = $8, duty_start_time = $9, duty_end_time = $10,
			working_location = $11, work_experience = $12, reference_by = $13, profile_photo = $14,
			status = $15, termination_reason = $16, updated_at = $17
		WHERE id = $1`
	_, err = q.ExecContext(ctx, query,
		int64(d.ID),
		d.Name,
		d.Phone,
		database.NullString(d.Email),
		database.NullString(d.CurrentAddress),
		database.NullString(d.PermanentAddress),
		database.NullString(d.EmergencyAddress),
		int64(d.DutyTypeID),
		database.NullString(d.DutyStartTime),
		database.NullString(d.DutyEndTime),
		database.NullString(d.WorkingLocation),
		database.NullString(d.WorkExperience),
		database.NullString(d.ReferenceBy),
		database.NullString(d.ProfilePhoto),
		string(d.Status),
		database.NullString(d.TerminationReason),
		d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update guard %d: %w", d.ID, database.Classify(err))
	}
	return d, nil
}

func (s *PostgresStore) ReplaceContacts(ctx context.Context, dependentID id.DependentID, contacts []models.EmergencyContact) ([]models.EmergencyContact, error) {
	q := database.Q(ctx, s.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE guard_id = $1`, int64(dependentID)); err != nil {
		return nil, fmt.Errorf("delete contacts of guard %d: %w", dependentID, database.Classify(err))
	}
	replaced := append([]models.EmergencyContact(nil), contacts...)
	if err := insertContacts(ctx, q, dependentID, replaced); err != nil {
		return nil, err
	}
	return replaced, nil
}

func (s *PostgresStore) AppendDocuments(ctx context.Context, dependentID id.DependentID, docs []models.Document) ([]models.Document, error) {
	added := append([]models.Document(nil), docs...)
	if err := insertDocuments(ctx, database.Q(ctx, s.db), dependentID, added); err != nil {
		return nil, err
	}
	return added, nil
}

// Delete locks the guard row, removes documents, then contacts, then the
// guard, and returns the removed documents so their stored files can be
// released. The lock makes a concurrent edit of the same guard finish first.
func (s *PostgresStore) Delete(ctx context.Context, dependentID id.DependentID) ([]models.Document, error) {
	q := database.Q(ctx, s.db)
	var locked int64
	err := q.QueryRowContext(ctx, `SELECT id FROM guards WHERE id = $1 FOR UPDATE`, int64(dependentID)).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock guard %d: %w", dependentID, database.Classify(err))
	}
	docs, err := queryDocuments(ctx, q, `WHERE guard_id = $1`, int64(dependentID))
	if err != nil {
		return nil, err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM documents WHERE guard_id = $1`, int64(dependentID)); err != nil {
		return nil, fmt.Errorf("delete documents of guard %d: %w", dependentID, database.Classify(err))
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE guard_id = $1`, int64(dependentID)); err != nil {
		return nil, fmt.Errorf("delete contacts of guard %d: %w", dependentID, database.Classify(err))
	}
	res, err := q.ExecContext(ctx, `DELETE FROM guards WHERE id = $1`, int64(dependentID))
	if err != nil {
		return nil, fmt.Errorf("delete guard %d: %w", dependentID, database.Classify(err))
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, sentinel.ErrNotFound
	}
	return docs, nil
}

// DeleteByOwner removes every guard of ownerID, children first, in three
// batched statements.
func (s *PostgresStore) DeleteByOwner(ctx context.Context, ownerID id.OwnerID) ([]models.Document, error) {
	q := database.Q(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT id FROM guards WHERE supervisor_id = $1 FOR UPDATE`, int64(ownerID))
	if err != nil {
		return nil, fmt.Errorf("lock guards of supervisor %d: %w", ownerID, database.Classify(err))
	}
	var ids []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan guard id: %w", err)
		}
		ids = append(ids, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guard ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	batch := pq.Array(ids)
	docs, err := queryDocuments(ctx, q, `WHERE guard_id = ANY($1::bigint[])`, batch)
	if err != nil {
		return nil, err
	}
	for _, stmt := range []string{
		`DELETE FROM documents WHERE guard_id = ANY($1::bigint[])`,
		`DELETE FROM emergency_contacts WHERE guard_id = ANY($1::bigint[])`,
		`DELETE FROM guards WHERE id = ANY($1::bigint[])`,
	} {
		if _, err := q.ExecContext(ctx, stmt, batch); err != nil {
			return nil, fmt.Errorf("purge guards of supervisor %d: %w", ownerID, database.Classify(err))
		}
	}
	return docs, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.OwnerID, search string) ([]*models.Dependent, error) {
	query := `SELECT ` + guardColumns + ` FROM guards WHERE supervisor_id = $1`
	args := []any{int64(ownerID)}
	if search != "" {
		query += ` AND name ILIKE $2`
		args = append(args, database.ContainsPattern(search))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return s.list(ctx, query, args...)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.Dependent, error) {
	return s.list(ctx, `SELECT `+guardColumns+` FROM guards ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (s *PostgresStore) CountActiveByOwner(ctx context.Context, ownerID id.OwnerID) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM guards WHERE supervisor_id = $1 AND status <> 'Terminated'`, int64(ownerID))
}

func (s *PostgresStore) CountByDutyType(ctx context.Context, dutyTypeID id.DutyTypeID) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM guards WHERE duty_type_id = $1`, int64(dutyTypeID))
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM guards`)
}

func (s *PostgresStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := database.Q(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count guards: %w", database.Classify(err))
	}
	return n, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Dependent, error) {
	rows, err := database.Q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list guards: %w", database.Classify(err))
	}
	defer rows.Close()

	var out []*models.Dependent
	for rows.Next() {
		d, err := scanGuard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guard: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guards: %w", err)
	}
	return out, nil
}

func insertContacts(ctx context.Context, q database.Querier, dependentID id.DependentID, contacts []models.EmergencyContact) error {
	for i := range contacts {
		var contactID int64
		err := q.QueryRowContext(ctx,
			`INSERT INTO emergency_contacts (guard_id, name, phone) VALUES ($1, $2, $3) RETURNING id`,
			int64(dependentID), contacts[i].Name, contacts[i].Phone,
		).Scan(&contactID)
		if err != nil {
			return fmt.Errorf("insert contact for guard %d: %w", dependentID, database.Classify(err))
		}
		contacts[i].ID = id.ContactID(contactID)
		contacts[i].DependentID = dependentID
	}
	return nil
}

func insertDocuments(ctx context.Context, q database.Querier, dependentID id.DependentID, docs []models.Document) error {
	for i := range docs {
		var docID int64
		err := q.QueryRowContext(ctx,
			`INSERT INTO documents (guard_id, file_path, original_name, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			int64(dependentID), docs[i].Reference, docs[i].OriginalName, docs[i].CreatedAt,
		).Scan(&docID)
		if err != nil {
			return fmt.Errorf("insert document for guard %d: %w", dependentID, database.Classify(err))
		}
		docs[i].ID = id.DocumentID(docID)
		docs[i].DependentID = dependentID
	}
	return nil
}

func loadChildren(ctx context.Context, q database.Querier, d *models.Dependent) error {
	rows, err := q.QueryContext(ctx, `SELECT id, name, phone FROM emergency_contacts WHERE guard_id = $1 ORDER BY id`, int64(d.ID))
	if err != nil {
		return fmt.Errorf("load contacts of guard %d: %w", d.ID, database.Classify(err))
	}
	defer rows.Close()
	d.Contacts = nil
	for rows.Next() {
		var (
			c         models.EmergencyContact
			contactID int64
		)
		if err := rows.Scan(&contactID, &c.Name, &c.Phone); err != nil {
			return fmt.Errorf("scan contact: %w", err)
		}
		c.ID = id.ContactID(contactID)
		c.DependentID = d.ID
		d.Contacts = append(d.Contacts, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate contacts: %w", err)
	}

	d.Documents, err = queryDocuments(ctx, q, `WHERE guard_id = $1`, int64(d.ID))
	return err
}

func queryDocuments(ctx context.Context, q database.Querier, where string, arg any) ([]models.Document, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, guard_id, file_path, original_name, created_at FROM documents `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", database.Classify(err))
	}
	defer rows.Close()
	var docs []models.Document
	for rows.Next() {
		var (
			doc          models.Document
			docID, depID int64
		)
		if err := rows.Scan(&docID, &depID, &doc.Reference, &doc.OriginalName, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.ID = id.DocumentID(docID)
		doc.DependentID = id.DependentID(depID)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGuard(row scanner) (*models.Dependent, error) {
	var (
		d                                 models.Dependent
		dependentID, ownerID, seq, dutyID int64
		status                            string
		email, current, permanent         sql.NullString
		emergency                         sql.NullString
		start, end, location, experience  sql.NullString
		referenceBy, photo, reason        sql.NullString
	)
	err := row.Scan(
		&dependentID, &ownerID, &seq, &d.Name, &d.Phone, &email, &current, &permanent,
		&emergency, &dutyID, &start, &end, &location, &experience, &referenceBy,
		&photo, &status, &reason, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, database.Classify(err)
	}
	d.ID = id.DependentID(dependentID)
	d.OwnerID = id.OwnerID(ownerID)
	d.Sequence = id.Sequence(seq)
	d.DutyTypeID = id.DutyTypeID(dutyID)
	d.Status = models.Status(status)
	d.Email = email.String
	d.CurrentAddress = current.String
	d.PermanentAddress = permanent.String
	d.EmergencyAddress = emergency.String
	d.DutyStartTime = start.String
	d.DutyEndTime = end.String
	d.WorkingLocation = location.String
	d.WorkExperience = experience.String
	d.ReferenceBy = referenceBy.String
	d.ProfilePhoto = photo.String
	d.TerminationReason = reason.String
	return &d, nil
}
