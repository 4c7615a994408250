package subject

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"classattend/internal/apperr"
)

// PostgresRepository persists subjects.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Insert writes a new subject; a duplicate code is reported as a conflict.
func (r *PostgresRepository) Insert(ctx context.Context, s Subject) (Subject, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO subjects (id, name, code, faculty_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, s.ID, s.Name, s.Code, s.FacultyID)
	if err := row.Scan(&s.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Subject{}, apperr.Wrap(apperr.KindConflict, "subject code already exists", err)
		}
		return Subject{}, err
	}
	return s, nil
}

// ByID returns a subject or nil when absent.
func (r *PostgresRepository) ByID(ctx context.Context, id string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, code, faculty_id, created_at FROM subjects WHERE id = $1`, id)
	var s Subject
	if err := row.Scan(&s.ID, &s.Name, &s.Code, &s.FacultyID, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListByFaculty returns subjects ordered by name. An empty facultyID lists
// all subjects (admin scope).
func (r *PostgresRepository) ListByFaculty(ctx context.Context, facultyID string) ([]Subject, error) {
	query := `SELECT id, name, code, faculty_id, created_at FROM subjects`
	args := []any{}
	if facultyID != "" {
		query += ` WHERE faculty_id = $1`
		args = append(args, facultyID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.FacultyID, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Update renames or recodes a subject; a duplicate code is a conflict.
func (r *PostgresRepository) Update(ctx context.Context, id, name, code string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subjects SET name = $2, code = $3 WHERE id = $1`, id, name, code)
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, "subject code already exists", err)
	}
	return err
}

// SessionCount returns how many sessions reference the subject.
func (r *PostgresRepository) SessionCount(ctx context.Context, subjectID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM classes WHERE subject_id = $1`, subjectID).Scan(&n)
	return n, err
}

// Delete removes a subject row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	return err
}
