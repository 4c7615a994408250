package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"classattend/internal/apperr"
)

const sessionColumns = `id, subject_id, subject_name, section_name, department, scheduled_time, duration_minutes, description, faculty_id, unique_code, status, created_at`

// PostgresRepository persists sessions in the classes table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes a new session row. A unique_code collision is reported as a
// conflict so the caller can retry with a fresh code.
func (r *PostgresRepository) Insert(ctx context.Context, s Session) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO classes (id, subject_id, subject_name, section_name, department, scheduled_time, duration_minutes, description, faculty_id, unique_code, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, s.ID, s.SubjectID, s.SubjectName, s.SectionName, s.Department, s.ScheduledTime, s.DurationMinutes, s.Description, s.FacultyID, s.UniqueCode, s.Status)
	if err := row.Scan(&s.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Session{}, apperr.Wrap(apperr.KindConflict, "session code already taken", err)
		}
		return Session{}, err
	}
	return s, nil
}

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.SubjectID, &s.SubjectName, &s.SectionName, &s.Department, &s.ScheduledTime, &s.DurationMinutes, &s.Description, &s.FacultyID, &s.UniqueCode, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ByID returns a session or nil when absent.
func (r *PostgresRepository) ByID(ctx context.Context, id string) (*Session, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM classes WHERE id = $1`, id))
}

// ByCode returns the session carrying the given human-entry code.
func (r *PostgresRepository) ByCode(ctx context.Context, code string) (*Session, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM classes WHERE unique_code = $1`, code))
}

// ActiveByFaculty returns the most recently scheduled active session owned by
// the faculty, or nil.
func (r *PostgresRepository) ActiveByFaculty(ctx context.Context, facultyID string) (*Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM classes
		WHERE faculty_id = $1 AND status = $2
		ORDER BY scheduled_time DESC
		LIMIT 1
	`, facultyID, StatusActive))
}

// ListByFaculty returns sessions newest first. An empty facultyID lists all
// sessions (admin scope).
func (r *PostgresRepository) ListByFaculty(ctx context.Context, facultyID string) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM classes`
	args := []any{}
	if facultyID != "" {
		query += ` WHERE faculty_id = $1`
		args = append(args, facultyID)
	}
	query += ` ORDER BY scheduled_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

// SetStatus updates the liveness state.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status Status) error {
	_, err := r.db.ExecContext(ctx, `UPDATE classes SET status = $2 WHERE id = $1`, id, status)
	return err
}

// Delete removes the session and all of its attendance rows in one
// transaction, attendance first to satisfy the foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE class_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Roster returns one row per student with the latest mark and a scan count.
func (r *PostgresRepository) Roster(ctx context.Context, sessionID string) ([]RosterRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (u.id) u.id, u.name, u.email, a.status, a.marked_at,
		       (SELECT COUNT(*) FROM attendance a2 WHERE a2.student_id = u.id AND a2.class_id = $1) AS mark_count
		FROM attendance a
		JOIN users u ON a.student_id = u.id
		WHERE a.class_id = $1
		ORDER BY u.id, a.marked_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RosterRow
	for rows.Next() {
		var row RosterRow
		if err := rows.Scan(&row.StudentID, &row.StudentName, &row.StudentEmail, &row.Status, &row.MarkedAt, &row.MarkCount); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
