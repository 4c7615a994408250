package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository persists attendance events.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes a new event.
func (r *PostgresRepository) Insert(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.MarkedAt.IsZero() {
		evt.MarkedAt = time.Now().UTC()
	}
	if evt.Status == "" {
		evt.Status = StatusPresent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, class_id, student_id, status, marked_at, location, remarks)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, evt.ID, evt.SessionID, evt.StudentID, evt.Status, evt.MarkedAt, evt.Location, evt.Remarks)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// RecordOwner resolves the faculty owning the record's subject.
func (r *PostgresRepository) RecordOwner(ctx context.Context, recordID string) (string, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT s.faculty_id
		FROM attendance a
		JOIN classes c ON a.class_id = c.id
		JOIN subjects s ON c.subject_id = s.id
		WHERE a.id = $1
	`, recordID)
	var facultyID string
	if err := row.Scan(&facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return facultyID, true, nil
}

// Update edits status, location and remarks of a record.
func (r *PostgresRepository) Update(ctx context.Context, recordID string, in UpdateInput) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET status = $2, location = $3, remarks = $4
		WHERE id = $1
	`, recordID, in.Status, in.Location, in.Remarks)
	return err
}

// Delete removes a record.
func (r *PostgresRepository) Delete(ctx context.Context, recordID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, recordID)
	return err
}

// ListRecords returns events joined with student, subject and schedule
// context, filtered and newest first.
func (r *PostgresRepository) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	query := `
		SELECT a.id, a.class_id, a.student_id, a.status, a.marked_at, a.location, a.remarks, a.created_at,
		       u.name AS student_name, s.name AS subject_name, c.scheduled_time
		FROM attendance a
		JOIN users u ON a.student_id = u.id
		JOIN classes c ON a.class_id = c.id
		JOIN subjects s ON c.subject_id = s.id
		WHERE 1=1`
	args := []any{}
	if f.StartDate != nil {
		query += " AND c.scheduled_time::date >= $" + itoa(len(args)+1)
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		query += " AND c.scheduled_time::date <= $" + itoa(len(args)+1)
		args = append(args, *f.EndDate)
	}
	if f.SubjectID != "" {
		query += " AND c.subject_id = $" + itoa(len(args)+1)
		args = append(args, f.SubjectID)
	}
	if f.StudentID != "" {
		query += " AND a.student_id = $" + itoa(len(args)+1)
		args = append(args, f.StudentID)
	}
	if f.FacultyID != "" {
		query += " AND s.faculty_id = $" + itoa(len(args)+1)
		args = append(args, f.FacultyID)
	}
	query += " ORDER BY c.scheduled_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.MarkedAt, &rec.Location, &rec.Remarks, &rec.CreatedAt,
			&rec.StudentName, &rec.SubjectName, &rec.ScheduledTime); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// HistoryForStudent returns the student's own events with session context.
func (r *PostgresRepository) HistoryForStudent(ctx context.Context, studentID string, f HistoryFilter) ([]HistoryRow, error) {
	query := `
		SELECT a.id, a.class_id, a.student_id, a.status, a.marked_at, a.location, a.remarks, a.created_at,
		       c.subject_name, c.section_name, c.department, c.scheduled_time, u.name AS faculty_name
		FROM attendance a
		JOIN classes c ON a.class_id = c.id
		JOIN users u ON c.faculty_id = u.id
		WHERE a.student_id = $1`
	args := []any{studentID}
	if f.StartDate != nil {
		query += " AND c.scheduled_time::date >= $" + itoa(len(args)+1)
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		query += " AND c.scheduled_time::date <= $" + itoa(len(args)+1)
		args = append(args, *f.EndDate)
	}
	if f.SubjectName != "" {
		query += " AND c.subject_name = $" + itoa(len(args)+1)
		args = append(args, f.SubjectName)
	}
	query += " ORDER BY c.scheduled_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ID, &h.SessionID, &h.StudentID, &h.Status, &h.MarkedAt, &h.Location, &h.Remarks, &h.CreatedAt,
			&h.SubjectName, &h.SectionName, &h.Department, &h.ScheduledTime, &h.FacultyName); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }
