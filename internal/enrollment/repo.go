package enrollment

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"classattend/internal/session"
)

// PostgresRepository persists enrollments in the student_subjects table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert ensures the membership row exists. The unique constraint on
// (student_id, subject_name) absorbs concurrent first-time submissions.
func (r *PostgresRepository) Upsert(ctx context.Context, e Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO student_subjects (id, student_id, subject_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, subject_name) DO NOTHING
	`, e.ID, e.StudentID, e.SubjectName)
	return err
}

// SessionsForStudent returns the sessions for every subject the student is
// enrolled in, newest first.
func (r *PostgresRepository) SessionsForStudent(ctx context.Context, studentID string) ([]session.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.subject_id, c.subject_name, c.section_name, c.department, c.scheduled_time, c.duration_minutes, c.description, c.faculty_id, c.unique_code, c.status, c.created_at
		FROM classes c
		JOIN student_subjects ss ON c.subject_name = ss.subject_name
		WHERE ss.student_id = $1
		ORDER BY c.scheduled_time DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []session.Session
	for rows.Next() {
		var s session.Session
		if err := rows.Scan(&s.ID, &s.SubjectID, &s.SubjectName, &s.SectionName, &s.Department, &s.ScheduledTime, &s.DurationMinutes, &s.Description, &s.FacultyID, &s.UniqueCode, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
