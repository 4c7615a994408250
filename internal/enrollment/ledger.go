// Package enrollment is the ledger of student-to-subject memberships.
// Membership is created the first time a student's attendance is accepted
// for a subject and is idempotent after that.
package enrollment

import (
	"context"
	"strings"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/session"
)

// Enrollment is one (student, subject name) membership pair.
type Enrollment struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	SubjectName string    `json:"subjectName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Repository is the storage the ledger needs.
type Repository interface {
	// Upsert inserts the membership unless it already exists. Implementations
	// must treat a duplicate as a successful no-op, not an error.
	Upsert(ctx context.Context, e Enrollment) error
	SessionsForStudent(ctx context.Context, studentID string) ([]session.Session, error)
}

// Service is the enrollment ledger.
type Service struct {
	repo Repository
}

// NewService creates a service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureEnrolled makes the membership exist. Safe to call concurrently for
// the same pair: the unique constraint on (student_id, subject_name)
// serializes the race and the duplicate insert is swallowed.
func (s *Service) EnsureEnrolled(ctx context.Context, studentID, subjectName string) error {
	subjectName = strings.TrimSpace(subjectName)
	if studentID == "" || subjectName == "" {
		return apperr.Validation("student and subject are required")
	}
	return s.repo.Upsert(ctx, Enrollment{
		StudentID:   studentID,
		SubjectName: subjectName,
	})
}

// SessionsForStudent returns all sessions whose subject name matches any of
// the student's enrollments, newest first.
func (s *Service) SessionsForStudent(ctx context.Context, studentID string) ([]session.Session, error) {
	if studentID == "" {
		return nil, apperr.Validation("student is required")
	}
	return s.repo.SessionsForStudent(ctx, studentID)
}
