// Package attendance records and reports attendance events. Events are
// append-only; a repeated scan appends another row.
package attendance

import (
	"context"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/auth"
	"classattend/internal/qrtoken"
	"classattend/internal/session"
)

// Status of a single attendance event. A scan always records present; only a
// privileged edit may change it afterwards.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Valid reports whether the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	default:
		return false
	}
}

// Event is one recorded attendance row.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	StudentID string    `json:"studentId"`
	Status    Status    `json:"status"`
	MarkedAt  time.Time `json:"markedAt"`
	Location  string    `json:"location"`
	Remarks   string    `json:"remarks"`
	CreatedAt time.Time `json:"createdAt"`
}

// Record is an event joined with reporting context.
type Record struct {
	Event
	StudentName   string    `json:"studentName"`
	SubjectName   string    `json:"subjectName"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

// HistoryRow is an event in a student's own history view.
type HistoryRow struct {
	Event
	SubjectName   string    `json:"subjectName"`
	SectionName   string    `json:"sectionName"`
	Department    string    `json:"department"`
	ScheduledTime time.Time `json:"scheduledTime"`
	FacultyName   string    `json:"facultyName"`
}

// Receipt is returned to the student after a successful mark.
type Receipt struct {
	SubjectName   string    `json:"subjectName"`
	SectionName   string    `json:"sectionName"`
	Department    string    `json:"department"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

// RecordFilter narrows the records listing. FacultyID scopes faculty callers
// to their own subjects; empty means unscoped (admin).
type RecordFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	SubjectID string
	StudentID string
	FacultyID string
}

// HistoryFilter narrows a student's own history.
type HistoryFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	SubjectName string
}

// UpdateInput is a privileged edit of an existing record.
type UpdateInput struct {
	Status   Status
	Location string
	Remarks  string
}

// Terminal outcomes of the mark state machine.
var (
	ErrSessionNotFound = apperr.NotFound("invalid class or class is not active")
	ErrSessionInactive = apperr.NotFound("class is not active")
)

// Repository is the storage the recorder needs.
type Repository interface {
	Insert(ctx context.Context, evt Event) (Event, error)
	// RecordOwner returns the faculty owning the record's subject, or found
	// false when the record is absent.
	RecordOwner(ctx context.Context, recordID string) (facultyID string, found bool, err error)
	Update(ctx context.Context, recordID string, in UpdateInput) error
	Delete(ctx context.Context, recordID string) error
	ListRecords(ctx context.Context, f RecordFilter) ([]Record, error)
	HistoryForStudent(ctx context.Context, studentID string, f HistoryFilter) ([]HistoryRow, error)
}

// SessionResolver looks up sessions for liveness checks.
type SessionResolver interface {
	ByID(ctx context.Context, id string) (*session.Session, error)
}

// Ledger makes the student's subject membership exist before recording.
type Ledger interface {
	EnsureEnrolled(ctx context.Context, studentID, subjectName string) error
}

// Service is the attendance recorder.
type Service struct {
	repo     Repository
	sessions SessionResolver
	ledger   Ledger
}

// NewService creates a service.
func NewService(repo Repository, sessions SessionResolver, ledger Ledger) *Service {
	return &Service{repo: repo, sessions: sessions, ledger: ledger}
}

// Mark runs the submission state machine: decode, resolve, liveness check,
// enroll, record. Steps before the insert are read-mostly and safe to retry.
func (s *Service) Mark(ctx context.Context, studentID, rawToken string) (Receipt, error) {
	payload, err := qrtoken.Decode(rawToken)
	if err != nil {
		return Receipt{}, err
	}
	sess, err := s.sessions.ByID(ctx, payload.SessionID)
	if err != nil {
		return Receipt{}, err
	}
	if sess == nil {
		return Receipt{}, ErrSessionNotFound
	}
	if !sess.Active() {
		return Receipt{}, ErrSessionInactive
	}
	if err := s.ledger.EnsureEnrolled(ctx, studentID, sess.SubjectName); err != nil {
		return Receipt{}, err
	}
	if err := s.Append(ctx, sess.ID, studentID); err != nil {
		return Receipt{}, err
	}
	return Receipt{
		SubjectName:   sess.SubjectName,
		SectionName:   sess.SectionName,
		Department:    sess.Department,
		ScheduledTime: sess.ScheduledTime,
	}, nil
}

// Append writes a present-now event for the session. Used by Mark and by
// code-based joins; intentionally no dedup against earlier events.
func (s *Service) Append(ctx context.Context, sessionID, studentID string) error {
	if sessionID == "" || studentID == "" {
		return apperr.Validation("session and student are required")
	}
	_, err := s.repo.Insert(ctx, Event{
		SessionID: sessionID,
		StudentID: studentID,
		Status:    StatusPresent,
		MarkedAt:  time.Now().UTC(),
	})
	return err
}

// Records lists attendance records for faculty or admin callers. Faculty are
// scoped to subjects they own.
func (s *Service) Records(ctx context.Context, identity auth.Identity, f RecordFilter) ([]Record, error) {
	if identity.Role == auth.RoleFaculty {
		f.FacultyID = identity.ID
	} else {
		f.FacultyID = ""
	}
	return s.repo.ListRecords(ctx, f)
}

// History returns the caller's own attendance rows.
func (s *Service) History(ctx context.Context, studentID string, f HistoryFilter) ([]HistoryRow, error) {
	if studentID == "" {
		return nil, apperr.Validation("student is required")
	}
	return s.repo.HistoryForStudent(ctx, studentID, f)
}

// editable checks that the record exists and the caller owns it (or is
// admin).
func (s *Service) editable(ctx context.Context, identity auth.Identity, recordID string) error {
	ownerID, found, err := s.repo.RecordOwner(ctx, recordID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("record not found")
	}
	if !identity.CanActOn(ownerID) {
		return apperr.Forbidden("access denied")
	}
	return nil
}

// UpdateRecord edits status, location and remarks of an existing record.
// Only the owning faculty or an admin may edit.
func (s *Service) UpdateRecord(ctx context.Context, identity auth.Identity, recordID string, in UpdateInput) error {
	if !in.Status.Valid() {
		return apperr.Validation("status must be present, absent or late")
	}
	if err := s.editable(ctx, identity, recordID); err != nil {
		return err
	}
	return s.repo.Update(ctx, recordID, in)
}

// DeleteRecord removes a record under the same ownership rule as UpdateRecord.
func (s *Service) DeleteRecord(ctx context.Context, identity auth.Identity, recordID string) error {
	if err := s.editable(ctx, identity, recordID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, recordID)
}
