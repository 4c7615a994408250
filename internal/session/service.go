package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/auth"
	"classattend/internal/subject"
)

const (
	minDurationMinutes = 15
	maxDurationMinutes = 180
	codeRetries        = 5
)

// Repository is the storage the registry needs.
type Repository interface {
	Insert(ctx context.Context, s Session) (Session, error)
	ByID(ctx context.Context, id string) (*Session, error)
	ByCode(ctx context.Context, code string) (*Session, error)
	ActiveByFaculty(ctx context.Context, facultyID string) (*Session, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]Session, error)
	SetStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, sessionID string) ([]RosterRow, error)
}

// SubjectDirectory resolves subjects for session creation.
type SubjectDirectory interface {
	ByID(ctx context.Context, id string) (*subject.Subject, error)
}

// Ledger is the enrollment side of joining a session.
type Ledger interface {
	EnsureEnrolled(ctx context.Context, studentID, subjectName string) error
	SessionsForStudent(ctx context.Context, studentID string) ([]Session, error)
}

// Recorder appends an attendance event for a joined session.
type Recorder interface {
	Append(ctx context.Context, sessionID, studentID string) error
}

// CreateInput is the session creation request.
type CreateInput struct {
	SubjectID       string
	SectionName     string
	Department      string
	ScheduledTime   time.Time
	DurationMinutes int
	Description     string
}

// Service coordinates the session lifecycle.
type Service struct {
	repo     Repository
	subjects SubjectDirectory
	ledger   Ledger
	recorder Recorder
	codeLen  int
}

// NewService creates a service.
func NewService(repo Repository, subjects SubjectDirectory, ledger Ledger, recorder Recorder, codeLen int) *Service {
	if codeLen <= 0 {
		codeLen = 6
	}
	return &Service{repo: repo, subjects: subjects, ledger: ledger, recorder: recorder, codeLen: codeLen}
}

// Create validates the request, resolves the subject, mints a unique human
// code and inserts the session as active.
func (s *Service) Create(ctx context.Context, identity auth.Identity, in CreateInput) (Session, error) {
	in.SectionName = strings.TrimSpace(in.SectionName)
	in.Department = strings.TrimSpace(in.Department)
	if in.SubjectID == "" || in.SectionName == "" || in.Department == "" || in.ScheduledTime.IsZero() {
		return Session{}, apperr.Validation("subject_id, section_name, department and scheduled_time are required")
	}
	if in.DurationMinutes < minDurationMinutes || in.DurationMinutes > maxDurationMinutes {
		return Session{}, apperr.Newf(apperr.KindValidation,
			"duration_minutes must be between %d and %d", minDurationMinutes, maxDurationMinutes)
	}

	subj, err := s.subjects.ByID(ctx, in.SubjectID)
	if err != nil {
		return Session{}, err
	}
	if subj == nil || !identity.CanActOn(subj.FacultyID) {
		return Session{}, apperr.NotFound("subject not found")
	}

	sess := Session{
		ID:              uuid.NewString(),
		SubjectID:       subj.ID,
		SubjectName:     subj.Name,
		SectionName:     in.SectionName,
		Department:      in.Department,
		ScheduledTime:   in.ScheduledTime,
		DurationMinutes: in.DurationMinutes,
		Description:     in.Description,
		FacultyID:       identity.ID,
		Status:          StatusActive,
	}

	// Retry on code collision until unique.
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := NewCode(s.codeLen)
		if err != nil {
			return Session{}, err
		}
		sess.UniqueCode = code
		created, err := s.repo.Insert(ctx, sess)
		if err == nil {
			return created, nil
		}
		if !apperr.IsKind(err, apperr.KindConflict) {
			return Session{}, err
		}
	}
	return Session{}, apperr.Conflict("could not allocate a unique session code")
}

// List returns sessions owned by the caller, newest first; admins see all.
func (s *Service) List(ctx context.Context, identity auth.Identity) ([]Session, error) {
	owner := identity.ID
	if identity.Role == auth.RoleAdmin {
		owner = ""
	}
	return s.repo.ListByFaculty(ctx, owner)
}

// Active returns the caller's most recently scheduled active session, or nil.
func (s *Service) Active(ctx context.Context, identity auth.Identity) (*Session, error) {
	return s.repo.ActiveByFaculty(ctx, identity.ID)
}

// owned resolves a session and checks ownership. Absent sessions are not
// found; existing sessions owned by someone else are forbidden.
func (s *Service) owned(ctx context.Context, identity auth.Identity, id string) (*Session, error) {
	sess, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.NotFound("session not found")
	}
	if !identity.CanActOn(sess.FacultyID) {
		return nil, apperr.Forbidden("access denied")
	}
	return sess, nil
}

// Get returns a session owned by the caller.
func (s *Service) Get(ctx context.Context, identity auth.Identity, id string) (*Session, error) {
	return s.owned(ctx, identity, id)
}

// Deactivate stops a session from accepting attendance. Idempotent.
func (s *Service) Deactivate(ctx context.Context, identity auth.Identity, id string) error {
	sess, err := s.owned(ctx, identity, id)
	if err != nil {
		return err
	}
	if sess.Status == StatusInactive {
		return nil
	}
	return s.repo.SetStatus(ctx, id, StatusInactive)
}

// Delete removes the session and its attendance rows. Irreversible.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if _, err := s.owned(ctx, identity, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Roster returns a session header plus per-student attendance rows. Reads of
// sessions the caller does not own are reported as not found.
func (s *Service) Roster(ctx context.Context, identity auth.Identity, id string) (*Session, []RosterRow, error) {
	sess, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil || !identity.CanActOn(sess.FacultyID) {
		return nil, nil, apperr.NotFound("session not found")
	}
	rows, err := s.repo.Roster(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sess, rows, nil
}

// JoinByCode resolves an active session by its human-entered code, enrolls
// the student and appends an attendance event, then returns the joined
// session with the student's full class list. Equivalent to a manual, non-QR
// attendance submission.
func (s *Service) JoinByCode(ctx context.Context, studentID, code string) (*Session, []Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil, apperr.Validation("unique_code is required")
	}
	sess, err := s.repo.ByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil || !sess.Active() {
		return nil, nil, apperr.NotFound("invalid class code or class is not active")
	}
	if err := s.ledger.EnsureEnrolled(ctx, studentID, sess.SubjectName); err != nil {
		return nil, nil, err
	}
	if err := s.recorder.Append(ctx, sess.ID, studentID); err != nil {
		return nil, nil, err
	}
	classes, err := s.ledger.SessionsForStudent(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	return sess, classes, nil
}

// StudentSessions returns the class list for an enrolled student.
func (s *Service) StudentSessions(ctx context.Context, studentID string) ([]Session, error) {
	return s.ledger.SessionsForStudent(ctx, studentID)
}
