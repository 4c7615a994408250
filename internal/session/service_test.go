package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/auth"
	"classattend/internal/subject"
)

type fakeRepo struct {
	sessions       map[string]Session
	insertAttempts int
	conflictFirstN int
	statusChanges  int
	deleted        []string
	roster         []RosterRow
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: map[string]Session{}}
}

func (r *fakeRepo) Insert(_ context.Context, s Session) (Session, error) {
	r.insertAttempts++
	if r.insertAttempts <= r.conflictFirstN {
		return Session{}, apperr.Conflict("session code already taken")
	}
	for _, existing := range r.sessions {
		if existing.UniqueCode == s.UniqueCode {
			return Session{}, apperr.Conflict("session code already taken")
		}
	}
	s.CreatedAt = time.Now()
	r.sessions[s.ID] = s
	return s, nil
}

func (r *fakeRepo) ByID(_ context.Context, id string) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeRepo) ByCode(_ context.Context, code string) (*Session, error) {
	for _, s := range r.sessions {
		if s.UniqueCode == code {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ActiveByFaculty(_ context.Context, facultyID string) (*Session, error) {
	var best *Session
	for _, s := range r.sessions {
		if s.FacultyID != facultyID || !s.Active() {
			continue
		}
		s := s
		if best == nil || s.ScheduledTime.After(best.ScheduledTime) {
			best = &s
		}
	}
	return best, nil
}

func (r *fakeRepo) ListByFaculty(_ context.Context, facultyID string) ([]Session, error) {
	var res []Session
	for _, s := range r.sessions {
		if facultyID == "" || s.FacultyID == facultyID {
			res = append(res, s)
		}
	}
	return res, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id string, status Status) error {
	s := r.sessions[id]
	s.Status = status
	r.sessions[id] = s
	r.statusChanges++
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) Roster(_ context.Context, _ string) ([]RosterRow, error) {
	return r.roster, nil
}

type fakeSubjects struct {
	subjects map[string]subject.Subject
}

func (f *fakeSubjects) ByID(_ context.Context, id string) (*subject.Subject, error) {
	s, ok := f.subjects[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type fakeLedger struct {
	enrolled map[string]bool
	classes  []Session
}

func (f *fakeLedger) EnsureEnrolled(_ context.Context, studentID, subjectName string) error {
	if f.enrolled == nil {
		f.enrolled = map[string]bool{}
	}
	f.enrolled[studentID+"/"+subjectName] = true
	return nil
}

func (f *fakeLedger) SessionsForStudent(_ context.Context, _ string) ([]Session, error) {
	return f.classes, nil
}

type fakeRecorder struct {
	appended [][2]string
	err      error
}

func (f *fakeRecorder) Append(_ context.Context, sessionID, studentID string) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, [2]string{sessionID, studentID})
	return nil
}

var (
	facultyID = auth.Identity{ID: "fac-1", Role: auth.RoleFaculty}
	otherFac  = auth.Identity{ID: "fac-2", Role: auth.RoleFaculty}
	adminID   = auth.Identity{ID: "adm-1", Role: auth.RoleAdmin}
)

func newTestService(repo *fakeRepo) (*Service, *fakeLedger, *fakeRecorder) {
	subjects := &fakeSubjects{subjects: map[string]subject.Subject{
		"subj-1": {ID: "subj-1", Name: "CS101", Code: "CS101", FacultyID: "fac-1"},
	}}
	ledger := &fakeLedger{}
	recorder := &fakeRecorder{}
	return NewService(repo, subjects, ledger, recorder, 6), ledger, recorder
}

func validInput() CreateInput {
	return CreateInput{
		SubjectID:       "subj-1",
		SectionName:     "A",
		Department:      "CS",
		ScheduledTime:   time.Now().Add(time.Hour),
		DurationMinutes: 60,
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing subject", func(in *CreateInput) { in.SubjectID = "" }},
		{"missing section", func(in *CreateInput) { in.SectionName = " " }},
		{"missing department", func(in *CreateInput) { in.Department = "" }},
		{"zero time", func(in *CreateInput) { in.ScheduledTime = time.Time{} }},
		{"duration too short", func(in *CreateInput) { in.DurationMinutes = 14 }},
		{"duration too long", func(in *CreateInput) { in.DurationMinutes = 181 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, facultyID, in)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("kind = %v, want validation (err %v)", apperr.KindOf(err), err)
			}
		})
	}
}

func TestCreateDurationBounds(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo())
	ctx := context.Background()
	for _, minutes := range []int{15, 180} {
		in := validInput()
		in.DurationMinutes = minutes
		if _, err := svc.Create(ctx, facultyID, in); err != nil {
			t.Fatalf("duration %d should be accepted: %v", minutes, err)
		}
	}
}

func TestCreateSubjectOwnership(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo())
	ctx := context.Background()

	in := validInput()
	in.SubjectID = "missing"
	if _, err := svc.Create(ctx, facultyID, in); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing subject: kind = %v, want not found", apperr.KindOf(err))
	}

	// A subject owned by someone else is indistinguishable from absent.
	if _, err := svc.Create(ctx, otherFac, validInput()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("foreign subject: kind = %v, want not found", apperr.KindOf(err))
	}

	// Admin may create sessions against any subject.
	if _, err := svc.Create(ctx, adminID, validInput()); err != nil {
		t.Fatalf("admin create: %v", err)
	}
}

func TestCreateSuccess(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	sess, err := svc.Create(context.Background(), facultyID, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != StatusActive {
		t.Fatalf("status = %q, want active", sess.Status)
	}
	if sess.FacultyID != "fac-1" {
		t.Fatalf("faculty = %q", sess.FacultyID)
	}
	if sess.SubjectName != "CS101" {
		t.Fatalf("subject name not denormalized: %q", sess.SubjectName)
	}
	if len(sess.UniqueCode) != 6 {
		t.Fatalf("code %q, want 6 chars", sess.UniqueCode)
	}
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	repo := newFakeRepo()
	repo.conflictFirstN = 2
	svc, _, _ := newTestService(repo)

	if _, err := svc.Create(context.Background(), facultyID, validInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if repo.insertAttempts != 3 {
		t.Fatalf("insert attempts = %d, want 3", repo.insertAttempts)
	}
}

func TestCreateGivesUpAfterRetries(t *testing.T) {
	repo := newFakeRepo()
	repo.conflictFirstN = 100
	svc, _, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), facultyID, validInput())
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func seedSession(repo *fakeRepo, id string, status Status) Session {
	s := Session{
		ID: id, SubjectID: "subj-1", SubjectName: "CS101", SectionName: "A",
		Department: "CS", ScheduledTime: time.Now(), DurationMinutes: 60,
		FacultyID: "fac-1", UniqueCode: strings.ToUpper("CODE" + id), Status: status,
	}
	repo.sessions[id] = s
	return s
}

func TestDeactivate(t *testing.T) {
	repo := newFakeRepo()
	seedSession(repo, "s1", StatusActive)
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	if err := svc.Deactivate(ctx, facultyID, "missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing: kind = %v, want not found", apperr.KindOf(err))
	}
	if err := svc.Deactivate(ctx, otherFac, "s1"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign: kind = %v, want forbidden", apperr.KindOf(err))
	}
	if err := svc.Deactivate(ctx, facultyID, "s1"); err != nil {
		t.Fatalf("owner deactivate: %v", err)
	}
	if repo.sessions["s1"].Status != StatusInactive {
		t.Fatal("session still active")
	}
	// Second deactivation is a no-op, not an error.
	if err := svc.Deactivate(ctx, facultyID, "s1"); err != nil {
		t.Fatalf("repeat deactivate: %v", err)
	}
	if repo.statusChanges != 1 {
		t.Fatalf("status changes = %d, want 1", repo.statusChanges)
	}
}

func TestDeactivateAsAdmin(t *testing.T) {
	repo := newFakeRepo()
	seedSession(repo, "s1", StatusActive)
	svc, _, _ := newTestService(repo)

	if err := svc.Deactivate(context.Background(), adminID, "s1"); err != nil {
		t.Fatalf("admin deactivate: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	seedSession(repo, "s1", StatusActive)
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	if err := svc.Delete(ctx, otherFac, "s1"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign delete: kind = %v, want forbidden", apperr.KindOf(err))
	}
	if err := svc.Delete(ctx, facultyID, "s1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "s1" {
		t.Fatalf("deleted = %v", repo.deleted)
	}
	if err := svc.Delete(ctx, facultyID, "s1"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("repeat delete: kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestJoinByCode(t *testing.T) {
	repo := newFakeRepo()
	active := seedSession(repo, "s1", StatusActive)
	seedSession(repo, "s2", StatusInactive)
	svc, ledger, recorder := newTestService(repo)
	ledger.classes = []Session{active}
	ctx := context.Background()

	if _, _, err := svc.JoinByCode(ctx, "stu-1", "  "); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("blank code: kind = %v, want validation", apperr.KindOf(err))
	}
	if _, _, err := svc.JoinByCode(ctx, "stu-1", "NOPE"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown code: kind = %v, want not found", apperr.KindOf(err))
	}
	if _, _, err := svc.JoinByCode(ctx, "stu-1", "CODES2"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("inactive code: kind = %v, want not found", apperr.KindOf(err))
	}
	if len(recorder.appended) != 0 {
		t.Fatal("no attendance should be recorded on failures")
	}

	joined, classes, err := svc.JoinByCode(ctx, "stu-1", "codes1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.ID != "s1" {
		t.Fatalf("joined %q", joined.ID)
	}
	if !ledger.enrolled["stu-1/CS101"] {
		t.Fatal("student not enrolled")
	}
	if len(recorder.appended) != 1 || recorder.appended[0] != [2]string{"s1", "stu-1"} {
		t.Fatalf("appended = %v", recorder.appended)
	}
	if len(classes) != 1 {
		t.Fatalf("class list = %v", classes)
	}
}

func TestJoinByCodeRecorderFailure(t *testing.T) {
	repo := newFakeRepo()
	seedSession(repo, "s1", StatusActive)
	svc, _, recorder := newTestService(repo)
	recorder.err = errors.New("insert failed")

	if _, _, err := svc.JoinByCode(context.Background(), "stu-1", "CODES1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRosterVisibility(t *testing.T) {
	repo := newFakeRepo()
	seedSession(repo, "s1", StatusActive)
	repo.roster = []RosterRow{{StudentID: "stu-1", StudentName: "Ada"}}
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	// Not-owned reads look absent.
	if _, _, err := svc.Roster(ctx, otherFac, "s1"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("foreign roster: kind = %v, want not found", apperr.KindOf(err))
	}
	sess, rows, err := svc.Roster(ctx, facultyID, "s1")
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if sess.ID != "s1" || len(rows) != 1 {
		t.Fatalf("sess %v rows %v", sess, rows)
	}
}

func TestListScoping(t *testing.T) {
	repo := newFakeRepo()
	seedSession(repo, "s1", StatusActive)
	other := seedSession(repo, "s2", StatusActive)
	other.FacultyID = "fac-2"
	repo.sessions["s2"] = other
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	mine, err := svc.List(ctx, facultyID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "s1" {
		t.Fatalf("faculty list = %v", mine)
	}
	all, err := svc.List(ctx, adminID)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin list = %v", all)
	}
}
