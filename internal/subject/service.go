package subject

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/auth"
)

// Repository is the storage the service needs.
type Repository interface {
	Insert(ctx context.Context, s Subject) (Subject, error)
	ByID(ctx context.Context, id string) (*Subject, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]Subject, error)
	Update(ctx context.Context, id, name, code string) error
	SessionCount(ctx context.Context, subjectID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// Service applies ownership and uniqueness rules on top of the repository.
type Service struct {
	repo Repository
}

// NewService creates a service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new subject owned by the caller.
func (s *Service) Create(ctx context.Context, identity auth.Identity, name, code string) (Subject, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return Subject{}, apperr.Validation("name and code are required")
	}
	return s.repo.Insert(ctx, Subject{
		ID:        uuid.NewString(),
		Name:      name,
		Code:      code,
		FacultyID: identity.ID,
	})
}

// List returns the caller's subjects; admins see all.
func (s *Service) List(ctx context.Context, identity auth.Identity) ([]Subject, error) {
	owner := identity.ID
	if identity.Role == auth.RoleAdmin {
		owner = ""
	}
	return s.repo.ListByFaculty(ctx, owner)
}

// ByID resolves a subject visible to the caller. Absent and not-owned are
// both reported as not found.
func (s *Service) ByID(ctx context.Context, identity auth.Identity, id string) (*Subject, error) {
	subj, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subj == nil || !identity.CanActOn(subj.FacultyID) {
		return nil, apperr.NotFound("subject not found")
	}
	return subj, nil
}

// Update renames or recodes a subject owned by the caller.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id, name, code string) error {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return apperr.Validation("name and code are required")
	}
	if _, err := s.ByID(ctx, identity, id); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, name, code)
}

// Delete removes a subject owned by the caller unless a session still
// references it.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if _, err := s.ByID(ctx, identity, id); err != nil {
		return err
	}
	n, err := s.repo.SessionCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("subject is referenced by existing sessions")
	}
	return s.repo.Delete(ctx, id)
}
