package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finbridge/backoffice/internal/metrics"
	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/queue"
	"github.com/finbridge/backoffice/internal/repository"
)

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	Revive(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, includeAdmins bool, page model.Page) ([]*model.User, error)
	Update(ctx context.Context, id string, as repository.Assignments) (*model.User, error)
	SoftDelete(ctx context.Context, id, actorID, reason string) error
}

// Directory is the remote user-directory this service mirrors. All calls
// are idempotent on the remote side, so a failed request can simply be
// retried by the caller.
type Directory interface {
	CreateUser(ctx context.Context, email, firstName, lastName, role string) (sub string, err error)
	SetGroups(ctx context.Context, email string, add, remove []string) error
	Disable(ctx context.Context, email string) error
	Enable(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email string) error
	IsDisabled(ctx context.Context, email string) (bool, error)
}

// UserService enforces the root-admin policy: only the distinguished root
// identity may create, view, update, delete or disable admin-role users,
// and the root record itself is untouchable through this API.
type UserService struct {
	store     UserStore
	dir       Directory
	audit     AuditPublisher
	rootEmail string
	log       zerolog.Logger
}

func NewUserService(store UserStore, dir Directory, audit AuditPublisher, rootEmail string, log zerolog.Logger) *UserService {
	return &UserService{store: store, dir: dir, audit: audit, rootEmail: rootEmail, log: log}
}

// CreateUserInput is the validated payload for user creation.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// requireRootForAdmin rejects non-root actors touching admin-role records.
func (s *UserService) requireRootForAdmin(actor model.Identity, targetRole string) error {
	if targetRole == model.RoleAdmin && !actor.IsRoot(s.rootEmail) {
		return model.ErrForbidden
	}
	return nil
}

// Create provisions the account in the remote directory first, then
// mirrors it locally. If a soft-deleted mirror row exists for the email it
// is revived; an active row is a conflict.
func (s *UserService) Create(ctx context.Context, actor model.Identity, in CreateUserInput) (*model.User, error) {
	if err := s.requireRootForAdmin(actor, in.Role); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByEmail(ctx, in.Email)
	if err == nil && existing.Active() {
		return nil, model.ErrConflict
	}

	sub, err := s.dir.CreateUser(ctx, in.Email, in.FirstName, in.LastName, in.Role)
	if err != nil {
		s.log.Error().Err(err).Str("email", in.Email).Msg("directory create failed")
		return nil, fmt.Errorf("%w: %v", model.ErrDirectoryUnavailable, err)
	}

	u := &model.User{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      in.Role,
	}
	if sub != "" {
		u.DirectorySub = &sub
	}

	if existing != nil && !existing.Active() {
		u.ID = existing.ID
		err = s.store.Revive(ctx, u)
	} else {
		err = s.store.Create(ctx, u)
	}
	if err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("user", "create").Inc()
		return nil, err
	}
	metrics.RecordOpsTotal.WithLabelValues("user", "create").Inc()
	s.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user created")
	s.publish(ctx, queue.ActionCreated, u.ID, actor.ID)
	return u, nil
}

// Get returns an active user, enriched with the directory's disabled
// flag. Admin records are visible to the root identity only.
func (s *UserService) Get(ctx context.Context, actor model.Identity, id string) (*model.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireRootForAdmin(actor, u.Role); err != nil {
		return nil, err
	}
	u.Disabled = s.disabledState(ctx, u.Email)
	return u, nil
}

// List returns active users. Admin rows are only included when the root
// identity asks for them; for everyone else the request silently narrows
// to agents, matching the non-enumeration stance of the read path.
func (s *UserService) List(ctx context.Context, actor model.Identity, includeAdmins bool, page model.Page) ([]*model.User, error) {
	allowAdmins := includeAdmins && actor.IsRoot(s.rootEmail)
	users, err := s.store.List(ctx, allowAdmins, page.Normalize())
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Disabled = s.disabledState(ctx, u.Email)
	}
	return users, nil
}

// Update applies a sparse patch. Touching an admin record, or promoting
// anyone to admin, requires the root identity. A role change is synced to
// the directory's groups before the local write.
func (s *UserService) Update(ctx context.Context, actor model.Identity, id string, patch model.UserPatch) (*model.User, error) {
	as, err := repository.BuildUserUpdate(patch)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireRootForAdmin(actor, existing.Role); err != nil {
		return nil, err
	}
	if patch.Role != nil {
		if err := s.requireRootForAdmin(actor, *patch.Role); err != nil {
			return nil, err
		}
		if *patch.Role != existing.Role {
			if err := s.dir.SetGroups(ctx, existing.Email, []string{*patch.Role}, []string{existing.Role}); err != nil {
				s.log.Error().Err(err).Str("email", existing.Email).Msg("directory group sync failed")
				return nil, fmt.Errorf("%w: %v", model.ErrDirectoryUnavailable, err)
			}
		}
	}

	u, err := s.store.Update(ctx, id, as)
	if err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("user", "update").Inc()
		return nil, err
	}
	metrics.RecordOpsTotal.WithLabelValues("user", "update").Inc()
	s.publish(ctx, queue.ActionUpdated, id, actor.ID)
	return u, nil
}

// SoftDelete marks a user deleted locally and disables the directory
// account. The root record can never be deleted. If the directory call
// fails after the local commit, the error is surfaced; retrying converges
// because the local delete then reports ErrInvalidTransition while the
// disable is retried via SetDisabled.
func (s *UserService) SoftDelete(ctx context.Context, actor model.Identity, id, reason string) error {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireRootForAdmin(actor, existing.Role); err != nil {
		return err
	}
	if (model.Identity{Email: existing.Email}).IsRoot(s.rootEmail) {
		return model.ErrForbidden
	}
	if reason == "" {
		reason = "no reason provided"
	}

	if err := s.store.SoftDelete(ctx, id, actor.ID, reason); err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("user", "soft_delete").Inc()
		return err
	}
	metrics.RecordOpsTotal.WithLabelValues("user", "soft_delete").Inc()
	s.log.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user soft-deleted")
	s.publish(ctx, queue.ActionSoftDeleted, id, actor.ID)

	if err := s.dir.Disable(ctx, existing.Email); err != nil {
		s.log.Error().Err(err).Str("email", existing.Email).Msg("directory disable failed after local delete")
		return fmt.Errorf("%w: %v", model.ErrDirectoryUnavailable, err)
	}
	return nil
}

// SetDisabled flips the directory's enabled flag for a user. Admin targets
// require root; the root account itself cannot be disabled.
func (s *UserService) SetDisabled(ctx context.Context, actor model.Identity, email string, disabled bool) error {
	target, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.requireRootForAdmin(actor, target.Role); err != nil {
		return err
	}
	if (model.Identity{Email: target.Email}).IsRoot(s.rootEmail) {
		return model.ErrForbidden
	}

	if disabled {
		err = s.dir.Disable(ctx, target.Email)
	} else {
		err = s.dir.Enable(ctx, target.Email)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDirectoryUnavailable, err)
	}
	action := queue.ActionEnabled
	if disabled {
		action = queue.ActionDisabled
	}
	s.publish(ctx, action, target.ID, actor.ID)
	return nil
}

// ResetPassword triggers the directory's reset flow. Admin targets require
// root; the root account's password is managed outside this API.
func (s *UserService) ResetPassword(ctx context.Context, actor model.Identity, email string) error {
	target, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.requireRootForAdmin(actor, target.Role); err != nil {
		return err
	}
	if (model.Identity{Email: target.Email}).IsRoot(s.rootEmail) {
		return model.ErrForbidden
	}
	if err := s.dir.ResetPassword(ctx, target.Email); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDirectoryUnavailable, err)
	}
	s.log.Info().Str("email", target.Email).Str("actor_id", actor.ID).Msg("password reset initiated")
	return nil
}

// disabledState asks the directory whether the account is disabled. A
// directory failure reads as disabled, the safe answer for a record whose
// remote account may be gone.
func (s *UserService) disabledState(ctx context.Context, email string) bool {
	disabled, err := s.dir.IsDisabled(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("directory disabled check failed")
		return true
	}
	return disabled
}

func (s *UserService) publish(ctx context.Context, action, recordID, actorID string) {
	if s.audit == nil {
		return
	}
	ev := queue.NewAuditEvent("user", recordID, action, actorID)
	if err := s.audit.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("record_id", recordID).Msg("audit publish failed")
	}
}
