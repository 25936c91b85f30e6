package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/domain"
	"github.com/spec-kit/salesflow/internal/events"
	"github.com/spec-kit/salesflow/internal/repository"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

// UserService administers local accounts. Every operation requires an admin actor.
type UserService struct {
	accounts   repository.AccountRepository
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	Accounts   repository.AccountRepository
	Hasher     auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CreateAccountInput describes a new account.
type CreateAccountInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     string
	StaffID  string
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	s := &UserService{
		accounts:   deps.Accounts,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
	if s.hasher == nil {
		s.hasher = auth.NewBcryptHasher(auth.DefaultBcryptCost)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Create registers a new account. Role defaults to sdr.
func (s *UserService) Create(ctx context.Context, actor domain.SessionUser, in CreateAccountInput) (*domain.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)
	missing := make([]string, 0, 3)
	if username == "" {
		missing = append(missing, "username")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("username, password and name are required",
			map[string]any{"missing": missing})
	}

	if err := validateLengths(username, in.Password, name, in.Email, in.StaffID); err != nil {
		return nil, err
	}

	role := domain.Role(strings.TrimSpace(in.Role))
	if role == "" {
		role = domain.RoleSDR
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role",
			map[string]any{"role": in.Role, "allowed": []domain.Role{domain.RoleAdmin, domain.RoleSDR}})
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Username:        username,
		PasswordHash:    hash,
		DisplayName:     name,
		Email:           optional(in.Email),
		Role:            role,
		ExternalStaffID: optional(in.StaffID),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateAccount(username)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("account created", zap.Int64("account_id", account.ID), zap.Int64("actor_id", actor.ID))
	s.publish(ctx, events.NewEvent(events.EventAccountCreated, actorOf(actor),
		events.AccountPayload{AccountID: account.ID, Username: account.Username, Role: string(account.Role)}))
	return account, nil
}

// List returns every account ordered by id.
func (s *UserService) List(ctx context.Context, actor domain.SessionUser) ([]domain.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

// Delete removes an account. Admins cannot delete themselves; deleting an
// unknown id succeeds without emitting an event. Sessions already issued to
// the account stay valid until they expire.
func (s *UserService) Delete(ctx context.Context, actor domain.SessionUser, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return apperrors.NewSelfDeletion()
	}

	target, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.accounts.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewInternalError(err)
	}

	s.logger.Info("account deleted", zap.Int64("account_id", id), zap.Int64("actor_id", actor.ID))
	s.publish(ctx, events.NewEvent(events.EventAccountDeleted, actorOf(actor),
		events.AccountPayload{AccountID: id, Username: target.Username, Role: string(target.Role)}))
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func requireAdmin(actor domain.SessionUser) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// validateLengths rejects values the users table or bcrypt cannot hold.
func validateLengths(username, password, name, email, staffID string) error {
	tooLong := map[string]any{}
	if utf8.RuneCountInString(username) > domain.MaxUsernameLength {
		tooLong["username"] = domain.MaxUsernameLength
	}
	if len(password) > domain.MaxPasswordBytes {
		tooLong["password"] = domain.MaxPasswordBytes
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		tooLong["name"] = domain.MaxNameLength
	}
	if utf8.RuneCountInString(strings.TrimSpace(email)) > domain.MaxEmailLength {
		tooLong["email"] = domain.MaxEmailLength
	}
	if utf8.RuneCountInString(strings.TrimSpace(staffID)) > domain.MaxStaffIDLength {
		tooLong["staffId"] = domain.MaxStaffIDLength
	}
	if len(tooLong) > 0 {
		return apperrors.NewValidationError("field too long", map[string]any{"max_length": tooLong})
	}
	return nil
}

func actorOf(u domain.SessionUser) events.Actor {
	return events.Actor{AccountID: u.ID, Username: u.Username}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
