package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
)

// SessionRevoker clears every session of a user. Implemented by the session
// store; declared here so user does not import session.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

type Service struct {
	repo     Repository
	sessions SessionRevoker
}

func NewService(repo Repository, sessions SessionRevoker) *Service {
	return &Service{repo: repo, sessions: sessions}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// Signup creates an account. Role defaults to client.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	email := strings.TrimSpace(in.Email)
	if in.Name == "" || email == "" || in.Password == "" {
		return nil, apperr.E(apperr.ValidationFailed, "name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.E(apperr.ValidationFailed, "invalid email")
	}
	if len(in.Password) < 8 {
		return nil, apperr.E(apperr.ValidationFailed, "password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = RoleClient
	}
	if !role.Valid() {
		return nil, apperr.E(apperr.ValidationFailed, "invalid role")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash error", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, apperr.Wrap(apperr.Conflict, "email already registered", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "create error", err)
	}
	return u, nil
}

// Authenticate checks credentials. Unknown email and wrong password produce
// the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, apperr.E(apperr.ValidationFailed, "email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.E(apperr.Unauthenticated, "invalid email or password")
		}
		return nil, apperr.Wrap(apperr.Internal, "auth error", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, apperr.E(apperr.Unauthenticated, "invalid email or password")
	}
	if u.Banned {
		return nil, apperr.E(apperr.Forbidden, "account is banned")
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, "user not found", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "get error", err)
	}
	return u, nil
}

// SetRole changes the account type. Every open session is revoked so the new
// role applies from the next login.
func (s *Service) SetRole(ctx context.Context, id string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, apperr.E(apperr.ValidationFailed, "invalid role")
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return nil, s.updateErr(err)
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "revoke sessions", err)
	}
	return s.Get(ctx, id)
}

// SetBanned bans or unbans a user. Banning also revokes every session.
func (s *Service) SetBanned(ctx context.Context, id string, banned bool) (*User, error) {
	if err := s.repo.SetBanned(ctx, id, banned); err != nil {
		return nil, s.updateErr(err)
	}
	if banned {
		if err := s.sessions.RevokeAll(ctx, id); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "revoke sessions", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) updateErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, "user not found", err)
	}
	return apperr.Wrap(apperr.Internal, "update error", err)
}
