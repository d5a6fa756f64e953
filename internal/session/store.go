// Package session issues bearer tokens and keeps, per user, the set of
// sessions that are still allowed to use them. A token is accepted only while
// its record is present in the owner's set, so logout is effective on the very
// next request even though the token itself is still well signed.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
	ErrUserBanned   = errors.New("user banned")
)

// Record is one open session of a user.
type Record struct {
	JTI       string    `json:"jti"`
	Device    string    `json:"device"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Backend persists the per-user session sets.
type Backend interface {
	Append(ctx context.Context, userID string, rec Record) error
	Has(ctx context.Context, userID, jti string) (bool, error)
	Remove(ctx context.Context, userID, jti string) error
	Clear(ctx context.Context, userID string) error
	List(ctx context.Context, userID string) ([]Record, error)
}

// UserLookup is satisfied by user.Repository.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Store struct {
	backend Backend
	users   UserLookup
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(backend Backend, users UserLookup, secret string, ttl time.Duration) *Store {
	return &Store{backend: backend, users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a new token for userID and appends it to the user's sessions.
// There is no cap on concurrent sessions.
func (s *Store) Issue(ctx context.Context, userID, device string) (string, error) {
	now := s.now().UTC().Truncate(time.Second)
	rec := Record{
		JTI:       uuid.NewString(),
		Device:    device,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.JTI,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(rec.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := s.backend.Append(ctx, userID, rec); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *Store) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Validate resolves token to the identity of its owner. The role is read from
// the user record so a role change applies without reissuing tokens.
func (s *Store) Validate(ctx context.Context, token string) (user.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return user.Identity{}, err
	}
	ok, err := s.backend.Has(ctx, claims.UserID, claims.ID)
	if err != nil {
		return user.Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	if !ok {
		return user.Identity{}, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Identity{}, ErrInvalidToken
		}
		return user.Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	if u.Banned {
		return user.Identity{}, ErrUserBanned
	}
	return user.Identity{UserID: u.ID, Role: u.Role}, nil
}

// Revoke removes exactly the session token belongs to. Expired tokens can
// still be revoked.
func (s *Store) Revoke(ctx context.Context, userID, token string) error {
	claims, err := s.owned(userID, token)
	if err != nil {
		return err
	}
	return s.backend.Remove(ctx, userID, claims.ID)
}

// owned parses token without expiry checks and requires it to belong to
// userID.
func (s *Store) owned(userID, token string) (*Claims, error) {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.UserID != userID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	return s.backend.Clear(ctx, userID)
}

// Rotate issues a fresh token for the device and then revokes oldToken. If
// issuing fails the old session stays usable.
func (s *Store) Rotate(ctx context.Context, userID, oldToken, device string) (string, error) {
	old, err := s.owned(userID, oldToken)
	if err != nil {
		return "", err
	}
	token, err := s.Issue(ctx, userID, device)
	if err != nil {
		return "", err
	}
	if err := s.backend.Remove(ctx, userID, old.ID); err != nil {
		return "", fmt.Errorf("revoke rotated session: %w", err)
	}
	return token, nil
}

func (s *Store) Sessions(ctx context.Context, userID string) ([]Record, error) {
	return s.backend.List(ctx, userID)
}

// TTL is the lifetime of every issued token.
func (s *Store) TTL() time.Duration { return s.ttl }
