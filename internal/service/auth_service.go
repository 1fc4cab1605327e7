package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/token"
)

const bcryptCost = 10

var (
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so responses never leak which check failed.
	ErrInvalidCredentials = apperr.Unauthenticated("invalid credentials")
	// ErrEmailInUse is returned when registering an already taken email.
	ErrEmailInUse = apperr.Conflict("email already in use")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown to
	// the store, including tokens consumed by an earlier rotation or logout.
	ErrInvalidRefreshToken = apperr.Unauthenticated("invalid refresh token")
	// ErrRefreshTokenExpired is returned when a stored refresh token is past
	// its expiry; the record is purged as a side effect.
	ErrRefreshTokenExpired = apperr.Unauthenticated("refresh token expired")
	// ErrRefreshUserMissing is returned when a refresh token's owner no
	// longer exists.
	ErrRefreshUserMissing = apperr.Unauthenticated("user not found")
	// ErrUnknownLogoutToken is returned when logging out with a token string
	// absent from the store. Already-invalid, not a server error.
	ErrUnknownLogoutToken = apperr.InvalidInput("invalid or expired token")
)

// AuthService orchestrates the session lifecycle: registration, login,
// profile lookup, logout and refresh-token rotation.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token.Pair, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, oldToken string) (token.Pair, error)
}

type authService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	issuer *token.Issuer
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens repository.RefreshTokenRepository, issuer *token.Issuer) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
	}
}

// Register creates a new user with a hashed password. Token issuance is the
// composing handler's job. Email uniqueness is pre-checked, with the store's
// unique index as the backstop against concurrent registrations.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailInUse
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal(fmt.Errorf("check user existence: %w", err))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailInUse
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	return user, nil
}

// Login authenticates a user and issues an access/refresh pair.
func (s *authService) Login(ctx context.Context, email, password string) (token.Pair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return token.Pair{}, ErrInvalidCredentials
	}
	return s.issuer.Issue(ctx, user)
}

// GetUserByID returns the user or (nil, nil) when absent; the caller decides
// whether absence is a 404.
func (s *authService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	return user, nil
}

// Logout deletes the matching refresh token record. An unknown token string
// is a client error, not a server one.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.tokens.FindByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownLogoutToken
		}
		return apperr.Internal(fmt.Errorf("find refresh token: %w", err))
	}
	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		return apperr.Internal(fmt.Errorf("delete refresh token: %w", err))
	}
	return nil
}

// Refresh rotates a refresh token: the old record is consumed before a new
// pair is minted, so a captured token can be replayed at most once. Two
// concurrent refreshes with the same token race on the delete; the loser's
// lookup fails with ErrInvalidRefreshToken, which is the intended outcome.
func (s *authService) Refresh(ctx context.Context, oldToken string) (token.Pair, error) {
	record, err := s.tokens.FindByToken(ctx, oldToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return token.Pair{}, ErrInvalidRefreshToken
		}
		return token.Pair{}, apperr.Internal(fmt.Errorf("find refresh token: %w", err))
	}

	if record.Expired(time.Now()) {
		// Eager purge alongside the periodic expiry sweep: a later lookup of
		// this exact token string must fail at the not-found step.
		if err := s.tokens.DeleteByToken(ctx, oldToken); err != nil {
			return token.Pair{}, apperr.Internal(fmt.Errorf("purge expired refresh token: %w", err))
		}
		return token.Pair{}, ErrRefreshTokenExpired
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return token.Pair{}, ErrRefreshUserMissing
		}
		return token.Pair{}, apperr.Internal(fmt.Errorf("find token owner: %w", err))
	}

	// Single-use enforcement: consume the old record before minting. A crash
	// between delete and mint leaves the caller with a failed refresh and a
	// re-login, never a live duplicate token.
	if err := s.tokens.DeleteByToken(ctx, oldToken); err != nil {
		return token.Pair{}, apperr.Internal(fmt.Errorf("consume refresh token: %w", err))
	}

	return s.issuer.Issue(ctx, user)
}
