package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 10 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour
	// refreshTokenBytes is the randomness behind an opaque refresh token;
	// hex-encoded it yields a 64 character string.
	refreshTokenBytes = 32
)

// Claims are the identity fields embedded in a signed access token.
type Claims struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Pair is an issued access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Issuer mints short-lived signed access tokens and long-lived opaque refresh
// tokens, persisting the latter. The signing secret is injected at
// construction; nothing here reads ambient process state.
type Issuer struct {
	secret []byte
	tokens repository.RefreshTokenRepository
}

// NewIssuer creates a token issuer with the given signing secret.
func NewIssuer(secret string, tokens repository.RefreshTokenRepository) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		tokens: tokens,
	}
}

// Issue mints an access/refresh pair for the user and stores the refresh
// token record. A duplicate-key collision on the opaque token is retried once
// with fresh randomness before surfacing as a conflict.
func (i *Issuer) Issue(ctx context.Context, user *model.User) (Pair, error) {
	if user == nil || user.ID == uuid.Nil || user.Name == "" || user.Email == "" {
		return Pair{}, apperr.InvalidInput("invalid user data for token generation")
	}

	accessToken, err := i.signAccessToken(user)
	if err != nil {
		return Pair{}, apperr.Internal(fmt.Errorf("sign access token: %w", err))
	}

	refreshToken, err := i.storeRefreshToken(ctx, user.ID)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Parse verifies signature and expiry of an access token and returns its
// claims. Validity is proven by the signature alone; no store lookup happens.
// A token whose id claim is not a well-formed UUID is rejected here, at the
// verification step, rather than left for callers to discover.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, errors.New("invalid subject claim")
	}
	return claims, nil
}

func (i *Issuer) signAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) storeRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	// A 256-bit collision is negligible; the unique index is the backstop
	// and one retry covers the transient case.
	for attempt := 0; attempt < 2; attempt++ {
		opaque, err := generateOpaqueToken()
		if err != nil {
			return "", apperr.Internal(fmt.Errorf("generate refresh token: %w", err))
		}

		record := &model.RefreshToken{
			Token:     opaque,
			UserID:    userID,
			ExpiresAt: time.Now().Add(RefreshTokenExpiry),
		}
		err = i.tokens.Create(ctx, record)
		if err == nil {
			return opaque, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", apperr.Internal(fmt.Errorf("store refresh token: %w", err))
		}
	}
	return "", apperr.Conflict("refresh token collision")
}

func generateOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
