package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/model"
	"storefront/internal/token"
)

const testSecret = "test-secret"

// stubTokenRepo satisfies the refresh token repository without a database;
// the middleware tests only need the issuer's signing side.
type stubTokenRepo struct{}

func (stubTokenRepo) Create(context.Context, *model.RefreshToken) error { return nil }
func (stubTokenRepo) FindByToken(context.Context, string) (*model.RefreshToken, error) {
	return nil, nil
}
func (stubTokenRepo) DeleteByToken(context.Context, string) error { return nil }
func (stubTokenRepo) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func accessTokenFor(t *testing.T, issuer *token.Issuer, name string, role model.Role) (uuid.UUID, string) {
	t.Helper()
	user := &model.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	pair, err := issuer.Issue(context.Background(), user)
	require.NoError(t, err)
	return user.ID, pair.AccessToken
}

func runAuthenticated(t *testing.T, issuer *token.Issuer, decorate func(*http.Request)) (Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Identity
	handler := Middleware(issuer)(func(c echo.Context) error {
		ident, ok := IdentityFrom(c)
		require.True(t, ok)
		got = ident
		return c.NoContent(http.StatusOK)
	})
	return got, handler(c)
}

func TestMiddleware_NoToken(t *testing.T) {
	issuer := token.NewIssuer(testSecret, stubTokenRepo{})

	_, err := runAuthenticated(t, issuer, func(*http.Request) {})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnauthenticated, appErr.Kind)
	assert.Equal(t, "no token found", appErr.Message)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	issuer := token.NewIssuer(testSecret, stubTokenRepo{})

	tests := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{
			name: "garbage bearer token",
			decorate: func(req *http.Request) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-jwt")
			},
		},
		{
			name: "token signed with another secret",
			decorate: func(req *http.Request) {
				other := token.NewIssuer("other-secret", stubTokenRepo{})
				_, access := accessTokenFor(t, other, "mallory", model.RoleUser)
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
			},
		},
		{
			name: "well-signed token with malformed id claim",
			decorate: func(req *http.Request) {
				claims := &token.Claims{
					ID:    "not-a-uuid",
					Name:  "odd",
					Email: "odd@example.com",
					Role:  model.RoleUser,
					RegisteredClaims: jwt.RegisteredClaims{
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
					},
				}
				signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				require.NoError(t, err)
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
			},
		},
		{
			name: "expired token",
			decorate: func(req *http.Request) {
				claims := &token.Claims{
					ID:    uuid.NewString(),
					Name:  "stale",
					Email: "stale@example.com",
					Role:  model.RoleUser,
					RegisteredClaims: jwt.RegisteredClaims{
						IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Minute)),
					},
				}
				signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				require.NoError(t, err)
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAuthenticated(t, issuer, tt.decorate)
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindUnauthenticated, appErr.Kind)
			// Expired and tampered are indistinguishable to the client.
			assert.Equal(t, "invalid token", appErr.Message)
		})
	}
}

func TestMiddleware_HeaderTakesPriorityOverCookie(t *testing.T) {
	issuer := token.NewIssuer(testSecret, stubTokenRepo{})
	headerUserID, headerToken := accessTokenFor(t, issuer, "header-user", model.RoleUser)
	_, cookieToken := accessTokenFor(t, issuer, "cookie-user", model.RoleUser)

	ident, err := runAuthenticated(t, issuer, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+headerToken)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: cookieToken})
	})
	require.NoError(t, err)
	assert.Equal(t, headerUserID, ident.UserID)
}

func TestMiddleware_CookieFallback(t *testing.T) {
	issuer := token.NewIssuer(testSecret, stubTokenRepo{})
	userID, access := accessTokenFor(t, issuer, "cookie-user", model.RoleUser)

	ident, err := runAuthenticated(t, issuer, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: access})
	})
	require.NoError(t, err)
	assert.Equal(t, userID, ident.UserID)
	assert.Equal(t, model.RoleUser, ident.Role)
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("admin passes", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(identityKey, Identity{UserID: uuid.New(), Role: model.RoleAdmin})
		assert.NoError(t, RequireAdmin()(next)(c))
	})

	t.Run("plain user is forbidden", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(identityKey, Identity{UserID: uuid.New(), Role: model.RoleUser})
		err := RequireAdmin()(next)(c)
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("missing identity is unauthenticated", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		err := RequireAdmin()(next)(c)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
	})
}
