package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-portal/internal/core"
	"hospital-portal/internal/memstore"
	"hospital-portal/pkg"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := memstore.New()
	require.NoError(t, err)
	return NewService(store, NewTokens("test-secret", time.Hour))
}

func register(name, email string) core.RegisterForm {
	return core.RegisterForm{Name: name, Email: email, Password: "correct horse", PasswordConfirmation: "correct horse"}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", h)
	assert.True(t, CheckPassword(h, "s3cret-pass"))
	assert.False(t, CheckPassword(h, "s3cret-Pass"))
}

func TestRegisterRoles(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	open, err := svc.RegistrationOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)

	first, err := svc.Register(ctx, register("Ann", " Ann@Example.org "), nil)
	require.NoError(t, err)
	assert.Equal(t, pkg.RoleAdmin, first.Role)
	assert.Equal(t, "ann@example.org", first.Email)

	open, err = svc.RegistrationOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	_, err = svc.Register(ctx, register("Mallory", "mallory@example.org"), nil)
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	second, err := svc.Register(ctx, register("Bob", "bob@example.org"), first)
	require.NoError(t, err)
	assert.Equal(t, pkg.RoleEditor, second.Role)

	_, err = svc.Register(ctx, register("Carol", "carol@example.org"), second)
	assert.ErrorIs(t, err, ErrForbidden)

	n, err := svc.Accounts.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = svc.Accounts.GetUserByEmail(ctx, "mallory@example.org")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Register(ctx, core.RegisterForm{Name: "Ann", Email: "ann@example.org", Password: "short", PasswordConfirmation: "short"}, nil)
	var verrs core.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "password")

	long := strings.Repeat("p", 80)
	_, err = svc.Register(ctx, core.RegisterForm{Name: "Ann", Email: "ann@example.org", Password: long, PasswordConfirmation: long}, nil)
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "password")

	admin, err := svc.Register(ctx, register("Ann", "ann@example.org"), nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, register("Other Ann", "ANN@example.org"), admin)
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "This email is already registered.", verrs["email"])

	n, err := svc.Accounts.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterStoresBareAddress(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	u, err := svc.Register(ctx, register("  Bob  ", "Bob <Bob@Example.org>"), nil)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.org", u.Email)
	assert.Equal(t, "Bob", u.Name)

	got, err := svc.Authenticate(ctx, core.LoginForm{Email: "bob@example.org", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterConcurrentBootstrap(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	const n = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		admins int
		closed int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(ctx, register("User", fmt.Sprintf("user%d@example.org", i)), nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admins++
			case errors.Is(err, ErrRegistrationClosed):
				closed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, admins)
	assert.Equal(t, n-1, closed)
	count, err := svc.Accounts.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u, err := svc.Register(ctx, register("Ann", "ann@example.org"), nil)
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, core.LoginForm{Email: "ANN@example.org", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, core.LoginForm{Email: "ann@example.org", Password: "wrong horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, core.LoginForm{Email: "nobody@example.org", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, core.LoginForm{})
	var verrs core.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u, err := svc.Register(ctx, register("Ann", "ann@example.org"), nil)
	require.NoError(t, err)

	token, err := svc.Tokens.Issue(u)
	require.NoError(t, err)
	claims, err := svc.Tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, pkg.RoleAdmin, claims.Role)

	got, err := svc.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestTokenRejected(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	u := &pkg.User{ID: "u1", Role: pkg.RoleEditor}

	token, err := tokens.Issue(u)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		late := *tokens
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		_, err := NewTokens("another-secret", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserFromTokenDeletedUser(t *testing.T) {
	svc := newService(t)
	token, err := svc.Tokens.Issue(&pkg.User{ID: "gone", Role: pkg.RoleEditor})
	require.NoError(t, err)
	_, err = svc.UserFromToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
