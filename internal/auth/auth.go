// Package auth signs back-office users in: password hashing, session
// tokens and the account service behind the login and register forms.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session_token"

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password.  The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRegistrationClosed is returned when an anonymous visitor tries to
	// register once the first account exists.
	ErrRegistrationClosed = errors.New("registration is closed")
	// ErrForbidden is returned when a non-admin tries to register a user.
	ErrForbidden = errors.New("only admins may register users")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims are the session token contents.
type Claims struct {
	Role pkg.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token issuer.  ttl is the session lifetime.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for u.
func (t *Tokens) Issue(u *pkg.User) (string, error) {
	now := t.now()
	claims := &Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "hospital-portal",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Parse verifies token and returns its claims.
func (t *Tokens) Parse(token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Service implements registration and login on top of an account store.
type Service struct {
	Accounts core.AccountStore
	Tokens   *Tokens

	// register serialises Register so two concurrent bootstrap requests
	// cannot both become the first admin.  It does not span processes;
	// multi-instance deployments create the first admin with create-admin.
	register sync.Mutex
}

// NewService constructs a Service.
func NewService(accounts core.AccountStore, tokens *Tokens) *Service {
	return &Service{Accounts: accounts, Tokens: tokens}
}

// Register validates f and creates the account on behalf of by, the
// signed-in user, or nil for an anonymous visitor.  An anonymous visitor may
// only create the very first account, which becomes an admin.  After that
// only admins register users, who become editors.  Field problems are
// returned as core.ValidationErrors.
func (s *Service) Register(ctx context.Context, f core.RegisterForm, by *pkg.User) (*pkg.User, error) {
	if by != nil && by.Role != pkg.RoleAdmin {
		return nil, ErrForbidden
	}
	if errs := f.Validate(); errs.Any() {
		return nil, errs
	}
	if by != nil {
		return s.CreateUser(ctx, f.Name, f.Email, f.Password, pkg.RoleEditor)
	}

	s.register.Lock()
	defer s.register.Unlock()
	open, err := s.RegistrationOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrRegistrationClosed
	}
	return s.CreateUser(ctx, f.Name, f.Email, f.Password, pkg.RoleAdmin)
}

// RegistrationOpen reports whether anonymous visitors may register, which
// is only the case until the first account exists.
func (s *Service) RegistrationOpen(ctx context.Context) (bool, error) {
	n, err := s.Accounts.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// CreateUser stores a new account without form validation.
func (s *Service) CreateUser(ctx context.Context, name, email, password string, role pkg.Role) (*pkg.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &pkg.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        core.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrEmailTaken) {
			return nil, core.ValidationErrors{"email": "This email is already registered."}
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks the login form against the stored hash.
func (s *Service) Authenticate(ctx context.Context, f core.LoginForm) (*pkg.User, error) {
	if errs := f.Validate(); errs.Any() {
		return nil, errs
	}
	u, err := s.Accounts.GetUserByEmail(ctx, core.NormalizeEmail(f.Email))
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, f.Password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UserFromToken resolves a session token to its still existing user.
func (s *Service) UserFromToken(ctx context.Context, token string) (*pkg.User, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.Accounts.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return u, err
}
