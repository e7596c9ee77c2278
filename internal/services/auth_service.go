package services

import (
	"context"
	"errors"
	"fmt"

	"pollbox/internal/identity"
	"pollbox/internal/ratelimit"
	"pollbox/internal/validation"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IdentityProvider is the boundary to the external identity service.
// Credentials, hashing and session issuance live on the other side of it.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) (identity.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (identity.User, error)
}

type AuthService struct {
	provider  IdentityProvider
	limiter   *ratelimit.Limiter
	jwtSecret []byte
}

func NewAuthService(provider IdentityProvider, limiter *ratelimit.Limiter, jwtSecret string) *AuthService {
	return &AuthService{
		provider:  provider,
		limiter:   limiter,
		jwtSecret: []byte(jwtSecret),
	}
}

type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	RemoteAddr string
}

type LoginInput struct {
	Email      string
	Password   string
	RemoteAddr string
}

type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Verified bool   `json:"verified"`
}

// RegisterResult reports account creation. VerificationRequired is set
// when the provider created the account but withholds login until the
// email address is confirmed; no session exists in that case.
type RegisterResult struct {
	User                 UserInfo
	VerificationRequired bool
}

type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int64    `json:"expires_in"`
	User         UserInfo `json:"user"`
}

// AccessClaims are the provider-issued token claims this service trusts
// after local signature verification.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if in.Email == "" || in.Password == "" {
		return RegisterResult{}, pollbox_errors.ErrInvalidInput
	}
	if err := validation.PasswordStrength(in.Password); err != nil {
		return RegisterResult{}, err
	}

	if res := s.limiter.AllowRegister(in.RemoteAddr); !res.Allowed {
		return RegisterResult{}, pollbox_errors.ErrRateLimited
	}

	u, err := s.provider.SignUp(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		return RegisterResult{}, mapProviderError(err)
	}

	return RegisterResult{
		User:                 toUserInfo(u),
		VerificationRequired: u.ConfirmedAt == nil,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if in.Email == "" || in.Password == "" {
		return AuthResponse{}, pollbox_errors.ErrInvalidInput
	}

	if res := s.limiter.AllowLogin(in.RemoteAddr); !res.Allowed {
		return AuthResponse{}, pollbox_errors.ErrRateLimited
	}

	session, err := s.provider.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return AuthResponse{}, mapProviderError(err)
	}

	return AuthResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		User:         toUserInfo(session.User),
	}, nil
}

// Logout revokes the provider session. A missing token means there is no
// session to clear, which is not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return mapProviderError(err)
	}
	return nil
}

// CurrentUser resolves the user behind an access token via the provider.
// "No session" (missing or rejected token) yields (nil, nil), never an
// error; only infrastructure faults propagate.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, nil
	}

	u, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		var provErr *identity.ProviderError
		if errors.As(err, &provErr) && (provErr.Status == 401 || provErr.Status == 403) {
			return nil, nil
		}
		return nil, mapProviderError(err)
	}

	info := toUserInfo(u)
	return &info, nil
}

// ParseAccessToken verifies a provider-issued JWT locally so authenticated
// requests avoid a provider round trip.
func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, pollbox_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pollbox_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, pollbox_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, pollbox_errors.ErrUnauthorized
	}

	return *claims, nil
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, pollbox_errors.ErrInvalidInput), errors.Is(err, pollbox_errors.ErrWeakPassword):
		return 400
	case errors.Is(err, pollbox_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, pollbox_errors.ErrForbidden):
		return 403
	case errors.Is(err, pollbox_errors.ErrNotFound):
		return 404
	case errors.Is(err, pollbox_errors.ErrAlreadyExists), errors.Is(err, pollbox_errors.ErrConflict):
		return 409
	case errors.Is(err, pollbox_errors.ErrRateLimited):
		return 429
	case errors.Is(err, pollbox_errors.ErrServiceUnavailable):
		return 503
	default:
		return 500
	}
}

type ctxKey string

var userIDKey ctxKey = "user_id"

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// mapProviderError wraps a provider failure in the matching sentinel while
// keeping the provider's own message intact for the caller.
func mapProviderError(err error) error {
	var provErr *identity.ProviderError
	if !errors.As(err, &provErr) {
		return fmt.Errorf("%w: %v", pollbox_errors.ErrServiceUnavailable, err)
	}

	switch {
	case provErr.Status == 401 || provErr.Status == 403:
		return fmt.Errorf("%w: %s", pollbox_errors.ErrUnauthorized, provErr.Message)
	case provErr.Status == 409 || provErr.Status == 422:
		return fmt.Errorf("%w: %s", pollbox_errors.ErrAlreadyExists, provErr.Message)
	case provErr.Status == 429:
		return fmt.Errorf("%w: %s", pollbox_errors.ErrRateLimited, provErr.Message)
	case provErr.Status >= 500:
		return fmt.Errorf("%w: %s", pollbox_errors.ErrServiceUnavailable, provErr.Message)
	default:
		return fmt.Errorf("%w: %s", pollbox_errors.ErrInvalidInput, provErr.Message)
	}
}

func toUserInfo(u identity.User) UserInfo {
	info := UserInfo{
		ID:       u.ID,
		Email:    u.Email,
		Verified: u.ConfirmedAt != nil,
	}
	if name, ok := u.Metadata["name"].(string); ok {
		info.Name = name
	}
	return info
}
