package services

import (
	"context"
	"testing"
	"time"

	"pollbox/internal/identity"
	"pollbox/internal/ratelimit"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	signUpUser  identity.User
	signUpErr   error
	signUpCalls int

	session   identity.Session
	signInErr error

	user       identity.User
	getUserErr error

	signOutErr   error
	signOutCalls int
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password, name string) (identity.User, error) {
	f.signUpCalls++
	return f.signUpUser, f.signUpErr
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error) {
	return f.session, f.signInErr
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeProvider) GetUser(ctx context.Context, accessToken string) (identity.User, error) {
	return f.user, f.getUserErr
}

const testSecret = "test-jwt-secret"

func newTestAuthService(provider *fakeProvider) *AuthService {
	limiter := ratelimit.New(ratelimit.Config{AuthLimit: 5, AuthWindow: time.Minute})
	return NewAuthService(provider, limiter, testSecret)
}

func TestRegisterWeakPassword(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestAuthService(provider)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:      "a@b.com",
		Password:   "Abc12345", // no special character
		RemoteAddr: "10.0.0.1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, pollbox_errors.ErrWeakPassword)
	assert.Equal(t, 0, provider.signUpCalls, "weak password must never reach the provider")
}

func TestRegisterVerificationRequired(t *testing.T) {
	provider := &fakeProvider{
		signUpUser: identity.User{ID: uuid.NewString(), Email: "a@b.com"},
	}
	svc := newTestAuthService(provider)

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:      "a@b.com",
		Password:   "Abc@1234",
		RemoteAddr: "10.0.0.1",
	})

	require.NoError(t, err)
	assert.True(t, res.VerificationRequired)
	assert.False(t, res.User.Verified)
}

func TestRegisterConfirmedAccount(t *testing.T) {
	provider := &fakeProvider{
		signUpUser: identity.User{
			ID:          uuid.NewString(),
			Email:       "a@b.com",
			ConfirmedAt: pollbox_errors.NowPtr(),
		},
	}
	svc := newTestAuthService(provider)

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:      "a@b.com",
		Password:   "Abc@1234",
		RemoteAddr: "10.0.0.1",
	})

	require.NoError(t, err)
	assert.False(t, res.VerificationRequired)
	assert.True(t, res.User.Verified)
}

func TestRegisterRateLimited(t *testing.T) {
	provider := &fakeProvider{
		signUpUser: identity.User{ID: uuid.NewString()},
	}
	svc := newTestAuthService(provider)

	in := RegisterInput{Email: "a@b.com", Password: "Abc@1234", RemoteAddr: "10.0.0.1"}
	for i := 0; i < 5; i++ {
		_, err := svc.Register(context.Background(), in)
		require.NoError(t, err)
	}

	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, pollbox_errors.ErrRateLimited)
	assert.Equal(t, 5, provider.signUpCalls)
}

func TestLoginSuccess(t *testing.T) {
	provider := &fakeProvider{
		session: identity.Session{
			AccessToken:  "token",
			RefreshToken: "refresh",
			ExpiresIn:    3600,
			User: identity.User{
				ID:          uuid.NewString(),
				Email:       "a@b.com",
				ConfirmedAt: pollbox_errors.NowPtr(),
			},
		},
	}
	svc := newTestAuthService(provider)

	res, err := svc.Login(context.Background(), LoginInput{
		Email:      "a@b.com",
		Password:   "Abc@1234",
		RemoteAddr: "10.0.0.1",
	})

	require.NoError(t, err)
	assert.Equal(t, "token", res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.True(t, res.User.Verified)
}

func TestLoginProviderMessageSurfacedVerbatim(t *testing.T) {
	provider := &fakeProvider{
		signInErr: &identity.ProviderError{Status: 400, Message: "Invalid login credentials"},
	}
	svc := newTestAuthService(provider)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:      "a@b.com",
		Password:   "wrong",
		RemoteAddr: "10.0.0.1",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestLoginRateLimited(t *testing.T) {
	provider := &fakeProvider{
		signInErr: &identity.ProviderError{Status: 400, Message: "Invalid login credentials"},
	}
	svc := newTestAuthService(provider)

	in := LoginInput{Email: "a@b.com", Password: "wrong", RemoteAddr: "10.0.0.1"}
	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), in)
		require.NotErrorIs(t, err, pollbox_errors.ErrRateLimited)
	}

	_, err := svc.Login(context.Background(), in)
	assert.ErrorIs(t, err, pollbox_errors.ErrRateLimited)
}

func TestLogoutWithoutSession(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestAuthService(provider)

	require.NoError(t, svc.Logout(context.Background(), ""))
	assert.Equal(t, 0, provider.signOutCalls)
}

func TestCurrentUserNoSession(t *testing.T) {
	svc := newTestAuthService(&fakeProvider{})

	user, err := svc.CurrentUser(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCurrentUserRejectedToken(t *testing.T) {
	provider := &fakeProvider{
		getUserErr: &identity.ProviderError{Status: 401, Message: "invalid JWT"},
	}
	svc := newTestAuthService(provider)

	user, err := svc.CurrentUser(context.Background(), "stale-token")
	require.NoError(t, err, "a rejected token is an empty session, not an error")
	assert.Nil(t, user)
}

func TestParseAccessToken(t *testing.T) {
	svc := newTestAuthService(&fakeProvider{})
	userID := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := svc.ParseAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)

	_, err = svc.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, pollbox_errors.ErrUnauthorized)

	wrongKey, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(wrongKey)
	assert.ErrorIs(t, err, pollbox_errors.ErrUnauthorized)
}
