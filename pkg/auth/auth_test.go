package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
	"github.com/DeBrosOfficial/supasaas/pkg/logging"
	"github.com/DeBrosOfficial/supasaas/pkg/platformtest"
)

func setup(t *testing.T) (*Auth, *client.Client, *platformtest.Server, *observer.ObservedLogs) {
	t.Helper()
	srv := platformtest.New(t)
	c, err := client.NewClient(srv.Login(), client.WithLogger(zap.NewNop()), client.WithRetry(1, 0))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	logFn := logging.NewActionLogger(logging.WrapLogger(zap.New(core)), logging.ComponentAuth)
	return NewAuth(c, WithLogger(logFn)), c, srv, logs
}

func TestSignUp(t *testing.T) {
	a, _, srv, logs := setup(t)
	ctx := context.Background()

	resp, err := a.SignUp(ctx, "new@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", resp.User["email"])
	assert.Nil(t, resp.Session)
	assert.NotNil(t, srv.User("new@example.com"))
	assert.Equal(t, 0, logs.Len())

	_, err = a.SignUp(ctx, "new@example.com", "password123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "Error performing signup with email=new@example.com")
	assert.Contains(t, entries[0].Message, "User already registered")
}

func TestSignIn(t *testing.T) {
	a, c, srv, logs := setup(t)
	ctx := context.Background()
	id := srv.AddUser("user@example.com", "secret-pw")

	resp, err := a.SignIn(ctx, "user@example.com", "secret-pw")
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	assert.Equal(t, id, resp.Session.UserID())
	assert.False(t, resp.Session.Expired(time.Now()))
	assert.Same(t, resp.Session, c.Session())

	claims, err := resp.Session.Claims()
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)

	user, err := a.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, user["id"])

	last := srv.LastRequest()
	assert.Equal(t, "Bearer "+resp.Session.AccessToken, last.Header.Get("Authorization"))
	assert.Equal(t, 0, logs.Len())
}

func TestSignInInvalidCredentials(t *testing.T) {
	a, c, srv, logs := setup(t)
	srv.AddUser("user@example.com", "secret-pw")

	resp, err := a.SignIn(context.Background(), "user@example.com", "wrong")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	assert.Nil(t, c.Session())

	require.Equal(t, 1, logs.Len())
	msg := logs.All()[0].Message
	assert.True(t, strings.HasPrefix(msg, "[AUTH] Error performing login with email=user@example.com"), msg)
	assert.Contains(t, msg, "\nException: ")
}

func TestSignOut(t *testing.T) {
	a, c, srv, logs := setup(t)
	ctx := context.Background()
	srv.AddUser("user@example.com", "secret-pw")

	_, err := a.SignIn(ctx, "user@example.com", "secret-pw")
	require.NoError(t, err)

	a.SignOut(ctx)
	assert.Nil(t, c.Session())
	assert.Equal(t, 0, logs.Len())

	_, err = a.GetUser(ctx)
	assert.True(t, errors.Is(err, apperrors.ErrSessionMissing))
}

func TestSignOutSuppressesPlatformErrors(t *testing.T) {
	a, c, srv, logs := setup(t)
	ctx := context.Background()
	srv.AddUser("user@example.com", "secret-pw")
	_, err := a.SignIn(ctx, "user@example.com", "secret-pw")
	require.NoError(t, err)

	srv.FailNext(http.MethodPost, "/auth/v1/logout", http.StatusInternalServerError, `{"msg":"boom"}`)
	a.SignOut(ctx)

	assert.Nil(t, c.Session())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestResetPassword(t *testing.T) {
	a, _, srv, logs := setup(t)

	err := a.ResetPassword(context.Background(), "user@example.com", "https://app.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/reset-password.html", srv.RecoveryRedirect())

	srv.FailNext(http.MethodPost, "/auth/v1/recover", http.StatusTooManyRequests, `{"msg":"rate limit"}`)
	err = a.ResetPassword(context.Background(), "user@example.com", "https://app.example.com")
	require.Error(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestUpdateUser(t *testing.T) {
	a, _, srv, logs := setup(t)
	ctx := context.Background()

	_, err := a.UpdateUser(ctx, map[string]any{"data": map[string]any{"name": "John"}})
	require.ErrorIs(t, err, apperrors.ErrSessionMissing)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "Error performing update user with updates=")

	srv.AddUser("user@example.com", "secret-pw")
	_, err = a.SignIn(ctx, "user@example.com", "secret-pw")
	require.NoError(t, err)

	user, err := a.UpdateUser(ctx, map[string]any{"data": map[string]any{"name": "John"}})
	require.NoError(t, err)
	meta, ok := user["user_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "John", meta["name"])
}

func TestRefreshSession(t *testing.T) {
	a, c, srv, _ := setup(t)
	ctx := context.Background()

	_, err := a.RefreshSession(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionMissing)

	srv.AddUser("user@example.com", "secret-pw")
	first, err := a.SignIn(ctx, "user@example.com", "secret-pw")
	require.NoError(t, err)

	next, err := a.RefreshSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.AccessToken, next.AccessToken)
	assert.Same(t, next, c.Session())

	// The old refresh token is single use.
	c.SetSession(first.Session)
	_, err = a.RefreshSession(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSessionMissing)
}
