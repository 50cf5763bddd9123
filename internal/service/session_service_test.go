// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ametov/bookline/internal/adapter"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/mock"
	"github.com/ametov/bookline/internal/store"
	"github.com/ametov/bookline/models"
)

type sessionFixture struct {
	adapter *mock.MockServerAdapter
	creds   *mock.MockCredentialRepository
	channel *fakeChannel
	svc     SessionService

	mu     sync.Mutex
	tokens []string // every value pushed through SetToken, in order
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &sessionFixture{
		adapter: mock.NewMockServerAdapter(ctrl),
		creds:   mock.NewMockCredentialRepository(ctrl),
		channel: newFakeChannel(),
	}

	f.adapter.EXPECT().SetRefreshHook(gomock.Any()).Times(1)
	f.adapter.EXPECT().SetToken(gomock.Any()).Do(func(token string) {
		f.mu.Lock()
		f.tokens = append(f.tokens, token)
		f.mu.Unlock()
	}).AnyTimes()

	f.svc = NewSessionService(f.adapter, f.creds, f.channel, logger.Nop())
	return f
}

func (f *sessionFixture) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return ""
	}
	return f.tokens[len(f.tokens)-1]
}

func authResponse(access, refresh string) models.AuthResponse {
	return models.AuthResponse{
		TokenPair: models.TokenPair{AccessToken: access, RefreshToken: refresh},
		User:      models.User{ID: "u-1", Email: "pat@example.com", Name: "Pat", Role: "patient"},
	}
}

// login drives the fixture into an authenticated session.
func (f *sessionFixture) login(t *testing.T) {
	t.Helper()
	f.adapter.EXPECT().Login(gomock.Any(), gomock.Any()).Return(authResponse("access-1", "refresh-1"), nil)
	f.creds.EXPECT().SaveCredentials(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "pat@example.com", Password: "pw"})
	require.NoError(t, err)
}

// ── Login ────────────────────────────────────────────────────────────────

func TestLogin_EstablishesSession(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)

	session := f.svc.Session()
	assert.True(t, session.Authenticated())
	assert.Equal(t, "access-1", session.AccessToken)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	assert.Equal(t, "u-1", session.User.ID)
	assert.Equal(t, "access-1", f.lastToken())
	assert.True(t, f.channel.Connected())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newSessionFixture(t)
	f.adapter.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.AuthResponse{}, adapter.ErrUnauthorized)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "pat@example.com", Password: "nope"})

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
	assert.False(t, f.channel.Connected())
}

func TestLogin_PendingAccount(t *testing.T) {
	f := newSessionFixture(t)
	f.adapter.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.AuthResponse{}, adapter.ErrAccountPending)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "new@example.com", Password: "pw"})

	require.ErrorIs(t, err, ErrAccountPending)
	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	f := newSessionFixture(t)
	f.adapter.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.AuthResponse{}, adapter.ErrAccountDeactivated)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "old@example.com", Password: "pw"})

	require.ErrorIs(t, err, ErrAccountDeactivated)
	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
}

func TestLogin_ChannelDialFailureDegradesToRESTOnly(t *testing.T) {
	f := newSessionFixture(t)
	f.channel.connectErr = errors.New("dial tcp: connection refused")

	f.login(t)

	assert.True(t, f.svc.Session().Authenticated())
	assert.False(t, f.channel.Connected())
}

// ── Register ─────────────────────────────────────────────────────────────

func TestRegister_PendingAccountStaysAnonymous(t *testing.T) {
	f := newSessionFixture(t)
	pending := models.AuthResponse{User: models.User{ID: "u-2", Role: "provider", Status: models.UserStatusPending}}
	f.adapter.EXPECT().Register(gomock.Any(), gomock.Any()).Return(pending, nil)

	session, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Email: "doc@example.com", Password: "pw", Name: "Doc", Role: "provider",
	})

	require.ErrorIs(t, err, ErrAccountPending)
	assert.Equal(t, models.SessionAnonymous, session.Status)
	assert.Equal(t, "u-2", session.User.ID)
	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
	assert.False(t, f.channel.Connected())
}

func TestRegister_ActiveAccountEstablishesSession(t *testing.T) {
	f := newSessionFixture(t)
	f.adapter.EXPECT().Register(gomock.Any(), gomock.Any()).Return(authResponse("access-1", "refresh-1"), nil)
	f.creds.EXPECT().SaveCredentials(gomock.Any(), gomock.Any()).Return(nil)

	session, err := f.svc.Register(context.Background(), models.RegisterRequest{
		Email: "pat@example.com", Password: "pw", Name: "Pat", Role: "patient",
	})

	require.NoError(t, err)
	assert.True(t, session.Authenticated())
	assert.True(t, f.channel.Connected())
}

// ── Refresh ──────────────────────────────────────────────────────────────

func TestRefresh_ConcurrentCallersShareOneRoundTrip(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)

	f.adapter.EXPECT().
		Refresh(gomock.Any(), "refresh-1").
		DoAndReturn(func(ctx context.Context, refreshToken string) (models.AuthResponse, error) {
			time.Sleep(50 * time.Millisecond) // hold the op open so every caller piles onto it
			return authResponse("access-2", "refresh-2"), nil
		}).
		Times(1)
	f.creds.EXPECT().SaveCredentials(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
	}
	session := f.svc.Session()
	assert.Equal(t, "access-2", session.AccessToken)
	assert.Equal(t, "refresh-2", session.RefreshToken)
	assert.Equal(t, "access-2", f.lastToken())
}

func TestRefresh_KeepsRefreshTokenWhenServerRotatesOnlyAccess(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)

	f.adapter.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(authResponse("access-2", ""), nil)

	var saved models.Credentials
	f.creds.EXPECT().
		SaveCredentials(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, creds models.Credentials) error {
			saved = creds
			return nil
		})

	require.NoError(t, f.svc.Refresh(context.Background()))

	assert.Equal(t, "refresh-1", f.svc.Session().RefreshToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
	assert.Equal(t, "access-2", saved.AccessToken)
}

func TestRefresh_FailureForcesLogoutAndRedirectsOnce(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)

	var redirects atomic.Int32
	f.svc.OnForcedLogout(func() { redirects.Add(1) })

	f.adapter.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(models.AuthResponse{}, adapter.ErrUnauthorized).Times(1)
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil).Times(1)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.ErrorIs(t, errs[i], ErrSessionExpired)
	}
	assert.Equal(t, int32(1), redirects.Load())
	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
	assert.Equal(t, "", f.lastToken())
	assert.False(t, f.channel.Connected())
}

func TestRefresh_WithoutRefreshTokenForcesLogout(t *testing.T) {
	f := newSessionFixture(t)

	var redirects atomic.Int32
	f.svc.OnForcedLogout(func() { redirects.Add(1) })
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil)

	err := f.svc.Refresh(context.Background())

	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), redirects.Load())
}

func TestRefresh_RedirectFiresAgainInNextEpisode(t *testing.T) {
	f := newSessionFixture(t)

	var redirects atomic.Int32
	f.svc.OnForcedLogout(func() { redirects.Add(1) })

	// first episode
	f.login(t)
	f.adapter.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(models.AuthResponse{}, adapter.ErrUnauthorized)
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil)
	require.Error(t, f.svc.Refresh(context.Background()))
	require.Equal(t, int32(1), redirects.Load())

	// a fresh login re-arms the redirect
	f.login(t)
	f.adapter.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(models.AuthResponse{}, adapter.ErrUnauthorized)
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil)
	require.Error(t, f.svc.Refresh(context.Background()))

	assert.Equal(t, int32(2), redirects.Load())
}

// ── Logout ───────────────────────────────────────────────────────────────

func TestLogout_ClearsEverything(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)

	f.adapter.EXPECT().Logout(gomock.Any()).Return(nil)
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background()))

	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
	assert.Equal(t, "", f.lastToken())
	assert.False(t, f.channel.Connected())
}

func TestLogout_ServerFailureStillClearsLocalState(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)

	f.adapter.EXPECT().Logout(gomock.Any()).Return(adapter.ErrInternalServerError)
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background()))
	assert.Equal(t, models.SessionAnonymous, f.svc.Session().Status)
}

// ── Restore ──────────────────────────────────────────────────────────────

func TestRestore_NoSavedCredentials(t *testing.T) {
	f := newSessionFixture(t)
	f.creds.EXPECT().LoadCredentials(gomock.Any()).Return(models.Credentials{}, store.ErrCredentialsNotFound)

	session, err := f.svc.Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.SessionAnonymous, session.Status)
	assert.False(t, f.channel.Connected())
}

func TestRestore_ValidTokenResumesSession(t *testing.T) {
	f := newSessionFixture(t)
	access := signedToken(t, time.Now().Add(time.Hour))
	f.creds.EXPECT().LoadCredentials(gomock.Any()).Return(models.Credentials{
		AccessToken:  access,
		RefreshToken: "refresh-1",
		User:         models.User{ID: "u-1"},
	}, nil)

	session, err := f.svc.Restore(context.Background())

	require.NoError(t, err)
	assert.True(t, session.Authenticated())
	assert.Equal(t, access, f.lastToken())
	assert.True(t, f.channel.Connected())
}

func TestRestore_ExpiredTokenRefreshesEagerly(t *testing.T) {
	f := newSessionFixture(t)
	stale := signedToken(t, time.Now().Add(-time.Hour))
	f.creds.EXPECT().LoadCredentials(gomock.Any()).Return(models.Credentials{
		AccessToken:  stale,
		RefreshToken: "refresh-1",
		User:         models.User{ID: "u-1"},
	}, nil)
	f.adapter.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(authResponse("access-2", "refresh-2"), nil)
	f.creds.EXPECT().SaveCredentials(gomock.Any(), gomock.Any()).Return(nil)

	session, err := f.svc.Restore(context.Background())

	require.NoError(t, err)
	assert.True(t, session.Authenticated())
	assert.Equal(t, "access-2", session.AccessToken)
}

func TestRestore_ExpiredTokenWithDeadRefreshEndsAnonymous(t *testing.T) {
	f := newSessionFixture(t)
	stale := signedToken(t, time.Now().Add(-time.Hour))
	f.creds.EXPECT().LoadCredentials(gomock.Any()).Return(models.Credentials{
		AccessToken:  stale,
		RefreshToken: "refresh-1",
	}, nil)
	f.adapter.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(models.AuthResponse{}, adapter.ErrUnauthorized)
	f.creds.EXPECT().ClearCredentials(gomock.Any()).Return(nil)

	session, err := f.svc.Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.SessionAnonymous, session.Status)
}
