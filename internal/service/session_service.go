package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ametov/bookline/internal/adapter"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/store"
	"github.com/ametov/bookline/models"
)

// nowFunc is swapped in tests that need a fixed instant for token expiry
// checks.
var nowFunc = time.Now

// refreshOp is one in-flight silent refresh shared by every caller that
// needs it. done is closed when the round-trip finishes; err then holds
// the outcome.
type refreshOp struct {
	done chan struct{}
	err  error
}

type sessionService struct {
	adapter     adapter.ServerAdapter
	credentials store.CredentialRepository
	channel     realtime.Channel

	mu             sync.Mutex
	session        models.Session
	inflight       *refreshOp
	redirectFired  bool
	onForcedLogout func()

	logger *logger.Logger
}

// NewSessionService wires the session state machine to the transport, the
// credential store, and the realtime channel. It installs itself as the
// adapter's refresh hook so that any 401 on an authenticated call funnels
// into the coalesced Refresh.
func NewSessionService(serverAdapter adapter.ServerAdapter, credentials store.CredentialRepository, channel realtime.Channel, log *logger.Logger) SessionService {
	s := &sessionService{
		adapter:     serverAdapter,
		credentials: credentials,
		channel:     channel,
		session:     models.Session{Status: models.SessionAnonymous},
		logger:      log,
	}
	serverAdapter.SetRefreshHook(s.Refresh)
	return s
}

// Restore implements [SessionService].
func (s *sessionService) Restore(ctx context.Context) (models.Session, error) {
	creds, err := s.credentials.LoadCredentials(ctx)
	if err != nil {
		if errors.Is(err, store.ErrCredentialsNotFound) {
			return s.Session(), nil
		}
		return s.Session(), fmt.Errorf("restore session: %w", err)
	}

	s.establish(ctx, models.Session{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		User:         creds.User,
		Status:       models.SessionAuthenticated,
	}, false)

	// A stale access token is fine here: the first authenticated call
	// will hit the refresh hook. But if it is already expired we can pay
	// the round-trip now instead of on the user's first interaction.
	if expiry := models.AccessTokenExpiry(creds.AccessToken); !expiry.IsZero() && expiry.Before(nowFunc()) {
		if err = s.Refresh(ctx); err != nil {
			return s.Session(), nil // Refresh already reset the session
		}
	}

	return s.Session(), nil
}

// Login implements [SessionService].
func (s *sessionService) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	s.setStatus(models.SessionAuthenticating)

	auth, err := s.adapter.Login(ctx, req)
	if err != nil {
		s.setStatus(models.SessionAnonymous)
		return s.Session(), fmt.Errorf("login: %w", mapAuthError(err))
	}

	s.establish(ctx, models.Session{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		User:         auth.User,
		Status:       models.SessionAuthenticated,
	}, true)

	return s.Session(), nil
}

// Register implements [SessionService]. An account that requires approval
// comes back without tokens; the session stays anonymous and the pending
// profile is returned alongside ErrAccountPending so the UI can explain.
func (s *sessionService) Register(ctx context.Context, req models.RegisterRequest) (models.Session, error) {
	s.setStatus(models.SessionAuthenticating)

	auth, err := s.adapter.Register(ctx, req)
	if err != nil {
		s.setStatus(models.SessionAnonymous)
		return s.Session(), fmt.Errorf("register: %w", mapAuthError(err))
	}

	if auth.AccessToken == "" {
		s.setStatus(models.SessionAnonymous)
		return models.Session{User: auth.User, Status: models.SessionAnonymous}, ErrAccountPending
	}

	s.establish(ctx, models.Session{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		User:         auth.User,
		Status:       models.SessionAuthenticated,
	}, true)

	return s.Session(), nil
}

// Logout implements [SessionService].
func (s *sessionService) Logout(ctx context.Context) error {
	// best effort; the server cleans up expired sessions anyway
	if err := s.adapter.Logout(ctx); err != nil {
		s.logger.Err(err).
			Str("func", "sessionService.Logout").
			Msg("server-side logout failed, clearing local state regardless")
	}

	s.teardown(ctx, models.SessionAnonymous)
	return nil
}

// Refresh implements [SessionService]. The first caller creates the
// in-flight operation under the lock before any network work begins, so
// no two refresh attempts can interleave their check-and-set. Everybody
// else waits on the same operation and shares its outcome.
func (s *sessionService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if op := s.inflight; op != nil {
		s.mu.Unlock()
		select {
		case <-op.done:
			return op.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	op := &refreshOp{done: make(chan struct{})}
	s.inflight = op
	refreshToken := s.session.RefreshToken
	s.mu.Unlock()

	op.err = s.doRefresh(ctx, refreshToken)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	close(op.done)

	return op.err
}

func (s *sessionService) doRefresh(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		s.forceLogout(ctx)
		return fmt.Errorf("%w: no refresh token", ErrSessionExpired)
	}

	auth, err := s.adapter.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Err(err).
			Str("func", "sessionService.doRefresh").
			Msg("silent refresh failed, forcing logout")
		s.forceLogout(ctx)
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	// the server may rotate only the access token
	if auth.RefreshToken == "" {
		auth.RefreshToken = refreshToken
	}

	s.mu.Lock()
	s.session.AccessToken = auth.AccessToken
	s.session.RefreshToken = auth.RefreshToken
	if auth.User.ID != "" {
		s.session.User = auth.User
	}
	session := s.session
	s.mu.Unlock()

	s.adapter.SetToken(auth.AccessToken)
	s.persist(ctx, session)

	return nil
}

func (s *sessionService) setStatus(status models.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Status = status
}

// Session implements [SessionService].
func (s *sessionService) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// OnForcedLogout implements [SessionService].
func (s *sessionService) OnForcedLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onForcedLogout = fn
}

// ForgotPassword implements [SessionService].
func (s *sessionService) ForgotPassword(ctx context.Context, email string) error {
	if err := s.adapter.ForgotPassword(ctx, models.ForgotPasswordRequest{Email: email}); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword implements [SessionService].
func (s *sessionService) ResetPassword(ctx context.Context, token, password string) error {
	if err := s.adapter.ResetPassword(ctx, models.ResetPasswordRequest{Token: token, Password: password}); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// establish moves the session to authenticated, pushes the token into the
// adapter, optionally persists the bundle, and brings the channel up. A
// channel dial failure only degrades realtime; the session stands.
func (s *sessionService) establish(ctx context.Context, session models.Session, persist bool) {
	s.mu.Lock()
	s.session = session
	s.redirectFired = false
	s.mu.Unlock()

	s.adapter.SetToken(session.AccessToken)

	if persist {
		s.persist(ctx, session)
	}

	if err := s.channel.Connect(ctx, session.AccessToken); err != nil {
		s.logger.Err(err).
			Str("func", "sessionService.establish").
			Msg("realtime unavailable, continuing in REST-only mode")
	}
}

func (s *sessionService) persist(ctx context.Context, session models.Session) {
	err := s.credentials.SaveCredentials(ctx, models.Credentials{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         session.User,
	})
	if err != nil {
		s.logger.Err(err).
			Str("func", "sessionService.persist").
			Msg("failed to persist session bundle")
	}
}

// teardown clears everything a session holds. via is the state the
// session passes through: SessionAnonymous for a user-initiated logout,
// SessionExpired for a forced one.
func (s *sessionService) teardown(ctx context.Context, via models.SessionStatus) {
	if err := s.credentials.ClearCredentials(ctx); err != nil {
		s.logger.Err(err).
			Str("func", "sessionService.teardown").
			Msg("failed to clear credential store")
	}

	s.adapter.SetToken("")
	_ = s.channel.Disconnect()

	s.mu.Lock()
	s.session = models.Session{Status: via}
	if via == models.SessionExpired {
		s.session = models.Session{Status: models.SessionAnonymous}
	}
	s.mu.Unlock()
}

// forceLogout ends the session after an unrecoverable refresh failure and
// fires the redirect callback exactly once per episode, no matter how
// many concurrent calls failed together.
func (s *sessionService) forceLogout(ctx context.Context) {
	s.mu.Lock()
	s.session.Status = models.SessionExpired
	fire := !s.redirectFired && s.onForcedLogout != nil
	s.redirectFired = true
	fn := s.onForcedLogout
	s.mu.Unlock()

	s.teardown(ctx, models.SessionExpired)

	if fire {
		fn()
	}
}
