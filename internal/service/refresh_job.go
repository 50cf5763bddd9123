package service

import (
	"context"
	"sync"
	"time"

	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/models"
)

// defaultCheckInterval is how often the job inspects the access token.
// Shortened in tests.
const defaultCheckInterval = 30 * time.Second

type refreshJob struct {
	session SessionService
	leeway  time.Duration
	// interval between expiry checks
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewRefreshJob creates a job that renews the access token when its "exp"
// claim falls within leeway of the present. The job is idle until Start
// is called.
func NewRefreshJob(session SessionService, leeway time.Duration, log *logger.Logger) RefreshJob {
	if leeway <= 0 {
		leeway = 30 * time.Second
	}
	return &refreshJob{
		session:  session,
		leeway:   leeway,
		interval: defaultCheckInterval,
		logger:   log,
	}
}

// Start implements [RefreshJob]. It stops any previously running job,
// then launches a background goroutine that checks the token on a ticker.
// The goroutine exits when ctx is cancelled or Stop is called.
func (j *refreshJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.tick(jobCtx)
			}
		}
	}()
}

func (j *refreshJob) tick(ctx context.Context) {
	session := j.session.Session()
	if !session.Authenticated() {
		return
	}

	expiry := models.AccessTokenExpiry(session.AccessToken)
	if expiry.IsZero() || time.Until(expiry) > j.leeway {
		return
	}

	if err := j.session.Refresh(ctx); err != nil {
		j.logger.Err(err).
			Str("func", "refreshJob.tick").
			Msg("proactive refresh failed")
	}
}

// Stop implements [RefreshJob]. It cancels the background goroutine's
// context and blocks until the goroutine has fully exited. Safe to call
// when the job is not running.
func (j *refreshJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
