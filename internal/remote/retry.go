package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
)

// RetryConfig configures retry behavior for transient errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryClient wraps a Client with automatic retry on transient errors.
type RetryClient struct {
	inner  Client
	config *RetryConfig
}

var _ Client = (*RetryClient)(nil)

// NewRetryClient creates a RetryClient that wraps the given Client.
func NewRetryClient(inner Client, cfg *RetryConfig) *RetryClient {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryClient{inner: inner, config: cfg}
}

// isTransient returns true for errors that are worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status >= 500 || re.Status == http.StatusTooManyRequests
	}
	var ge *GraphQLErrors
	if errors.As(err, &ge) {
		return ge.Status >= 500 || ge.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true // network errors are transient
}

// backoff computes the delay for the given attempt with jitter.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	base := float64(rc.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rc.config.MaxBackoff) {
		base = float64(rc.config.MaxBackoff)
	}
	jitter := base * rc.config.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry executes fn with retry logic. Only retries transient errors.
func (rc *RetryClient) retry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rc.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < rc.config.MaxRetries {
			if err := sleep(ctx, rc.backoff(attempt)); err != nil {
				return fmt.Errorf("%s: %w (retry cancelled)", operation, lastErr)
			}
		}
	}
	return fmt.Errorf("%s: %w (after %d retries)", operation, lastErr, rc.config.MaxRetries)
}

func (rc *RetryClient) LastCommit(ctx context.Context, resourceID string) (commits []*models.Commit, err error) {
	err = rc.retry(ctx, "last commit", func() error {
		commits, err = rc.inner.LastCommit(ctx, resourceID)
		return err
	})
	return
}

func (rc *RetryClient) Commits(ctx context.Context, projectID string) (commits []*models.Commit, err error) {
	err = rc.retry(ctx, "list commits", func() error {
		commits, err = rc.inner.Commits(ctx, projectID)
		return err
	})
	return
}

func (rc *RetryClient) PendingChanges(ctx context.Context, projectID string) (changes []*models.PendingChange, err error) {
	err = rc.retry(ctx, "pending changes", func() error {
		changes, err = rc.inner.PendingChanges(ctx, projectID)
		return err
	})
	return
}

func (rc *RetryClient) CreateCommit(ctx context.Context, projectID, message string) (*models.Commit, error) {
	// Mutations are not retried: a timed out request may still have committed.
	return rc.inner.CreateCommit(ctx, projectID, message)
}

func (rc *RetryClient) DownloadArchive(ctx context.Context, buildID string, w io.Writer) (int64, error) {
	// Cannot retry: w may already hold a partial archive.
	return rc.inner.DownloadArchive(ctx, buildID, w)
}
