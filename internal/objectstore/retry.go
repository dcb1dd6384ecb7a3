package objectstore

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds every call made through WithRetry.
type RetryConfig struct {
	// Retries is the number of extra attempts after the first one.
	Retries   uint64
	BaseDelay time.Duration
	// Timeout caps a single attempt.
	Timeout time.Duration
}

type retrying struct {
	next Store
	cfg  RetryConfig
}

// WithRetry decorates a store with a per-attempt timeout and exponential
// backoff for transient failures.
func WithRetry(next Store, cfg RetryConfig) Store {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &retrying{next: next, cfg: cfg}
}

func (r *retrying) backoff() retry.Backoff {
	b := retry.NewExponential(r.cfg.BaseDelay)
	b = retry.WithJitter(r.cfg.BaseDelay/2+time.Millisecond, b)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxRetries(r.cfg.Retries, b)
}

func (r *retrying) do(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
		err := fn(attemptCtx)
		if IsTransient(err) && ctx.Err() == nil {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *retrying) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.next.List(ctx, prefix)
		return err
	})
	return out, err
}

func (r *retrying) Upload(ctx context.Context, name string, data []byte, opts UploadOptions) (int64, error) {
	var generation int64
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		generation, err = r.next.Upload(ctx, name, data, opts)
		return err
	})
	return generation, err
}

func (r *retrying) Download(ctx context.Context, name string) ([]byte, int64, error) {
	var (
		data       []byte
		generation int64
	)
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		data, generation, err = r.next.Download(ctx, name)
		return err
	})
	return data, generation, err
}

func (r *retrying) Delete(ctx context.Context, name string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.Delete(ctx, name)
	})
}

func (r *retrying) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	var url string
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		url, err = r.next.SignedURL(ctx, name, expiry)
		return err
	})
	return url, err
}

func (r *retrying) PublicURL(name string) string {
	return r.next.PublicURL(name)
}
