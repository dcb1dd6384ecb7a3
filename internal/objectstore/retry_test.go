package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	m := NewMemory("")
	calls := 0
	m.UploadHook = func(name string) error {
		calls++
		if calls < 3 {
			return errors.New("503 backend error")
		}
		return nil
	}
	store := WithRetry(m, RetryConfig{Retries: 3, BaseDelay: time.Millisecond, Timeout: time.Second})

	_, err := store.Upload(context.Background(), "a.jpg", []byte("x"), UploadOptions{ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, m.Has("a.jpg"))
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	m := NewMemory("")
	calls := 0
	m.DeleteHook = func(name string) error {
		calls++
		return errors.New("connection reset")
	}
	store := WithRetry(m, RetryConfig{Retries: 2, BaseDelay: time.Millisecond, Timeout: time.Second})

	err := store.Delete(context.Background(), "a.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 3, calls)
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	m := NewMemory("")
	store := WithRetry(m, RetryConfig{Retries: 5, BaseDelay: time.Millisecond, Timeout: time.Second})

	_, _, err := store.Download(context.Background(), "missing.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", ErrNotFound, false},
		{"precondition", ErrPreconditionFailed, false},
		{"canceled", context.Canceled, false},
		{"attempt timeout", context.DeadlineExceeded, true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, false},
		{"request timeout", &googleapi.Error{Code: http.StatusRequestTimeout}, true},
		{"throttled", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"server error", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"wrapped server error", fmt.Errorf("upload a.jpg: %w", &googleapi.Error{Code: http.StatusBadGateway}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetryStopsOnPermanentAPIError(t *testing.T) {
	m := NewMemory("")
	calls := 0
	m.UploadHook = func(name string) error {
		calls++
		return &googleapi.Error{Code: http.StatusForbidden, Message: "permission denied"}
	}
	store := WithRetry(m, RetryConfig{Retries: 4, BaseDelay: time.Millisecond, Timeout: time.Second})

	_, err := store.Upload(context.Background(), "a.jpg", []byte("x"), UploadOptions{ContentType: "image/jpeg"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
