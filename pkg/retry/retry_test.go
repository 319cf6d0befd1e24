package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialInterval != 200*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 200ms", config.InitialInterval)
	}
	if config.MaxInterval != 2*time.Second {
		t.Errorf("MaxInterval = %v, want 2s", config.MaxInterval)
	}
}

func TestNew_WithZeroValues(t *testing.T) {
	config := &Config{MaxRetries: -1}
	retrier := New(config)

	if retrier.config.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", retrier.config.MaxRetries)
	}
	if retrier.config.InitialInterval != 200*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 200ms (default)", retrier.config.InitialInterval)
	}
	if retrier.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0 (default)", retrier.config.Multiplier)
	}
	if config.MaxRetries != -1 {
		t.Error("New must not modify the caller's config")
	}
}

func TestRetrier_Do(t *testing.T) {
	temporary := errors.New("temporary error")

	tests := []struct {
		name         string
		maxRetries   int
		failures     int
		wantAttempts int
		wantErr      bool
	}{
		{name: "first attempt succeeds", maxRetries: 3, failures: 0, wantAttempts: 1},
		{name: "succeeds after retries", maxRetries: 5, failures: 2, wantAttempts: 3},
		{name: "exhausts retries", maxRetries: 3, failures: 10, wantAttempts: 4, wantErr: true},
		{name: "no retries configured", maxRetries: 0, failures: 1, wantAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result := New(fastConfig(tt.maxRetries)).Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return temporary
				}
				return nil
			})

			if result.Attempts != tt.wantAttempts || calls != tt.wantAttempts {
				t.Errorf("Attempts = %d, calls = %d, want %d", result.Attempts, calls, tt.wantAttempts)
			}
			if !tt.wantErr {
				if result.Err != nil {
					t.Errorf("Err = %v, want nil", result.Err)
				}
				return
			}
			if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
				t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
			}
			if !errors.Is(result.Err, temporary) {
				t.Errorf("Err = %v, should wrap the last attempt's error", result.Err)
			}
			if result.LastError != temporary {
				t.Errorf("LastError = %v, want %v", result.LastError, temporary)
			}
		})
	}
}

func TestRetrier_Do_PermanentError(t *testing.T) {
	notFound := errors.New("property not found")

	calls := 0
	result := New(fastConfig(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(notFound)
	})

	if result.Err != notFound {
		t.Errorf("Err = %v, want %v unwrapped", result.Err, notFound)
	}
	if calls != 1 {
		t.Errorf("Operation called %d times, want 1", calls)
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	config := fastConfig(10)
	config.InitialInterval = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	result := New(config).Do(ctx, func(ctx context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("upstream 503")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if calls != 2 {
		t.Errorf("Operation called %d times, want 2", calls)
	}
}

func TestRetrier_Do_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	result := New(fastConfig(3)).Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if calls != 0 {
		t.Errorf("Operation called %d times, want 0", calls)
	}
}

func TestRetrier_DoWithCallback(t *testing.T) {
	calls := 0
	var seen []int
	result := New(fastConfig(3)).DoWithCallback(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("error")
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		seen = append(seen, attempt)
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("callback attempts = %v, want [1 2]", seen)
	}
}

func TestCalculateInterval_ExponentialBackoff(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
	})

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 200 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{3, 1600 * time.Millisecond},
		{4, 2 * time.Second},
		{8, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := retrier.calculateInterval(tt.attempt); got != tt.expected {
			t.Errorf("calculateInterval(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestCalculateInterval_WithJitter(t *testing.T) {
	retrier := New(&Config{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	})

	minExpected := 900 * time.Millisecond
	maxExpected := 1100 * time.Millisecond

	for i := 0; i < 100; i++ {
		if interval := retrier.calculateInterval(0); interval < minExpected || interval > maxExpected {
			t.Fatalf("calculateInterval(0) = %v, want between %v and %v", interval, minExpected, maxExpected)
		}
	}
}

func TestPermanent(t *testing.T) {
	err := errors.New("bad request")
	permErr := Permanent(err)

	if !IsPermanent(permErr) {
		t.Error("Permanent error should be detected by IsPermanent")
	}
	if IsPermanent(err) {
		t.Error("plain error should not be permanent")
	}
	if !errors.Is(permErr, err) {
		t.Error("PermanentError should unwrap to the original error")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should return nil")
	}
}
