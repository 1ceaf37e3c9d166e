package ai

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "status text", err: errors.New("429 too many requests"), want: true},
		{name: "rate limit text", err: errors.New("rate limit exceeded, slow down"), want: true},
		{name: "unrelated error", err: errors.New("connection refused"), want: false},
		{
			name: "structured rate limit",
			err:  fmt.Errorf("failed to complete: %w", &APIError{StatusCode: 429, Type: "rate_limit_error"}),
			want: true,
		},
		{
			name: "structured quota is not a rate limit",
			err:  fmt.Errorf("failed to complete: %w", &APIError{StatusCode: 429, IsPermanent: true}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "insufficient quota text", err: errors.New("insufficient_quota: upgrade plan"), want: true},
		{name: "billing text", err: errors.New("billing hard limit reached"), want: true},
		{name: "plain rate limit", err: errors.New("429 too many requests"), want: false},
		{
			name: "permanent api error",
			err:  fmt.Errorf("failed to complete: %w", &APIError{StatusCode: 429, IsPermanent: true}),
			want: true,
		},
		{
			name: "quota code",
			err:  fmt.Errorf("failed to complete: %w", &APIError{StatusCode: 429, Code: "insufficient_quota"}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	t.Run("parses embedded json details", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`POST 429: {"message":"Rate limit reached for model","type":"tokens","code":"rate_limit_exceeded"}`)

		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("Expected an APIError for a 429 response")
		}
		if apiErr.StatusCode != 429 {
			t.Errorf("Expected status 429, got %d", apiErr.StatusCode)
		}
		if apiErr.Message != "Rate limit reached for model" {
			t.Errorf("Expected parsed message, got %q", apiErr.Message)
		}
		if apiErr.Code != "rate_limit_exceeded" {
			t.Errorf("Expected parsed code, got %q", apiErr.Code)
		}
		if apiErr.IsPermanent {
			t.Error("Expected rate limit to be transient")
		}
		if apiErr.RetryAfter == nil || *apiErr.RetryAfter != 60*time.Second {
			t.Errorf("Expected 60s retry hint, got %v", apiErr.RetryAfter)
		}
	})

	t.Run("marks quota exhaustion permanent", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`POST 429: {"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}`)

		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("Expected an APIError for a quota response")
		}
		if !apiErr.IsPermanent {
			t.Error("Expected quota exhaustion to be permanent")
		}
		if apiErr.RetryAfter == nil || *apiErr.RetryAfter != time.Hour {
			t.Errorf("Expected 1h retry hint for quota, got %v", apiErr.RetryAfter)
		}
	})

	t.Run("returns nil for non-429 errors", func(t *testing.T) {
		t.Parallel()
		if apiErr := ExtractAPIError(errors.New("connection reset by peer")); apiErr != nil {
			t.Errorf("Expected nil for non-429 error, got %+v", apiErr)
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		t.Parallel()
		if apiErr := ExtractAPIError(nil); apiErr != nil {
			t.Errorf("Expected nil for nil error, got %+v", apiErr)
		}
	})
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	rateLimitErr := errors.New("429 too many requests")
	quotaErr := errors.New("insufficient_quota")
	genericErr := errors.New("connection refused")

	tests := []struct {
		name    string
		err     error
		attempt int
		want    time.Duration
	}{
		{name: "rate limit first attempt", err: rateLimitErr, attempt: 0, want: 60 * time.Second},
		{name: "rate limit backs off", err: rateLimitErr, attempt: 2, want: 240 * time.Second},
		{name: "rate limit capped", err: rateLimitErr, attempt: 10, want: 15 * time.Minute},
		{name: "quota first attempt", err: quotaErr, attempt: 0, want: time.Hour},
		{name: "quota capped at a day", err: quotaErr, attempt: 8, want: 24 * time.Hour},
		{name: "generic first attempt", err: genericErr, attempt: 0, want: 5 * time.Second},
		{name: "generic capped", err: genericErr, attempt: 9, want: 5 * time.Minute},
		{name: "negative attempt clamps", err: genericErr, attempt: -3, want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetRetryDelay(tt.err, tt.attempt); got != tt.want {
				t.Errorf("GetRetryDelay(%v, %d) = %v, want %v", tt.err, tt.attempt, got, tt.want)
			}
		})
	}
}
