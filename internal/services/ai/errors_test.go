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
		{"nil", nil, false},
		{"rate limit api error", &APIError{StatusCode: 429}, true},
		{"quota api error", &APIError{StatusCode: 429, IsPermanent: true}, false},
		{"wrapped api error", fmt.Errorf("complete: %w", &APIError{StatusCode: 429}), true},
		{"string match 429", errors.New("request failed with 429"), true},
		{"string match rate limit", errors.New("rate limit reached for gpt-4o-mini"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
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
		{"nil", nil, false},
		{"permanent api error", &APIError{StatusCode: 429, IsPermanent: true}, true},
		{"insufficient quota code", &APIError{StatusCode: 429, Code: "insufficient_quota"}, true},
		{"plain rate limit", &APIError{StatusCode: 429}, false},
		{"string match quota", errors.New("you exceeded your current quota"), true},
		{"string match billing", errors.New("billing hard limit reached"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	t.Run("quota error with embedded json", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`POST "https://api.openai.com/v1/chat/completions": 429 Too Many Requests {"message": "You exceeded your current quota.", "type": "insufficient_quota", "code": "insufficient_quota"}`)

		apiErr := ExtractAPIError(err)
		if apiErr == nil {
			t.Fatal("ExtractAPIError() = nil")
		}
		if !apiErr.IsPermanent {
			t.Error("insufficient_quota should be permanent")
		}
		if apiErr.Code != "insufficient_quota" {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.RetryAfter == nil || *apiErr.RetryAfter != time.Hour {
			t.Errorf("retry after = %v, want 1h", apiErr.RetryAfter)
		}
	})

	t.Run("plain rate limit", func(t *testing.T) {
		t.Parallel()
		apiErr := ExtractAPIError(errors.New("429 Too Many Requests"))
		if apiErr == nil {
			t.Fatal("ExtractAPIError() = nil")
		}
		if apiErr.IsPermanent {
			t.Error("rate limit should not be permanent")
		}
		if apiErr.RetryAfter == nil || *apiErr.RetryAfter != 60*time.Second {
			t.Errorf("retry after = %v, want 60s", apiErr.RetryAfter)
		}
	})

	t.Run("non 429", func(t *testing.T) {
		t.Parallel()
		if apiErr := ExtractAPIError(errors.New("500 Internal Server Error")); apiErr != nil {
			t.Errorf("ExtractAPIError() = %+v, want nil", apiErr)
		}
	})
}
