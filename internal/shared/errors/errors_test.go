package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestGetTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("build units: %w", Resourcef("not enough resources: %d < %d", 10, 50))

	if got := GetType(err); got != ErrorTypeResource {
		t.Errorf("GetType() = %q, want %q", got, ErrorTypeResource)
	}
	if !Is(err, ErrorTypeResource) {
		t.Error("expected Is to match wrapped resource error")
	}
	if got := GetType(errors.New("plain")); got != ErrorTypeInternal {
		t.Errorf("GetType(plain) = %q, want internal", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"diagnostic reused", Validation("Quantity must be greater than 0"), "Quantity must be greater than 0"},
		{"explicit user text", WithUserMessage(Forbiddenf("country %d is founder", 3), "You are the founder."), "You are the founder."},
		{"store hidden", WrapStore("failed to update nation", errors.New("connection reset")), GenericUserMessage},
		{"internal hidden", WrapInternal("boom", nil), GenericUserMessage},
		{"foreign error hidden", errors.New("driver: bad conn"), GenericUserMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithUserMessageDoesNotMutateOriginal(t *testing.T) {
	base := Validation("bad")
	decorated := WithUserMessage(base, "Bad input.")

	if UserMessage(base) != "bad" {
		t.Errorf("original error was mutated: %q", UserMessage(base))
	}
	if UserMessage(decorated) != "Bad input." {
		t.Errorf("decorated message = %q", UserMessage(decorated))
	}
}

func TestRetryAfter(t *testing.T) {
	err := fmt.Errorf("gate: %w", RateLimited("attack throttled", 90*time.Second))

	if got := RetryAfter(err); got != 90*time.Second {
		t.Errorf("RetryAfter() = %v, want 90s", got)
	}
	if GetType(err) != ErrorTypeRateLimited {
		t.Errorf("expected rate limited type, got %q", GetType(err))
	}
}
