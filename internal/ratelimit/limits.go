// Package ratelimit gates player commands per user with fixed per-command budgets.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"nations-server/internal/shared/errors"
)

const (
	CommandCreateNation = "create_nation"
	CommandAttack       = "attack"
	CommandBuild        = "build"
	CommandDevelopment  = "development"
	CommandDefault      = "default"
)

type Limit struct {
	Requests int
	Window   time.Duration
}

var limits = map[string]Limit{
	CommandCreateNation: {Requests: 1, Window: 24 * time.Hour},
	CommandAttack:       {Requests: 5, Window: time.Hour},
	CommandBuild:        {Requests: 10, Window: time.Hour},
	CommandDevelopment:  {Requests: 5, Window: time.Hour},
	CommandDefault:      {Requests: 30, Window: time.Minute},
}

// LimitFor returns the budget of a command; unknown commands share the default budget.
func LimitFor(command string) Limit {
	if l, ok := limits[command]; ok {
		return l
	}
	return limits[CommandDefault]
}

func bucket(command string) string {
	if _, ok := limits[command]; ok {
		return command
	}
	return CommandDefault
}

// Limiter returns nil when the user may run command now, or a rate_limited error carrying the wait.
type Limiter interface {
	Check(ctx context.Context, userID int64, command string) error
}

type Disabled struct{}

func (Disabled) Check(context.Context, int64, string) error { return nil }

func exceeded(userID int64, command string, retryAfter time.Duration) error {
	retryAfter = max(retryAfter, time.Second)

	wait := fmt.Sprintf("%d seconds", int(math.Ceil(retryAfter.Seconds())))
	if retryAfter >= time.Minute {
		wait = fmt.Sprintf("%d minutes", int(math.Ceil(retryAfter.Minutes())))
	}

	return errors.WithUserMessage(
		errors.RateLimited(fmt.Sprintf("user %d exceeded %s limit", userID, command), retryAfter),
		fmt.Sprintf("You're using this command too frequently. Please wait %s before trying again.", wait),
	)
}
