package pipeline_test

import (
	"context"
	"time"
)

// instantClock makes poll sleeps return immediately.
type instantClock struct{}

func (instantClock) Now() time.Time { return time.Now() }

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
