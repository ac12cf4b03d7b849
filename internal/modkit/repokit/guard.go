package repokit

import (
	"context"
	"fmt"
	"time"
)

// guardTimeout bounds MustGuard when ctx has no deadline
const guardTimeout = 5 * time.Second

// MustGuard checks every backend of st at startup and panics when one is down
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, guardTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
