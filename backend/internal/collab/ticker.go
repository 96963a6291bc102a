package collab

import (
	"context"
	"time"
)

// Every 按固定周期调用 fn，直到 ctx 结束；ctx 结束时返回 nil，方便放进 errgroup
func Every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fn(ctx)
		}
	}
}
