/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"time"

	"github.com/Seednode/liarliar/show"
)

// reaperLoop deactivates audience members idle longer than the idle timeout,
// and deletes deactivated ones past the purge threshold. It returns when ctx
// is cancelled.
func reaperLoop(ctx context.Context, cfg *Config, svc *show.Service) error {
	if cfg.audienceIdle <= 0 && cfg.audiencePurge <= 0 {
		return nil
	}

	interval := cfg.audienceIdle / 2
	if cfg.audienceIdle <= 0 {
		interval = cfg.audiencePurge / 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			reap(ctx, cfg, svc)
		}
	}
}

func reap(ctx context.Context, cfg *Config, svc *show.Service) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if cfg.audienceIdle > 0 {
		n, err := svc.DeactivateIdleAudience(ctx, cfg.audienceIdle)
		switch {
		case err != nil:
			logf(cfg, "ERROR: Deactivating idle audience: %v", err)
		case n > 0:
			logf(cfg, "REAPER: Deactivated %d audience members idle for over %s", n, cfg.audienceIdle)
		}
	}

	if cfg.audiencePurge > 0 {
		n, err := svc.PurgeInactiveAudience(ctx, cfg.audiencePurge)
		switch {
		case err != nil:
			logf(cfg, "ERROR: Purging inactive audience: %v", err)
		case n > 0:
			logf(cfg, "REAPER: Deleted %d inactive audience members", n)
		}
	}
}
