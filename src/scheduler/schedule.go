package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

// Schedule runs job on a cron spec until ctx is done. A tick that arrives
// while the previous pass is still running is skipped.
func Schedule(ctx context.Context, spec string, job *Job) error {
	var running sync.Mutex
	tick := func() {
		if !running.TryLock() {
			log.Warn().Msg("previous pass still running, skipping this tick")
			return
		}
		defer running.Unlock()

		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled pass failed")
		}
	}

	schedule := cron.New()
	if err := schedule.AddFunc(spec, tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	log.Info().Str("schedule", spec).Msg("scheduling availability passes")
	schedule.Start()
	<-ctx.Done()
	schedule.Stop()

	running.Lock()
	defer running.Unlock()
	log.Info().Msg("scheduler stopped")
	return nil
}
