package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	model "github.com/cowin-slot-notifier/src/model"
	"github.com/cowin-slot-notifier/src/notify"
)

// Dispatcher delivers a payload to every configured recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, p notify.Payload) error
}

// Recorder keeps a copy of every delivered result set.
type Recorder interface {
	Record(ctx context.Context, runID string, rows []model.SessionRow) error
}

// Job is one configured polling pass.
type Job struct {
	aggregator *Aggregator
	dispatcher Dispatcher
	recorder   Recorder
	query      Query
}

func NewJob(aggregator *Aggregator, dispatcher Dispatcher, query Query) *Job {
	return &Job{aggregator: aggregator, dispatcher: dispatcher, query: query}
}

// WithRecorder archives every successful result set before it is delivered.
func (j *Job) WithRecorder(r Recorder) *Job {
	j.recorder = r
	return j
}

// Run performs one pass. Matches are delivered; a pass without matches is
// silent. A failed pass, or a panic anywhere in it, is reported to the
// recipients and returned as an error.
func (j *Job) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			logger.Error().Str("stack", string(debug.Stack())).Err(err).Msg("availability pass crashed")
			j.reportFailure(ctx, &logger, runID, err)
		}
	}()

	logger.Info().
		Str("kind", j.query.Kind.String()).
		Strs("keys", j.query.Keys).
		Int("days", j.query.Days).
		Int("min_age_limit", j.query.MinAgeLimit).
		Str("policy", j.query.Policy.String()).
		Msg("starting availability pass")

	availability, err := j.aggregator.Aggregate(ctx, j.query)
	if err != nil {
		var aggErr *AggregateError
		switch {
		case errors.As(err, &aggErr) && !aggErr.HasFailures():
			logger.Info().Msg("no sessions returned, nothing to send")
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		}
		logger.Error().Err(err).Msg("availability pass failed")
		j.reportFailure(ctx, &logger, runID, err)
		return err
	}

	if len(availability.Failures) > 0 {
		logger.Warn().Int("failures", len(availability.Failures)).Msg("some fetches failed, continuing with partial results")
	}
	if len(availability.Rows) == 0 {
		logger.Info().Dur("elapsed", time.Since(start)).Msg("no matching sessions, nothing to send")
		return nil
	}

	if j.recorder != nil {
		if err := j.recorder.Record(ctx, runID, availability.Rows); err != nil {
			logger.Error().Err(err).Msg("archiving results failed")
		}
	}

	payload := notify.Payload{
		Kind:        notify.Success,
		RunID:       runID,
		MinAgeLimit: j.query.MinAgeLimit,
		Rows:        availability.Rows,
		GeneratedAt: time.Now(),
	}
	if err := j.dispatcher.Dispatch(ctx, payload); err != nil {
		return fmt.Errorf("deliver availability: %w", err)
	}

	logger.Info().Int("matches", len(availability.Rows)).Dur("elapsed", time.Since(start)).Msg("availability pass delivered")
	return nil
}

// SendTest delivers a test message to every recipient.
func (j *Job) SendTest(ctx context.Context) error {
	return j.dispatcher.Dispatch(ctx, notify.Payload{
		Kind:        notify.Test,
		RunID:       uuid.NewString(),
		MinAgeLimit: j.query.MinAgeLimit,
		GeneratedAt: time.Now(),
	})
}

func (j *Job) reportFailure(ctx context.Context, logger *zerolog.Logger, runID string, cause error) {
	payload := notify.Payload{
		Kind:        notify.Failure,
		RunID:       runID,
		MinAgeLimit: j.query.MinAgeLimit,
		Detail:      cause.Error(),
		GeneratedAt: time.Now(),
	}
	if err := j.dispatcher.Dispatch(ctx, payload); err != nil {
		logger.Error().Err(err).Msg("failure notification not delivered")
	}
}
