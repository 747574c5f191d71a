package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Occupancy is the part of a limiter the reporter reads.
type Occupancy interface {
	Tracked() int
	Capacity() int
}

// Reporter logs limiter occupancy on a cron schedule.
type Reporter struct {
	cron   *cron.Cron
	target Occupancy
	logger zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// parser accepts an optional seconds field and descriptors like "@every 1s".
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewReporter validates schedule and returns a stopped Reporter.
func NewReporter(schedule string, target Occupancy, logger zerolog.Logger) (*Reporter, error) {
	c := cron.New(cron.WithParser(parser))

	r := &Reporter{
		cron:   c,
		target: target,
		logger: logger.With().Str("component", "reporter").Logger(),
		done:   make(chan struct{}),
	}
	if _, err := c.AddFunc(schedule, r.report); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule until ctx is done or Stop is called.
func (r *Reporter) Start(ctx context.Context) {
	r.cron.Start()
	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.done:
		}
	}()
}

// Stop halts the schedule and waits for a running report to finish.
// It is safe to call more than once.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	<-r.cron.Stop().Done()
}

func (r *Reporter) report() {
	r.logger.Info().
		Int("tracked", r.target.Tracked()).
		Int("capacity", r.target.Capacity()).
		Msg("window occupancy")
}
