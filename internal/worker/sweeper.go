package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper runs the room cleanup on a fixed interval inside the process. It is
// used when no Redis is configured for the asynq scheduler.
type Sweeper struct {
	cleaner  Cleaner
	interval time.Duration
	daysOld  int
	log      *logrus.Entry

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewSweeper(cleaner Cleaner, interval time.Duration, daysOld int, logger *logrus.Logger) *Sweeper {
	if cleaner == nil {
		panic("Cleaner cannot be nil for Sweeper")
	}
	if interval <= 0 {
		panic("interval must be positive for Sweeper")
	}
	return &Sweeper{
		cleaner:  cleaner,
		interval: interval,
		daysOld:  daysOld,
		log:      logger.WithField("component", "sweeper"),
		done:     make(chan struct{}),
	}
}

// Start launches the ticker loop. The first sweep runs after one interval.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx)
	s.log.WithField("interval", s.interval.String()).Info("Sweeper started")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single cleanup pass and logs its outcome.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	deleted, err := s.cleaner.Cleanup(ctx, float64(s.daysOld))
	if err != nil {
		s.log.WithError(err).Error("Sweep failed")
		return
	}
	s.log.WithField("deleted_rooms", deleted).Debug("Sweep finished")
}

// Stop ends the loop and waits for an in-flight sweep to return.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
		s.log.Info("Sweeper stopped")
	})
}
