package client

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/domain"
)

// SnapshotFetcher is the pull side of the API.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context, roomID string) (*domain.Snapshot, error)
}

// Poller refreshes a View on a fixed interval. It runs regardless of the
// push channel, so a missed notification is repaired on the next tick.
type Poller struct {
	fetcher  SnapshotFetcher
	view     *View
	interval time.Duration
	log      *logrus.Entry
}

func NewPoller(fetcher SnapshotFetcher, view *View, interval time.Duration, logger *logrus.Logger) *Poller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Poller{
		fetcher:  fetcher,
		view:     view,
		interval: interval,
		log:      logger.WithFields(logrus.Fields{"component": "poller", "room_id": view.roomID}),
	}
}

// Run polls once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.PollOnce(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.PollOnce(ctx)
		case <-ctx.Done():
			p.log.Debug("stopping scheduled poll")
			return
		}
	}
}

// PollOnce fetches and applies one snapshot. It reports whether the view
// changed.
func (p *Poller) PollOnce(ctx context.Context) bool {
	snap, err := p.fetcher.Snapshot(ctx, p.view.roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			p.log.Debug("room does not exist yet")
		} else if ctx.Err() == nil {
			p.log.WithError(err).Warn("poll failed")
		}
		return false
	}
	return p.view.Apply(snap)
}
