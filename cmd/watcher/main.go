// Command watcher joins a room and keeps a local view of it converged through
// both the push channel and polling, logging every change it sees.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/client"
	"locusfocus-backend/internal/domain"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", envOr("WATCHER_SERVER_URL", "http://127.0.0.1:3000"), "base url of the sync server")
	roomID := flag.String("room", envOr("WATCHER_ROOM_ID", ""), "room to join")
	userID := flag.String("user", envOr("WATCHER_USER_ID", ""), "user id to join as")
	username := flag.String("name", envOr("WATCHER_USERNAME", ""), "display name")
	interval := flag.Duration("poll", 5*time.Second, "polling interval")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *roomID == "" || *userID == "" || *username == "" {
		log.Fatal("-room, -user and -name are required")
	}

	api, err := client.NewAPI(*serverURL, nil)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := client.NewView(*roomID, func(s *domain.Snapshot) {
		locked := 0
		for _, l := range s.Locks {
			if l.Locked {
				locked++
			}
		}
		log.WithFields(logrus.Fields{
			"room_id":      s.RoomID,
			"last_updated": s.LastUpdated,
			"users":        len(s.Users),
			"locked":       locked,
		}).Info("room changed")
	})

	snap, err := api.Join(ctx, *roomID, *userID, *username)
	if err != nil {
		log.Fatalf("failed to join room: %v", err)
	}
	view.Apply(snap)

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.NewPoller(api, view, *interval, log).Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		subscribeContinuously(ctx, api.PushURL(), view, *userID, log)
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exit
	log.WithField("sig", sig).Info("Signal caught")
	cancel()
	wg.Wait()

	leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer leaveCancel()
	if _, err := api.Leave(leaveCtx, *roomID, *userID); err != nil {
		log.WithError(err).Warn("failed to leave room")
	}
}

// subscribeContinuously redials the push channel after a failure. The poller
// keeps the view fresh while it is down.
func subscribeContinuously(ctx context.Context, pushURL string, view *client.View, userID string, log *logrus.Logger) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		if err := client.Subscribe(ctx, pushURL, view, userID, log); err != nil {
			log.WithError(err).Warn("push channel lost")
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			log.Debug("stopping push subscription")
			return
		}
	}
}
