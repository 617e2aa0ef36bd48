package client_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locusfocus-backend/internal/bootstrap"
	"locusfocus-backend/internal/client"
	"locusfocus-backend/internal/hub"
	gormpersistence "locusfocus-backend/internal/infra/persistence/gorm"
	"locusfocus-backend/internal/infra/setup"
	"locusfocus-backend/internal/service"
)

type server struct {
	api *client.API
	hub *hub.Hub
}

func startServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)

	db, err := setup.InitDB(setup.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))

	log := logrus.New()
	log.SetOutput(io.Discard)
	h := hub.NewHub()
	svc := service.NewRoomService(gormpersistence.NewGormRoomRepository(db, nil), h)
	router := bootstrap.NewRouter(bootstrap.RouterDeps{
		Config:      &bootstrap.Config{CORSAllowedOrigin: "*"},
		Log:         log,
		Hub:         h,
		RoomService: svc,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	api, err := client.NewAPI(srv.URL, srv.Client())
	require.NoError(t, err)
	return &server{api: api, hub: h}
}

func TestNewAPI_RejectsBadURL(t *testing.T) {
	_, err := client.NewAPI("ftp://example.com", nil)
	assert.Error(t, err)
	_, err = client.NewAPI("://nope", nil)
	assert.Error(t, err)
}

func TestAPI_PushURL(t *testing.T) {
	api, err := client.NewAPI("https://sync.example.com/base", nil)
	require.NoError(t, err)
	assert.Equal(t, "wss://sync.example.com/base/ws", api.PushURL())
}

func TestAPI_RoundTrip(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()

	_, err := s.api.Snapshot(ctx, "r1")
	assert.ErrorIs(t, err, client.ErrRoomNotFound)

	snap, err := s.api.Join(ctx, "r1", "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "r1", snap.RoomID)
	require.Len(t, snap.Users, 1)

	lock, err := s.api.SetLock(ctx, "r1", "alice", "bob", true)
	require.NoError(t, err)
	assert.Equal(t, "bob", lock.LockedByUserID)
	assert.True(t, lock.Locked)

	info, err := s.api.LockStatus(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.True(t, info.Locked)
	require.NotNil(t, info.LockedBy)
	assert.Equal(t, "bob", *info.LockedBy)

	locks, err := s.api.Locks(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, locks, 1)

	snap, err = s.api.Leave(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Empty(t, snap.Users)

	_, err = s.api.Join(ctx, "r1", "", "")
	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Code)
	assert.Equal(t, "userId and username are required", se.Message)
}

func TestSubscribe_ConvergesFromPush(t *testing.T) {
	s := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := s.api.Join(ctx, "r1", "alice", "Alice")
	require.NoError(t, err)

	view := client.NewView("r1", nil)
	done := make(chan error, 1)
	go func() { done <- client.Subscribe(ctx, s.api.PushURL(), view, "alice", nil) }()

	// The join answer carries the current state.
	require.Eventually(t, func() bool { return view.Snapshot() != nil }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.hub.SubscriberCount("r1") == 1 }, time.Second, 10*time.Millisecond)

	_, err = s.api.SetLock(ctx, "r1", "alice", "bob", true)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		locked, by := view.Locked("alice")
		return locked && by == "bob"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
}

func TestPoller_ConvergesWithoutPush(t *testing.T) {
	s := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := s.api.Join(ctx, "r1", "alice", "Alice")
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	view := client.NewView("r1", nil)
	go client.NewPoller(s.api, view, 20*time.Millisecond, log).Run(ctx)

	require.Eventually(t, func() bool { return view.Snapshot() != nil }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.hub.SubscriberCount("r1"))

	_, err = s.api.SetLock(ctx, "r1", "alice", "bob", true)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		locked, _ := view.Locked("alice")
		return locked
	}, 2*time.Second, 10*time.Millisecond)
}
