package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/repository"
	"locusfocus-backend/internal/repository/mocks"
	"locusfocus-backend/internal/service"
)

// recordingPublisher captures published messages per room.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs map[string][]any
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{msgs: make(map[string][]any)}
}

func (p *recordingPublisher) Publish(roomID string, message any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs[roomID] = append(p.msgs[roomID], message)
	return 1
}

func (p *recordingPublisher) Messages(roomID string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.msgs[roomID]...)
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newMockedService(t *testing.T) (*service.RoomService, *mocks.RoomRepository, *recordingPublisher) {
	t.Helper()
	repo := new(mocks.RoomRepository)
	pub := newRecordingPublisher()
	return service.NewRoomService(repo, pub, service.WithClock(fixedClock)), repo, pub
}

func TestJoinRoom_Success(t *testing.T) {
	svc, repo, pub := newMockedService(t)
	ctx := context.Background()

	snap := &domain.Snapshot{
		RoomID: "r1",
		Users:  []domain.Member{{RoomID: "r1", UserID: "alice", Username: "Alice"}},
		Locks:  map[string]domain.LockInfo{},
	}
	repo.On("UpsertRoom", ctx, "r1").Return(&domain.Room{ID: "r1"}, nil).Once()
	repo.On("UpsertMember", ctx, "r1", "alice", "Alice", fixedNow).Return(nil).Once()
	repo.On("Snapshot", ctx, "r1").Return(snap, nil).Once()

	got, err := svc.JoinRoom(ctx, "r1", "alice", "Alice")

	require.NoError(t, err)
	assert.Equal(t, snap, got)
	msgs := pub.Messages("r1")
	require.Len(t, msgs, 1)
	evt, ok := msgs[0].(domain.UserJoinedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.MessageUserJoined, evt.Type)
	assert.Equal(t, "alice", evt.UserID)
	assert.Equal(t, "Alice", evt.Username)
	assert.Same(t, snap, evt.State)
	repo.AssertExpectations(t)
}

func TestJoinRoom_Validation(t *testing.T) {
	cases := []struct {
		name, room, user, username string
		field                      string
	}{
		{"missing room", "", "alice", "Alice", "roomId"},
		{"missing user", "r1", "", "Alice", "userId"},
		{"blank username", "r1", "alice", "   ", "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, pub := newMockedService(t)

			_, err := svc.JoinRoom(context.Background(), tc.room, tc.user, tc.username)

			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.FieldErrors, tc.field)
			assert.Empty(t, pub.Messages(tc.room))
			repo.AssertNotCalled(t, "UpsertRoom", mock.Anything, mock.Anything)
		})
	}
}

func TestJoinRoom_MissingUserMessage(t *testing.T) {
	svc, _, _ := newMockedService(t)

	_, err := svc.JoinRoom(context.Background(), "r1", "", "")

	require.Error(t, err)
	assert.Equal(t, "userId and username are required", err.Error())
}

func TestJoinRoom_StorageError(t *testing.T) {
	svc, repo, pub := newMockedService(t)
	ctx := context.Background()
	dbErr := errors.New("disk I/O error")

	repo.On("UpsertRoom", ctx, "r1").Return(nil, dbErr).Once()

	_, err := svc.JoinRoom(ctx, "r1", "alice", "Alice")

	assert.ErrorIs(t, err, service.ErrStorage)
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, pub.Messages("r1"))
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpsertMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSnapshot_NotFound(t *testing.T) {
	svc, repo, _ := newMockedService(t)
	ctx := context.Background()

	repo.On("Snapshot", ctx, "nope").Return(nil, repository.ErrRoomNotFound).Once()

	snap, err := svc.GetSnapshot(ctx, "nope")

	assert.Nil(t, snap)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	repo.AssertExpectations(t)
}

func TestLeaveRoom(t *testing.T) {
	svc, repo, pub := newMockedService(t)
	ctx := context.Background()
	snap := &domain.Snapshot{RoomID: "r1", Users: []domain.Member{}, Locks: map[string]domain.LockInfo{}}

	repo.On("GetRoom", ctx, "r1").Return(&domain.Room{ID: "r1"}, nil).Twice()
	repo.On("RemoveMember", ctx, "r1", "alice").Return(true, nil).Once()
	repo.On("RemoveMember", ctx, "r1", "alice").Return(false, nil).Once()
	repo.On("Snapshot", ctx, "r1").Return(snap, nil).Twice()

	got, err := svc.LeaveRoom(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	// Second leave removes nothing and publishes nothing.
	_, err = svc.LeaveRoom(ctx, "r1", "alice")
	require.NoError(t, err)

	msgs := pub.Messages("r1")
	require.Len(t, msgs, 1)
	evt, ok := msgs[0].(domain.UserLeftEvent)
	require.True(t, ok)
	assert.Equal(t, domain.MessageUserLeft, evt.Type)
	assert.Equal(t, "alice", evt.UserID)
	repo.AssertExpectations(t)
}

func TestLeaveRoom_NotFound(t *testing.T) {
	svc, repo, _ := newMockedService(t)
	ctx := context.Background()

	repo.On("GetRoom", ctx, "r1").Return(nil, repository.ErrRoomNotFound).Once()

	_, err := svc.LeaveRoom(ctx, "r1", "alice")

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	repo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestPing(t *testing.T) {
	svc, repo, _ := newMockedService(t)
	ctx := context.Background()

	repo.On("Ping", ctx).Return(nil).Once()
	assert.NoError(t, svc.Ping(ctx))

	repo.On("Ping", ctx).Return(errors.New("closed")).Once()
	assert.ErrorIs(t, svc.Ping(ctx), service.ErrStorage)
	repo.AssertExpectations(t)
}

func TestNewRoomService_NilRepoPanics(t *testing.T) {
	assert.Panics(t, func() { service.NewRoomService(nil, nil) })
}
