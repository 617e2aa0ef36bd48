// Package client is a room client that keeps a local view converged through
// both the push channel and periodic polling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/dto"
)

// ErrRoomNotFound is returned when the server answers 404.
var ErrRoomNotFound = errors.New("room not found")

// StatusError is a non-2xx answer other than 404.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Message)
}

// API talks to the HTTP endpoints of the server.
type API struct {
	baseURL *url.URL
	http    *http.Client
}

// NewAPI parses baseURL (for example http://127.0.0.1:3000). A nil
// httpClient gets a client with a 10s timeout.
func NewAPI(baseURL string, httpClient *http.Client) (*API, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{baseURL: u, http: httpClient}, nil
}

// PushURL is the websocket endpoint matching the API base url.
func (a *API) PushURL() string {
	u := a.baseURL.JoinPath("ws")
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

type roomResponse struct {
	Success bool             `json:"success"`
	Room    *domain.Snapshot `json:"room"`
}

type lockResponse struct {
	Success bool        `json:"success"`
	Lock    domain.Lock `json:"lock"`
}

type locksResponse struct {
	Locks map[string]domain.LockInfo `json:"locks"`
}

// Join adds the user to the room, creating it when needed.
func (a *API) Join(ctx context.Context, roomID, userID, username string) (*domain.Snapshot, error) {
	var out roomResponse
	err := a.do(ctx, http.MethodPost, a.roomPath(roomID, "join"), dto.JoinRoomRequest{UserID: userID, Username: username}, &out)
	if err != nil {
		return nil, err
	}
	return out.Room, nil
}

// Leave removes the user from the room.
func (a *API) Leave(ctx context.Context, roomID, userID string) (*domain.Snapshot, error) {
	var out roomResponse
	if err := a.do(ctx, http.MethodPost, a.roomPath(roomID, "leave"), dto.LeaveRoomRequest{UserID: userID}, &out); err != nil {
		return nil, err
	}
	return out.Room, nil
}

// Snapshot fetches the full room state.
func (a *API) Snapshot(ctx context.Context, roomID string) (*domain.Snapshot, error) {
	var out domain.Snapshot
	if err := a.do(ctx, http.MethodGet, a.roomPath(roomID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLock records a lock decision about target.
func (a *API) SetLock(ctx context.Context, roomID, target, by string, locked bool) (*domain.Lock, error) {
	req := dto.SetLockRequest{TargetUserID: target, LockedByUserID: by, Locked: &locked}
	var out lockResponse
	if err := a.do(ctx, http.MethodPost, a.roomPath(roomID, "lock"), req, &out); err != nil {
		return nil, err
	}
	return &out.Lock, nil
}

// LockStatus reads the lock state of one user.
func (a *API) LockStatus(ctx context.Context, roomID, userID string) (domain.LockInfo, error) {
	var out domain.LockInfo
	err := a.do(ctx, http.MethodGet, a.roomPath(roomID, "locks", userID), nil, &out)
	return out, err
}

// Locks reads every lock of the room.
func (a *API) Locks(ctx context.Context, roomID string) (map[string]domain.LockInfo, error) {
	var out locksResponse
	if err := a.do(ctx, http.MethodGet, a.roomPath(roomID, "locks"), nil, &out); err != nil {
		return nil, err
	}
	return out.Locks, nil
}

func (a *API) roomPath(roomID string, elem ...string) *url.URL {
	return a.baseURL.JoinPath(append([]string{"api", "rooms", roomID}, elem...)...)
}

func (a *API) do(ctx context.Context, method string, u *url.URL, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrRoomNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", u.Path, err)
	}
	return nil
}
