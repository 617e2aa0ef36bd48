package client

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/dto"
)

// Subscribe dials the push channel, joins the view's room and applies every
// snapshot-bearing message until ctx is done or the connection fails.
// A nil error means ctx ended the subscription.
func Subscribe(ctx context.Context, pushURL string, view *View, userID string, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithFields(logrus.Fields{"component": "push", "room_id": view.roomID})

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, pushURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	join := dto.ClientMessage{Type: domain.MessageJoin, RoomID: view.roomID, UserID: userID}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to send join: %w", err)
	}

	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read: %w", err)
		}
		if env.Type == domain.MessageError {
			log.WithField("message", env.Message).Warn("server reported an error")
			continue
		}
		if snap := env.Snapshot(); snap != nil {
			if view.Apply(snap) {
				log.WithField("type", env.Type).Debug("view updated from push")
			}
		}
	}
}
