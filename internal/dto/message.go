package dto

// ClientMessage is a frame received from a websocket client.
type ClientMessage struct {
	Type   string `json:"type" validate:"required,oneof=join leave"`
	RoomID string `json:"roomId" validate:"required_if=Type join"`
	UserID string `json:"userId"`
}

// ErrorDTO reports a rejected client frame back to its sender.
type ErrorDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
