package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"collaborative-whiteboard/internal/domain"
)

// Event names carried in Envelope.Event.
const (
	EventCreateRoom        = "create-room"
	EventRoomCreated       = "room-created"
	EventValidateRoom      = "validate-room"
	EventValidationSuccess = "room-validation-success"
	EventValidationFailed  = "room-validation-failed"
	EventJoinRoom          = "join-room"
	EventRoomJoined        = "room-joined"
	EventUserJoined        = "user-joined"
	EventLeaveRoom         = "leave-room"
	EventUserLeft          = "user-left"
	EventObjectAdded       = "canvas:object:added"
	EventObjectModified    = "canvas:object:modified"
	EventObjectRemoved     = "canvas:object:removed"
	EventCanvasClear       = "canvas:clear"
	EventCursorPosition    = "cursor:position"
	EventThemeChange       = "theme-change"
	EventError             = "error"
)

// Envelope is the frame exchanged in both directions over the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an Envelope and marshals it. A nil payload
// produces a frame without data. HTML characters are left unescaped so
// client strings come back byte for byte.
func Encode(event string, payload interface{}) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("dto: failed to marshal %s payload: %w", event, err)
		}
		env.Data = data
	}
	return marshal(env)
}

// EncodeRaw builds a frame around data exactly as given, for relaying a
// client's payload without re-serializing it. data must be valid JSON.
func EncodeRaw(event string, data json.RawMessage) ([]byte, error) {
	name, err := marshal(event)
	if err != nil {
		return nil, fmt.Errorf("dto: failed to marshal event name %s: %w", event, err)
	}
	if len(data) == 0 {
		return append(append([]byte(`{"event":`), name...), '}'), nil
	}
	frame := make([]byte, 0, len(name)+len(data)+20)
	frame = append(frame, `{"event":`...)
	frame = append(frame, name...)
	frame = append(frame, `,"data":`...)
	frame = append(frame, data...)
	return append(frame, '}'), nil
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a raw frame into an Envelope.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("dto: malformed envelope: %w", err)
	}
	if env.Event == "" {
		return env, fmt.Errorf("dto: envelope has no event name")
	}
	return env, nil
}

// DecodeData unmarshals the envelope's data into v. Missing data leaves v untouched.
func (e Envelope) DecodeData(v interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("dto: malformed %s payload: %w", e.Event, err)
	}
	return nil
}

type CreateRoomPayload struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type RoomCreatedPayload struct {
	RoomID   string      `json:"roomId"`
	Password string      `json:"password"`
	User     domain.User `json:"user"`
}

type ValidateRoomPayload struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
}

type ValidationResultPayload struct {
	Message string `json:"message,omitempty"`
}

// UserData is the profile a client declares when joining. UserID is a stable
// identity kept by the client across reconnects.
type UserData struct {
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
	Color  string `json:"color,omitempty"`
}

type JoinRoomPayload struct {
	RoomID   string   `json:"roomId"`
	Password string   `json:"password"`
	UserData UserData `json:"userData"`
}

type RoomJoinedPayload struct {
	RoomID      string             `json:"roomId"`
	User        domain.User        `json:"user"`
	CanvasState domain.CanvasState `json:"canvasState"`
	Users       []domain.User      `json:"users"`
	RejoinCount int                `json:"rejoinCount"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}

type ObjectPayload struct {
	Object domain.CanvasObject `json:"object"`
}

type ObjectRemovedPayload struct {
	ObjectID string `json:"objectId"`
}

// CursorPayload is sent by clients without UserID; the server fills it in
// with the sender's connection id before fan-out.
type CursorPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID string  `json:"userId,omitempty"`
}

type ThemePayload struct {
	Theme string  `json:"theme"`
	Color *string `json:"color,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
