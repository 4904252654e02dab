package domain

import "time"

// User is the per-connection profile inside a room. It is destroyed when the
// connection leaves or disconnects.
type User struct {
	ID       string    `json:"connectionId"`
	Name     string    `json:"name"`
	Color    string    `json:"color,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}
