package domain

import "time"

// RoomTTL is the fixed lifetime of a room. It is never extended.
const RoomTTL = 24 * time.Hour

// MaxRejoins is the number of repeat joins allowed per client-declared identity.
const MaxRejoins = 3

// Room is a server-authoritative collaboration session. Only the room store
// hands out *Room values, and only inside its lock.
type Room struct {
	ID           string
	PasswordHash []byte
	CreatorID    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Users        []*User // join order
	Canvas       CanvasState
	RejoinCounts map[string]int
}

// NewRoom builds a room that expires RoomTTL after createdAt.
func NewRoom(id string, passwordHash []byte, creatorID string, createdAt time.Time) *Room {
	return &Room{
		ID:           id,
		PasswordHash: passwordHash,
		CreatorID:    creatorID,
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.Add(RoomTTL),
		Users:        make([]*User, 0),
		Canvas:       NewCanvasState(),
		RejoinCounts: make(map[string]int),
	}
}

// IsExpired reports whether now is past the room's expiry.
func (r *Room) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// AddUser appends a member, replacing any stale entry for the same connection.
func (r *Room) AddUser(u *User) {
	r.RemoveUser(u.ID)
	r.Users = append(r.Users, u)
}

// RemoveUser deletes the member bound to connID and returns it, or nil.
func (r *Room) RemoveUser(connID string) *User {
	for i, u := range r.Users {
		if u.ID == connID {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return u
		}
	}
	return nil
}

// UserList returns a copy of the member list in join order.
func (r *Room) UserList() []User {
	users := make([]User, len(r.Users))
	for i, u := range r.Users {
		users[i] = *u
	}
	return users
}

// AddObject appends obj to the canvas.
func (r *Room) AddObject(obj CanvasObject) {
	r.Canvas.Objects = append(r.Canvas.Objects, obj)
}

// ReplaceObject swaps the object with the same id in place. It returns false
// when no such object exists, leaving the canvas untouched.
func (r *Room) ReplaceObject(obj CanvasObject) bool {
	for i := range r.Canvas.Objects {
		if r.Canvas.Objects[i].ID == obj.ID {
			r.Canvas.Objects[i] = obj
			return true
		}
	}
	return false
}

// RemoveObject drops every object whose id matches and reports how many went.
func (r *Room) RemoveObject(id string) int {
	kept := r.Canvas.Objects[:0]
	removed := 0
	for _, obj := range r.Canvas.Objects {
		if obj.ID == id {
			removed++
			continue
		}
		kept = append(kept, obj)
	}
	r.Canvas.Objects = kept
	return removed
}

// ClearObjects empties the canvas. Theme and color are kept.
func (r *Room) ClearObjects() {
	r.Canvas.Objects = make([]CanvasObject, 0)
}

// SetTheme updates the theme when non-empty and, when color is non-nil, the
// canvas color.
func (r *Room) SetTheme(theme string, color *string) {
	if theme != "" {
		r.Canvas.Theme = theme
	}
	if color != nil {
		r.Canvas.CanvasColor = *color
	}
}

// RejoinAllowed reports whether key is still under the rejoin cap.
func (r *Room) RejoinAllowed(key string) bool {
	return r.RejoinCounts[key] < MaxRejoins
}

// RecordJoin registers a successful join for key. A first join is recorded at
// zero; only repeat joins increment. It returns the count after recording.
func (r *Room) RecordJoin(key string) int {
	if count, ok := r.RejoinCounts[key]; ok {
		r.RejoinCounts[key] = count + 1
	} else {
		r.RejoinCounts[key] = 0
	}
	return r.RejoinCounts[key]
}
