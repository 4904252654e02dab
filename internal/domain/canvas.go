package domain

import "encoding/json"

const (
	DefaultTheme       = "dark"
	DefaultCanvasColor = "#1a1a1a"
)

// CanvasObject is an opaque drawable unit. Only ID and Type are read from
// the client's serialization; Raw keeps the object exactly as it was received
// and is what gets stored and sent back out.
type CanvasObject struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

// ParseCanvasObject reads id and type from raw and keeps a private copy of it.
func ParseCanvasObject(raw []byte) (CanvasObject, error) {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return CanvasObject{}, err
	}
	return CanvasObject{
		ID:   head.ID,
		Type: head.Type,
		Raw:  append(json.RawMessage(nil), raw...),
	}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *CanvasObject) UnmarshalJSON(b []byte) error {
	obj, err := ParseCanvasObject(b)
	if err != nil {
		return err
	}
	*o = obj
	return nil
}

// MarshalJSON implements json.Marshaler. Objects built without a client
// serialization fall back to {id, type}.
func (o CanvasObject) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	return json.Marshal(struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}{o.ID, o.Type})
}

// CanvasState is the replicated document of a room.
type CanvasState struct {
	Objects     []CanvasObject `json:"objects"`
	Theme       string         `json:"theme"`
	CanvasColor string         `json:"canvasColor"`
}

// NewCanvasState returns an empty canvas with the default theme and color.
func NewCanvasState() CanvasState {
	return CanvasState{
		Objects:     make([]CanvasObject, 0),
		Theme:       DefaultTheme,
		CanvasColor: DefaultCanvasColor,
	}
}

// Clone returns a deep copy safe to hand out after the store lock is released.
func (s CanvasState) Clone() CanvasState {
	objects := make([]CanvasObject, len(s.Objects))
	for i, obj := range s.Objects {
		objects[i] = obj
		if obj.Raw != nil {
			objects[i].Raw = append(json.RawMessage(nil), obj.Raw...)
		}
	}
	s.Objects = objects
	return s
}
