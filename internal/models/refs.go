package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// UserRef references a user either by bare id or by an embedded {_id, name} object.
type UserRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts a JSON string id, an object, or null.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}

	var obj struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("user reference: %w", err)
	}
	r.ID = firstNonEmpty(obj.ID, obj.AltID)
	r.Name = obj.Name
	return nil
}

// Label returns the user's name, falling back to the given default when unknown.
func (r UserRef) Label(fallback string) string {
	if r.Name != "" {
		return r.Name
	}
	return fallback
}

// EventRef references an event either by bare id or by an embedded event object.
type EventRef struct {
	ID    string    `json:"_id"`
	Title string    `json:"title,omitempty"`
	Date  time.Time `json:"date,omitzero"`
}

// UnmarshalJSON accepts a JSON string id, an object, or null.
func (r *EventRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = EventRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}

	var obj struct {
		ID    string    `json:"_id"`
		AltID string    `json:"id"`
		Title string    `json:"title"`
		Date  time.Time `json:"date"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("event reference: %w", err)
	}
	r.ID = firstNonEmpty(obj.ID, obj.AltID)
	r.Title = obj.Title
	r.Date = obj.Date
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
