package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/shiftswap/internal/shared"
)

// dateLayouts are accepted for event dates, most specific first.
// "2006-01-02T15:04" matches the datetime-local form used by browsers.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Event is a calendar shift owned by exactly one user.
type Event struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Owner       UserRef   `json:"user"`
	IsSwappable bool      `json:"isSwappable"`
}

// OwnerID returns the id of the owning user.
func (e Event) OwnerID() string { return e.Owner.ID }

// Ref returns the [EventRef] form of e.
func (e Event) Ref() EventRef {
	return EventRef{ID: e.ID, Title: e.Title, Date: e.Date}
}

// EventInput is the body of POST /events.
type EventInput struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// NewEventInput validates raw title and date text and builds an [EventInput].
//
// Both fields are required; the date may be RFC 3339 or a local "YYYY-MM-DDTHH:MM" value.
func NewEventInput(title, date string) (EventInput, error) {
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	if title == "" || date == "" {
		return EventInput{}, fmt.Errorf("%w: title and date", shared.ErrMissingArgument)
	}

	when, err := ParseEventDate(date)
	if err != nil {
		return EventInput{}, err
	}

	return EventInput{Title: title, Date: when}, nil
}

// ParseEventDate parses s using the accepted layouts; zone-less values are read in local time.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", shared.ErrInvalidInput, s)
}

// SwappableUpdate is the body of PUT /events/{id}.
type SwappableUpdate struct {
	IsSwappable bool `json:"isSwappable"`
}

// FilterSwappable returns the events marked swappable, preserving order.
func FilterSwappable(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.IsSwappable {
			out = append(out, e)
		}
	}
	return out
}

// FindEvent returns the event with id from events.
func FindEvent(events []Event, id string) (Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}
