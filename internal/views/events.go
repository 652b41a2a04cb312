package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/shared"
)

var _ notify.Refresher = (*EventsView)(nil)

// EventsView lists the current user's events (the dashboard).
type EventsView struct {
	refresher

	client   services.EventsClient
	notifier notify.Notifier
	logger   *log.Logger
	snap     Snapshot[[]models.Event]
}

// NewEventsView creates an unmounted [EventsView].
func NewEventsView(client services.EventsClient, opts Options) *EventsView {
	opts = opts.withDefaults("events")
	return &EventsView{client: client, notifier: opts.Notifier, logger: opts.Logger}
}

// Snapshot exposes the rendered collection.
func (v *EventsView) Snapshot() *Snapshot[[]models.Event] { return &v.snap }

// Events returns the rendered events.
func (v *EventsView) Events() []models.Event {
	events, _ := v.snap.Get()
	return events
}

// Mount starts accepting results and loads the first snapshot.
func (v *EventsView) Mount(ctx context.Context) error {
	v.snap.Mount()
	return v.Load(ctx)
}

// Unmount stops acting on fetches that complete afterwards.
func (v *EventsView) Unmount() { v.snap.Unmount() }

// Refresh reloads in the background.
func (v *EventsView) Refresh(ctx context.Context) {
	v.spawn(ctx, v.snap.Mounted(), v.Load)
}

// Load fetches GET /events and replaces the snapshot. On failure the previous snapshot is kept.
func (v *EventsView) Load(ctx context.Context) error {
	ticket := v.snap.Begin()

	events, err := v.client.ListEvents(ctx)
	if err != nil {
		if v.snap.Mounted() {
			notify.Error(v.notifier, "Failed to load events")
		}
		v.logger.Warn("load failed", "error", err)
		return err
	}

	if events == nil {
		events = []models.Event{}
	}
	if !v.snap.Apply(ticket, events) {
		v.logger.Debug("discarding stale result", "ticket", ticket)
	}
	return nil
}

// CreateEvent validates title and date, creates the event and reloads.
func (v *EventsView) CreateEvent(ctx context.Context, title, date string) error {
	input, err := models.NewEventInput(title, date)
	if err != nil {
		if errors.Is(err, shared.ErrMissingArgument) {
			notify.Error(v.notifier, "Please enter title and date!")
		} else {
			notify.Error(v.notifier, "Please enter a valid date!")
		}
		return err
	}

	if _, err := v.client.CreateEvent(ctx, input); err != nil {
		notify.Error(v.notifier, "Failed to create event")
		v.logger.Warn("create failed", "error", err)
		return err
	}

	notify.Success(v.notifier, "Event created!")
	v.Load(ctx)
	return nil
}

// ToggleSwappable flips isSwappable of the rendered event with id and reloads.
func (v *EventsView) ToggleSwappable(ctx context.Context, id string) error {
	if id == "" {
		notify.Error(v.notifier, "Failed to update event")
		return fmt.Errorf("%w: event id", shared.ErrMissingArgument)
	}

	event, ok := models.FindEvent(v.Events(), id)
	if !ok {
		notify.Error(v.notifier, "Failed to update event")
		return fmt.Errorf("%w: %s", shared.ErrEventNotFound, id)
	}

	if _, err := v.client.SetSwappable(ctx, id, !event.IsSwappable); err != nil {
		notify.Error(v.notifier, "Failed to update event")
		v.logger.Warn("toggle failed", "error", err, "event_id", id)
		return err
	}

	if event.IsSwappable {
		notify.Success(v.notifier, "Removed from swappable")
	} else {
		notify.Success(v.notifier, "Marked as swappable")
	}
	v.Load(ctx)
	return nil
}
