package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/shared"
)

var _ notify.Refresher = (*RequestsView)(nil)

// RequestsView lists incoming and outgoing swap requests.
type RequestsView struct {
	refresher

	client   services.SwapsClient
	notifier notify.Notifier
	logger   *log.Logger
	snap     Snapshot[models.SwapBoard]
}

// NewRequestsView creates an unmounted [RequestsView].
func NewRequestsView(client services.SwapsClient, opts Options) *RequestsView {
	opts = opts.withDefaults("requests")
	return &RequestsView{client: client, notifier: opts.Notifier, logger: opts.Logger}
}

// Snapshot exposes the rendered board.
func (v *RequestsView) Snapshot() *Snapshot[models.SwapBoard] { return &v.snap }

// Board returns the rendered board.
func (v *RequestsView) Board() models.SwapBoard {
	b, _ := v.snap.Get()
	return b
}

// Mount starts accepting results and loads the first snapshot.
func (v *RequestsView) Mount(ctx context.Context) error {
	v.snap.Mount()
	return v.Load(ctx)
}

// Unmount stops acting on fetches that complete afterwards.
func (v *RequestsView) Unmount() { v.snap.Unmount() }

// Refresh reloads in the background.
func (v *RequestsView) Refresh(ctx context.Context) {
	v.spawn(ctx, v.snap.Mounted(), v.Load)
}

// Load fetches GET /swaps and replaces the snapshot.
func (v *RequestsView) Load(ctx context.Context) error {
	ticket := v.snap.Begin()

	board, err := v.client.ListSwaps(ctx)
	if err != nil {
		if v.snap.Mounted() {
			notify.Error(v.notifier, "Failed to fetch swap requests")
		}
		v.logger.Warn("load failed", "error", err)
		return err
	}

	if !v.snap.Apply(ticket, board) {
		v.logger.Debug("discarding stale result", "ticket", ticket)
	}
	return nil
}

// AcceptSwap accepts the rendered incoming request with id and reloads.
// Only pending incoming requests may be accepted.
func (v *RequestsView) AcceptSwap(ctx context.Context, id string) error {
	board := v.Board()
	req, ok := board.FindIncoming(id)
	if !ok {
		if _, mine := board.FindOutgoing(id); mine {
			notify.Error(v.notifier, "You can only accept requests sent to you")
			return fmt.Errorf("%w: %s is an outgoing request", shared.ErrInvalidInput, id)
		}
		notify.Error(v.notifier, "Failed to accept swap")
		return fmt.Errorf("%w: no incoming request %s", shared.ErrSwapNotFound, id)
	}
	if !req.Status.CanTransition(models.SwapAccepted) {
		notify.Error(v.notifier, "Swap already accepted")
		return fmt.Errorf("%w: %s is %s", shared.ErrInvalidTransition, id, req.Status)
	}

	if _, err := v.client.AcceptSwap(ctx, id); err != nil {
		notify.Error(v.notifier, "Failed to accept swap")
		v.logger.Warn("accept failed", "error", err, "swap_id", id)
		return err
	}

	notify.Success(v.notifier, "Swap accepted successfully!")
	v.Load(ctx)
	return nil
}
