package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/shared"
)

var _ notify.Refresher = (*MarketplaceView)(nil)

// Market is the marketplace snapshot.
type Market struct {
	// Available are other users' swappable events.
	Available []models.Event
	// Offers are the current user's swappable events, the candidates to offer.
	Offers []models.Event
}

// Advisor emits the advisory realtime event after a swap request.
type Advisor interface {
	SendSwapRequest(realtime.SendSwapRequest)
}

// Identity returns the signed-in user.
type Identity interface {
	Current() (models.Session, bool)
}

// MarketplaceView lists swappable events and proposes swaps.
type MarketplaceView struct {
	refresher

	client   services.MarketClient
	advisor  Advisor
	identity Identity
	notifier notify.Notifier
	logger   *log.Logger
	snap     Snapshot[Market]
}

// NewMarketplaceView creates an unmounted [MarketplaceView]. advisor and identity may be nil,
// in which case no advisory is sent.
func NewMarketplaceView(client services.MarketClient, advisor Advisor, identity Identity, opts Options) *MarketplaceView {
	opts = opts.withDefaults("marketplace")
	return &MarketplaceView{
		client:   client,
		advisor:  advisor,
		identity: identity,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
}

// Snapshot exposes the rendered market.
func (v *MarketplaceView) Snapshot() *Snapshot[Market] { return &v.snap }

// Market returns the rendered market.
func (v *MarketplaceView) Market() Market {
	m, _ := v.snap.Get()
	return m
}

// Mount starts accepting results and loads the first snapshot.
func (v *MarketplaceView) Mount(ctx context.Context) error {
	v.snap.Mount()
	return v.Load(ctx)
}

// Unmount stops acting on fetches that complete afterwards.
func (v *MarketplaceView) Unmount() { v.snap.Unmount() }

// Refresh reloads in the background.
func (v *MarketplaceView) Refresh(ctx context.Context) {
	v.spawn(ctx, v.snap.Mounted(), v.Load)
}

// Load fetches GET /events/swappable and GET /events concurrently. Both must succeed.
func (v *MarketplaceView) Load(ctx context.Context) error {
	ticket := v.snap.Begin()

	var available, mine []models.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := v.client.ListSwappableEvents(gctx)
		available = events
		return err
	})
	g.Go(func() error {
		events, err := v.client.ListEvents(gctx)
		mine = events
		return err
	})

	if err := g.Wait(); err != nil {
		if v.snap.Mounted() {
			notify.Error(v.notifier, "Failed to load events")
		}
		v.logger.Warn("load failed", "error", err)
		return err
	}

	if available == nil {
		available = []models.Event{}
	}
	market := Market{Available: available, Offers: models.FilterSwappable(mine)}
	if !v.snap.Apply(ticket, market) {
		v.logger.Debug("discarding stale result", "ticket", ticket)
	}
	return nil
}

// RequestSwap offers the owned event offeredID for requestedID, then emits the advisory to the
// owner of requestedID and reloads.
func (v *MarketplaceView) RequestSwap(ctx context.Context, requestedID, offeredID string) error {
	market := v.Market()

	input, err := models.NewSwapInput(requestedID, offeredID)
	if err != nil {
		if errors.Is(err, shared.ErrMissingArgument) && len(market.Offers) == 0 {
			notify.Error(v.notifier, "You have no swappable events. Mark one as swappable first.")
		} else {
			notify.Error(v.notifier, "Please select an event to offer!")
		}
		return err
	}

	if _, ok := models.FindEvent(market.Offers, offeredID); !ok {
		notify.Error(v.notifier, "Please select one of your swappable events!")
		return fmt.Errorf("%w: %s is not one of your swappable events", shared.ErrInvalidInput, offeredID)
	}

	if _, err := v.client.RequestSwap(ctx, input); err != nil {
		notify.Error(v.notifier, "Failed to send swap request")
		v.logger.Warn("swap request failed", "error", err)
		return err
	}

	notify.Success(v.notifier, "Swap request sent!")
	v.advise(market, requestedID)
	v.Load(ctx)
	return nil
}

func (v *MarketplaceView) advise(market Market, requestedID string) {
	if v.advisor == nil || v.identity == nil {
		return
	}

	session, ok := v.identity.Current()
	if !ok {
		return
	}

	requested, ok := models.FindEvent(market.Available, requestedID)
	if !ok || requested.OwnerID() == "" {
		v.logger.Debug("owner unknown, skipping advisory", "event_id", requestedID)
		return
	}

	v.advisor.SendSwapRequest(realtime.SendSwapRequest{
		ToUserID: requested.OwnerID(),
		FromName: session.User.Name,
	})
}
