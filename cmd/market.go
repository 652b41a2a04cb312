package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/formatter"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// MarketList prints other users' swappable slots and the user's own offers.
func (r *Runner) MarketList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.market.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	market := c.market.Market()

	if cmd.Bool("json") {
		return r.writeJSON(market, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Marketplace")
	r.writePlain("%s", formatter.MarketTable(market.Available))
	r.writePlain("\nYour swappable events\n")
	return r.writePlain("%s", formatter.EventsTable(market.Offers))
}

// MarketRequest offers one of the user's swappable events for another user's slot.
//
// When --offer is omitted and the user has exactly one swappable event, that event is offered.
func (r *Runner) MarketRequest(ctx context.Context, cmd *cli.Command) error {
	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := r.waitOpen(ctx, c.channel); err != nil {
		r.logger.Warn("realtime channel unavailable, the owner will not be notified live", "error", err)
	}

	if err := c.market.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	offer := cmd.String("offer")
	if offers := c.market.Market().Offers; offer == "" && len(offers) == 1 {
		offer = offers[0].ID
		r.logger.Debug("offering only swappable event", "event_id", offer)
	}
	return c.market.RequestSwap(ctx, cmd.String("event"), offer)
}
