package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/formatter"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// SwapsList prints incoming and outgoing swap requests.
func (r *Runner) SwapsList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.requests.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	board := c.requests.Board()

	if cmd.Bool("json") {
		return r.writeJSON(board, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.SwapsTable(board))
}

// SwapsAccept accepts a pending incoming request.
func (r *Runner) SwapsAccept(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: swap request id", shared.ErrMissingArgument)
	}

	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.requests.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return c.requests.AcceptSwap(ctx, id)
}
