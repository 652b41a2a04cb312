package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/repositories"
)

// AuthSignup registers an account. It does not log in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient(r.printer(), nil)
	if err != nil {
		return err
	}
	defer c.close()

	return c.store.Signup(ctx, cmd.String("name"), cmd.String("email"), cmd.String("password"))
}

// AuthLogin logs in and persists the session for later commands.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient(r.printer(), nil)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.store.Login(ctx, cmd.String("email"), cmd.String("password")); err != nil {
		return err
	}

	s, _ := c.store.Current()
	return r.writePlain("✓ Logged in as %s\n", s.User.Name)
}

// AuthLogout clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient(r.printer(), nil)
	if err != nil {
		return err
	}
	defer c.close()

	db, err := r.database()
	if err != nil {
		return err
	}
	had, err := repositories.NewSessionRepository(db).Exists()
	if err != nil {
		return err
	}
	if err := c.store.Logout(ctx); err != nil {
		return err
	}

	if !had {
		return r.writePlain("Not logged in\n")
	}
	return r.writePlain("✓ Logged out\n")
}

// Status reports the persisted session and whether the realtime channel opens for it.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient(r.printer(), nil)
	if err != nil {
		return err
	}
	defer c.close()

	r.writePlainHeader("shiftswap status")
	r.writePlain("API:      %s\n", r.api.BaseURL())
	r.writePlain("Realtime: %s\n", r.config.Realtime.URL)

	if !c.store.Restore(ctx) {
		return r.writePlain("Session:  ✗ Not logged in\n")
	}
	s, _ := c.store.Current()
	r.writePlain("Session:  ✓ %s <%s>\n", s.User.Name, s.User.Email)

	if err := r.waitOpen(ctx, c.channel); err != nil {
		return r.writePlain("Channel:  ✗ %s\n", c.channel.State())
	}
	return r.writePlain("Channel:  ✓ %s (user %s)\n", c.channel.State(), c.channel.UserID())
}

// waitOpen gives the channel up to the API timeout (at most five seconds) to open.
func (r *Runner) waitOpen(ctx context.Context, ch *realtime.Channel) error {
	wait := 5 * time.Second
	if d := r.config.API.Timeout.Duration; d > 0 && d < wait {
		wait = d
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := ch.WaitFor(waitCtx, realtime.StateOpen); err != nil {
		r.logger.Debug("channel not open", "error", err)
		return err
	}
	return nil
}
