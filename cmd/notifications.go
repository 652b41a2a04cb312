package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/formatter"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/repositories"
	"github.com/desertthunder/shiftswap/internal/shared"
)

type notificationJSON struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifications lists the recorded realtime notifications of the persisted user, newest first.
func (r *Runner) Notifications(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	history := repositories.NewNotificationRepository(db)

	if cmd.Bool("clear") {
		if err := history.Clear(); err != nil {
			return err
		}
		r.logger.Info("notification history cleared")
		return r.writePlain("✓ Notifications cleared\n")
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	persisted, err := repositories.NewSessionRepository(db).Load()
	switch {
	case err == nil:
		criteria["user_id"] = persisted.UserID()
	case !errors.Is(err, shared.ErrSessionNotFound):
		r.logger.Debug("listing notifications without a session", "error", err)
	}

	list, err := history.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]notificationJSON, 0, len(list))
		for _, n := range list {
			out = append(out, notificationJSON{
				ID:        n.ID(),
				Sequence:  n.Sequence(),
				Kind:      n.Kind(),
				Message:   n.Message(),
				UserID:    n.UserID(),
				CreatedAt: n.CreatedAt(),
			})
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.NotificationsTable(list))
}

// Watch prints realtime notifications until interrupted. Each one is also recorded in the history.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := r.authedWith(ctx, notify.Multi(r.printer(), notify.NewLogNotifier(r.logger.WithPrefix("watch"))))
	if err != nil {
		return err
	}
	defer c.close()

	s, _ := c.store.Current()
	logger := shared.WithLogger(r.logger, "user_id", s.UserID())
	c.bridge.Attach(ctx, c.channel, s.UserID(), notify.Targets{})

	if err := r.waitOpen(ctx, c.channel); err != nil {
		logger.Warn("realtime channel not open yet, retrying in the background", "state", c.channel.State())
	}
	r.writePlain("Watching notifications for %s (ctrl+c to stop)\n", s.User.Name)

	<-ctx.Done()
	logger.Info("watch stopped")
	return nil
}
