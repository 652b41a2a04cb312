package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/formatter"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// EventsList prints the current user's events.
func (r *Runner) EventsList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.events.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(c.events.Events(), cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.EventsTable(c.events.Events()))
}

// EventsCreate creates an event from --title and --date.
func (r *Runner) EventsCreate(ctx context.Context, cmd *cli.Command) error {
	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	return c.events.CreateEvent(ctx, cmd.String("title"), cmd.String("date"))
}

// EventsToggle flips the swappable flag of one of the user's events.
func (r *Runner) EventsToggle(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: event id", shared.ErrMissingArgument)
	}

	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.events.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return c.events.ToggleSwappable(ctx, id)
}

// EventsExport writes the user's events as csv, markdown or ics.
func (r *Runner) EventsExport(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "csv", "markdown", "md", "ics", "ical":
	default:
		return fmt.Errorf("%w: unknown format %q (want csv, markdown or ics)", shared.ErrInvalidArgument, format)
	}

	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.events.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	events := c.events.Events()
	s, _ := c.store.Current()

	var data []byte
	switch format {
	case "csv":
		if data, err = formatter.EventsToCSV(events); err != nil {
			return err
		}
	case "markdown", "md":
		data = formatter.EventsToMarkdown(s.User.Name+"'s shifts", events)
	default:
		data = formatter.EventsToICS(events)
	}

	path := cmd.String("output")
	if path == "" {
		_, err := r.output.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	r.logger.Info("events exported", "path", path, "format", format, "count", len(events))
	return r.writePlain("✓ Exported %d events to %s\n", len(events), path)
}

// EventsImport creates one event per VEVENT in an iCalendar file.
func (r *Runner) EventsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to .ics file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	inputs, err := formatter.ParseICS(f)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return r.writePlain("No events found in %s\n", path)
	}

	c, err := r.authed(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	created := 0
	for _, input := range inputs {
		if _, err := r.backend.CreateEvent(ctx, input); err != nil {
			r.logger.Warn("failed to import event", "title", input.Title, "error", err)
			r.writePlain("✗ %s: %v\n", input.Title, err)
			continue
		}
		created++
	}

	r.logger.Info("events imported", "path", path, "created", created, "total", len(inputs))
	if created < len(inputs) {
		return fmt.Errorf("%w: imported %d of %d events", shared.ErrAPIRequest, created, len(inputs))
	}
	return r.writePlain("✓ Imported %d events\n", created)
}
