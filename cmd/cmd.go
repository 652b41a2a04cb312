// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file (defaults to $SHIFTSWAP_CONFIG, then config.toml)",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for configuration and the state database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the state database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password"},
				},
				Action: r.AuthSignup,
			},
			{
				Name:  "login",
				Usage: "Log in and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the persisted session",
				Action: r.AuthLogout,
			},
		},
	}
}

// statusCommand reports the restored session and realtime channel state.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the current session and realtime connection",
		Action: r.Status,
	}
}

// eventsCommand handles the current user's events (the dashboard).
func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "events",
		Aliases: []string{"ev"},
		Usage:   "Manage your events",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your events",
				Flags:  jsonFlags(),
				Action: r.EventsList,
			},
			{
				Name:  "create",
				Usage: "Create an event",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Event title"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Start time, e.g. 2025-01-06T09:00"},
				},
				Action: r.EventsCreate,
			},
			{
				Name:      "toggle",
				Usage:     "Flip whether an event is offered for swapping",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.EventsToggle,
			},
			{
				Name:  "export",
				Usage: "Export your events as csv, markdown or ics",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, ics)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults to stdout)",
					},
				},
				Action: r.EventsExport,
			},
			{
				Name:      "import",
				Usage:     "Create events from an iCalendar file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.EventsImport,
			},
		},
	}
}

// marketCommand handles the swappable-slot marketplace.
func marketCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "market",
		Aliases: []string{"marketplace"},
		Usage:   "Browse swappable slots and request swaps",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List other users' swappable slots and your offers",
				Flags:  jsonFlags(),
				Action: r.MarketList,
			},
			{
				Name:  "request",
				Usage: "Offer one of your swappable events for another user's slot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "event", Usage: "ID of the slot you want", Required: true},
					&cli.StringFlag{Name: "offer", Usage: "ID of your swappable event to give"},
				},
				Action: r.MarketRequest,
			},
		},
	}
}

// swapsCommand handles incoming and outgoing swap requests.
func swapsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "swaps",
		Aliases: []string{"requests"},
		Usage:   "Review and accept swap requests",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List incoming and outgoing requests",
				Flags:  jsonFlags(),
				Action: r.SwapsList,
			},
			{
				Name:      "accept",
				Usage:     "Accept a pending incoming request",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SwapsAccept,
			},
		},
	}
}

// notificationsCommand lists recorded realtime notifications.
func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notifications",
		Usage: "Show realtime notifications received so far",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of notifications", Value: 20},
			&cli.BoolFlag{Name: "clear", Usage: "Delete all recorded notifications"},
		}, jsonFlags()...),
		Action: r.Notifications,
	}
}

// watchCommand streams realtime notifications until interrupted.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Print realtime notifications as they arrive",
		Action: r.Watch,
	}
}

// sandboxCommand runs the in-memory backend.
func sandboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sandbox",
		Usage: "Run the in-memory shift swap backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (defaults to server.port)"},
		},
		Action: r.Sandbox,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     jsonFlags(),
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal client",
		Action:  r.TUI,
	}
}
