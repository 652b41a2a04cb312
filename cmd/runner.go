package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/repositories"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/session"
	"github.com/desertthunder/shiftswap/internal/shared"
	"github.com/desertthunder/shiftswap/internal/views"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	creds      *services.CredentialStore
	api        *services.APIService
	backend    *services.ShiftSwapService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// DB is the client state database. When nil it is opened from Config on first use.
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout.Duration}
	}

	creds := services.NewCredentialStore()
	api := services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient, creds)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		creds:      creds,
		api:        api,
		backend:    services.NewShiftSwapService(api),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, statusCommand, eventsCommand, marketCommand, swapsCommand,
		notificationsCommand, watchCommand, sandboxCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database returns the state database, opening it and applying migrations on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenStateDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	r.db = db
	return db, nil
}

// Close releases the state database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// client is the coordination layer one surface (a command or the TUI) drives.
type client struct {
	store    *session.Store
	channel  *realtime.Channel
	history  *repositories.NotificationRepository
	bridge   *notify.Bridge
	events   *views.EventsView
	market   *views.MarketplaceView
	requests *views.RequestsView
}

// newClient wires a session store, realtime channel, views and bridge against the configured backend.
func (r *Runner) newClient(notifier notify.Notifier, navigator session.Navigator) (*client, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	c := &client{
		channel: realtime.NewChannel(realtime.Options{
			URL:     r.config.Realtime.URL,
			Limiter: r.reconnectLimiter(),
			Logger:  r.logger,
		}),
		history: repositories.NewNotificationRepository(db),
	}
	c.store = session.NewStore(session.Options{
		Auth:        r.backend,
		Repo:        repositories.NewSessionRepository(db),
		Credentials: r.creds,
		Channel:     c.channel,
		Notifier:    notifier,
		Navigator:   navigator,
		Logger:      r.logger,
	})

	opts := views.Options{Notifier: notifier, Logger: r.logger}
	c.events = views.NewEventsView(r.backend, opts)
	c.market = views.NewMarketplaceView(r.backend, c.channel, c.store, opts)
	c.requests = views.NewRequestsView(r.backend, opts)
	c.bridge = notify.NewBridge(notify.BridgeOptions{Notifier: notifier, History: c.history, Logger: r.logger})
	return c, nil
}

// authed builds a client for the CLI and restores the persisted session.
func (r *Runner) authed(ctx context.Context) (*client, error) {
	return r.authedWith(ctx, r.printer())
}

// authedWith is [Runner.authed] with toasts going to notifier.
func (r *Runner) authedWith(ctx context.Context, notifier notify.Notifier) (*client, error) {
	c, err := r.newClient(notifier, nil)
	if err != nil {
		return nil, err
	}
	if !c.store.Restore(ctx) {
		return nil, fmt.Errorf("%w: run 'shiftswap auth login' first", shared.ErrNotAuthenticated)
	}
	return c, nil
}

// close detaches the bridge, unmounts the views and disconnects the channel. The session is kept.
func (c *client) close() {
	c.bridge.Detach()
	c.events.Unmount()
	c.market.Unmount()
	c.requests.Unmount()
	c.store.Teardown()
}

func (r *Runner) reconnectLimiter() *rate.Limiter {
	rt := r.config.Realtime
	if rt.ReconnectRate <= 0 {
		return nil
	}
	burst := rt.ReconnectBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rt.ReconnectRate), burst)
}

// printer writes toasts to the command output, one per line.
func (r *Runner) printer() notify.Notifier {
	return notify.NotifierFunc(func(t notify.Toast) {
		switch t.Level {
		case notify.LevelSuccess:
			r.writePlain("✓ %s\n", t.Message)
		case notify.LevelError:
			r.writePlain("✗ %s\n", t.Message)
		default:
			r.writePlain("• %s\n", t.Message)
		}
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
