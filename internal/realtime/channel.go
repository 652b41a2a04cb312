package realtime

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/desertthunder/shiftswap/internal/shared"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// State is the connection lifecycle state of a [Channel].
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a [Channel].
type Options struct {
	// URL is the websocket endpoint, e.g. ws://localhost:5000/ws.
	URL string
	// Dialer defaults to [websocket.DefaultDialer].
	Dialer *websocket.Dialer
	// Limiter paces dial attempts. Defaults to one attempt every two seconds.
	Limiter *rate.Limiter
	Logger  *log.Logger
}

// Channel is the single realtime connection of a session.
type Channel struct {
	*Dispatcher

	url     string
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	logger  *log.Logger

	// lifecycle serializes Connect and Disconnect.
	lifecycle sync.Mutex

	mu       sync.Mutex
	state    State
	userID   string
	lastUser string
	conn     *websocket.Conn
	cancel   context.CancelFunc
	done     chan struct{}
	changed  chan struct{}

	writeMu sync.Mutex
}

// NewChannel creates an idle [Channel].
func NewChannel(opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(2*time.Second), 1)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Channel{
		Dispatcher: NewDispatcher(),
		url:        opts.URL,
		dialer:     opts.Dialer,
		limiter:    opts.Limiter,
		logger:     opts.Logger.WithPrefix("realtime"),
		state:      StateIdle,
		changed:    make(chan struct{}),
	}
}

// Connect opens a connection tagged with userID in the background.
//
// A live connection for the same id is kept. A connection for another id is closed and every
// subscription released before the new one starts.
func (c *Channel) Connect(ctx context.Context, userID string) {
	if userID == "" {
		c.logger.Warn("ignoring connect without user id")
		return
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	running := c.cancel != nil
	same := c.userID == userID
	switchingUser := c.lastUser != "" && c.lastUser != userID
	c.mu.Unlock()

	if running && same {
		return
	}
	if running {
		c.stop(StateIdle)
	}
	if switchingUser {
		c.logger.Debug("identity changed, releasing subscriptions", "previous", c.lastUser, "user_id", userID)
		c.Reset()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	c.mu.Lock()
	c.userID = userID
	c.lastUser = userID
	c.cancel = cancel
	c.done = done
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.run(runCtx, userID, done)
}

// Disconnect closes the connection. It is safe to call at any time. The terminal state is closed.
func (c *Channel) Disconnect() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stop(StateClosed)
}

// stop cancels the run loop, closes the connection and waits for the loop to exit.
func (c *Channel) stop(final State) {
	c.mu.Lock()
	cancel, done, conn := c.cancel, c.done, c.conn
	c.cancel, c.done, c.conn = nil, nil, nil
	c.userID = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
	}
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.setStateLocked(final)
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UserID returns the id the channel is connected (or connecting) for, or "".
func (c *Channel) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// WaitFor blocks until the channel reaches want or ctx is done.
func (c *Channel) WaitFor(ctx context.Context, want State) error {
	for {
		c.mu.Lock()
		state, changed := c.state, c.changed
		c.mu.Unlock()

		if state == want {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s (currently %s): %w", want, state, ctx.Err())
		}
	}
}

// SendSwapRequest emits the advisory swap.request.sent event. Failures are logged.
func (c *Channel) SendSwapRequest(msg SendSwapRequest) {
	frame, err := EncodeOutbound(msg)
	if err != nil {
		c.logger.Warn("failed to encode advisory", "error", err)
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.logger.Warn("dropping advisory", "error", shared.ErrNotConnected, "to_user_id", msg.ToUserID)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Warn("failed to send advisory", "error", err, "to_user_id", msg.ToUserID)
	}
}

func (c *Channel) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Channel) listeners() int {
	n := 0
	for _, kind := range Kinds {
		n += c.Count(kind)
	}
	return n
}

// abandon closes a run loop that gave up on its own, so a later Connect starts afresh.
func (c *Channel) abandon(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != done {
		return
	}
	c.cancel()
	c.cancel, c.done = nil, nil
	c.userID = ""
	c.setStateLocked(StateClosed)
}

// setState updates the state unless the run loop for done has been stopped.
func (c *Channel) setState(done chan struct{}, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != done {
		return
	}
	c.setStateLocked(s)
}

func (c *Channel) endpoint(userID string) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("%w: realtime url %q: %v", shared.ErrInvalidConfig, c.url, err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// run dials, reads until the connection drops, and redials until ctx is cancelled.
func (c *Channel) run(ctx context.Context, userID string, done chan struct{}) {
	defer close(done)

	logger := c.logger.With("user_id", userID)
	endpoint, err := c.endpoint(userID)
	if err != nil {
		logger.Error("cannot connect", "error", err)
		c.abandon(done)
		return
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.setState(done, StateReconnecting)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("dial failed", "error", err, "attempt", attempt+1)
			continue
		}

		if !c.attach(done, conn) {
			conn.Close()
			return
		}
		logger.Info("connected", "listeners", c.listeners())

		err = c.read(ctx, conn, logger)
		c.detach(done, conn)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("connection lost", "error", err)
	}
}

func (c *Channel) attach(done chan struct{}, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != done {
		return false
	}
	c.conn = conn
	c.setStateLocked(StateOpen)
	return true
}

func (c *Channel) detach(done chan struct{}, conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == done && c.conn == conn {
		c.conn = nil
	}
}

// read pumps frames into the dispatcher until the connection fails. A ticker keeps it alive.
func (c *Channel) read(ctx context.Context, conn *websocket.Conn, logger *log.Logger) error {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-stopPing:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		ev, err := Decode(frame)
		if err != nil {
			logger.Warn("dropping frame", "error", err)
			continue
		}

		logger.Debug("event received", "kind", ev.Kind())
		c.Dispatch(ev)
	}
}
