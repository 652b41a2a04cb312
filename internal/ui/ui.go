package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/session"
	"github.com/desertthunder/shiftswap/internal/views"
)

const toastTTL = 4 * time.Second

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	DashboardView
)

// Tab is a dashboard page.
type Tab int

const (
	EventsTab Tab = iota
	MarketTab
	RequestsTab
)

var tabNames = []string{"My Events", "Marketplace", "Requests"}

// Deps are the collaborators the TUI drives. Session navigates and notifies through Inbox.
type Deps struct {
	Session  *session.Store
	Channel  realtime.Subscriber
	Bridge   *notify.Bridge
	Events   *views.EventsView
	Market   *views.MarketplaceView
	Requests *views.RequestsView
	Inbox    *Inbox
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   ViewState
	tab    Tab
	width  int
	height int
	lists  [3]list.Model
	form   *form
	// requested is the marketplace slot awaiting an offer.
	requested string
	toast     *notify.Toast
	busy      bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	m := &Model{
		ctx:  ctx,
		deps: deps,
		view: LoginView,
		form: newForm(loginForm),
		help: help.New(),
		keys: newKeyMap(),
	}

	for i, title := range tabNames {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = title
		l.SetShowHelp(false)
		m.lists[i] = l
	}

	rendered := deps.Inbox.Rendered
	deps.Events.Snapshot().OnRender(func([]models.Event) { rendered() })
	deps.Market.Snapshot().OnRender(func(views.Market) { rendered() })
	deps.Requests.Snapshot().OnRender(func(models.SwapBoard) { rendered() })
	return m
}

// Init drains the inbox and opens the dashboard when a session was restored.
func (m *Model) Init() tea.Cmd {
	if _, ok := m.deps.Session.Current(); ok {
		return tea.Batch(m.deps.Inbox.wait(), m.enterDashboard())
	}
	return m.deps.Inbox.wait()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.handleFormKeys(msg)
		}
		return m.handleDashboardKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgToast:
		t := msg.data.(notify.Toast)
		m.toast = &t
		return m, tea.Batch(m.deps.Inbox.wait(), tea.Tick(toastTTL, func(time.Time) tea.Msg {
			return toastExpiredMsg(t.At)
		}))

	case MsgToastExpired:
		if at := msg.data.(time.Time); m.toast != nil && m.toast.At.Equal(at) {
			m.toast = nil
		}
		return m, nil

	case MsgRoute:
		var cmd tea.Cmd
		switch msg.data.(session.Route) {
		case session.RouteDashboard:
			cmd = m.enterDashboard()
		case session.RouteLogin:
			m.leaveDashboard()
		}
		return m, tea.Batch(m.deps.Inbox.wait(), cmd)

	case MsgRender:
		m.syncLists()
		return m, m.deps.Inbox.wait()

	case MsgMounted:
		m.syncLists()
		return m, nil

	case MsgActionDone:
		done := msg.data.(actionDone)
		m.busy = false
		if done.err == nil && done.action == "create" {
			m.form = nil
		}
		if done.err == nil && done.action == "request" {
			m.requested = ""
			m.syncLists()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.form.kind == eventForm {
			m.form = nil
		}
		return m, nil
	case "ctrl+n":
		switch m.form.kind {
		case loginForm:
			m.form = newForm(signupForm)
		case signupForm:
			m.form = newForm(loginForm)
		}
		return m, nil
	case "tab", "down":
		return m, m.form.move(1)
	case "shift+tab", "up":
		return m, m.form.move(-1)
	case "enter":
		if !m.form.last() {
			return m, m.form.move(1)
		}
		return m, m.submit()
	}

	return m, m.form.update(msg)
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lists[m.tab].FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.switchTab(1)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.switchTab(-1)
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.requested != "" {
			m.requested = ""
			m.syncLists()
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.run("refresh", m.reload)
	case key.Matches(msg, m.keys.logout):
		return m, m.run("logout", func(ctx context.Context) error { return m.deps.Session.Logout(ctx) })
	case key.Matches(msg, m.keys.create) && m.tab == EventsTab:
		m.form = newForm(eventForm)
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.activate()
	}

	return m.updateList(msg)
}

// submit runs the action of the open form.
func (m *Model) submit() tea.Cmd {
	f := m.form
	switch f.kind {
	case loginForm:
		email, password := f.value(0), f.value(1)
		return m.run("login", func(ctx context.Context) error { return m.deps.Session.Login(ctx, email, password) })
	case signupForm:
		name, email, password := f.value(0), f.value(1), f.value(2)
		return m.run("signup", func(ctx context.Context) error { return m.deps.Session.Signup(ctx, name, email, password) })
	case eventForm:
		title, date := f.value(0), f.value(1)
		return m.run("create", func(ctx context.Context) error { return m.deps.Events.CreateEvent(ctx, title, date) })
	}
	return nil
}

// activate runs the enter action of the current tab on the selected item.
func (m *Model) activate() tea.Cmd {
	switch item := m.lists[m.tab].SelectedItem().(type) {
	case eventItem:
		if m.tab == MarketTab {
			requested, offered := m.requested, item.event.ID
			return m.run("request", func(ctx context.Context) error {
				return m.deps.Market.RequestSwap(ctx, requested, offered)
			})
		}
		id := item.event.ID
		return m.run("toggle", func(ctx context.Context) error { return m.deps.Events.ToggleSwappable(ctx, id) })

	case marketItem:
		if len(m.deps.Market.Market().Offers) == 0 {
			requested := item.event.ID
			return m.run("request", func(ctx context.Context) error { return m.deps.Market.RequestSwap(ctx, requested, "") })
		}
		m.requested = item.event.ID
		m.syncLists()
		return nil

	case swapItem:
		if !item.incoming {
			return nil
		}
		id := item.swap.ID
		return m.run("accept", func(ctx context.Context) error { return m.deps.Requests.AcceptSwap(ctx, id) })
	}
	return nil
}

// run executes fn off the update loop. Views and the session store report outcomes as toasts.
func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg(action, fn(ctx))
	}
}

func (m *Model) reload(ctx context.Context) error {
	switch m.tab {
	case MarketTab:
		return m.deps.Market.Load(ctx)
	case RequestsTab:
		return m.deps.Requests.Load(ctx)
	default:
		return m.deps.Events.Load(ctx)
	}
}

func (m *Model) enterDashboard() tea.Cmd {
	s, ok := m.deps.Session.Current()
	if !ok {
		return nil
	}

	m.view = DashboardView
	m.form = nil
	m.tab = EventsTab
	m.requested = ""
	m.deps.Bridge.Attach(m.ctx, m.deps.Channel, s.UserID(), notify.Targets{
		Events:      m.deps.Events,
		Marketplace: m.deps.Market,
		Requests:    m.deps.Requests,
	})

	ctx := m.ctx
	return func() tea.Msg {
		m.deps.Events.Mount(ctx)
		m.deps.Market.Mount(ctx)
		m.deps.Requests.Mount(ctx)
		return mountedMsg()
	}
}

func (m *Model) leaveDashboard() {
	m.deps.Bridge.Detach()
	m.deps.Events.Unmount()
	m.deps.Market.Unmount()
	m.deps.Requests.Unmount()
	m.view = LoginView
	m.form = newForm(loginForm)
	m.requested = ""
}

func (m *Model) switchTab(delta int) {
	m.tab = Tab((int(m.tab) + delta + len(tabNames)) % len(tabNames))
	m.requested = ""
	m.syncLists()
}

// syncLists copies the view snapshots into the lists.
func (m *Model) syncLists() {
	m.lists[EventsTab].SetItems(eventItems(m.deps.Events.Events()))

	market := m.deps.Market.Market()
	if m.requested != "" {
		m.lists[MarketTab].Title = "Offer one of your swappable events"
		m.lists[MarketTab].SetItems(eventItems(market.Offers))
	} else {
		m.lists[MarketTab].Title = tabNames[MarketTab]
		m.lists[MarketTab].SetItems(marketItems(market.Available))
	}

	m.lists[RequestsTab].SetItems(swapItems(m.deps.Requests.Board()))
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != DashboardView || m.form != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.form.view())
	case m.view == DashboardView:
		b.WriteString(m.renderTabs())
		b.WriteString("\n\n")
		b.WriteString(m.lists[m.tab].View())
	}

	b.WriteString("\n")
	if m.toast != nil {
		b.WriteString(styles.Toast(*m.toast))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderHeader() string {
	title := "shiftswap"
	if s, ok := m.deps.Session.Current(); ok {
		title = fmt.Sprintf("shiftswap • %s", s.User.Name)
	}
	if m.busy {
		title += " " + styles.warn.Render("…")
	}
	return styles.title.Render(title)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == RequestsTab {
			if n := m.deps.Requests.Board().PendingIncoming(); n > 0 {
				name = fmt.Sprintf("%s (%d)", name, n)
			}
		}
		if Tab(i) == m.tab {
			tabs[i] = styles.activeTab.Render(name)
		} else {
			tabs[i] = styles.tab.Render(name)
		}
	}
	return strings.Join(tabs, "")
}

func (m *Model) helpKeys() []key.Binding {
	if m.form != nil {
		submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next/submit"))
		if m.form.kind == eventForm {
			return []key.Binding{submit, m.keys.back}
		}
		return []key.Binding{submit, m.keys.signup}
	}

	action := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", m.actionLabel()))
	keys := []key.Binding{action, m.keys.next, m.keys.refresh}
	if m.tab == EventsTab {
		keys = append(keys, m.keys.create)
	}
	if m.requested != "" {
		keys = append(keys, m.keys.back)
	}
	return append(keys, m.keys.logout, m.keys.quit)
}

func (m *Model) actionLabel() string {
	switch {
	case m.tab == EventsTab:
		return "toggle swappable"
	case m.tab == MarketTab && m.requested != "":
		return "offer"
	case m.tab == MarketTab:
		return "request swap"
	default:
		return "accept"
	}
}
