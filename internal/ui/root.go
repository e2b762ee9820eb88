package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/model"
	"github.com/okeefe/taskdeck/internal/session"
	"github.com/okeefe/taskdeck/internal/ui/theme"
	"github.com/okeefe/taskdeck/internal/ui/views"
)

// themeSetting is the settings key remembering the chosen theme.
const themeSetting = "theme"

// RootModel is the top-level bubbletea model. It owns the active screen
// and routes the cross-screen messages the views emit.
type RootModel struct {
	app  *app.App
	keys KeyMap
	help help.Model

	screen    Screen
	login     views.LoginView
	signup    views.SignupView
	dashboard views.DashboardView

	claims model.Claims

	statusMsg string
	errMsg    string
	showHelp  bool

	width  int
	height int
}

// NewRootModel builds the root model. A stored token that still decodes
// drops the user straight onto the dashboard; everything else starts at
// the login form.
func NewRootModel(application *app.App) RootModel {
	m := RootModel{
		app:    application,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		screen: ScreenLogin,
		login:  views.NewLoginView(application),
	}

	m.restoreTheme()

	token, err := application.Store.Token()
	if err != nil {
		application.Log.Error("read token", "err", err)
		return m
	}
	if token == "" {
		return m
	}

	claims, err := session.Decode(token)
	if err != nil {
		application.Log.Warn("stored token is malformed, dropping it", "err", err)
		application.Store.ClearToken()
		return m
	}

	m.claims = claims
	m.screen = ScreenDashboard
	m.dashboard = views.NewDashboardView(application, claims)
	return m
}

// restoreTheme applies the persisted theme, falling back to the config
// file, falling back to the default.
func (m *RootModel) restoreTheme() {
	name, err := m.app.Store.GetSetting(themeSetting)
	if err != nil || name == "" {
		name = m.app.Config.Theme
	}
	if t, ok := theme.ByName(name); ok {
		theme.SetTheme(t)
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	switch m.screen {
	case ScreenDashboard:
		return m.dashboard.Init()
	case ScreenSignup:
		return m.signup.Init()
	default:
		return m.login.Init()
	}
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m.resizeViews(), nil

	case views.LoggedIn:
		m.claims = msg.Claims
		m.screen = ScreenDashboard
		m.dashboard = views.NewDashboardView(m.app, msg.Claims)
		m = m.resizeViews()
		m.statusMsg = ""
		m.errMsg = ""
		return m, m.dashboard.Init()

	case views.LoggedOut:
		return m.toLogin("Logged out."), nil

	case views.SessionExpired:
		return m.toLogin("Session expired. Please log in again."), nil

	case views.SwitchToSignup:
		m.screen = ScreenSignup
		m.signup = views.NewSignupView(m.app)
		m = m.resizeViews()
		return m, m.signup.Init()

	case views.SwitchToLogin:
		return m.toLogin(msg.Notice), nil

	case views.ErrorFlash:
		m.errMsg = msg.Err.Error()
		m.statusMsg = ""
		return m, nil

	case views.StatusFlash:
		m.statusMsg = msg.Message
		m.errMsg = ""
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = "Theme: " + msg.ThemeName
		m.errMsg = ""
		return m, nil

	case tea.KeyMsg:
		updated, cmd, handled := m.handleGlobalKey(msg)
		m = updated
		if handled {
			return m, cmd
		}
	}

	return m.routeToScreen(msg)
}

// handleGlobalKey intercepts keys that apply regardless of screen.
// Text-input screens only give up ctrl+c and ctrl+t; everything else
// belongs to the form.
func (m RootModel) handleGlobalKey(msg tea.KeyMsg) (RootModel, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}
	if key.Matches(msg, m.keys.ThemeCycle) {
		name := m.cycleTheme()
		return m, func() tea.Msg { return ThemeChangedMsg{ThemeName: name} }, true
	}

	if m.inputMode() {
		return m, nil, false
	}

	// A keystroke in table mode clears the status line.
	m.statusMsg = ""
	m.errMsg = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil, true
	}

	return m, nil, false
}

// cycleTheme advances to the next theme, persists the choice, and
// returns the new theme's name.
func (m *RootModel) cycleTheme() string {
	available := theme.Available()
	idx := 0
	for i, t := range available {
		if t.Name == theme.Current.Theme.Name {
			idx = i
			break
		}
	}
	next := available[(idx+1)%len(available)]
	theme.SetTheme(next)
	if err := m.app.Store.SetSetting(themeSetting, next.Name); err != nil {
		m.app.Log.Error("persist theme", "err", err)
	}
	return next.Name
}

func (m RootModel) inputMode() bool {
	switch m.screen {
	case ScreenDashboard:
		return m.dashboard.IsInputMode()
	case ScreenSignup:
		return m.signup.IsInputMode()
	default:
		return m.login.IsInputMode()
	}
}

// toLogin swaps to a fresh login form with a notice line.
func (m RootModel) toLogin(notice string) RootModel {
	m.screen = ScreenLogin
	m.claims = model.Claims{}
	m.login = views.NewLoginView(m.app)
	if notice != "" {
		m.login = m.login.SetNotice(notice)
	}
	m.statusMsg = ""
	m.errMsg = ""
	return m.resizeViews()
}

// routeToScreen forwards the message to the active view.
func (m RootModel) routeToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case ScreenDashboard:
		updated, cmd := m.dashboard.Update(msg)
		m.dashboard = updated.(views.DashboardView)
		return m, cmd
	case ScreenSignup:
		updated, cmd := m.signup.Update(msg)
		m.signup = updated.(views.SignupView)
		return m, cmd
	default:
		updated, cmd := m.login.Update(msg)
		m.login = updated.(views.LoginView)
		return m, cmd
	}
}

// contentHeight is the space left for the active view after the header
// and footer lines.
func (m RootModel) contentHeight() int {
	h := m.height - 3
	if h < 0 {
		return 0
	}
	return h
}

func (m RootModel) resizeViews() RootModel {
	h := m.contentHeight()
	m.login = m.login.SetSize(m.width, h)
	m.signup = m.signup.SetSize(m.width, h)
	m.dashboard = m.dashboard.SetSize(m.width, h)
	return m
}

// View renders the application
func (m RootModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.showHelp && m.screen == ScreenDashboard {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.activeView())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m RootModel) activeView() string {
	switch m.screen {
	case ScreenDashboard:
		return m.dashboard.View()
	case ScreenSignup:
		return m.signup.View()
	default:
		return m.login.View()
	}
}

func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("taskdeck")
	screen := styles.Footer.Render(m.screen.String())

	var who string
	if m.screen == ScreenDashboard {
		style := lipgloss.NewStyle().Foreground(t.RoleUser)
		if m.claims.Role == model.RoleAdmin {
			style = lipgloss.NewStyle().Foreground(t.RoleAdmin)
		}
		who = style.Render(string(m.claims.Role))
	}

	left := title + screen
	if who == "" {
		return left
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(who) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + who
}

func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	if m.errMsg != "" {
		return styles.InputError.Render(m.errMsg)
	}
	if m.statusMsg != "" {
		return styles.Footer.Render(m.statusMsg)
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}
