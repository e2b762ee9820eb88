package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okeefe/taskdeck/internal/api"
	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/model"
	"github.com/okeefe/taskdeck/internal/session"
	"github.com/okeefe/taskdeck/internal/ui/theme"
)

// loginFields is the number of focusable form fields.
const loginFields = 2

// LoginView is the email/password form.
type LoginView struct {
	app *app.App

	email    textinput.Model
	password textinput.Model
	focus    int // 0=email, 1=password

	submitting bool
	errMsg     string
	notice     string

	width  int
	height int
}

// loginDoneMsg carries the outcome of a login attempt. On success the
// token is already saved and decoded.
type loginDoneMsg struct {
	claims model.Claims
	err    error
}

// NewLoginView creates a new login view
func NewLoginView(application *app.App) LoginView {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return LoginView{
		app:      application,
		email:    email,
		password: password,
	}
}

// SetNotice shows a line above the form (logout, expired session,
// fresh signup).
func (v LoginView) SetNotice(notice string) LoginView {
	v.notice = notice
	return v
}

// Init initializes the view
func (v LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the view dimensions
func (v LoginView) SetSize(width, height int) LoginView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode reports whether the view is capturing text input. The
// login form always is.
func (v LoginView) IsInputMode() bool {
	return true
}

// Update handles messages
func (v LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		v.submitting = false
		if msg.err != nil {
			v.errMsg = loginErrorMessage(msg.err)
			return v, nil
		}
		claims := msg.claims
		return v, func() tea.Msg {
			return LoggedIn{Claims: claims}
		}

	case tea.KeyMsg:
		if v.submitting {
			return v, nil
		}

		switch msg.String() {
		case "tab", "down":
			v = v.setFocus((v.focus + 1) % loginFields)
			return v, nil
		case "shift+tab", "up":
			v = v.setFocus((v.focus + loginFields - 1) % loginFields)
			return v, nil
		case "enter":
			return v.submit()
		case "ctrl+s":
			return v, func() tea.Msg { return SwitchToSignup{} }
		}
	}

	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v LoginView) setFocus(focus int) LoginView {
	v.focus = focus
	if focus == 0 {
		v.email.Focus()
		v.password.Blur()
	} else {
		v.email.Blur()
		v.password.Focus()
	}
	return v
}

// submit fires the login request. Empty fields are rejected locally,
// everything else is the server's call.
func (v LoginView) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()

	if email == "" || password == "" {
		v.errMsg = "Email and password are required."
		return v, nil
	}

	v.errMsg = ""
	v.submitting = true

	a := v.app
	return v, func() tea.Msg {
		token, err := a.API.Login(context.Background(), email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		claims, err := session.Decode(token)
		if err != nil {
			a.Log.Error("decode token", "err", err)
			return loginDoneMsg{err: err}
		}
		if err := a.Store.SaveToken(token); err != nil {
			return loginDoneMsg{err: err}
		}
		a.Log.Info("logged in", "user", claims.UserID, "role", claims.Role)
		return loginDoneMsg{claims: claims}
	}
}

// loginErrorMessage prefers the server's own message, falling back to
// the generic line the web client shows.
func loginErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Login failed."
}

// View renders the form
func (v LoginView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder
	b.WriteString(styles.Title.Render("Login"))
	b.WriteString("\n\n")

	if v.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Info).Render(v.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(v.renderInput(v.email, v.focus == 0))
	b.WriteString("\n")
	b.WriteString(v.renderInput(v.password, v.focus == 1))
	b.WriteString("\n")

	if v.errMsg != "" {
		b.WriteString(styles.InputError.Render(v.errMsg))
		b.WriteString("\n")
	}

	if v.submitting {
		b.WriteString(styles.Subtitle.Render("Logging in..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render("Don't have an account? Press "))
	b.WriteString(styles.HelpKey.Render("ctrl+s"))
	b.WriteString(styles.HelpDesc.Render(" to sign up"))

	panel := styles.Panel.Width(48).Render(b.String())
	if v.width == 0 || v.height == 0 {
		return panel
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, panel)
}

func (v LoginView) renderInput(input textinput.Model, focused bool) string {
	styles := theme.Current.Styles
	if focused {
		return styles.InputFocused.Width(40).Render(input.View())
	}
	return styles.Input.Width(40).Render(input.View())
}
