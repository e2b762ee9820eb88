package views

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okeefe/taskdeck/internal/api"
	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/model"
	"github.com/okeefe/taskdeck/internal/ui/theme"
)

// emailRe mirrors the web form's pattern: local@domain.tld, no spaces.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the address passes the client-side check
// performed before any signup request is sent.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// SignupView is the registration form: email, password, role.
type SignupView struct {
	app *app.App

	email    textinput.Model
	password textinput.Model
	role     model.Role
	focus    int // 0=email, 1=password, 2=role

	submitting bool
	emailErr   string
	errMsg     string

	width  int
	height int
}

type signupDoneMsg struct {
	err error
}

// NewSignupView creates a new signup view
func NewSignupView(application *app.App) SignupView {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return SignupView{
		app:      application,
		email:    email,
		password: password,
		role:     model.RoleUser,
	}
}

// Init initializes the view
func (v SignupView) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the view dimensions
func (v SignupView) SetSize(width, height int) SignupView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode reports whether the view is capturing text input.
func (v SignupView) IsInputMode() bool {
	return true
}

// Update handles messages
func (v SignupView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signupDoneMsg:
		v.submitting = false
		if msg.err != nil {
			v.errMsg = signupErrorMessage(msg.err)
			return v, nil
		}
		return v, func() tea.Msg {
			return SwitchToLogin{Notice: "Signup successful. Please log in."}
		}

	case tea.KeyMsg:
		if v.submitting {
			return v, nil
		}

		switch msg.String() {
		case "tab", "down":
			v = v.setFocus((v.focus + 1) % 3)
			return v, nil
		case "shift+tab", "up":
			v = v.setFocus((v.focus + 2) % 3)
			return v, nil
		case "enter":
			return v.submit()
		case "esc":
			return v, func() tea.Msg { return SwitchToLogin{} }
		case "left", "right", " ":
			if v.focus == 2 {
				v.role = toggleRole(v.role)
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	switch v.focus {
	case 0:
		v.email, cmd = v.email.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func toggleRole(r model.Role) model.Role {
	if r == model.RoleUser {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func (v SignupView) setFocus(focus int) SignupView {
	v.focus = focus
	v.email.Blur()
	v.password.Blur()
	switch focus {
	case 0:
		v.email.Focus()
	case 1:
		v.password.Focus()
	}
	return v
}

// submit validates the email locally first; a malformed address never
// reaches the server.
func (v SignupView) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()

	v.emailErr = ""
	v.errMsg = ""

	if email == "" {
		v.emailErr = "Email is required"
		return v, nil
	}
	if !ValidEmail(email) {
		v.emailErr = "Invalid email address"
		return v, nil
	}
	if password == "" {
		v.errMsg = "Password is required."
		return v, nil
	}

	v.submitting = true

	a := v.app
	role := v.role
	return v, func() tea.Msg {
		err := a.API.Signup(context.Background(), email, password, role)
		if err == nil {
			a.Log.Info("signed up", "email", email, "role", role)
		}
		return signupDoneMsg{err: err}
	}
}

func signupErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Signup failed."
}

// View renders the form
func (v SignupView) View() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.Title.Render("Sign Up"))
	b.WriteString("\n\n")

	b.WriteString(v.renderInput(v.email, v.focus == 0))
	b.WriteString("\n")
	if v.emailErr != "" {
		b.WriteString(styles.InputError.Render(v.emailErr))
		b.WriteString("\n")
	}

	b.WriteString(v.renderInput(v.password, v.focus == 1))
	b.WriteString("\n")

	b.WriteString(v.renderRole())
	b.WriteString("\n")

	if v.errMsg != "" {
		b.WriteString(styles.InputError.Render(v.errMsg))
		b.WriteString("\n")
	}

	if v.submitting {
		b.WriteString(styles.Subtitle.Render("Signing up..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render("Already have an account? Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" to log in"))

	panel := styles.Panel.Width(48).Render(b.String())
	if v.width == 0 || v.height == 0 {
		return panel
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, panel)
}

func (v SignupView) renderInput(input textinput.Model, focused bool) string {
	styles := theme.Current.Styles
	if focused {
		return styles.InputFocused.Width(40).Render(input.View())
	}
	return styles.Input.Width(40).Render(input.View())
}

// renderRole renders the user/admin toggle.
func (v SignupView) renderRole() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	label := styles.Label.Render("Role: ")

	userStyle := styles.FilterInactive
	adminStyle := styles.FilterInactive
	if v.role == model.RoleUser {
		userStyle = styles.FilterActive
	} else {
		adminStyle = styles.FilterActive
	}

	line := label + userStyle.Render("User") + " " + adminStyle.Render("Admin")
	if v.focus == 2 {
		hint := lipgloss.NewStyle().Foreground(t.Subtle).Render("  ←/→ to change")
		return line + hint
	}
	return line
}
