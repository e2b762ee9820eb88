package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLoginFocusCycles(t *testing.T) {
	v := NewLoginView(nil)

	got, _ := v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v = got.(LoginView)
	if v.focus != 1 {
		t.Fatalf("focus = %d after tab, want 1", v.focus)
	}

	got, _ = v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	v = got.(LoginView)
	if v.focus != 0 {
		t.Fatalf("focus = %d after shift+tab, want 0", v.focus)
	}

	// Reverse from the first field wraps to the last.
	got, _ = v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	v = got.(LoginView)
	if v.focus != loginFields-1 {
		t.Errorf("focus = %d after wrap, want %d", v.focus, loginFields-1)
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	v := NewLoginView(nil)
	v.email.SetValue("user@example.com")

	got, cmd := v.submit()
	if cmd != nil {
		t.Fatalf("submit issued a command without a password")
	}
	if got.(LoginView).errMsg != "Email and password are required." {
		t.Errorf("errMsg = %q", got.(LoginView).errMsg)
	}
}
