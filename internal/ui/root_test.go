package ui

import (
	"encoding/base64"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/config"
	"github.com/okeefe/taskdeck/internal/model"
	"github.com/okeefe/taskdeck/internal/notify"
	"github.com/okeefe/taskdeck/internal/store"
	"github.com/okeefe/taskdeck/internal/ui/theme"
	"github.com/okeefe/taskdeck/internal/ui/views"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	n := notify.NewNotifier()
	n.SetEnabled(false)

	return &app.App{
		Config:   &config.Config{},
		Store:    st,
		Notifier: n,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func makeToken(payload string) string {
	p := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return "hdr." + p + ".sig"
}

func TestStartsAtLoginWithoutToken(t *testing.T) {
	m := NewRootModel(newTestApp(t))
	if m.screen != ScreenLogin {
		t.Errorf("screen = %v, want ScreenLogin", m.screen)
	}
}

func TestResumesSessionFromStoredToken(t *testing.T) {
	a := newTestApp(t)
	if err := a.Store.SaveToken(makeToken(`{"id":7,"role":"user"}`)); err != nil {
		t.Fatalf("save token: %v", err)
	}

	m := NewRootModel(a)
	if m.screen != ScreenDashboard {
		t.Fatalf("screen = %v, want ScreenDashboard", m.screen)
	}
	if m.claims.UserID != 7 || m.claims.Role != model.RoleUser {
		t.Errorf("claims = %+v", m.claims)
	}
}

func TestMalformedStoredTokenIsDropped(t *testing.T) {
	a := newTestApp(t)
	if err := a.Store.SaveToken("garbage"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	m := NewRootModel(a)
	if m.screen != ScreenLogin {
		t.Errorf("screen = %v, want ScreenLogin", m.screen)
	}

	tok, err := a.Store.Token()
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if tok != "" {
		t.Errorf("malformed token survived: %q", tok)
	}
}

func TestSessionExpiredReturnsToLogin(t *testing.T) {
	a := newTestApp(t)
	if err := a.Store.SaveToken(makeToken(`{"id":7,"role":"user"}`)); err != nil {
		t.Fatalf("save token: %v", err)
	}

	m := NewRootModel(a)
	got, _ := m.Update(views.SessionExpired{})
	updated := got.(RootModel)

	if updated.screen != ScreenLogin {
		t.Errorf("screen = %v, want ScreenLogin", updated.screen)
	}
	if updated.claims != (model.Claims{}) {
		t.Errorf("claims not cleared: %+v", updated.claims)
	}
}

func TestSwitchBetweenAuthScreens(t *testing.T) {
	m := NewRootModel(newTestApp(t))

	got, _ := m.Update(views.SwitchToSignup{})
	if got.(RootModel).screen != ScreenSignup {
		t.Fatalf("screen = %v, want ScreenSignup", got.(RootModel).screen)
	}

	got, _ = got.(RootModel).Update(views.SwitchToLogin{Notice: "Signup successful. Please log in."})
	if got.(RootModel).screen != ScreenLogin {
		t.Errorf("screen = %v, want ScreenLogin", got.(RootModel).screen)
	}
}

func TestRestoreThemeFromSettings(t *testing.T) {
	a := newTestApp(t)
	if err := a.Store.SetSetting("theme", theme.Dracula.Name); err != nil {
		t.Fatalf("save theme: %v", err)
	}
	t.Cleanup(func() { theme.SetTheme(theme.Nord) })

	NewRootModel(a)
	if theme.Current.Theme.Name != theme.Dracula.Name {
		t.Errorf("active theme = %q, want %q", theme.Current.Theme.Name, theme.Dracula.Name)
	}
}

func TestStatusFlashShowsInFooter(t *testing.T) {
	m := NewRootModel(newTestApp(t))

	got, _ := m.Update(views.StatusFlash{Message: "Task created."})
	updated := got.(RootModel)
	if updated.statusMsg != "Task created." {
		t.Errorf("statusMsg = %q", updated.statusMsg)
	}
}
