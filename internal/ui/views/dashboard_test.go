package views

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okeefe/taskdeck/internal/api"
	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/model"
	"github.com/okeefe/taskdeck/internal/notify"
	"github.com/okeefe/taskdeck/internal/store"
	"github.com/okeefe/taskdeck/internal/ui/theme"
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
		Store:    st,
		Notifier: n,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// withAPI points the app's API client at a test server, reading the
// bearer token from the app's own store like the real wiring does.
func withAPI(a *app.App, srv *httptest.Server) {
	a.API = api.New(srv.URL, func() string {
		tok, _ := a.Store.Token()
		return tok
	}, a.Log)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "one", Description: "first", Status: model.StatusPending, UserID: 7},
		{ID: 2, Title: "two", Description: "second", Status: model.StatusCompleted, UserID: 7, Attachment: "https://res.cloudinary.com/x/a.png"},
		{ID: 3, Title: "three", Description: "third", Status: model.StatusPending, UserID: 9},
	}
}

func TestVisibleTasksIsPureFilter(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	v.tasks = sampleTasks()
	v.filter = model.Filter(model.StatusPending)

	visible := v.visibleTasks()
	if len(visible) != 2 {
		t.Fatalf("visible = %d tasks, want 2", len(visible))
	}
	if len(v.tasks) != 3 {
		t.Errorf("filter mutated the fetched list: %d tasks", len(v.tasks))
	}
}

func TestAdminCannotOpenForm(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 1, Role: model.RoleAdmin})
	v.tasks = sampleTasks()
	v.loading = false

	got, _ := v.updateNormal(keyRune('a'))
	updated := got.(DashboardView)
	if updated.mode != ModeNormal {
		t.Errorf("admin opened the create form")
	}

	got, _ = updated.updateNormal(keyRune('e'))
	updated = got.(DashboardView)
	if updated.mode != ModeNormal {
		t.Errorf("admin opened the edit form")
	}
}

func TestEditPrefillsForm(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	v.tasks = sampleTasks()
	v.loading = false
	v.cursor = 1

	got, _ := v.updateNormal(keyRune('e'))
	updated := got.(DashboardView)

	if updated.mode != ModeForm {
		t.Fatalf("mode = %v, want ModeForm", updated.mode)
	}
	if updated.editingID != 2 {
		t.Errorf("editingID = %d, want 2", updated.editingID)
	}
	if updated.formTitle.Value() != "two" {
		t.Errorf("title = %q", updated.formTitle.Value())
	}
	if updated.formDesc.Value() != "second" {
		t.Errorf("description = %q", updated.formDesc.Value())
	}
	if model.Statuses()[updated.formStatus] != model.StatusCompleted {
		t.Errorf("status index = %d", updated.formStatus)
	}
	if updated.formCurrent != "https://res.cloudinary.com/x/a.png" {
		t.Errorf("formCurrent = %q", updated.formCurrent)
	}
	if updated.formAttach.Value() != "" {
		t.Errorf("attach path should start empty, got %q", updated.formAttach.Value())
	}
}

func TestCannotEditOtherUsersTask(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	v.tasks = sampleTasks()
	v.loading = false
	v.cursor = 2 // owned by user 9

	got, _ := v.updateNormal(keyRune('e'))
	if got.(DashboardView).mode != ModeNormal {
		t.Errorf("opened edit form for another user's task")
	}
}

func TestFilterCyclePersists(t *testing.T) {
	a := newTestApp(t)

	v := NewDashboardView(a, model.Claims{UserID: 7, Role: model.RoleUser})
	got, _ := v.updateNormal(keyRune('f'))
	updated := got.(DashboardView)

	if updated.filter != model.Filter(model.StatusPending) {
		t.Fatalf("filter = %q after one cycle", updated.filter)
	}

	saved, err := a.Store.GetSetting("status_filter")
	if err != nil {
		t.Fatalf("read setting: %v", err)
	}
	if saved != string(model.StatusPending) {
		t.Errorf("persisted filter = %q", saved)
	}

	// A fresh view restores the saved filter.
	again := NewDashboardView(a, model.Claims{UserID: 7, Role: model.RoleUser})
	if again.filter != model.Filter(model.StatusPending) {
		t.Errorf("restored filter = %q", again.filter)
	}
}

func TestFilterResetsCursor(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	v.tasks = sampleTasks()
	v.cursor = 2

	got, _ := v.updateNormal(keyRune('f'))
	if got.(DashboardView).cursor != 0 {
		t.Errorf("cursor not reset after filter change")
	}
}

func TestAttachmentModal(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	v.tasks = sampleTasks()
	v.loading = false

	// Task without an attachment: nothing happens.
	got, _ := v.updateNormal(keyRune('v'))
	if got.(DashboardView).mode != ModeNormal {
		t.Fatalf("modal opened for task without attachment")
	}

	v.cursor = 1
	got, _ = v.updateNormal(keyRune('v'))
	updated := got.(DashboardView)
	if updated.mode != ModeAttachment {
		t.Fatalf("mode = %v, want ModeAttachment", updated.mode)
	}
	if updated.attachmentURL != "https://res.cloudinary.com/x/a.png" {
		t.Errorf("attachmentURL = %q", updated.attachmentURL)
	}

	got, _ = updated.updateAttachment(tea.KeyMsg{Type: tea.KeyEsc})
	if got.(DashboardView).mode != ModeNormal {
		t.Errorf("esc did not close the modal")
	}
}

func TestTasksLoadedClampsCursor(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	v.cursor = 5

	got, _ := v.Update(tasksLoadedMsg{tasks: sampleTasks()})
	updated := got.(DashboardView)
	if updated.cursor != 2 {
		t.Errorf("cursor = %d, want 2", updated.cursor)
	}
	if updated.loading {
		t.Errorf("still loading after tasksLoadedMsg")
	}
}

func TestValidateForm(t *testing.T) {
	tests := []struct {
		name        string
		title, desc string
		wantErr     bool
	}{
		{"both filled", "a title", "a description", false},
		{"empty title", "", "a description", true},
		{"blank title", "   ", "a description", true},
		{"empty description", "a title", "", true},
		{"both empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateForm(tt.title, tt.desc)
			if (got != "") != tt.wantErr {
				t.Errorf("validateForm(%q, %q) = %q", tt.title, tt.desc, got)
			}
		})
	}
}

func TestSaveErrorKeepsFormOpen(t *testing.T) {
	v := NewDashboardView(newTestApp(t), model.Claims{UserID: 7, Role: model.RoleUser})
	got, _ := v.openCreateForm()
	v = got.(DashboardView)
	v.submitting = true

	got, _ = v.Update(taskSavedMsg{created: true, err: io.ErrUnexpectedEOF})
	updated := got.(DashboardView)

	if updated.mode != ModeForm {
		t.Errorf("form closed despite save error")
	}
	if updated.formErr != "Error submitting task." {
		t.Errorf("formErr = %q", updated.formErr)
	}
	if updated.submitting {
		t.Errorf("still submitting after result")
	}
}

func TestFetchFailureDropsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newTestApp(t)
	withAPI(a, srv)
	if err := a.Store.SaveToken("stale-token"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	v := NewDashboardView(a, model.Claims{UserID: 7, Role: model.RoleUser})
	msg := v.loadTasks()()

	if _, ok := msg.(SessionExpired); !ok {
		t.Fatalf("msg = %T, want SessionExpired", msg)
	}
	tok, err := a.Store.Token()
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if tok != "" {
		t.Errorf("token not cleared after fetch failure: %q", tok)
	}
}

func TestFetchUsesRoleEndpoint(t *testing.T) {
	tests := []struct {
		role     model.Role
		wantPath string
	}{
		{model.RoleUser, "/tasks"},
		{model.RoleAdmin, "/tasks/admin"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"id":1,"title":"one","description":"first","status":"Pending","UserId":7}]`))
			}))
			defer srv.Close()

			a := newTestApp(t)
			withAPI(a, srv)

			v := NewDashboardView(a, model.Claims{UserID: 7, Role: tt.role})
			msg := v.loadTasks()()

			if gotPath != tt.wantPath {
				t.Errorf("fetch hit %q, want %q", gotPath, tt.wantPath)
			}
			loaded, ok := msg.(tasksLoadedMsg)
			if !ok {
				t.Fatalf("msg = %T, want tasksLoadedMsg", msg)
			}
			if len(loaded.tasks) != 1 || loaded.tasks[0].UserID != 7 {
				t.Errorf("tasks = %+v", loaded.tasks)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 28); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long title that will not fit", 10); len([]rune(got)) != 10 {
		t.Errorf("truncate length = %d", len([]rune(got)))
	}
}

func TestStatusColorPerStatus(t *testing.T) {
	th := theme.Current.Theme
	tests := []struct {
		status model.Status
		want   lipgloss.Color
	}{
		{model.StatusPending, th.StatusPending},
		{model.StatusInProgress, th.StatusInProgress},
		{model.StatusCompleted, th.StatusCompleted},
	}
	for _, tt := range tests {
		if got := statusColor(tt.status); got != tt.want {
			t.Errorf("statusColor(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
