package views

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okeefe/taskdeck/internal/api"
	"github.com/okeefe/taskdeck/internal/app"
	"github.com/okeefe/taskdeck/internal/model"
	"github.com/okeefe/taskdeck/internal/ui/theme"
)

// filterSetting is the settings key remembering the last status filter.
const filterSetting = "status_filter"

// DashboardMode distinguishes what the dashboard is currently showing.
type DashboardMode int

const (
	// ModeNormal shows the task table.
	ModeNormal DashboardMode = iota
	// ModeForm shows the create/edit modal.
	ModeForm
	// ModeAttachment shows the attachment URL modal.
	ModeAttachment
)

// DashboardView is the task list. Users see their own tasks with full
// actions; admins see every task read-only.
type DashboardView struct {
	app    *app.App
	claims model.Claims

	tasks        []model.Task
	filter       model.Filter
	cursor       int
	scrollOffset int
	loading      bool

	mode DashboardMode

	// Form state. editingID is zero when creating.
	editingID   int
	formTitle   textinput.Model
	formDesc    textarea.Model
	formStatus  int // index into model.Statuses()
	formAttach  textinput.Model
	formCurrent string // attachment URL already on the task
	formFocus   int    // 0=title 1=desc 2=status 3=attach 4=save
	formErr     string
	submitting  bool

	// Attachment modal state.
	attachmentURL string

	width  int
	height int
}

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type taskSavedMsg struct {
	created bool
	err     error
}

type taskDeletedMsg struct {
	err error
}

// NewDashboardView creates the dashboard for a decoded session. The
// previously chosen filter is restored from settings.
func NewDashboardView(application *app.App, claims model.Claims) DashboardView {
	v := DashboardView{
		app:     application,
		claims:  claims,
		filter:  model.FilterAll,
		loading: true,
	}

	if saved, err := application.Store.GetSetting(filterSetting); err == nil && saved != "" {
		for _, f := range model.Filters() {
			if string(f) == saved {
				v.filter = f
				break
			}
		}
	}

	v.formTitle = textinput.New()
	v.formTitle.Placeholder = "Title"
	v.formTitle.CharLimit = model.TitleMaxLen

	v.formDesc = textarea.New()
	v.formDesc.Placeholder = "Description"
	v.formDesc.CharLimit = model.DescriptionMaxLen
	v.formDesc.SetHeight(4)
	v.formDesc.ShowLineNumbers = false

	v.formAttach = textinput.New()
	v.formAttach.Placeholder = "Path to image (optional)"

	return v
}

// Init kicks off the first fetch.
func (v DashboardView) Init() tea.Cmd {
	return v.loadTasks()
}

// SetSize updates the view dimensions
func (v DashboardView) SetSize(width, height int) DashboardView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode reports whether a modal is capturing keystrokes.
func (v DashboardView) IsInputMode() bool {
	return v.mode != ModeNormal
}

// Filter returns the active status filter.
func (v DashboardView) Filter() model.Filter {
	return v.filter
}

// Claims returns the session identity the dashboard was built for.
func (v DashboardView) Claims() model.Claims {
	return v.claims
}

// visibleTasks derives the filtered list from the last fetch.
func (v DashboardView) visibleTasks() []model.Task {
	return v.filter.Apply(v.tasks)
}

// selectedTask returns the task under the cursor, if any.
func (v DashboardView) selectedTask() (model.Task, bool) {
	visible := v.visibleTasks()
	if v.cursor < 0 || v.cursor >= len(visible) {
		return model.Task{}, false
	}
	return visible[v.cursor], true
}

// loadTasks fetches the role-appropriate list. Any fetch failure is
// treated as an expired session: the token is cleared and the user is
// sent back to login, mirroring the web client.
func (v DashboardView) loadTasks() tea.Cmd {
	a := v.app
	admin := v.claims.Role == model.RoleAdmin
	return func() tea.Msg {
		var tasks []model.Task
		var err error
		if admin {
			tasks, err = a.API.ListAll(context.Background())
		} else {
			tasks, err = a.API.ListMine(context.Background())
		}
		if err != nil {
			a.Log.Warn("task fetch failed, dropping session", "err", err)
			if cerr := a.Store.ClearToken(); cerr != nil {
				a.Log.Error("clear token", "err", cerr)
			}
			a.Notifier.SendSessionExpired()
			return SessionExpired{}
		}
		return tasksLoadedMsg{tasks: tasks}
	}
}

// Update handles messages
func (v DashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		v.loading = false
		v.tasks = msg.tasks
		v = v.clampCursor()
		return v, nil

	case taskSavedMsg:
		v.submitting = false
		if msg.err != nil {
			v.formErr = "Error submitting task."
			v.app.Log.Error("save task", "err", msg.err)
			return v, nil
		}
		v = v.closeForm()
		v.loading = true
		flash := "Task updated."
		if msg.created {
			flash = "Task created."
		}
		return v, tea.Batch(
			v.loadTasks(),
			func() tea.Msg { return StatusFlash{Message: flash} },
		)

	case taskDeletedMsg:
		if msg.err != nil {
			v.app.Log.Error("delete task", "err", msg.err)
			return v, func() tea.Msg {
				return ErrorFlash{Err: errors.New("Error deleting task.")}
			}
		}
		v.loading = true
		return v, v.loadTasks()

	case tea.KeyMsg:
		switch v.mode {
		case ModeForm:
			return v.updateForm(msg)
		case ModeAttachment:
			return v.updateAttachment(msg)
		default:
			return v.updateNormal(msg)
		}
	}

	return v, nil
}

// updateNormal handles keys in table mode.
func (v DashboardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := v.visibleTasks()

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
		return v, nil
	case "down", "j":
		if v.cursor < len(visible)-1 {
			v.cursor++
		}
		return v, nil
	case "g":
		v.cursor = 0
		return v, nil
	case "G":
		if len(visible) > 0 {
			v.cursor = len(visible) - 1
		}
		return v, nil

	case "f", "tab":
		return v.cycleFilter(1)
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		return v.setFilter(model.Filters()[idx])

	case "r":
		v.loading = true
		return v, v.loadTasks()

	case "a":
		if !v.claims.ShowsActions() {
			return v, nil
		}
		return v.openCreateForm()

	case "enter", "e":
		task, ok := v.selectedTask()
		if !ok || !v.claims.ShowsActions() || !v.claims.CanModify(task) {
			return v, nil
		}
		return v.openEditForm(task)

	case "d":
		task, ok := v.selectedTask()
		if !ok || !v.claims.ShowsActions() || !v.claims.CanModify(task) {
			return v, nil
		}
		return v, v.deleteTask(task.ID)

	case "v":
		task, ok := v.selectedTask()
		if !ok || task.Attachment == "" {
			return v, nil
		}
		v.mode = ModeAttachment
		v.attachmentURL = task.Attachment
		return v, nil

	case "L":
		a := v.app
		return v, func() tea.Msg {
			if err := a.Store.ClearToken(); err != nil {
				a.Log.Error("clear token", "err", err)
			}
			a.Log.Info("logged out")
			return LoggedOut{}
		}
	}

	return v, nil
}

// cycleFilter advances the filter by delta and persists the choice.
func (v DashboardView) cycleFilter(delta int) (tea.Model, tea.Cmd) {
	filters := model.Filters()
	idx := 0
	for i, f := range filters {
		if f == v.filter {
			idx = i
			break
		}
	}
	next := filters[(idx+delta+len(filters))%len(filters)]
	return v.setFilter(next)
}

func (v DashboardView) setFilter(f model.Filter) (tea.Model, tea.Cmd) {
	v.filter = f
	v.cursor = 0
	v.scrollOffset = 0
	if err := v.app.Store.SetSetting(filterSetting, string(f)); err != nil {
		v.app.Log.Error("persist filter", "err", err)
	}
	return v, nil
}

func (v DashboardView) clampCursor() DashboardView {
	visible := v.visibleTasks()
	if v.cursor >= len(visible) {
		v.cursor = len(visible) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	return v
}

// openCreateForm resets the form for a new task.
func (v DashboardView) openCreateForm() (tea.Model, tea.Cmd) {
	v.mode = ModeForm
	v.editingID = 0
	v.formTitle.SetValue("")
	v.formDesc.SetValue("")
	v.formStatus = 0
	v.formAttach.SetValue("")
	v.formCurrent = ""
	v.formErr = ""
	return v.setFormFocus(0), textinput.Blink
}

// openEditForm prefills the form from the selected task.
func (v DashboardView) openEditForm(task model.Task) (tea.Model, tea.Cmd) {
	v.mode = ModeForm
	v.editingID = task.ID
	v.formTitle.SetValue(task.Title)
	v.formDesc.SetValue(task.Description)
	v.formStatus = statusIndex(task.Status)
	v.formAttach.SetValue("")
	v.formCurrent = task.Attachment
	v.formErr = ""
	return v.setFormFocus(0), textinput.Blink
}

func statusIndex(s model.Status) int {
	for i, st := range model.Statuses() {
		if st == s {
			return i
		}
	}
	return 0
}

func (v DashboardView) closeForm() DashboardView {
	v.mode = ModeNormal
	v.editingID = 0
	v.formErr = ""
	v.formTitle.Blur()
	v.formDesc.Blur()
	v.formAttach.Blur()
	return v
}

func (v DashboardView) setFormFocus(focus int) DashboardView {
	v.formFocus = focus
	v.formTitle.Blur()
	v.formDesc.Blur()
	v.formAttach.Blur()
	switch focus {
	case 0:
		v.formTitle.Focus()
	case 1:
		v.formDesc.Focus()
	case 3:
		v.formAttach.Focus()
	}
	return v
}

// updateForm handles keys while the create/edit modal is open.
func (v DashboardView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.submitting {
		return v, nil
	}

	switch msg.String() {
	case "esc":
		return v.closeForm(), nil
	case "tab":
		return v.setFormFocus((v.formFocus + 1) % 5), nil
	case "shift+tab":
		return v.setFormFocus((v.formFocus + 4) % 5), nil
	case "enter":
		// The textarea keeps enter for newlines; everywhere else it
		// advances, and on the save row it submits.
		if v.formFocus == 4 {
			return v.submitForm()
		}
		if v.formFocus != 1 {
			return v.setFormFocus((v.formFocus + 1) % 5), nil
		}
	case "left", "h":
		if v.formFocus == 2 {
			n := len(model.Statuses())
			v.formStatus = (v.formStatus + n - 1) % n
			return v, nil
		}
	case "right", "l", " ":
		if v.formFocus == 2 {
			v.formStatus = (v.formStatus + 1) % len(model.Statuses())
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.formFocus {
	case 0:
		v.formTitle, cmd = v.formTitle.Update(msg)
	case 1:
		v.formDesc, cmd = v.formDesc.Update(msg)
	case 3:
		v.formAttach, cmd = v.formAttach.Update(msg)
	}
	return v, cmd
}

// validateForm checks the required fields, returning an error message
// or empty string.
func validateForm(title, description string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	if strings.TrimSpace(description) == "" {
		return "Description is required."
	}
	return ""
}

// submitForm uploads the attachment if a path was given, then creates
// or updates the task and re-fetches the list.
func (v DashboardView) submitForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(v.formTitle.Value())
	description := strings.TrimSpace(v.formDesc.Value())

	if msg := validateForm(title, description); msg != "" {
		v.formErr = msg
		return v, nil
	}

	v.formErr = ""
	v.submitting = true

	a := v.app
	editingID := v.editingID
	status := model.Statuses()[v.formStatus]
	attachPath := strings.TrimSpace(v.formAttach.Value())
	current := v.formCurrent

	return v, func() tea.Msg {
		ctx := context.Background()

		attachment := current
		if attachPath != "" {
			url, err := a.Uploader.Upload(ctx, attachPath)
			if err != nil {
				return taskSavedMsg{created: editingID == 0, err: err}
			}
			a.Notifier.SendUploadDone(filepath.Base(attachPath))
			attachment = url
		}

		// The form always sends the attachment field, empty or not,
		// so a cleared upload path keeps whatever the task had.
		draft := api.TaskDraft{
			Title:       title,
			Description: description,
			Status:      status,
			Attachment:  &attachment,
		}

		var err error
		if editingID == 0 {
			_, err = a.API.Create(ctx, draft)
		} else {
			_, err = a.API.Update(ctx, editingID, draft)
		}
		return taskSavedMsg{created: editingID == 0, err: err}
	}
}

// deleteTask fires the remote delete. There is no confirmation step;
// the list re-fetch makes the result visible immediately.
func (v DashboardView) deleteTask(id int) tea.Cmd {
	a := v.app
	return func() tea.Msg {
		err := a.API.Delete(context.Background(), id)
		return taskDeletedMsg{err: err}
	}
}

// updateAttachment handles keys while the attachment modal is open.
func (v DashboardView) updateAttachment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "v", "q", "enter":
		v.mode = ModeNormal
		v.attachmentURL = ""
		return v, nil
	}
	return v, nil
}

// View renders the dashboard.
func (v DashboardView) View() string {
	switch v.mode {
	case ModeForm:
		return v.renderForm()
	case ModeAttachment:
		return v.renderAttachment()
	}
	return v.renderTable()
}

func (v DashboardView) renderTable() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(v.renderFilterBar())
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(styles.Subtitle.Render("Loading tasks..."))
		return b.String()
	}

	visible := v.visibleTasks()
	if len(visible) == 0 {
		b.WriteString(styles.Subtitle.Render("No tasks to show."))
		if v.claims.ShowsActions() {
			b.WriteString("\n\n")
			b.WriteString(styles.HelpDesc.Render("Press "))
			b.WriteString(styles.HelpKey.Render("a"))
			b.WriteString(styles.HelpDesc.Render(" to add one"))
		}
		return b.String()
	}

	admin := v.claims.Role == model.RoleAdmin

	header := fmt.Sprintf("%-28s %-32s %-12s", "Title", "Description", "Status")
	if admin {
		header += fmt.Sprintf(" %-6s", "User")
	}
	header += " Att"
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	rows := v.visibleRows(visible)
	for i, task := range rows.tasks {
		b.WriteString(v.renderRow(task, rows.start+i == v.cursor, admin))
		b.WriteString("\n")
	}

	return b.String()
}

type rowWindow struct {
	tasks []model.Task
	start int
}

// visibleRows windows the list to the available height.
func (v DashboardView) visibleRows(visible []model.Task) rowWindow {
	maxRows := v.height - 6
	if maxRows < 1 || maxRows >= len(visible) {
		return rowWindow{tasks: visible}
	}

	start := v.scrollOffset
	if v.cursor < start {
		start = v.cursor
	}
	if v.cursor >= start+maxRows {
		start = v.cursor - maxRows + 1
	}
	if start+maxRows > len(visible) {
		start = len(visible) - maxRows
	}
	return rowWindow{tasks: visible[start : start+maxRows], start: start}
}

func (v DashboardView) renderRow(task model.Task, selected, admin bool) string {
	styles := theme.Current.Styles

	att := " "
	if task.Attachment != "" {
		att = "📎"
	}

	status := fmt.Sprintf("%-12s", task.Status)
	if !selected {
		status = lipgloss.NewStyle().Foreground(statusColor(task.Status)).Render(status)
	}

	line := fmt.Sprintf("%-28s %-32s %s",
		truncate(task.Title, 28),
		truncate(task.Description, 32),
		status)
	if admin {
		line += fmt.Sprintf(" %-6d", task.UserID)
	}
	line += " " + att

	switch {
	case selected:
		return styles.RowSelected.Render(line)
	case task.Status == model.StatusCompleted:
		return styles.RowCompleted.Render(line)
	default:
		return styles.RowNormal.Render(line)
	}
}

// statusColor maps a status to its theme color.
func statusColor(s model.Status) lipgloss.Color {
	t := theme.Current.Theme
	switch s {
	case model.StatusInProgress:
		return t.StatusInProgress
	case model.StatusCompleted:
		return t.StatusCompleted
	default:
		return t.StatusPending
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func (v DashboardView) renderFilterBar() string {
	styles := theme.Current.Styles

	parts := make([]string, 0, len(model.Filters()))
	for _, f := range model.Filters() {
		count := len(f.Apply(v.tasks))
		label := fmt.Sprintf("%s (%d)", f, count)
		if f == v.filter {
			parts = append(parts, styles.FilterActive.Render(label))
		} else {
			parts = append(parts, styles.FilterInactive.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (v DashboardView) renderForm() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := "New Task"
	if v.editingID != 0 {
		title = "Edit Task"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n\n")

	b.WriteString(v.renderFormInput(v.formTitle.View(), v.formFocus == 0))
	b.WriteString("\n")
	b.WriteString(v.renderFormInput(v.formDesc.View(), v.formFocus == 1))
	b.WriteString("\n")

	b.WriteString(v.renderStatusPicker())
	b.WriteString("\n")

	b.WriteString(v.renderFormInput(v.formAttach.View(), v.formFocus == 3))
	b.WriteString("\n")
	if v.formCurrent != "" && strings.TrimSpace(v.formAttach.Value()) == "" {
		b.WriteString(styles.Label.Render("Keeps current attachment"))
		b.WriteString("\n")
	}

	save := styles.FilterInactive.Render("[ Save ]")
	if v.formFocus == 4 {
		save = styles.FilterActive.Render("[ Save ]")
	}
	b.WriteString("\n")
	b.WriteString(save)
	b.WriteString("\n")

	if v.formErr != "" {
		b.WriteString(styles.InputError.Render(v.formErr))
		b.WriteString("\n")
	}
	if v.submitting {
		b.WriteString(styles.Subtitle.Render("Saving..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.Subtle).
		Render("tab next · esc cancel"))

	panel := styles.Panel.Width(56).Render(b.String())
	if v.width == 0 || v.height == 0 {
		return panel
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, panel)
}

func (v DashboardView) renderFormInput(inner string, focused bool) string {
	styles := theme.Current.Styles
	if focused {
		return styles.InputFocused.Width(48).Render(inner)
	}
	return styles.Input.Width(48).Render(inner)
}

func (v DashboardView) renderStatusPicker() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	label := styles.Label.Render("Status: ")
	parts := make([]string, 0, len(model.Statuses()))
	for i, s := range model.Statuses() {
		if i == v.formStatus {
			parts = append(parts, styles.FilterActive.Render(string(s)))
		} else {
			parts = append(parts, styles.FilterInactive.Render(string(s)))
		}
	}
	line := label + strings.Join(parts, " ")
	if v.formFocus == 2 {
		line += lipgloss.NewStyle().Foreground(t.Subtle).Render("  ←/→ to change")
	}
	return line
}

func (v DashboardView) renderAttachment() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder
	b.WriteString(styles.Title.Render("Attachment"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.Info).Render(v.attachmentURL))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	panel := styles.Panel.Width(64).Render(b.String())
	if v.width == 0 || v.height == 0 {
		return panel
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, panel)
}
