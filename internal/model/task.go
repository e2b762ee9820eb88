package model

// Status represents the current state of a task. The values are the
// server's literal strings and are sent over the wire as-is.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the valid statuses in form/display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// Valid reports whether s is one of the server-known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Role is the coarse permission tier decoded from the session token.
// It gates UI affordances only; the server is the enforcement point.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Claims is the identity decoded from the session token.
type Claims struct {
	UserID int  `json:"id"`
	Role   Role `json:"role"`
}

// Task is a value snapshot fetched from the server. The client never
// mutates tasks in place; every change is a remote call followed by a
// full list re-fetch.
type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	UserID      int    `json:"UserId"`
	Attachment  string `json:"attachment,omitempty"`
}

// Limits enforced by the task form, matching the server's columns.
const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 300
)

// Filter is the dashboard status filter. FilterAll shows everything;
// the other values are the Status strings.
type Filter string

const FilterAll Filter = "All"

// Filters lists the dashboard filters in display order.
func Filters() []Filter {
	return []Filter{
		FilterAll,
		Filter(StatusPending),
		Filter(StatusInProgress),
		Filter(StatusCompleted),
	}
}

// Matches reports whether the task passes the filter.
func (f Filter) Matches(t Task) bool {
	return f == FilterAll || Status(f) == t.Status
}

// Apply returns the tasks passing the filter, in input order. The input
// slice is never modified; the visible list is always a pure derivation
// of the last fetch.
func (f Filter) Apply(tasks []Task) []Task {
	if f == FilterAll {
		return tasks
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// CanModify reports whether the session identified by c may edit or
// delete the task: admins may touch anything, users only their own.
func (c Claims) CanModify(t Task) bool {
	return c.Role == RoleAdmin || t.UserID == c.UserID
}

// ShowsActions reports whether action controls (create/edit/delete) are
// rendered at all for this session. Admins browse read-only even though
// CanModify would allow them to act; that matches the product behavior.
func (c Claims) ShowsActions() bool {
	return c.Role != RoleAdmin
}
