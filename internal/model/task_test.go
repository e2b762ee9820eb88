package model

import (
	"reflect"
	"testing"
)

func TestFilterApply(t *testing.T) {
	tasks := []Task{
		{ID: 1, Title: "a", Status: StatusPending},
		{ID: 2, Title: "b", Status: StatusInProgress},
		{ID: 3, Title: "c", Status: StatusCompleted},
		{ID: 4, Title: "d", Status: StatusPending},
	}

	tests := []struct {
		filter  Filter
		wantIDs []int
	}{
		{FilterAll, []int{1, 2, 3, 4}},
		{Filter(StatusPending), []int{1, 4}},
		{Filter(StatusInProgress), []int{2}},
		{Filter(StatusCompleted), []int{3}},
	}

	for _, tt := range tests {
		got := tt.filter.Apply(tasks)
		var ids []int
		for _, task := range got {
			ids = append(ids, task.ID)
		}
		if !reflect.DeepEqual(ids, tt.wantIDs) {
			t.Errorf("filter %q: got %v, want %v", tt.filter, ids, tt.wantIDs)
		}
	}

	// The source list must never be touched.
	if len(tasks) != 4 || tasks[0].ID != 1 {
		t.Error("Apply modified its input")
	}
}

func TestFilterApplyIdempotent(t *testing.T) {
	tasks := []Task{
		{ID: 1, Status: StatusPending},
		{ID: 2, Status: StatusCompleted},
	}
	f := Filter(StatusPending)
	first := f.Apply(tasks)
	second := f.Apply(tasks)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Apply differs: %v vs %v", first, second)
	}
}

func TestCanModify(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		task   Task
		want   bool
	}{
		{"owner", Claims{UserID: 5, Role: RoleUser}, Task{UserID: 5}, true},
		{"not owner", Claims{UserID: 5, Role: RoleUser}, Task{UserID: 6}, false},
		{"admin any task", Claims{UserID: 1, Role: RoleAdmin}, Task{UserID: 6}, true},
	}
	for _, tt := range tests {
		if got := tt.claims.CanModify(tt.task); got != tt.want {
			t.Errorf("%s: CanModify = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestShowsActions(t *testing.T) {
	// Admins never see action controls, even though CanModify allows
	// them to act on any task.
	admin := Claims{UserID: 1, Role: RoleAdmin}
	if admin.ShowsActions() {
		t.Error("admin sees action controls")
	}
	if !admin.CanModify(Task{UserID: 99}) {
		t.Error("admin predicate should allow modification")
	}

	user := Claims{UserID: 2, Role: RoleUser}
	if !user.ShowsActions() {
		t.Error("user should see action controls")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses() {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("Archived").Valid() {
		t.Error("unknown status accepted")
	}
}
