package testutil

import (
	"context"
	"testing"
	"time"

	"lifeos/internal/service"
)

func TestFakeService_UpdateTaskCarriesAllFields(t *testing.T) {
	f := NewFakeService()
	task := f.AddTask("old", service.PriorityLow, service.StatusPending)

	notes := "bring ID"
	due := &service.Timestamp{Time: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)}
	got, err := f.UpdateTask(context.Background(), task.ID, service.TaskInput{
		Title:       "renew passport",
		Description: &notes,
		DueDate:     due,
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	stored := f.Tasks()[0]
	for _, tk := range []service.Task{got, stored} {
		if tk.Title != "renew passport" || tk.Priority != service.PriorityHigh {
			t.Errorf("unexpected task %+v", tk)
		}
		if tk.Description == nil || *tk.Description != notes {
			t.Errorf("expected description %q, got %v", notes, tk.Description)
		}
		if tk.DueDate == nil || !tk.DueDate.Equal(due.Time) {
			t.Errorf("expected due date %v, got %v", due, tk.DueDate)
		}
	}
}
