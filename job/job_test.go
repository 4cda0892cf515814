package job_test

import (
	"errors"
	"testing"

	"github.com/xraph/foreman"
	"github.com/xraph/foreman/job"
)

func TestNew(t *testing.T) {
	j, err := job.New("resize-image", job.TypeAsync, map[string]any{"width": 640})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if j.ID.IsNil() {
		t.Error("expected a generated ID")
	}
	if j.Status != job.StatusPending {
		t.Errorf("Status = %q, want %q", j.Status, job.StatusPending)
	}
	if j.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if j.StartedAt != nil || j.CompletedAt != nil {
		t.Error("expected nil StartedAt/CompletedAt on a fresh job")
	}
	if j.Result != nil || j.Error != nil {
		t.Error("expected nil Result/Error on a fresh job")
	}
}

func TestNew_TrimsName(t *testing.T) {
	j, err := job.New("  send-email  ", job.TypeSync, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if j.Name != "send-email" {
		t.Errorf("Name = %q, want %q", j.Name, "send-email")
	}
}

func TestNew_RejectsWhitespaceName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := job.New(name, job.TypeAsync, nil)
		if !errors.Is(err, foreman.ErrValidation) {
			t.Errorf("New(%q) = %v, want ErrValidation", name, err)
		}
		var verr *foreman.ValidationError
		if !errors.As(err, &verr) || verr.Field != "name" {
			t.Errorf("New(%q): expected ValidationError on field name, got %v", name, err)
		}
	}
}

func TestNew_RejectsUnknownType(t *testing.T) {
	_, err := job.New("some-job", job.Type("batch"), nil)
	if !errors.Is(err, foreman.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestStatus_Transitions(t *testing.T) {
	all := []job.Status{
		job.StatusPending, job.StatusQueued, job.StatusRunning,
		job.StatusCompleted, job.StatusFailed, job.StatusCancelled,
	}

	allowed := map[job.Status][]job.Status{
		job.StatusPending: {job.StatusQueued, job.StatusCancelled},
		job.StatusQueued:  {job.StatusRunning, job.StatusFailed, job.StatusCancelled},
		job.StatusRunning: {job.StatusCompleted, job.StatusFailed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s → %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	terminal := map[job.Status]bool{
		job.StatusPending:   false,
		job.StatusQueued:    false,
		job.StatusRunning:   false,
		job.StatusCompleted: true,
		job.StatusFailed:    true,
		job.StatusCancelled: true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestJob_CloneIsolation(t *testing.T) {
	j, err := job.New("clone-me", job.TypeAsync, map[string]any{"key": "original"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cp := j.Clone()
	cp.Payload["key"] = "mutated"
	cp.Status = job.StatusRunning

	if j.Payload["key"] != "original" {
		t.Error("mutating a clone's payload leaked into the original")
	}
	if j.Status != job.StatusPending {
		t.Error("mutating a clone's status leaked into the original")
	}
}
