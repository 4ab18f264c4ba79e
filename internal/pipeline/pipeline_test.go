package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/imgmirror/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestRun() *model.Run {
	return model.NewRun(".", "assets/images", "https://static.wixstatic.com/media/")
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if n := len(p.StepNames()); n != 0 {
			t.Errorf("expected 0 steps, got %d", n)
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "step-1"}, &mockStep{name: "step-2"}, &mockStep{name: "step-3"})

		if n := len(p.StepNames()); n != 3 {
			t.Errorf("expected 3 steps, got %d", n)
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()

		expected := []string{"first", "second", "third"}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		record := func(name string) *mockStep {
			return &mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.Run) error {
					order = append(order, name)
					return nil
				},
			}
		}

		p := New()
		p.AddSteps(record("discover"), record("rewrite"), record("audit"))
		run := newTestRun()

		if err := p.Execute(t.Context(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []string{"discover", "rewrite", "audit"}
		if len(order) != len(expected) {
			t.Fatalf("executed %v, expected %v", order, expected)
		}
		for i := range expected {
			if order[i] != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, order[i], expected[i])
			}
			if run.PerformedSteps[i] != expected[i] {
				t.Errorf("performed step %d: got %q", i, run.PerformedSteps[i])
			}
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		errBroken := errors.New("broken page")
		failing := &mockStep{
			name:   "rewrite",
			doFunc: func(context.Context, *model.Run) error { return errBroken },
		}
		after := &mockStep{name: "audit"}

		p := New()
		p.AddSteps(&mockStep{name: "discover"}, failing, after)
		run := newTestRun()

		err := p.Execute(t.Context(), run)
		if !errors.Is(err, errBroken) {
			t.Errorf("expected errBroken, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("step after the failure must not run")
		}
		if len(run.PerformedSteps) != 1 || run.PerformedSteps[0] != "discover" {
			t.Errorf("PerformedSteps = %v", run.PerformedSteps)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		errFirst := errors.New("first")
		errSecond := errors.New("second")
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "a", doFunc: func(context.Context, *model.Run) error { return errFirst }},
			&mockStep{name: "b", doFunc: func(context.Context, *model.Run) error { return errSecond }},
			&mockStep{name: "c"},
		)
		run := newTestRun()

		err := p.Execute(t.Context(), run)
		if !errors.Is(err, errFirst) {
			t.Errorf("expected first error, got %v", err)
		}
		if len(run.PerformedSteps) != 1 || run.PerformedSteps[0] != "c" {
			t.Errorf("PerformedSteps = %v", run.PerformedSteps)
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		first := &mockStep{
			name: "first",
			doFunc: func(context.Context, *model.Run) error {
				cancel()
				return nil
			},
		}
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		err := p.Execute(ctx, newTestRun())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("second step must not run after cancellation")
		}
	})

	t.Run("empty pipeline succeeds", func(t *testing.T) {
		t.Parallel()

		if err := New().Execute(t.Context(), newTestRun()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
