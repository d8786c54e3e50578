package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"jobmarket/internal/domain"
)

func TestSagaRunsAllSteps(t *testing.T) {
	var trace []string
	s := NewSaga(
		Step{Name: "a", Do: func(context.Context) error { trace = append(trace, "a"); return nil }},
		Step{Name: "b", Do: func(context.Context) error { trace = append(trace, "b"); return nil }},
	)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(trace, []string{"a", "b"}) {
		t.Fatalf("trace = %v", trace)
	}
}

func TestSagaCompensatesInReverse(t *testing.T) {
	var trace []string
	boom := errors.New("gateway down")
	s := NewSaga().
		Add(Step{
			Name: "complete order",
			Do:   func(context.Context) error { trace = append(trace, "do1"); return nil },
			Undo: func(context.Context) error { trace = append(trace, "undo1"); return nil },
		}).
		Add(Step{
			Name: "record",
			Do:   func(context.Context) error { trace = append(trace, "do2"); return nil },
			Undo: func(context.Context) error { trace = append(trace, "undo2"); return nil },
		}).
		Add(Step{
			Name: "transfer",
			Do:   func(context.Context) error { return boom },
			Undo: func(context.Context) error { trace = append(trace, "undo3"); return nil },
		})

	err := s.Run(context.Background())
	if !errors.Is(err, domain.ErrDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause not preserved: %v", err)
	}
	want := []string{"do1", "do2", "undo2", "undo1"}
	if !reflect.DeepEqual(trace, want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
}

func TestSagaFirstStepErrorKeepsKind(t *testing.T) {
	s := NewSaga(Step{Name: "guard", Do: func(context.Context) error { return domain.Conflict("already complete") }})
	err := s.Run(context.Background())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if errors.Is(err, domain.ErrDependency) {
		t.Fatalf("first-step failure should not be a dependency error")
	}
}
