package lifecycle

import (
	"context"
	"fmt"
	"log"

	"jobmarket/internal/domain"
)

// Step is one unit of a saga. Undo, when set, reverts a committed Do.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga runs steps in order. When a step fails, the Undo of every step that
// already committed runs in reverse order and the failure is returned.
type Saga struct {
	steps []Step
}

func NewSaga(steps ...Step) *Saga {
	return &Saga{steps: steps}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the saga. A failure of the first step is returned unchanged so
// that pre-write validation errors keep their kind; later failures are
// reported as dependency errors naming the step.
func (s *Saga) Run(ctx context.Context) error {
	committed := make([]Step, 0, len(s.steps))
	for i, st := range s.steps {
		if err := st.Do(ctx); err != nil {
			s.compensate(ctx, committed)
			if i == 0 {
				return err
			}
			return domain.Dependency(fmt.Sprintf("%s failed", st.Name), err)
		}
		committed = append(committed, st)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, committed []Step) {
	for i := len(committed) - 1; i >= 0; i-- {
		st := committed[i]
		if st.Undo == nil {
			continue
		}
		if err := st.Undo(ctx); err != nil {
			log.Printf("[saga] compensation for %q failed: %v", st.Name, err)
		}
	}
}
