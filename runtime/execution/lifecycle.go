package execution

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"
)

// State of an activity instance
type State string

const (
	StateOpen State = "open"
	// StateJoining marks a branch that reached a join and waits for siblings
	StateJoining State = "joining"
	StateEnded   State = "ended"
)

const (
	triggerJoin = "join"
	triggerEnd  = "end"
)

func (a *ActivityInstance) lifecycle() *stateless.StateMachine {
	if a.machine != nil {
		return a.machine
	}
	machine := stateless.NewStateMachineWithExternalStorage(
		func(_ context.Context) (stateless.State, error) { return a.State, nil },
		func(_ context.Context, state stateless.State) error {
			a.State = state.(State)
			return nil
		},
		stateless.FiringImmediate)
	machine.Configure(StateOpen).
		Permit(triggerJoin, StateJoining).
		Permit(triggerEnd, StateEnded)
	machine.Configure(StateJoining).
		Permit(triggerEnd, StateEnded)
	machine.Configure(StateEnded)
	a.machine = machine
	return machine
}

func (a *ActivityInstance) fire(ctx context.Context, trigger string) error {
	if err := a.lifecycle().FireCtx(ctx, trigger); err != nil {
		return fmt.Errorf("activity instance %v (%v) cannot %v from %v: %w", a.ID, a.ActivityID, trigger, a.State, err)
	}
	return nil
}
