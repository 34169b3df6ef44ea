package creature

import (
	"errors"
	"fmt"
)

var (
	ErrNilTask             = errors.New("creature: nil task")
	ErrTaskAlreadyAssigned = errors.New("creature: task already assigned")
	ErrTaskQueueFull       = errors.New("creature: task queue full")
	ErrNoBehavior          = errors.New("creature: task produced no behavior")
)

// FaultError is a panic recovered while running a creature's behavior.
type FaultError struct {
	Creature string
	Task     string
	Act      string
	Value    any
	Stack    []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("creature %s: task %q act %q: fault: %v", e.Creature, e.Task, e.Act, e.Value)
}

// Unwrap exposes a recovered error value, so errors.Is sees act.ErrTickAfterDone and friends.
func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
