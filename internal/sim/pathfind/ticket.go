package pathfind

import "gridmind.ai/internal/sim/movement"

// Ticket is an outstanding path request. It is resolved by the plan service on the world
// goroutine and polled by the requesting behavior.
type Ticket struct {
	Goal Goal

	done     bool
	canceled bool
	path     []movement.Edge
	err      error
}

func NewTicket(goal Goal) *Ticket { return &Ticket{Goal: goal} }

func (t *Ticket) Done() bool { return t.done }

// Result is valid once Done reports true.
func (t *Ticket) Result() ([]movement.Edge, error) { return t.path, t.err }

func (t *Ticket) Resolve(path []movement.Edge, err error) {
	if t.done {
		return
	}
	t.path, t.err, t.done = path, err, true
}

// Cancel withdraws the request; a canceled ticket is never resolved.
func (t *Ticket) Cancel() { t.canceled = true }

func (t *Ticket) Canceled() bool { return t.canceled }
