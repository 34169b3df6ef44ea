// Package act is a small status-based behavior tree. Every node is ticked until it returns
// Success or Fail; a finished node must not be ticked again.
package act

import (
	"errors"
	"fmt"
)

type Status uint8

const (
	Running Status = iota
	Success
	Fail
)

func (s Status) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// ErrTickAfterDone is the panic value (wrapped) raised when a finished or canceled act is
// ticked again. Callers that run untrusted trees recover it at their boundary.
var ErrTickAfterDone = errors.New("act: tick after terminal status")

type Act interface {
	Name() string
	// Tick advances the act by one step.
	Tick() Status
	// Cancel abandons the act. Cleanup runs at most once, and never after a terminal status.
	Cancel()
	// Last is the most recently ticked child, for diagnostics only.
	Last() Act
	Done() bool
}

// node is the lifecycle shared by every act in this package.
type node struct {
	name     string
	status   Status
	started  bool
	done     bool
	canceled bool
}

func (n *node) Name() string   { return n.name }
func (n *node) Done() bool     { return n.done }
func (n *node) Last() Act      { return nil }
func (n *node) Status() Status { return n.status }

func (n *node) begin() {
	if n.done {
		panic(fmt.Errorf("%w: %s", ErrTickAfterDone, n.name))
	}
	n.started = true
}

func (n *node) finish(s Status) Status {
	n.status = s
	if s != Running {
		n.done = true
	}
	return s
}

// abandon marks the node canceled. It reports false when cleanup must not run.
func (n *node) abandon() bool {
	if n.done || n.canceled {
		return false
	}
	n.canceled = true
	n.done = true
	n.status = Fail
	return true
}

// Leaf follows Last() down to the deepest recently ticked act.
func Leaf(a Act) Act {
	if a == nil {
		return nil
	}
	for {
		next := a.Last()
		if next == nil {
			return a
		}
		a = next
	}
}

// Path renders the chain of recently ticked acts, root first, e.g. "mine/goto/follow".
func Path(a Act) string {
	if a == nil {
		return ""
	}
	s := a.Name()
	for next := a.Last(); next != nil; next = next.Last() {
		s += "/" + next.Name()
	}
	return s
}
