package act

import "iter"

// Func runs fn once per tick and reports its status.
type Func struct {
	node
	fn       func() Status
	onCancel func()
}

func Do(name string, fn func() Status) *Func {
	return &Func{node: node{name: name}, fn: fn}
}

// OnCancel registers cleanup to run if the act is abandoned while running.
func (f *Func) OnCancel(fn func()) *Func {
	f.onCancel = fn
	return f
}

func (f *Func) Tick() Status {
	f.begin()
	return f.finish(f.fn())
}

func (f *Func) Cancel() {
	if f.abandon() && f.onCancel != nil {
		f.onCancel()
	}
}

// Condition succeeds when pred holds and fails otherwise, in a single tick.
func Condition(name string, pred func() bool) *Func {
	return Do(name, func() Status {
		if pred() {
			return Success
		}
		return Fail
	})
}

// Wait stays Running for the given number of ticks, then succeeds.
func Wait(name string, ticks int) *Func {
	left := ticks
	return Do(name, func() Status {
		if left <= 0 {
			return Success
		}
		left--
		return Running
	})
}

// Wrapped adapts a lazy status sequence into an act. Each tick pulls exactly one value and
// a non-nil error counts as Fail. A sequence that returns without yielding a terminal status
// costs one extra tick: the tick that finds it exhausted reports Success, a status the
// sequence itself never produced. Canceling stops the sequence so its deferred cleanup runs.
type Wrapped struct {
	node
	seq  iter.Seq2[Status, error]
	next func() (Status, error, bool)
	stop func()
	err  error
}

func Wrap(name string, seq iter.Seq2[Status, error]) *Wrapped {
	return &Wrapped{node: node{name: name}, seq: seq}
}

// Err is the error that failed the act, if any.
func (w *Wrapped) Err() error { return w.err }

func (w *Wrapped) Tick() Status {
	w.begin()
	if w.next == nil {
		w.next, w.stop = iter.Pull2(w.seq)
	}
	st, err, ok := w.next()
	if !ok {
		w.stop()
		return w.finish(Success)
	}
	if err != nil {
		w.err = err
		w.stop()
		return w.finish(Fail)
	}
	if st != Running {
		w.stop()
	}
	return w.finish(st)
}

func (w *Wrapped) Cancel() {
	if w.abandon() && w.stop != nil {
		w.stop()
	}
}
