package act

import (
	"errors"
	"iter"
	"testing"
)

// scripted plays back a fixed status list and records ticks and cancels.
type scripted struct {
	node
	script  []Status
	ticks   int
	cancels int
}

func newScripted(name string, script ...Status) *scripted {
	return &scripted{node: node{name: name}, script: script}
}

func (p *scripted) Tick() Status {
	p.begin()
	st := Success
	if p.ticks < len(p.script) {
		st = p.script[p.ticks]
	}
	p.ticks++
	return p.finish(st)
}

func (p *scripted) Cancel() {
	if p.abandon() {
		p.cancels++
	}
}

func tickAll(a Act, max int) (Status, int) {
	for i := 1; i <= max; i++ {
		if st := a.Tick(); st != Running {
			return st, i
		}
	}
	return Running, max
}

func TestSequenceRunsInOrderAndFailsFast(t *testing.T) {
	a := newScripted("a", Running, Success)
	b := newScripted("b", Fail)
	c := newScripted("c")
	seq := NewSequence("seq", a, b, c)

	st, n := tickAll(seq, 10)
	if st != Fail || n != 2 {
		t.Fatalf("sequence=%v after %d ticks, want FAIL after 2", st, n)
	}
	if c.ticks != 0 {
		t.Fatalf("child after failure ticked %d times", c.ticks)
	}
	if seq.Last() != b {
		t.Fatalf("Last()=%v want b", seq.Last())
	}
}

func TestSequenceSucceedsWhenLastSucceeds(t *testing.T) {
	seq := NewSequence("seq", newScripted("a"), newScripted("b", Running, Success))
	if st, _ := tickAll(seq, 5); st != Success {
		t.Fatalf("sequence=%v want SUCCESS", st)
	}
	if st := NewSequence("empty").Tick(); st != Success {
		t.Fatalf("empty sequence=%v want SUCCESS", st)
	}
}

func TestSelectSucceedsOnFirstSuccess(t *testing.T) {
	a := newScripted("a", Fail)
	b := newScripted("b", Running, Success)
	c := newScripted("c")
	sel := NewSelect("sel", a, b, c)
	if st, _ := tickAll(sel, 5); st != Success {
		t.Fatalf("select=%v want SUCCESS", st)
	}
	if c.ticks != 0 {
		t.Fatalf("child after success ticked")
	}
	all := NewSelect("sel", newScripted("x", Fail), newScripted("y", Fail))
	if st, _ := tickAll(all, 5); st != Fail {
		t.Fatalf("all-fail select=%v want FAIL", st)
	}
}

func TestRepeat(t *testing.T) {
	cases := []struct {
		name           string
		n              int
		requireSuccess bool
		script         []Status
		want           Status
		wantRuns       int
	}{
		{name: "all succeed", n: 3, requireSuccess: true, script: []Status{Success}, want: Success, wantRuns: 3},
		{name: "fail aborts", n: 3, requireSuccess: true, script: []Status{Fail}, want: Fail, wantRuns: 1},
		{name: "fail tolerated", n: 3, requireSuccess: false, script: []Status{Fail}, want: Success, wantRuns: 3},
		{name: "zero", n: 0, requireSuccess: true, script: []Status{Fail}, want: Success, wantRuns: 0},
	}
	for _, c := range cases {
		made := 0
		r := NewRepeat("r", c.n, c.requireSuccess, func() Act {
			made++
			return newScripted("inner", c.script...)
		})
		st, _ := tickAll(r, 20)
		if st != c.want || r.Runs() != c.wantRuns {
			t.Fatalf("%s: status=%v runs=%d want %v %d", c.name, st, r.Runs(), c.want, c.wantRuns)
		}
		if made != c.wantRuns {
			t.Fatalf("%s: factory called %d times want %d", c.name, made, c.wantRuns)
		}
	}
}

func TestTickAfterDonePanics(t *testing.T) {
	p := newScripted("p")
	if st := p.Tick(); st != Success {
		t.Fatalf("first tick=%v", st)
	}
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrTickAfterDone) {
			t.Fatalf("recover()=%v want ErrTickAfterDone", r)
		}
	}()
	p.Tick()
}

func TestCancelRunsOnceAndNotAfterTerminal(t *testing.T) {
	running := newScripted("running", Running, Running)
	seq := NewSequence("seq", running)
	seq.Tick()
	seq.Cancel()
	seq.Cancel()
	if running.cancels != 1 {
		t.Fatalf("cancels=%d want 1", running.cancels)
	}

	done := newScripted("done")
	done.Tick()
	done.Cancel()
	if done.cancels != 0 {
		t.Fatalf("terminal node canceled")
	}

	untouched := newScripted("never")
	NewSequence("s", untouched).Cancel()
	if untouched.cancels != 0 {
		t.Fatalf("never-started child canceled")
	}
}

func TestWrapFollowsGenerator(t *testing.T) {
	steps := 0
	seq := iter.Seq2[Status, error](func(yield func(Status, error) bool) {
		for steps < 3 {
			steps++
			if !yield(Running, nil) {
				return
			}
		}
		yield(Success, nil)
	})
	w := Wrap("gen", seq)
	st, n := tickAll(w, 10)
	if st != Success || n != 4 {
		t.Fatalf("wrap=%v after %d want SUCCESS after 4", st, n)
	}
}

func TestWrapExhaustedSequenceSucceeds(t *testing.T) {
	cases := []struct {
		name    string
		running int
		want    int
	}{
		{"empty", 0, 1},
		{"two running then return", 2, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := Wrap("gen", func(yield func(Status, error) bool) {
				for range tc.running {
					if !yield(Running, nil) {
						return
					}
				}
			})
			st, n := tickAll(w, 10)
			if st != Success || n != tc.want {
				t.Fatalf("wrap=%v after %d want SUCCESS after %d", st, n, tc.want)
			}
			if w.Err() != nil {
				t.Fatalf("Err()=%v want nil", w.Err())
			}
		})
	}
}

func TestWrapErrorFails(t *testing.T) {
	boom := errors.New("boom")
	w := Wrap("gen", func(yield func(Status, error) bool) {
		if !yield(Running, nil) {
			return
		}
		yield(Running, boom)
	})
	if st, _ := tickAll(w, 5); st != Fail {
		t.Fatalf("wrap=%v want FAIL", st)
	}
	if !errors.Is(w.Err(), boom) {
		t.Fatalf("Err()=%v want boom", w.Err())
	}
}

func TestWrapCancelRunsGeneratorCleanup(t *testing.T) {
	released := 0
	w := Wrap("gen", func(yield func(Status, error) bool) {
		defer func() { released++ }()
		for {
			if !yield(Running, nil) {
				return
			}
		}
	})
	w.Tick()
	w.Cancel()
	w.Cancel()
	if released != 1 {
		t.Fatalf("released=%d want 1", released)
	}
}

func TestWaitAndCondition(t *testing.T) {
	if st, n := tickAll(Wait("w", 2), 5); st != Success || n != 3 {
		t.Fatalf("wait=%v after %d", st, n)
	}
	if st := Condition("c", func() bool { return false }).Tick(); st != Fail {
		t.Fatalf("condition=%v want FAIL", st)
	}
}

func TestLeafAndPath(t *testing.T) {
	inner := newScripted("inner", Running)
	root := NewSequence("root", NewSelect("pick", inner))
	root.Tick()
	if Leaf(root) != inner {
		t.Fatalf("Leaf=%v want inner", Leaf(root).Name())
	}
	if p := Path(root); p != "root/pick/inner" {
		t.Fatalf("Path=%q", p)
	}
}
