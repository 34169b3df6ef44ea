package act

// Sequence ticks children in order. A child that succeeds hands over to the next one in the
// same tick; the first failure fails the sequence.
type Sequence struct {
	node
	children []Act
	idx      int
	last     Act
}

func NewSequence(name string, children ...Act) *Sequence {
	return &Sequence{node: node{name: name}, children: children}
}

func (s *Sequence) Last() Act { return s.last }

func (s *Sequence) Tick() Status {
	s.begin()
	for s.idx < len(s.children) {
		c := s.children[s.idx]
		s.last = c
		switch c.Tick() {
		case Running:
			return s.finish(Running)
		case Fail:
			return s.finish(Fail)
		}
		s.idx++
	}
	return s.finish(Success)
}

func (s *Sequence) Cancel() {
	started := s.started
	if !s.abandon() {
		return
	}
	if started && s.idx < len(s.children) {
		s.children[s.idx].Cancel()
	}
}

// Select tries children in order and succeeds on the first success. It fails only when
// every child failed.
type Select struct {
	node
	children []Act
	idx      int
	last     Act
}

func NewSelect(name string, children ...Act) *Select {
	return &Select{node: node{name: name}, children: children}
}

func (s *Select) Last() Act { return s.last }

func (s *Select) Tick() Status {
	s.begin()
	for s.idx < len(s.children) {
		c := s.children[s.idx]
		s.last = c
		switch c.Tick() {
		case Running:
			return s.finish(Running)
		case Success:
			return s.finish(Success)
		}
		s.idx++
	}
	return s.finish(Fail)
}

func (s *Select) Cancel() {
	started := s.started
	if !s.abandon() {
		return
	}
	if started && s.idx < len(s.children) {
		s.children[s.idx].Cancel()
	}
}

// Repeat runs a fresh instance from factory up to n times, one completion per tick at most.
// With requireSuccess, the first failing run fails the repeat; otherwise failures count
// toward n. n <= 0 succeeds immediately.
type Repeat struct {
	node
	n              int
	requireSuccess bool
	factory        func() Act

	cur      Act
	last     Act
	runs     int
	failures int
}

func NewRepeat(name string, n int, requireSuccess bool, factory func() Act) *Repeat {
	return &Repeat{node: node{name: name}, n: n, requireSuccess: requireSuccess, factory: factory}
}

func (r *Repeat) Last() Act     { return r.last }
func (r *Repeat) Runs() int     { return r.runs }
func (r *Repeat) Failures() int { return r.failures }

func (r *Repeat) Tick() Status {
	r.begin()
	if r.runs >= r.n {
		return r.finish(Success)
	}
	if r.cur == nil {
		r.cur = r.factory()
		if r.cur == nil {
			return r.finish(Fail)
		}
	}
	r.last = r.cur
	st := r.cur.Tick()
	if st == Running {
		return r.finish(Running)
	}
	r.cur = nil
	r.runs++
	if st == Fail {
		r.failures++
		if r.requireSuccess {
			return r.finish(Fail)
		}
	}
	if r.runs >= r.n {
		return r.finish(Success)
	}
	return r.finish(Running)
}

func (r *Repeat) Cancel() {
	if !r.abandon() {
		return
	}
	if r.cur != nil {
		r.cur.Cancel()
		r.cur = nil
	}
}
