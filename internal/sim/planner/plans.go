package planner

import (
	"errors"

	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/pathfind"
)

const (
	DefaultBudgetPerFrame = 8
	detourDepth           = 6
)

type request struct {
	c      *creature.Creature
	ticket *pathfind.Ticket
}

type PlanStats struct {
	Served  uint64 `json:"served"`
	Failed  uint64 `json:"failed"`
	Partial uint64 `json:"partial"`
	Queued  int    `json:"queued"`
}

// Plans queues path requests and resolves at most Budget of them per Update. It runs on the
// world goroutine; tickets are resolved in request order.
type Plans struct {
	Search *pathfind.Searcher
	Budget int

	subs  map[*creature.Creature]*pathfind.Ticket
	queue []request
	stats PlanStats
}

func NewPlans(search *pathfind.Searcher, budget int) *Plans {
	return &Plans{Search: search, Budget: budget, subs: map[*creature.Creature]*pathfind.Ticket{}}
}

func (p *Plans) Subscribe(c *creature.Creature) {
	if _, ok := p.subs[c]; !ok {
		p.subs[c] = nil
	}
}

func (p *Plans) RemoveSubscriber(c *creature.Creature) {
	if t := p.subs[c]; t != nil {
		t.Cancel()
	}
	delete(p.subs, c)
}

func (p *Plans) Subscribed(c *creature.Creature) bool {
	_, ok := p.subs[c]
	return ok
}

// RequestPath queues a search from c's current state. A creature has at most one open request;
// a new one cancels the previous ticket.
func (p *Plans) RequestPath(c *creature.Creature, goal pathfind.Goal) *pathfind.Ticket {
	t := pathfind.NewTicket(goal)
	if prev := p.subs[c]; prev != nil && !prev.Done() {
		prev.Cancel()
	}
	p.subs[c] = t
	p.queue = append(p.queue, request{c: c, ticket: t})
	return t
}

// Update resolves up to Budget queued requests. It returns how many searches ran.
func (p *Plans) Update() int {
	budget := p.Budget
	if budget <= 0 {
		budget = DefaultBudgetPerFrame
	}
	ran, head := 0, 0
	for ; head < len(p.queue) && ran < budget; head++ {
		r := p.queue[head]
		if r.ticket.Canceled() {
			continue
		}
		if _, ok := p.subs[r.c]; !ok || r.c.Dead {
			r.ticket.Cancel()
			continue
		}
		ran++
		p.resolve(r)
	}
	n := copy(p.queue, p.queue[head:])
	clear(p.queue[n:])
	p.queue = p.queue[:n]
	return ran
}

func (p *Plans) resolve(r request) {
	m, from, goal := r.c.Mover(), r.c.State, r.ticket.Goal
	path, err := p.Search.Find(m, from, goal)
	if err == nil {
		p.stats.Served++
		r.ticket.Resolve(path, nil)
		return
	}
	if errors.Is(err, pathfind.ErrBudget) {
		if back, berr := p.Search.Backward(m, from, goal); berr == nil {
			p.stats.Served++
			r.ticket.Resolve(back, nil)
			return
		}
		// A single step toward the goal keeps the creature moving; it asks again on arrival.
		if e, ok := p.Search.Detour(m, from, goal, detourDepth); ok {
			p.stats.Partial++
			r.ticket.Resolve([]movement.Edge{e}, nil)
			return
		}
	}
	p.stats.Failed++
	r.ticket.Resolve(nil, err)
}

func (p *Plans) Stats() PlanStats {
	s := p.stats
	s.Queued = len(p.queue)
	return s
}
