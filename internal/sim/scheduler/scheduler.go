// Package scheduler spreads agent AI updates over frames: each frame visits at most a fixed
// number of agents, continuing round-robin from where the previous frame stopped.
package scheduler

import (
	"sync/atomic"
	"time"
)

const DefaultMaxObjects = 32

// Agent is anything the scheduler can update. LastFrameID reports the frame in which the
// host last marked the agent active; only agents active in the current frame are updated.
type Agent interface {
	comparable
	LastFrameID() uint64
}

// Frame identifies one world step. Now is the in-world clock; Delta is the frame length,
// used as the elapsed time of an agent's first update.
type Frame struct {
	ID    uint64
	Now   time.Duration
	Delta time.Duration
}

type entry[T Agent] struct {
	agent   T
	last    time.Duration
	stamped bool
}

// Scheduler is driven from the world goroutine. Only LastUpdated may be read elsewhere.
type Scheduler[T Agent] struct {
	MaxObjects int

	agents []entry[T]
	cursor int

	lastUpdated atomic.Int64
	total       atomic.Uint64
}

func New[T Agent](maxObjects int) *Scheduler[T] {
	return &Scheduler[T]{MaxObjects: maxObjects, cursor: -1}
}

func (s *Scheduler[T]) Len() int { return len(s.agents) }

func (s *Scheduler[T]) Register(a T) {
	s.agents = append(s.agents, entry[T]{agent: a})
}

// Unregister removes a by identity. It reports whether a was registered.
func (s *Scheduler[T]) Unregister(a T) bool {
	for i := range s.agents {
		if s.agents[i].agent != a {
			continue
		}
		s.agents = append(s.agents[:i], s.agents[i+1:]...)
		// Keep the cursor on the agent last visited, or just before the removed slot.
		if i <= s.cursor {
			s.cursor--
		}
		if s.cursor >= len(s.agents) {
			s.cursor = len(s.agents) - 1
		}
		return true
	}
	return false
}

// Update advances through the ring starting after the cursor, calling step for every agent
// active in frame, until MaxObjects agents were updated or every agent was visited once.
// It returns the number of agents updated.
func (s *Scheduler[T]) Update(frame Frame, step func(a T, dt time.Duration)) int {
	limit := s.MaxObjects
	if limit <= 0 {
		limit = DefaultMaxObjects
	}
	updated := 0
	for visited := 0; visited < len(s.agents) && updated < limit; visited++ {
		s.cursor++
		if s.cursor >= len(s.agents) || s.cursor < 0 {
			s.cursor = 0
		}
		e := &s.agents[s.cursor]
		if e.agent.LastFrameID() != frame.ID {
			continue
		}
		dt := frame.Delta
		if e.stamped {
			dt = frame.Now - e.last
		}
		e.last, e.stamped = frame.Now, true
		updated++
		step(e.agent, dt)
	}
	s.lastUpdated.Store(int64(updated))
	s.total.Add(uint64(updated))
	return updated
}

// LastUpdated is the number of agents updated by the most recent Update.
func (s *Scheduler[T]) LastUpdated() int { return int(s.lastUpdated.Load()) }

// TotalUpdated counts agent updates since creation.
func (s *Scheduler[T]) TotalUpdated() uint64 { return s.total.Load() }
