package main

import (
	"fmt"
	"io"
	"sort"

	"gridmind.ai/internal/sim/world"
)

type summary struct {
	Frames    int
	Runs      int
	Gaps      int
	MaxAgents int
	Updates   int
	Spawned   int
	Killed    int

	PlansServed uint64
	PlansFailed uint64

	// Frames in which a creature was running each task name.
	TaskFrames map[string]int
	Failures   map[string]int
	Faults     map[string]int

	last       uint64
	runServed  uint64
	runFailed  uint64
	haveFrames bool
}

func newSummary() *summary {
	return &summary{
		TaskFrames: map[string]int{},
		Failures:   map[string]int{},
		Faults:     map[string]int{},
	}
}

// addFrame folds one frame in. A frame id that does not increase starts a new run; plan
// counters are cumulative within a run.
func (s *summary) addFrame(e world.TickLogEntry) {
	if !s.haveFrames || e.Frame <= s.last {
		s.Runs++
		s.PlansServed += s.runServed
		s.PlansFailed += s.runFailed
		s.runServed, s.runFailed = 0, 0
	} else if e.Frame != s.last+1 {
		s.Gaps++
	}
	s.haveFrames = true
	s.last = e.Frame

	s.Frames++
	s.MaxAgents = max(s.MaxAgents, e.Agents)
	s.Updates += e.Updated
	s.Spawned += len(e.Spawned)
	s.Killed += len(e.Killed)
	s.runServed = max(s.runServed, e.Plans.Served)
	s.runFailed = max(s.runFailed, e.Plans.Failed)

	for _, m := range e.Minds {
		if m.Task != "" {
			s.TaskFrames[m.Task]++
		}
		if m.LastFailure != "" {
			s.Failures[m.LastFailure]++
		}
	}
}

func (s *summary) addFault(e world.FaultEntry) {
	s.Faults[e.Task]++
}

func (s *summary) totals() (served, failed uint64) {
	return s.PlansServed + s.runServed, s.PlansFailed + s.runFailed
}

func (s *summary) print(out io.Writer, top int) {
	served, failed := s.totals()
	fmt.Fprintf(out, "frames=%d runs=%d gaps=%d max_agents=%d updates=%d spawned=%d killed=%d\n",
		s.Frames, s.Runs, s.Gaps, s.MaxAgents, s.Updates, s.Spawned, s.Killed)
	fmt.Fprintf(out, "plans served=%d failed=%d\n", served, failed)
	printTable(out, "task frames", s.TaskFrames, top)
	printTable(out, "last failures", s.Failures, top)
	printTable(out, "faults by task", s.Faults, top)
}

type row struct {
	Key   string
	Count int
}

func ranked(m map[string]int) []row {
	rows := make([]row, 0, len(m))
	for k, v := range m {
		rows = append(rows, row{k, v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func printTable(out io.Writer, title string, m map[string]int, top int) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", title)
	for i, r := range ranked(m) {
		if top > 0 && i >= top {
			break
		}
		fmt.Fprintf(out, "  %8d  %s\n", r.Count, r.Key)
	}
}
