package main

import (
	"fmt"
	"net/http"

	"gridmind.ai/internal/persistence/indexdb"
	"gridmind.ai/internal/sim/world"
	"gridmind.ai/internal/transport/ws"
)

func metricsHandler(worldID string, w *world.World, idx *indexdb.SQLiteIndex, diag *ws.Server) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP gridmind_world_frame Current world frame.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_world_frame gauge\n")
		fmt.Fprintf(rw, "gridmind_world_frame{world=%q} %d\n", worldID, m.Frame)

		fmt.Fprintf(rw, "# HELP gridmind_world_agents Live creatures in the world.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_world_agents gauge\n")
		fmt.Fprintf(rw, "gridmind_world_agents{world=%q} %d\n", worldID, m.Agents)

		fmt.Fprintf(rw, "# HELP gridmind_ai_updated Minds updated in the last frame.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_ai_updated gauge\n")
		fmt.Fprintf(rw, "gridmind_ai_updated{world=%q} %d\n", worldID, m.Updated)

		fmt.Fprintf(rw, "# HELP gridmind_ai_updates_total Mind updates since start.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_ai_updates_total counter\n")
		fmt.Fprintf(rw, "gridmind_ai_updates_total{world=%q} %d\n", worldID, m.TotalUpdated)

		fmt.Fprintf(rw, "# HELP gridmind_pool_tasks Tasks waiting in the primary faction pool.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_pool_tasks gauge\n")
		fmt.Fprintf(rw, "gridmind_pool_tasks{world=%q} %d\n", worldID, m.PoolTasks)

		fmt.Fprintf(rw, "# HELP gridmind_faults_total Contained behavior faults.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_faults_total counter\n")
		fmt.Fprintf(rw, "gridmind_faults_total{world=%q} %d\n", worldID, m.Faults)

		fmt.Fprintf(rw, "# HELP gridmind_plans_total Path requests by outcome.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_plans_total counter\n")
		fmt.Fprintf(rw, "gridmind_plans_total{world=%q,outcome=%q} %d\n", worldID, "served", m.Plans.Served)
		fmt.Fprintf(rw, "gridmind_plans_total{world=%q,outcome=%q} %d\n", worldID, "failed", m.Plans.Failed)
		fmt.Fprintf(rw, "gridmind_plans_total{world=%q,outcome=%q} %d\n", worldID, "partial", m.Plans.Partial)

		fmt.Fprintf(rw, "# HELP gridmind_plans_queued Path requests waiting for budget.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_plans_queued gauge\n")
		fmt.Fprintf(rw, "gridmind_plans_queued{world=%q} %d\n", worldID, m.Plans.Queued)

		fmt.Fprintf(rw, "# HELP gridmind_world_step_ms Last frame step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE gridmind_world_step_ms gauge\n")
		fmt.Fprintf(rw, "gridmind_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

		if diag != nil {
			fmt.Fprintf(rw, "# HELP gridmind_diag_clients Connected diagnostics subscribers.\n")
			fmt.Fprintf(rw, "# TYPE gridmind_diag_clients gauge\n")
			fmt.Fprintf(rw, "gridmind_diag_clients{world=%q} %d\n", worldID, diag.Clients())
		}
		if idx != nil {
			s := idx.Stats()
			fmt.Fprintf(rw, "# HELP gridmind_index_queue_depth Pending sqlite index writes.\n")
			fmt.Fprintf(rw, "# TYPE gridmind_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "gridmind_index_queue_depth{world=%q} %d\n", worldID, s.QueueDepth)
			fmt.Fprintf(rw, "# HELP gridmind_index_dropped_total Index writes dropped on a full queue.\n")
			fmt.Fprintf(rw, "# TYPE gridmind_index_dropped_total counter\n")
			fmt.Fprintf(rw, "gridmind_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "frame", s.DropFrameTotal)
			fmt.Fprintf(rw, "gridmind_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "fault", s.DropFaultTotal)
			fmt.Fprintf(rw, "# HELP gridmind_index_rows_total Rows written to the sqlite index.\n")
			fmt.Fprintf(rw, "# TYPE gridmind_index_rows_total counter\n")
			fmt.Fprintf(rw, "gridmind_index_rows_total{world=%q} %d\n", worldID, s.WrittenRowsTotal)
		}
	}
}
