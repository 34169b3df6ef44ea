package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/tasks"
	"gridmind.ai/internal/sim/voxel"
	"gridmind.ai/internal/sim/world"
)

const adminTimeout = 5 * time.Second

// TaskRequest is the body of POST /admin/v1/tasks. An empty Creature sends the task to
// the primary faction pool.
type TaskRequest struct {
	Kind     string  `json:"kind"`
	At       [3]int  `json:"at"`
	Block    string  `json:"block,omitempty"`
	Creature string  `json:"creature,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Ticks    int     `json:"ticks,omitempty"`
}

type SpawnRequest struct {
	Class string `json:"class"`
	At    [3]int `json:"at"`
}

type KillRequest struct {
	ID       string `json:"id"`
	Reassign bool   `json:"reassign"`
}

// registerAdmin mounts the local-only admin endpoints. They queue requests onto the world
// loop and never touch world state directly.
func registerAdmin(mux *http.ServeMux, w *world.World) {
	mux.HandleFunc("/admin/v1/state", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, http.StatusOK, struct {
			WorldID string                 `json:"world_id"`
			Metrics world.Metrics          `json:"metrics"`
			Minds   []creature.Diagnostics `json:"minds"`
		}{
			WorldID: w.ID(),
			Metrics: w.Metrics(),
			Minds:   w.Diagnostics(),
		})
	}))

	mux.HandleFunc("/admin/v1/tasks", loopbackOnly(postOnly(func(rw http.ResponseWriter, r *http.Request) {
		var req TaskRequest
		if err := decodeBody(r, &req); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		t, err := buildTask(w, req)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		if err := w.Submit(ctx, t, req.Creature); err != nil {
			http.Error(rw, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "task": t.Name()})
	})))

	mux.HandleFunc("/admin/v1/spawn", loopbackOnly(postOnly(func(rw http.ResponseWriter, r *http.Request) {
		var req SpawnRequest
		if err := decodeBody(r, &req); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		id, err := w.Spawn(ctx, req.Class, vec(req.At))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "id": id})
	})))

	mux.HandleFunc("/admin/v1/kill", loopbackOnly(postOnly(func(rw http.ResponseWriter, r *http.Request) {
		var req KillRequest
		if err := decodeBody(r, &req); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			http.Error(rw, "missing id", http.StatusBadRequest)
			return
		}
		if !w.Kill(req.ID, req.Reassign) {
			http.Error(rw, "kill queue full", http.StatusServiceUnavailable)
			return
		}
		writeJSON(rw, http.StatusAccepted, map[string]any{"ok": true})
	})))
}

func buildTask(w *world.World, req TaskRequest) (creature.Task, error) {
	at := vec(req.At)
	switch tasks.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))) {
	case tasks.KindMoveTo:
		return tasks.NewMoveTo(at), nil
	case tasks.KindMine:
		return tasks.NewMine(at), nil
	case tasks.KindPlace:
		id, ok := w.Catalogs().Blocks.ID(req.Block)
		if !ok || !w.Grid().Solid(id) {
			return nil, fmt.Errorf("bad block: %q", req.Block)
		}
		return tasks.NewPlace(at, id), nil
	case tasks.KindSleep:
		rate := req.Rate
		if rate <= 0 {
			rate = w.Tuning().Needs.RestRatePerSec
		}
		return tasks.NewSleep(rate), nil
	case tasks.KindIdle:
		return tasks.NewIdle(req.Ticks), nil
	default:
		return nil, fmt.Errorf("unknown task kind: %q", req.Kind)
	}
}

func vec(a [3]int) voxel.Vec3i { return voxel.Vec3i{X: a[0], Y: a[1], Z: a[2]} }

func loopbackOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(rw, r)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bad json: %w", err)
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
