// Package ws streams creature diagnostics to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/world"
)

const (
	Version = "1"

	TypeSubscribe = "SUBSCRIBE"
	TypeDiag      = "DIAG"

	defaultIntervalMS = 500
	minIntervalMS     = 50
	maxIntervalMS     = 10000
)

// Source is the read side of a world. *world.World implements it.
type Source interface {
	Metrics() world.Metrics
	Diagnostics() []creature.Diagnostics
}

type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Creatures       []string `json:"creatures,omitempty"`
	IntervalMS      int      `json:"interval_ms,omitempty"`
}

type DiagMsg struct {
	Type            string                 `json:"type"`
	ProtocolVersion string                 `json:"protocol_version"`
	Metrics         world.Metrics          `json:"metrics"`
	Minds           []creature.Diagnostics `json:"minds"`
}

type Server struct {
	src Source
	log *log.Logger

	// AllowRemote accepts non-loopback clients.
	AllowRemote bool

	upgrader websocket.Upgrader
	clients  atomic.Int64
}

func NewServer(src Source, logger *log.Logger) *Server {
	return &Server{
		src: src,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Clients is the number of connected diagnostics streams.
func (s *Server) Clients() int { return int(s.clients.Load()) }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.AllowRemote && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := decodeSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}
		var cur atomic.Pointer[SubscribeMsg]
		cur.Store(&sub)

		s.clients.Add(1)
		defer s.clients.Add(-1)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 1)
		go s.produce(ctx, &cur, out)

		// Writer goroutine.
		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := decodeSubscribe(msg); ok {
				cur.Store(&sub)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeDone:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// produce renders a DIAG message every subscription interval. Only the newest message is
// kept for a slow client.
func (s *Server) produce(ctx context.Context, cur *atomic.Pointer[SubscribeMsg], out chan []byte) {
	for {
		sub := cur.Load()
		b, err := json.Marshal(s.snapshot(sub))
		if err == nil {
			sendLatest(out, b)
		} else if s.log != nil {
			s.log.Printf("diag encode: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(sub.IntervalMS) * time.Millisecond):
		}
	}
}

func (s *Server) snapshot(sub *SubscribeMsg) DiagMsg {
	minds := s.src.Diagnostics()
	if len(sub.Creatures) > 0 {
		filtered := make([]creature.Diagnostics, 0, len(sub.Creatures))
		for _, d := range minds {
			if slices.Contains(sub.Creatures, d.Creature) {
				filtered = append(filtered, d)
			}
		}
		minds = filtered
	}
	if minds == nil {
		minds = []creature.Diagnostics{}
	}
	return DiagMsg{Type: TypeDiag, ProtocolVersion: Version, Metrics: s.src.Metrics(), Minds: minds}
}

func decodeSubscribe(msg []byte) (SubscribeMsg, bool) {
	var sub SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	if sub.Type != TypeSubscribe || sub.ProtocolVersion != Version {
		return sub, false
	}
	switch {
	case sub.IntervalMS <= 0:
		sub.IntervalMS = defaultIntervalMS
	case sub.IntervalMS < minIntervalMS:
		sub.IntervalMS = minIntervalMS
	case sub.IntervalMS > maxIntervalMS:
		sub.IntervalMS = maxIntervalMS
	}
	return sub, true
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
