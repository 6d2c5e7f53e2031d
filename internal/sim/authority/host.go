package authority

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/world"
)

type Config struct {
	TickRateHz int
	Seed       int64

	// MaxSessions caps concurrent editor sessions; joins past it are refused.
	MaxSessions int
	// RequestBurst caps how many requests one session may submit per tick;
	// the excess is rejected with E_CONFLICT.
	RequestBurst int
}

// Host drives the authority at a fixed tick rate. Joins, leaves and requests
// land on channels and are drained together at the tick boundary, so the
// authoritative world is only ever touched from the loop goroutine.
type Host struct {
	cfg  Config
	auth *Authority
	log  *log.Logger

	tick atomic.Uint64

	sessions map[string]*sessionState

	join  chan JoinRequest
	leave chan string
	inbox chan RequestEnvelope
	stop  chan struct{}

	// Optional join hook (e.g. the session index). Called from the loop.
	onJoin func(sessionID, editorName string)
}

type sessionState struct {
	Out chan []byte
}

type JoinRequest struct {
	EditorName string
	Out        chan []byte
	Resp       chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Reject is non-empty when the join was refused (e.g. session limit hit);
	// Welcome is zero in that case.
	Reject string
}

type RequestEnvelope struct {
	SessionID string
	Req       protocol.RequestMsg
}

func NewHost(cfg Config, auth *Authority, logger *log.Logger) *Host {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 10
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 64
	}
	if cfg.RequestBurst <= 0 {
		cfg.RequestBurst = 64
	}
	return &Host{
		cfg:      cfg,
		auth:     auth,
		log:      logger,
		sessions: make(map[string]*sessionState),
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		inbox:    make(chan RequestEnvelope, 256),
		stop:     make(chan struct{}),
	}
}

func (h *Host) SetOnJoin(f func(sessionID, editorName string)) { h.onJoin = f }

func (h *Host) Join() chan<- JoinRequest      { return h.join }
func (h *Host) Leave() chan<- string          { return h.leave }
func (h *Host) Inbox() chan<- RequestEnvelope { return h.inbox }
func (h *Host) Tick() uint64                  { return h.tick.Load() }

func (h *Host) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(h.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingRequests []RequestEnvelope

	for {
		select {
		case <-ctx.Done():
			h.broadcastBye("shutdown")
			return ctx.Err()
		case <-h.stop:
			h.broadcastBye("shutdown")
			return nil
		case req := <-h.join:
			h.handleJoin(req)
		case id := <-h.leave:
			delete(h.sessions, id)
		case env := <-h.inbox:
			pendingRequests = append(pendingRequests, env)
		case <-ticker.C:
			h.step(pendingRequests)
			pendingRequests = pendingRequests[:0]
		}
	}
}

func (h *Host) Stop() { close(h.stop) }

func (h *Host) handleJoin(req JoinRequest) {
	if len(h.sessions) >= h.cfg.MaxSessions {
		h.log.Printf("refusing join (%s): session limit %d reached", req.EditorName, h.cfg.MaxSessions)
		req.Resp <- JoinResponse{Reject: "server_full"}
		return
	}

	id := uuid.NewString()
	h.sessions[id] = &sessionState{Out: req.Out}
	h.log.Printf("session %s joined (%s)", id, req.EditorName)
	if h.onJoin != nil {
		h.onJoin(id, req.EditorName)
	}
	req.Resp <- JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		WorldParams: protocol.WorldParams{
			TickRateHz: h.cfg.TickRateHz,
			Seed:       h.cfg.Seed,
		},
	}}
}

// step applies this tick's requests in arrival order, answers each with its
// confirmation, then broadcasts the tick's replication deltas to everyone.
// Requests beyond a session's per-tick burst are rejected unapplied.
func (h *Host) step(reqs []RequestEnvelope) {
	tick := h.tick.Add(1) - 1

	var taken map[string]int
	if len(reqs) > 0 {
		taken = make(map[string]int, len(h.sessions))
	}
	for _, env := range reqs {
		s := h.sessions[env.SessionID]
		taken[env.SessionID]++
		if taken[env.SessionID] > h.cfg.RequestBurst {
			h.log.Printf("session %s over request burst (%d), rejecting id=%d",
				env.SessionID, h.cfg.RequestBurst, env.Req.ID)
			if s != nil {
				reject := protocol.ConfirmMsg{
					Type:            protocol.TypeConfirm,
					ProtocolVersion: protocol.Version,
					ID:              env.Req.ID,
					OK:              false,
					Code:            protocol.ErrConflict,
				}
				if b, err := json.Marshal(reject); err == nil {
					sendLatest(s.Out, b)
				}
			}
			continue
		}
		confirm := h.auth.HandleRequest(env.SessionID, tick, env.Req)
		if s != nil {
			if b, err := json.Marshal(confirm); err == nil {
				sendLatest(s.Out, b)
			}
		}
	}

	deltas := h.auth.World().DrainDeltas()
	if len(deltas) == 0 {
		return
	}
	event := protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Deltas:          make([]protocol.WorldDelta, 0, len(deltas)),
	}
	for _, d := range deltas {
		event.Deltas = append(event.Deltas, world.DeltaToProto(d))
	}
	b, err := json.Marshal(event)
	if err != nil {
		h.log.Printf("marshal event: %v", err)
		return
	}
	for _, s := range h.sessions {
		sendLatest(s.Out, b)
	}
}

// broadcastBye tells every connected session the host is going away, so
// editors drop their local state instead of waiting out the read timeout.
func (h *Host) broadcastBye(reason string) {
	bye := protocol.ByeMsg{
		Type:            protocol.TypeBye,
		ProtocolVersion: protocol.Version,
		Reason:          reason,
	}
	b, err := json.Marshal(bye)
	if err != nil {
		return
	}
	for _, s := range h.sessions {
		sendLatest(s.Out, b)
	}
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
