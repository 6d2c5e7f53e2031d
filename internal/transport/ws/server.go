package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/authority"
)

// Config carries the transport knobs from tuning.yaml. Zero fields fall back
// to the tuning defaults.
type Config struct {
	OutQueueLen    int
	HandshakeSecs  int
	ReadTimeoutSec int
}

func (c Config) withDefaults() Config {
	if c.OutQueueLen <= 0 {
		c.OutQueueLen = 256
	}
	if c.HandshakeSecs <= 0 {
		c.HandshakeSecs = 10
	}
	if c.ReadTimeoutSec <= 0 {
		c.ReadTimeoutSec = 60
	}
	return c
}

type Server struct {
	host *authority.Host
	cfg  Config
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h *authority.Host, cfg Config, logger *log.Logger) *Server {
	return &Server{
		host: h,
		cfg:  cfg.withDefaults(),
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		readTimeout := time.Duration(s.cfg.ReadTimeoutSec) * time.Second
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeRequest {
				continue
			}
			var req protocol.RequestMsg
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}
			if req.ProtocolVersion != protocol.Version {
				// The frame is well-formed enough to carry an id, so the
				// editor gets to hear the refusal.
				if b := protoReject(req.ID); b != nil {
					select {
					case out <- b:
					default:
					}
				}
				continue
			}
			s.host.Inbox() <- authority.RequestEnvelope{SessionID: sessionID, Req: req}
		}

		// Cleanup.
		s.host.Leave() <- sessionID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (string, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.HandshakeSecs) * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.Type != protocol.TypeHello || hello.ProtocolVersion != protocol.Version {
		s.log.Printf("rejecting handshake: type=%s version=%s", hello.Type, hello.ProtocolVersion)
		return "", nil
	}

	out := make(chan []byte, s.cfg.OutQueueLen)
	resp := make(chan authority.JoinResponse, 1)
	s.host.Join() <- authority.JoinRequest{EditorName: hello.EditorName, Out: out, Resp: resp}
	join := <-resp
	if join.Reject != "" {
		bye := protocol.ByeMsg{
			Type:            protocol.TypeBye,
			ProtocolVersion: protocol.Version,
			Reason:          join.Reject,
		}
		if b, err := json.Marshal(bye); err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		return "", nil
	}

	b, err := json.Marshal(join.Welcome)
	if err != nil {
		return "", nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", nil
	}
	return join.Welcome.SessionID, out
}

// protoReject builds the confirmation answering a request that failed
// protocol-level validation before reaching the authority.
func protoReject(id uint8) []byte {
	b, err := json.Marshal(protocol.ConfirmMsg{
		Type:            protocol.TypeConfirm,
		ProtocolVersion: protocol.Version,
		ID:              id,
		OK:              false,
		Code:            protocol.ErrProtoBadRequest,
	})
	if err != nil {
		return nil
	}
	return b
}
