package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/history"
	"homestead.ai/internal/sim/session"
	"homestead.ai/internal/sim/world"
)

// Client is the editor side of the ws protocol. It implements
// session.Transport for outbound requests; ReadLoop feeds inbound
// confirmations and replication deltas into the session.
type Client struct {
	conn *websocket.Conn
	log  *log.Logger

	mu sync.Mutex // serializes writes
}

// Dial connects, performs the HELLO/WELCOME handshake and returns the client
// together with the server's welcome.
func Dial(url, editorName string, logger *log.Logger) (*Client, protocol.WelcomeMsg, error) {
	var welcome protocol.WelcomeMsg

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, welcome, fmt.Errorf("dial %s: %w", url, err)
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		EditorName:      editorName,
	}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, welcome, fmt.Errorf("send HELLO: %w", err)
	}
	if err := conn.ReadJSON(&welcome); err != nil {
		conn.Close()
		return nil, welcome, fmt.Errorf("read WELCOME: %w", err)
	}
	if welcome.Type != protocol.TypeWelcome {
		conn.Close()
		return nil, welcome, fmt.Errorf("expected WELCOME, got %q", welcome.Type)
	}
	return &Client{conn: conn, log: logger}, welcome, nil
}

func (c *Client) SendRequest(req protocol.RequestMsg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(req)
}

func (c *Client) Close() error { return c.conn.Close() }

// ReadLoop pumps server messages into s until the connection drops or the
// server says BYE. Rejected requests are logged and left unconfirmed; the
// buffer tolerates that.
func (c *Client) ReadLoop(s *session.Session) error {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			s.Clear()
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeConfirm:
			var confirm protocol.ConfirmMsg
			if err := json.Unmarshal(msg, &confirm); err != nil {
				continue
			}
			if !confirm.OK {
				if !protocol.IsKnownCode(confirm.Code) {
					c.log.Printf("request id=%d rejected with unknown code %q", confirm.ID, confirm.Code)
					continue
				}
				c.log.Printf("request id=%d rejected: %s", confirm.ID, confirm.Code)
				continue
			}
			s.HandleConfirm(history.Confirmation{
				ID:     history.CommandID(confirm.ID),
				Entity: world.EntityFromRef(confirm.Entity),
			})

		case protocol.TypeEvent:
			var event protocol.EventMsg
			if err := json.Unmarshal(msg, &event); err != nil {
				continue
			}
			deltas := make([]world.Delta, 0, len(event.Deltas))
			for _, d := range event.Deltas {
				deltas = append(deltas, world.DeltaFromProto(d))
			}
			s.HandleDeltas(deltas)

		case protocol.TypeBye:
			var bye protocol.ByeMsg
			if err := json.Unmarshal(msg, &bye); err == nil && bye.Reason != "" {
				c.log.Printf("server said BYE: %s", bye.Reason)
			}
			s.Clear()
			return nil
		}
	}
}
