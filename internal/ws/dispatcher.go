package ws

import (
	"log"
	"time"

	"github.com/amora/relay/internal/protocol"
)

// MessageHandler handles one parsed client message. The msg parameter is the
// concrete struct protocol.ParseClientMessage produced for the type
// (protocol.SendMsg, protocol.HistoryMsg, ...).
type MessageHandler func(conn *Connection, msg interface{})

// MessageDispatcher routes inbound frames to per-type handlers. Ping/pong is
// answered internally; malformed or unknown frames get a structured error
// back on the same channel.
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	server   *Server
}

// NewMessageDispatcher creates a dispatcher. server may be nil at this point
// and set later via SetServer; NewServer takes the Dispatch callback, so the
// dispatcher has to exist first.
func NewMessageDispatcher(server *Server) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		server:   server,
	}
}

// SetServer binds the server after construction.
func (d *MessageDispatcher) SetServer(server *Server) {
	d.server = server
}

// Register installs the handler for a message type, replacing any previous
// one.
func (d *MessageDispatcher) Register(msgType string, handler MessageHandler) {
	d.handlers[msgType] = handler
}

// Dispatch is the server's onMessage callback: parse, answer pings, route
// everything else.
func (d *MessageDispatcher) Dispatch(conn *Connection, data []byte) {
	msgType, msg, err := protocol.ParseClientMessage(data)
	if err != nil {
		log.Printf("ws: dispatch parse error channel=%s: %v", conn.ID, err)
		d.SendError(conn, "parse_error", "invalid message format")
		return
	}

	// Pings never need registration.
	if msgType == protocol.TypePing {
		d.sendPong(conn)
		return
	}

	handler, ok := d.handlers[msgType]
	if !ok {
		log.Printf("ws: unsupported message type=%q channel=%s", msgType, conn.ID)
		d.SendError(conn, "unsupported_type", "unsupported message type")
		return
	}

	handler(conn, msg)
}

// SendError writes a structured error frame to the client. Failures building
// or writing the frame are logged, never propagated.
func (d *MessageDispatcher) SendError(conn *Connection, code string, message string) {
	data, err := protocol.NewServerMessage(protocol.TypeError, protocol.ErrorMsg{
		Code:    code,
		Message: message,
	})
	if err != nil {
		log.Printf("ws: failed to build error message channel=%s: %v", conn.ID, err)
		return
	}

	if err := conn.WriteMessage(data); err != nil {
		log.Printf("ws: failed to send error message channel=%s: %v", conn.ID, err)
	}
}

// sendPong answers a client ping and refreshes LastPing so the heartbeat
// sweep counts the ping as activity.
func (d *MessageDispatcher) sendPong(conn *Connection) {
	conn.LastPing = time.Now()

	data, err := protocol.NewServerMessage(protocol.TypePong, protocol.PongMsg{})
	if err != nil {
		log.Printf("ws: failed to build pong message channel=%s: %v", conn.ID, err)
		return
	}

	if err := conn.WriteMessage(data); err != nil {
		log.Printf("ws: failed to send pong message channel=%s: %v", conn.ID, err)
	}
}
