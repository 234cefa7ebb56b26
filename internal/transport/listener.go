package transport

import (
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Inbound pairs a decoded envelope with the client it arrived from, so a
// response can be routed back to the right connection.
type Inbound struct {
	ClientID uuid.UUID
	Envelope *Envelope
}

// Outbound pairs an envelope to send with its destination client (the
// zero uuid broadcasts to every connected client).
type Outbound struct {
	ClientID uuid.UUID
	Envelope *Envelope
}

// Listener accepts TCP connections and multiplexes their decoded
// envelopes onto a single bounded inbound queue, consumed by the
// physics/API task per spec.md §5. Grounded on vi-fighter's
// network/transport.go accept-loop-plus-peer-manager shape, generalized
// from its peer-ID roster to per-client uuid.UUID identifiers and from
// its binary-only Message to this package's Envelope (binary or JSON).
type Listener struct {
	ln net.Listener

	mu      sync.Mutex
	clients map[uuid.UUID]net.Conn

	inbound chan Inbound
	outbox  chan Outbound

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	useJSON bool
}

// InboundQueueSize is the bounded envelope queue's capacity (spec.md §5
// "a bounded queue consumed by the physics task").
const InboundQueueSize = 256

// NewListener builds a Listener bound to addr. useJSON selects the
// JSON-alternative framing for every connection this Listener accepts;
// a client chooses one encoding for the whole session (spec.md §6).
func NewListener(addr string, useJSON bool) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "bind failed")
	}
	l := &Listener{
		ln:      ln,
		clients: make(map[uuid.UUID]net.Conn),
		inbound: make(chan Inbound, InboundQueueSize),
		outbox:  make(chan Outbound, InboundQueueSize),
		stopCh:  make(chan struct{}),
		useJSON: useJSON,
	}
	l.wg.Add(2)
	go l.acceptLoop()
	go l.dispatchOutbox()
	l.running.Store(true)
	return l, nil
}

// Inbound returns the channel of envelopes received from any client.
func (l *Listener) Inbound() <-chan Inbound { return l.inbound }

// Send enqueues an envelope for delivery to a specific client, or to
// every connected client when clientID is the zero uuid (a broadcast
// frame, spec.md §4.4).
func (l *Listener) Send(clientID uuid.UUID, env *Envelope) {
	if !l.running.Load() {
		return
	}
	l.outbox <- Outbound{ClientID: clientID, Envelope: env}
}

// Close stops accepting connections and closes every open client.
func (l *Listener) Close() error {
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}
	close(l.stopCh)
	err := l.ln.Close()

	l.mu.Lock()
	for _, c := range l.clients {
		c.Close()
	}
	l.mu.Unlock()

	close(l.outbox)
	l.wg.Wait()
	return err
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.stopCh:
				return
			default:
				continue
			}
		}
		id := uuid.New()
		l.mu.Lock()
		l.clients[id] = conn
		l.mu.Unlock()

		l.wg.Add(1)
		go l.readLoop(id, conn)
	}
}

// readLoop decodes one envelope at a time off conn. A ParseError (a
// complete message whose content couldn't be interpreted, e.g.
// malformed JSON) does not end the connection: spec.md §8 S6 requires
// the client to get an error envelope back and keep talking. Any other
// decode error is treated as a dead connection and ends the loop.
func (l *Listener) readLoop(id uuid.UUID, conn net.Conn) {
	defer l.wg.Done()
	defer l.removeClient(id)

	for {
		env, err := l.decode(conn)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				l.sendParseError(id, perr)
				continue
			}
			return
		}
		select {
		case l.inbound <- Inbound{ClientID: id, Envelope: env}:
		case <-l.stopCh:
			return
		}
	}
}

// sendParseError reports a ParseError to the client that sent it,
// using the same ApiError{message} wire shape command dispatch errors
// use (spec.md §6). The originating envelope's id is unrecoverable at
// this point, so the response correlates as an unsolicited frame (id 0).
func (l *Listener) sendParseError(id uuid.UUID, perr *ParseError) {
	payload, err := json.Marshal(map[string]string{"message": perr.Error()})
	if err != nil {
		payload = []byte(`{"message":"JSON parse error"}`)
	}
	l.Send(id, &Envelope{Type: "error_response", Payload: payload})
}

func (l *Listener) decode(conn net.Conn) (*Envelope, error) {
	if l.useJSON {
		return DecodeJSONMessage(conn)
	}
	return DecodeEnvelope(conn)
}

func (l *Listener) removeClient(id uuid.UUID) {
	l.mu.Lock()
	if c, ok := l.clients[id]; ok {
		c.Close()
		delete(l.clients, id)
	}
	l.mu.Unlock()
}

func (l *Listener) dispatchOutbox() {
	defer l.wg.Done()
	for out := range l.outbox {
		if out.ClientID == (uuid.UUID{}) {
			l.broadcast(out.Envelope)
			continue
		}
		l.mu.Lock()
		conn, ok := l.clients[out.ClientID]
		l.mu.Unlock()
		if !ok {
			continue
		}
		l.writeTo(conn, out.Envelope)
	}
}

func (l *Listener) broadcast(env *Envelope) {
	l.mu.Lock()
	conns := make([]net.Conn, 0, len(l.clients))
	for _, c := range l.clients {
		conns = append(conns, c)
	}
	l.mu.Unlock()
	for _, c := range conns {
		l.writeTo(c, env)
	}
}

func (l *Listener) writeTo(conn net.Conn, env *Envelope) {
	if l.useJSON {
		_ = EncodeJSONMessage(conn, env)
		return
	}
	_ = env.Encode(conn)
}

// PeerCount returns the number of currently connected clients.
func (l *Listener) PeerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// CloseClient closes and forgets one connected client, e.g. after an
// "exit" command response has been queued for it (spec.md §6); an
// envelope still waiting in the outbox for that client is dropped.
// Other connections are unaffected.
func (l *Listener) CloseClient(id uuid.UUID) {
	l.removeClient(id)
}

// Peers returns the client ids currently connected.
func (l *Listener) Peers() []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(l.clients))
	for id := range l.clients {
		ids = append(ids, id)
	}
	return ids
}
