package wsserver

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// maxConnections bounds the active client socket count (spec §4.7).
const maxConnections = 64

// pollInterval is the read/accept deadline used to give the server loop a
// bounded wakeup period without blocking forever on a slow or idle peer —
// the idiomatic-Go stand-in for the spec's "polled with a 1-second
// timeout" socket set, since Go's netpoller (not a hand-rolled poll(2))
// already multiplexes reads; deadlines give the same bounded-latency
// shutdown behavior per connection goroutine.
const pollInterval = time.Second

// Handler processes one inbound text message and returns the reply text.
type Handler func(ctx context.Context, connID string, text string) string

// Server is the hand-rolled RFC 6455 text-frame WebSocket engine.
type Server struct {
	Token   string
	Handler Handler

	listener net.Listener
	running  atomic.Bool

	mu    sync.Mutex
	conns map[string]net.Conn

	wg sync.WaitGroup
}

// New builds a Server. token, if non-empty, is required via Bearer header
// or ?token= query parameter during handshake.
func New(token string, handler Handler) *Server {
	return &Server{Token: token, Handler: handler, conns: make(map[string]net.Conn)}
}

// Start listens on addr and runs the accept loop on its own goroutine
// until Stop is called.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every active connection. Shutdown latency
// is bounded by pollInterval, matching the scheduler's shutdown contract.
func (s *Server) Stop() {
	s.running.Store(false)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for s.running.Load() {
		if tcpLn, ok := s.listener.(*net.TCPListener); ok {
			tcpLn.SetDeadline(time.Now().Add(pollInterval))
		}
		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		s.mu.Lock()
		full := len(s.conns) >= maxConnections
		s.mu.Unlock()
		if full {
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	req, err := readHandshake(r)
	if err != nil {
		slog.Warn("ws-handshake: read failed", "error", err)
		return
	}
	if !req.upgrade || req.wsKey == "" {
		writeUnauthorized(w)
		return
	}
	if !req.authorized(s.Token) {
		writeUnauthorized(w)
		return
	}
	if err := writeHandshakeResponse(w, acceptKey(req.wsKey)); err != nil {
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	ctx := context.Background()
	for s.running.Load() {
		// Peek, not read, under the short deadline: a timeout here means no
		// frame bytes have been consumed yet, so it's safe to just loop
		// back and recheck s.running. Once a byte is actually pending, lift
		// the deadline so the rest of this one frame reads to completion
		// instead of risking a timeout mid-header/mid-payload, which would
		// desync the buffered reader from the frame boundary.
		conn.SetReadDeadline(time.Now().Add(pollInterval))
		if _, err := r.Peek(1); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		conn.SetReadDeadline(time.Time{})

		f, err := readFrame(r)
		if err != nil {
			return
		}
		if err := validateFrame(f); err != nil {
			slog.Warn("ws-frame: invalid frame", "conn", id, "error", err)
			return
		}

		switch f.opcode {
		case opText:
			reply := s.Handler(ctx, id, string(f.payload))
			if _, err := w.Write(encodeText([]byte(reply))); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		case opPing:
			if _, err := w.Write(encodePong(f.payload)); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		case opClose:
			w.Write(encodeClose(nil))
			w.Flush()
			return
		default:
			// binary/other ignored in v1
		}
	}
}
