package control

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Server accepts parameter updates over websocket connections.
type Server struct {
	addr     string
	path     string
	updater  Updater
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// NewServer creates a websocket control server. Messages on path are
// decoded with DecodeMessage and pushed to u.
func NewServer(addr, path string, u Updater) *Server {
	return &Server{
		addr:    addr,
		path:    path,
		updater: u,
		upgrader: websocket.Upgrader{
			// Control surfaces are local tools served from other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handle)
	return mux
}

// Run listens on the server's address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes all
// open websocket connections and waits for their readers to exit.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("control websocket listening", "addr", ln.Addr().String(), "path", s.path)

	select {
	case err := <-errCh:
		s.closeConns()
		s.wg.Wait()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeConns()
	s.wg.Wait()
	<-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("control websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		s.wg.Done()
	}()

	slog.Debug("control client connected", "remote", conn.RemoteAddr().String())
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("control client disconnected", "remote", conn.RemoteAddr().String(), "reason", err)
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		set, err := DecodeMessage(msg)
		if err != nil {
			s.dropped.Add(1)
			slog.Warn("control message dropped", "error", err)
			continue
		}
		s.updater.Update(set)
		s.accepted.Add(1)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
}

// Accepted returns the number of updates pushed to the store.
func (s *Server) Accepted() uint64 {
	return s.accepted.Load()
}

// Dropped returns the number of malformed messages discarded.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}
