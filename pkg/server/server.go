package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"walletdash/pkg/chain"
	"walletdash/pkg/events"
	"walletdash/pkg/log"
	"walletdash/pkg/metrics"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"
	"walletdash/pkg/session"
	"walletdash/pkg/watcher"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	watcher  *watcher.Watcher
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	mux      *http.ServeMux
}

// NewServer wires the HTTP API to w. A nil gatherer disables /metrics.
func NewServer(w *watcher.Watcher, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		watcher:  w,
		metrics:  m,
		gatherer: gatherer,
		clients:  make(map[*websocket.Conn]bool),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.instrument("status", http.MethodGet, s.handleStatus))
	s.mux.HandleFunc("/api/connect", s.instrument("connect", http.MethodPost, s.handleConnect))
	s.mux.HandleFunc("/api/disconnect", s.instrument("disconnect", http.MethodPost, s.handleDisconnect))
	s.mux.HandleFunc("/api/transfer", s.instrument("transfer", http.MethodPost, s.handleTransfer))
	s.mux.HandleFunc("/api/refresh", s.instrument("refresh", http.MethodPost, s.handleRefresh))
	s.mux.HandleFunc("/api/networks", s.instrument("networks", http.MethodGet, s.handleNetworks))
	s.mux.HandleFunc("/ws", s.handleWS)
	if s.gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler exposes the routes, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	go s.listenToBus(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Server.Info().Int("port", port).Msg("API server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.watcher.Snapshot())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess, err := s.watcher.Connect(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.watcher.Disconnect()
	writeJSON(w, http.StatusOK, s.watcher.Snapshot())
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	hash, err := s.watcher.SubmitTransfer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hash": hash})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.watcher.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.watcher.Snapshot())
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.SupportedNetworks())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Server.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	// Send initial state before the connection can receive broadcasts so
	// writes never interleave.
	s.mu.Lock()
	initial := events.Event{Type: "initial", Data: s.watcher.Snapshot()}
	if err := conn.WriteJSON(initial); err != nil {
		s.mu.Unlock()
		return
	}
	s.clients[conn] = true
	s.mu.Unlock()
	s.metrics.RecordWSClientChange(1)

	defer func() {
		s.mu.Lock()
		if s.clients[conn] {
			delete(s.clients, conn)
			s.metrics.RecordWSClientChange(-1)
		}
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToBus(ctx context.Context) {
	bus := s.watcher.Bus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(event)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) broadcast(event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			_ = client.Close()
			delete(s.clients, client)
			s.metrics.RecordWSClientChange(-1)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(name, method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeJSON(rec, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		} else {
			h(rec, r)
		}
		s.metrics.RecordHTTPRequest(name, r.Method, rec.status)
		log.Server.Debug().
			Str("handler", name).
			Str("method", r.Method).
			Int("status", rec.status).
			Msg("request served")
	}
}

// statusFor maps dashboard errors onto HTTP status codes.
func statusFor(err error) int {
	var unsupported *session.UnsupportedNetworkError
	var perr *provider.Error
	switch {
	case errors.Is(err, chain.ErrInvalidAddress), errors.Is(err, chain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.As(err, &unsupported),
		errors.Is(err, watcher.ErrNotConnected),
		errors.Is(err, session.ErrNoAccounts):
		return http.StatusConflict
	case errors.Is(err, provider.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
