package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adchub/hub/internal/config"
	"github.com/adchub/hub/internal/hub"
	"github.com/adchub/hub/internal/session"
	"github.com/gorilla/websocket"
)

type Server struct {
	hub              *hub.Hub
	queueSize        int
	handshakeTimeout time.Duration
	allowedOrigins   map[string]bool
	allowedHosts     map[string]bool
}

func NewServer(cfg *config.Config, h *hub.Hub) *Server {
	s := &Server{
		hub:              h,
		queueSize:        cfg.Hub.SendQueueSize,
		handshakeTimeout: cfg.Hub.HandshakeTimeout,
		allowedOrigins:   make(map[string]bool),
		allowedHosts:     make(map[string]bool),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/hub", s.handleWS)
	mux.HandleFunc("/api/users", s.handleUsers)
	mux.HandleFunc("/api/stats", s.handleStats)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	c := newConn(ws, s.queueSize)
	u, err := s.hub.Connect(r.RemoteAddr, c)
	if err != nil {
		log.Printf("refusing %s: %v", r.RemoteAddr, err)
		c.Close()
		return
	}
	log.Printf("client connected: %s (sid %s)", r.RemoteAddr, u.SID)

	if s.handshakeTimeout > 0 {
		c.StartTimeout(s.handshakeTimeout, func() {
			if !u.IsLoggedIn() {
				s.hub.Disconnect(u, session.QuitTimeout)
			}
		})
	}

	go func() {
		defer func() {
			s.hub.Leave(u)
			log.Printf("client disconnected: %s (sid %s, %s)", r.RemoteAddr, u.SID, u.QuitReason())
		}()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if u.State() == session.StateDisconnecting {
				return
			}
			s.hub.HandleMessage(u, data)
		}
	}()
}

// handleUsers lists the admitted users as an anonymous guest sees them.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hub.Users(session.CredGuest))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hub.Stats())
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	hostname := parsed.Hostname()
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}

// SecurityHeaders sets restrictive browser headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// NewHTTPServer returns the HTTP server for handler on host:port.
func NewHTTPServer(host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
