// Package api exposes the poll cycle as an HTTP-triggered function together
// with a small REST surface over the topology and a websocket change feed.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/engine"
	"github.com/tonhe/netflo/internal/monitor"
	"github.com/tonhe/netflo/internal/store"
	"github.com/tonhe/netflo/internal/topology"
)

// Routes.
const (
	PollPath     = "/functions/v1/snmp-poll"
	DevicesPath  = "/api/devices"
	LinksPath    = "/api/links"
	RealtimePath = "/api/realtime"
	HealthPath   = "/healthz"
)

// AllowedHeaders are the request headers browsers may send cross-origin.
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

const defaultStatsLimit = 60

// Server routes HTTP requests to a monitor.Backend.
type Server struct {
	backend    monitor.Backend
	serviceKey string
	log        *logrus.Entry
	router     *mux.Router
	upgrader   websocket.Upgrader

	closeOnce sync.Once
	done      chan struct{}
}

// NewServer builds the router. When serviceKey is non-empty, mutating
// endpoints and the poll function require it.
func NewServer(backend monitor.Backend, serviceKey string, log *logrus.Entry) *Server {
	s := &Server{
		backend:    backend,
		serviceKey: serviceKey,
		log:        log,
		router:     mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc(PollPath, s.handlePollPreflight).Methods(http.MethodOptions)
	r.Handle(PollPath, s.requireKey(http.HandlerFunc(s.handlePoll))).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc(DevicesPath, s.handleListDevices).Methods(http.MethodGet)
	r.Handle(DevicesPath, s.requireKey(http.HandlerFunc(s.handleAddDevice))).Methods(http.MethodPost)
	r.Handle(DevicesPath+"/{id}", s.requireKey(http.HandlerFunc(s.handleRemoveDevice))).Methods(http.MethodDelete)
	r.HandleFunc(DevicesPath+"/{id}/stats", s.handleDeviceStats).Methods(http.MethodGet)

	r.HandleFunc(LinksPath, s.handleListLinks).Methods(http.MethodGet)
	r.Handle(LinksPath, s.requireKey(http.HandlerFunc(s.handleAddLink))).Methods(http.MethodPost)

	r.HandleFunc(RealtimePath, s.handleRealtime).Methods(http.MethodGet)
	r.HandleFunc(HealthPath, s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS, panic recovery and request
// logging.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: AllowedHeaders,
	})
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(s.log), handlers.PrintRecoveryStack(true))(s.router)
	h = c.Handler(h)
	return handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
}

// Close ends open realtime streams.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.log.WithFields(logrus.Fields{
		"method": p.Request.Method,
		"path":   p.URL.Path,
		"status": p.StatusCode,
		"size":   p.Size,
	}).Debug("request")
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.serviceKey == "" || s.authorized(r) {
			next.ServeHTTP(w, r)
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "missing or invalid service key")
	})
}

func (s *Server) authorized(r *http.Request) bool {
	key := r.Header.Get("apikey")
	if auth := r.Header.Get("Authorization"); key == "" && auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			key = strings.TrimSpace(token)
		}
	}
	return key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.serviceKey)) == 1
}

// handlePollPreflight answers OPTIONS requests that are not full CORS
// preflights (those are answered by the CORS middleware).
func (s *Server) handlePollPreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(AllowedHeaders, ", "))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	// The cycle finishes even if the caller goes away.
	res, err := s.backend.Poll(context.WithoutCancel(r.Context()))
	if err != nil {
		s.log.WithError(err).Error("poll function failed")
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	views, err := s.backend.Devices(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var in topology.NewDevice
	if err := decodeJSON(r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, err := s.backend.AddDevice(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.backend.RemoveDevice(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	limit := defaultStatsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	stats, err := s.backend.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.backend.Links(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	var in topology.NewLink
	if err := decodeJSON(r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	l, err := s.backend.ConnectDevices(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// pollerReporter is implemented by backends that run the poller in-process.
type pollerReporter interface {
	PollerInfo() engine.Info
}

type healthResponse struct {
	Status string       `json:"status"`
	Poller *engine.Info `json:"poller,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if pr, ok := s.backend.(pollerReporter); ok {
		info := pr.PollerInfo()
		resp.Poller = &info
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRealtime streams every store change to the client as JSON text
// frames until either side goes away.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := s.backend.Subscribe(ctx)
	if err != nil {
		s.log.WithError(err).Error("realtime subscribe failed")
		return
	}
	s.log.Debug("realtime client connected")

	// Reads only detect the peer closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.WithError(err).Debug("realtime read error")
				}
				return
			}
		}
	}()

	for {
		select {
		case c, ok := <-changes:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(c); err != nil {
				s.log.WithError(err).Debug("realtime write failed")
				return
			}
		case <-ctx.Done():
			s.log.Debug("realtime client disconnected")
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, topology.ErrInvalidDevice), errors.Is(err, topology.ErrInvalidLink):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
