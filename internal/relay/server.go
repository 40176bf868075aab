package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"securelink/internal/crypto"
	"securelink/internal/domain"
)

// MaxQueue bounds the number of frames held for one recipient.
const MaxQueue = 10000

const maxBody = 1 << 20

// Server is an in-memory relay and identity directory. It stores public keys
// and opaque frames; it never sees plaintext or private keys.
type Server struct {
	log *slog.Logger
	mux *http.ServeMux
	now func() time.Time

	mu     sync.Mutex
	keys   map[domain.Username]string
	queues map[domain.Username][]domain.Frame

	requests *prometheus.CounterVec
	queued   prometheus.Gauge
}

// NewServer returns a relay handler. Metrics are registered with reg and
// served on /metrics.
func NewServer(log *slog.Logger, reg *prometheus.Registry) *Server {
	if log == nil {
		log = slog.Default()
	}
	f := promauto.With(reg)
	s := &Server{
		log:    log,
		mux:    http.NewServeMux(),
		now:    time.Now,
		keys:   make(map[domain.Username]string),
		queues: make(map[domain.Username][]domain.Frame),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "securelink",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Relay requests by route and status code.",
		}, []string{"route", "code"}),
		queued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "securelink",
			Subsystem: "relay",
			Name:      "queued_frames",
			Help:      "Frames waiting to be fetched.",
		}),
	}

	s.handle("POST /register", s.register)
	s.handle("GET /public-key/{user}", s.publicKey)
	s.handle("POST /msg/{user}", s.enqueue)
	s.handle("GET /msg/{user}", s.fetch)
	s.handle("POST /msg/{user}/ack", s.ack)
	s.handle("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// handle registers h under pattern with access logging and request counting.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.requests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}
	if _, err := crypto.ParseEd25519Public(req.PublicKey); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	prev, ok := s.keys[req.Username]
	if ok && prev != req.PublicKey {
		s.mu.Unlock()
		http.Error(w, "username already registered with a different key", http.StatusConflict)
		return
	}
	s.keys[req.Username] = req.PublicKey
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (s *Server) publicKey(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(r.PathValue("user"))
	s.mu.Lock()
	k, ok := s.keys[user]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, publicKeyResponse{Username: user, PublicKey: k})
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(r.PathValue("user"))
	var f domain.Frame
	if err := decode(r, &f); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.To != user {
		http.Error(w, "recipient does not match path", http.StatusBadRequest)
		return
	}
	if f.Timestamp == 0 {
		f.Timestamp = s.now().Unix()
	}

	s.mu.Lock()
	if len(s.queues[user]) >= MaxQueue {
		s.mu.Unlock()
		http.Error(w, "queue full", http.StatusTooManyRequests)
		return
	}
	s.queues[user] = append(s.queues[user], f)
	s.queued.Inc()
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(r.PathValue("user"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	q := s.queues[user]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	out := append([]domain.Frame{}, q...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ack(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(r.PathValue("user"))
	var req ackRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Count < 0 {
		http.Error(w, "bad count", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	q := s.queues[user]
	n := min(req.Count, len(q))
	s.queues[user] = q[n:]
	if len(s.queues[user]) == 0 {
		delete(s.queues, user)
	}
	s.queued.Sub(float64(n))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"acked": n})
}

func decode(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
