package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/the-block/block-buster/pkg/datasource"
	"github.com/the-block/block-buster/pkg/depth"
	"github.com/the-block/block-buster/pkg/models"
)

// Server exposes the data-source snapshots and the depth-chart model to
// the dashboard UI.
type Server struct {
	manager *datasource.Manager
	logger  *logrus.Logger
	port    string

	// detectTimeout is reused for re-detect requests.
	detectTimeout time.Duration
}

func NewServer(manager *datasource.Manager, logger *logrus.Logger, port string, detectTimeout time.Duration) *Server {
	return &Server{
		manager:       manager,
		logger:        logger,
		port:          port,
		detectTimeout: detectTimeout,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/mode", s.handleMode)
	mux.HandleFunc("/api/data/", s.handleData)
	mux.HandleFunc("/api/depth", s.handleDepth)
	mux.HandleFunc("/api/depth/hit", s.handleDepthHit)
	mux.HandleFunc("/api/detect", s.handleDetect)

	// Enable CORS for the browser dashboard
	handler := corsMiddleware(mux)

	s.logger.Infof("Starting API server on port %s", s.port)
	return http.ListenAndServe(":"+s.port, handler)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"mode":      s.manager.Mode(),
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"mode": string(s.manager.Mode())})
}

// handleData serves any tracked key: /api/data/orderBook, /api/data/issuance, ...
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Path[len("/api/data/"):]
	value := s.manager.Get(key)
	if value == nil {
		// Not populated yet (or unknown key) — absence is not an error.
		s.writeJSON(w, http.StatusOK, nil)
		return
	}

	s.writeJSON(w, http.StatusOK, value)
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chart := depth.BuildChart(s.currentBook(), s.chartOptions(r))
	s.writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleDepthHit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	x, err := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	if err != nil {
		http.Error(w, "invalid x coordinate", http.StatusBadRequest)
		return
	}

	chart := depth.BuildChart(s.currentBook(), s.chartOptions(r))
	hit := chart.Hit(x)
	if hit == nil {
		s.writeJSON(w, http.StatusOK, nil)
		return
	}

	s.writeJSON(w, http.StatusOK, hit)
}

// handleDetect re-arms node detection. The previous mode keeps serving
// until the new detection resolves.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The request context dies with this handler; detection outlives it.
	go func() {
		if err := s.manager.DetectNode(context.Background(), s.detectTimeout); err != nil {
			s.logger.WithError(err).Warn("Re-detect aborted")
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "detecting"})
}

func (s *Server) currentBook() *models.OrderBook {
	book, _ := s.manager.Get(datasource.KeyOrderBook).(*models.OrderBook)
	return book
}

func (s *Server) chartOptions(r *http.Request) depth.Options {
	q := r.URL.Query()
	opts := depth.Options{}
	if width, err := strconv.Atoi(q.Get("width")); err == nil {
		opts.Width = width
	}
	if height, err := strconv.Atoi(q.Get("height")); err == nil {
		opts.Height = height
	}
	if precision, err := strconv.Atoi(q.Get("precision")); err == nil {
		opts.PrecisionDecimals = &precision
	}
	return opts
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
