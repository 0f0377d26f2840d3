package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/infra/metrics"
	"musicqr-server/internal/usecase"
)

// RateLimiter is what the verify endpoint needs from the throttle; satisfied
// by the redis limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server is the public, unauthenticated surface: verification and status.
type Server struct {
	verifyUC usecase.VerificationUseCase
	statsUC  usecase.StatsUseCase
	limiter  RateLimiter
	limit    int
	window   time.Duration

	log *zerolog.Logger
}

func NewServer(verifyUC usecase.VerificationUseCase, statsUC usecase.StatsUseCase, limiter RateLimiter, limit int, window time.Duration, logger *zerolog.Logger) *Server {
	return &Server{
		verifyUC: verifyUC,
		statsUC:  statsUC,
		limiter:  limiter,
		limit:    limit,
		window:   window,
		log:      logger,
	}
}

// Register attaches the public routes.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/verify/{code}", s.handleVerify)
	r.Get("/api/status", s.handleStatus)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientIP := ClientIP(r)

	ok, err := s.limiter.Allow(ctx, verifyRateKey(clientIP), s.limit, s.window)
	if err != nil {
		// A broken limiter must not take verification down with it.
		s.log.Warn().Err(err).Msg("rate limiter unavailable")
	} else if !ok {
		metrics.IncRateLimited()
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	start := time.Now()
	result, err := s.verifyUC.Verify(ctx, chi.URLParam(r, "code"), clientIP, r.UserAgent())
	metrics.ObserveVerifyLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error().Err(err).Msg("verification failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	metrics.IncVerification(verifyOutcome(result))
	if result.FirstActivation {
		metrics.IncActivation()
	}

	// Negative results keep the original wire contract: structured body, 400.
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.statsUC.Overview(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats overview failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status    string               `json:"status"`
		Timestamp time.Time            `json:"timestamp"`
		Stats     *model.StatsSnapshot `json:"stats"`
	}{
		Status:    "running",
		Timestamp: time.Now(),
		Stats:     snap,
	})
}

func verifyOutcome(res *model.VerificationResult) string {
	switch {
	case !res.Valid:
		return res.Reason
	case res.FirstActivation:
		return string(model.QueryResultFirstActivation)
	default:
		return string(model.QueryResultAlreadyActivated)
	}
}

func verifyRateKey(clientIP string) string {
	return "rate_limit:verify:" + clientIP
}

// ClientIP resolves the requester address behind the reverse proxy:
// X-Forwarded-For first hop, then X-Real-IP, then the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
