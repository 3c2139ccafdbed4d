package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"

	domain "bacnet-alarm-relay/internal/domain/alarm"
	"bacnet-alarm-relay/internal/logger"
	"bacnet-alarm-relay/internal/notify"
	repo "bacnet-alarm-relay/internal/repository/alarmlog"
)

// Service abstracts the pipeline operations the transport layer depends on.
type Service interface {
	HandleAlarm(ctx context.Context, raw domain.Raw) (domain.Decision, []notify.Result, error)
	LimiterSnapshot(ctx context.Context) map[string]domain.SourceState
	AlarmLog(ctx context.Context) ([]repo.Record, error)
}

// TemperatureReader exposes the simulated sensor value to the ops API.
type TemperatureReader interface {
	Current() float64
}

// Server adapts the alarm pipeline to the HTTP intake and ops API.
type Server struct {
	// service provides the pipeline operations.
	service Service
	// sensor provides the heartbeat value.
	sensor TemperatureReader
}

// NewServer wires the provided service and sensor into an HTTP handler.
func NewServer(service Service, sensor TemperatureReader) *Server {
	return &Server{
		service: service,
		sensor:  sensor,
	}
}

// Router builds the chi route tree. Probe and scrape endpoints run with a
// quieted logger so their per-request traces stay out of debug output.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(quietProbes, requestLog)
		r.Get("/healthz", s.handleHealth)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Group(func(r chi.Router) {
		r.Use(requestLog)
		r.Get("/v1/temperature", s.handleTemperature)
		r.Post("/v1/alarms", s.handleAlarmIntake)
		r.Get("/v1/alarms/log", s.handleAlarmLog)
		r.Get("/v1/limiter", s.handleLimiter)
	})

	return r
}

// requestLog traces completed requests through the context logger.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		logger.DebugKV(r.Context(), "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"duration", time.Since(start))
	})
}

// quietProbes caps the context logger at info level. Liveness probes and
// metric scrapes arrive every few seconds and would drown debug output.
func quietProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quiet := logger.FromContext(r.Context()).Desugar().
			WithOptions(logger.WithLevel(zapcore.InfoLevel)).Sugar()

		next.ServeHTTP(w, r.WithContext(logger.ToContext(r.Context(), quiet)))
	})
}

// alarmRequest is the intake tuple on the wire.
type alarmRequest struct {
	SourceID   string    `json:"source_id"`
	LastUpdate time.Time `json:"last_update,omitzero"`
	Message    string    `json:"message"`
	Severity   string    `json:"severity,omitempty"`
}

// channelResult reports one delivery attempt.
type channelResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// alarmResponse reports the pipeline outcome for one event.
type alarmResponse struct {
	Notified        bool            `json:"notified"`
	SuppressedCount int             `json:"suppressed_count,omitempty"`
	Results         []channelResult `json:"results,omitempty"`
}

// logEntry is one audit row on the wire.
type logEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	LastUpdate time.Time `json:"last_update,omitzero"`
	Message    string    `json:"message"`
}

// limiterEntry is one source's limiter state on the wire.
type limiterEntry struct {
	LastNotifiedAt  time.Time `json:"last_notified_at"`
	SuppressedCount int       `json:"suppressed_count"`
}

// handleAlarmIntake accepts one alarm event and runs it through the pipeline.
// Malformed events are client errors; everything else is 202, suppressed or not.
func (s *Server) handleAlarmIntake(w http.ResponseWriter, r *http.Request) {
	var request alarmRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")

		return
	}

	decision, results, err := s.service.HandleAlarm(r.Context(), domain.Raw{
		SourceID:   request.SourceID,
		LastUpdate: request.LastUpdate,
		Message:    request.Message,
		Severity:   request.Severity,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			writeError(w, http.StatusBadRequest, err.Error())

			return
		}

		writeError(w, http.StatusInternalServerError, "failed to process alarm")

		return
	}

	response := alarmResponse{
		Notified:        decision.Notify,
		SuppressedCount: decision.SuppressedCount,
		Results:         make([]channelResult, 0, len(results)),
	}

	for _, result := range results {
		entry := channelResult{
			Channel: result.Channel,
			Success: result.Success(),
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}

		response.Results = append(response.Results, entry)
	}

	writeJSON(r.Context(), w, http.StatusAccepted, response)
}

// handleAlarmLog returns the parsed audit trail in arrival order.
func (s *Server) handleAlarmLog(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.AlarmLog(r.Context())
	if err != nil {
		logger.ErrorKV(r.Context(), "Failed to read alarm log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read alarm log")

		return
	}

	entries := make([]logEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, logEntry{
			Timestamp:  record.Timestamp,
			LastUpdate: record.LastUpdate,
			Message:    record.Message,
		})
	}

	writeJSON(r.Context(), w, http.StatusOK, entries)
}

// handleLimiter returns the per-source rate limiter snapshot.
func (s *Server) handleLimiter(w http.ResponseWriter, r *http.Request) {
	snapshot := s.service.LimiterSnapshot(r.Context())

	entries := make(map[string]limiterEntry, len(snapshot))
	for sourceID, state := range snapshot {
		entries[sourceID] = limiterEntry{
			LastNotifiedAt:  state.LastNotifiedAt,
			SuppressedCount: state.SuppressedCount,
		}
	}

	writeJSON(r.Context(), w, http.StatusOK, entries)
}

// handleTemperature returns the current simulated value.
func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"temperature": s.sensor.Current(),
		"units":       "degrees-celsius",
	})
}

// handleHealth reports liveness only. Delivery failures are visible through
// logs and metrics, never through this endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes the payload with the provided status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.ErrorKV(ctx, "Failed to encode response", "error", err)
	}
}

// writeError encodes a JSON error payload.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	//nolint:errcheck // Nothing left to do if the error response fails to write.
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
