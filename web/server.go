// Package web serves the merged job data as a JSON API for a single local
// user. It has no auth in this mode.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"jobcost/dashboard"
	"jobcost/filter"
	"jobcost/internal/timeutil"
)

// Dashboard is the part of dashboard.Service the API needs.
type Dashboard interface {
	MergedJobs(state filter.State) (filter.Result, error)
	Refresh(ctx context.Context, rng timeutil.DateRange, force bool) dashboard.Outcome
	Status() dashboard.StatusReport
	TriggerSync(ctx context.Context) error
}

type Options struct {
	Logger zerolog.Logger
	// DefaultRange supplies the range for refreshes without from/to.
	DefaultRange func() timeutil.DateRange
	TopN         int
}

type Server struct {
	dashboard    Dashboard
	logger       zerolog.Logger
	defaultRange func() timeutil.DateRange
	topN         int
	router       chi.Router
}

func NewServer(service Dashboard, opts Options) http.Handler {
	server := &Server{
		dashboard:    service,
		logger:       opts.Logger,
		defaultRange: opts.DefaultRange,
		topN:         opts.TopN,
	}
	if server.defaultRange == nil {
		server.defaultRange = func() timeutil.DateRange { return timeutil.LastDays(time.Now(), 30) }
	}
	if server.topN <= 0 {
		server.topN = 10
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(server.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", server.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs", server.handleJobs)
		r.Get("/options", server.handleOptions)
		r.Get("/people", server.handlePeople)
		r.Get("/summary", server.handleSummary)
		r.Get("/status", server.handleStatus)
		r.Post("/refresh", server.handleRefresh)
		r.Post("/sync", server.handleSync)
	})
	server.router = r

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	result, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newJobsResponse(result))
}

// handleOptions lists every choice in the merged set. Filter params are ignored.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	all, ok := s.unfiltered(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newOptionsResponse(all))
}

// handlePeople summarizes the filtered jobs with colors from the full merged set.
func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	result, ok := s.filtered(w, r)
	if !ok {
		return
	}
	all, ok := s.unfiltered(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newPeopleResponse(result, all))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	result, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(result, s.topN))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Status())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rng, err := timeutil.ParseRange(query.Get("from"), query.Get("to"), s.defaultRange())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	force := false
	if raw := strings.TrimSpace(query.Get("force")); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid force flag (expected true or false)"))
			return
		}
	}

	outcome := s.dashboard.Refresh(r.Context(), rng, force)
	status := http.StatusOK
	if outcome.Status == dashboard.StatusFailure {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, outcome)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboard.TriggerSync(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// filtered parses the filter query and runs it. It writes the error response
// itself and reports false when the request cannot be served.
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (filter.Result, bool) {
	state, err := parseFilterState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return filter.Result{}, false
	}

	return s.merged(w, state)
}

func (s *Server) unfiltered(w http.ResponseWriter) (filter.Result, bool) {
	return s.merged(w, filter.State{})
}

func (s *Server) merged(w http.ResponseWriter, state filter.State) (filter.Result, bool) {
	result, err := s.dashboard.MergedJobs(state)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoData) {
			writeError(w, http.StatusServiceUnavailable, err)
			return filter.Result{}, false
		}
		writeError(w, http.StatusInternalServerError, err)
		return filter.Result{}, false
	}
	return result, true
}

// parseFilterState reads q, mode, type, status, person and sort. List
// parameters may repeat or hold comma-separated values.
func parseFilterState(r *http.Request) (filter.State, error) {
	query := r.URL.Query()

	mode, err := filter.ParseMode(query.Get("mode"))
	if err != nil {
		return filter.State{}, err
	}
	sortKey, err := filter.ParseSortKey(query.Get("sort"))
	if err != nil {
		return filter.State{}, err
	}

	return filter.State{
		Query:    strings.TrimSpace(query.Get("q")),
		Mode:     mode,
		JobTypes: listParam(query["type"]),
		Statuses: listParam(query["status"]),
		People:   listParam(query["person"]),
		Sort:     sortKey,
	}, nil
}

func listParam(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
