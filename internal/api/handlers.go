package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bet-tracker-bot/internal/repository"
	"bet-tracker-bot/internal/stats"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// getUserStats returns one user's summary for ?period=, or every period
// when the parameter is absent.
func (s *Server) getUserStats(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	if r.URL.Query().Get("period") == "" {
		periods := make(map[stats.Period]stats.Summary, 4)
		for _, p := range stats.AllPeriods() {
			summary, err := s.stats.ComputeSummary(r.Context(), user, p)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
				return
			}
			periods[p] = summary
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"user":    user,
			"periods": periods,
		})
		return
	}

	period, ok := parsePeriod(w, r, stats.PeriodLifetime)
	if !ok {
		return
	}

	summary, err := s.stats.ComputeSummary(r.Context(), user, period)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"period":  period,
		"summary": summary,
	})
}

func (s *Server) getGroupSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r, stats.PeriodLifetime)
	if !ok {
		return
	}

	summary, err := s.stats.ComputeGroupSummary(r.Context(), period)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute group summary", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"summary": summary,
	})
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r, stats.PeriodWeekly)
	if !ok {
		return
	}
	limit := s.parseLimit(r)

	entries, err := s.stats.ComputeLeaderboard(r.Context(), period, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute leaderboard", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"entries": entries,
		"count":   len(entries),
		"limit":   limit,
	})
}

// getRanking ranks by ?metric=profit|ev in ?order=desc|asc.
func (s *Server) getRanking(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r, stats.PeriodLifetime)
	if !ok {
		return
	}

	metric := stats.MetricProfit
	if v := r.URL.Query().Get("metric"); v != "" {
		if metric, ok = stats.ParseMetric(v); !ok {
			respondError(w, http.StatusBadRequest, "metric must be one of profit, ev", nil)
			return
		}
	}
	order := stats.OrderDesc
	if v := r.URL.Query().Get("order"); v != "" {
		if order, ok = stats.ParseOrder(v); !ok {
			respondError(w, http.StatusBadRequest, "order must be one of desc, asc", nil)
			return
		}
	}
	limit := s.parseLimit(r)

	entries, err := s.stats.ComputeRanking(r.Context(), period, metric, order, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute ranking", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"metric":  metric,
		"order":   order,
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) getOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.stats.ComputeOverview(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute overview", err)
		return
	}
	respondJSON(w, http.StatusOK, ov)
}

// getPick returns one pick by its full id, pending or settled.
func (s *Server) getPick(w http.ResponseWriter, r *http.Request) {
	pick, err := s.picks.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrPickNotFound) {
		respondError(w, http.StatusNotFound, "pick not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load pick", err)
		return
	}
	respondJSON(w, http.StatusOK, pick)
}

// parsePeriod reads ?period=, writing a 400 when it is not a known key.
func parsePeriod(w http.ResponseWriter, r *http.Request, def stats.Period) (stats.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return def, true
	}
	period, err := stats.ParsePeriod(raw)
	if errors.Is(err, stats.ErrInvalidPeriod) {
		respondError(w, http.StatusBadRequest, "period must be one of daily, weekly, monthly, lifetime", nil)
		return "", false
	}
	return period, true
}

// parseLimit reads ?limit=, clamped to [1, maxRows].
func (s *Server) parseLimit(r *http.Request) int {
	limit := stats.DefaultLeaderboardSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > s.maxRows {
		limit = s.maxRows
	}
	return limit
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg(message)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
