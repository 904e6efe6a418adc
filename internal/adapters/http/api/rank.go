// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, athleteID string) (Entry, error)
	Percentile(ctx context.Context, athleteID string) (float64, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

type rankResponse struct {
	Rank       int     `json:"rank"`
	AthleteID  string  `json:"athlete_id"`
	Score      float64 `json:"score"`
	Percentile float64 `json:"percentile"`
}

// HandleGetRank handles GET /rank/{athlete_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /rank/
	athleteID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if athleteID == "" || strings.Contains(athleteID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entry, err := h.deps.Rank(r.Context(), athleteID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	pct, err := h.deps.Percentile(r.Context(), athleteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{
		Rank:       entry.Rank,
		AthleteID:  entry.AthleteID,
		Score:      entry.Score,
		Percentile: pct,
	})
}
