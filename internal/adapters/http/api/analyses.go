// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jcortez/swinglab/internal/domain/attempt"
	"github.com/jcortez/swinglab/internal/domain/model"
	"github.com/jcortez/swinglab/internal/domain/pose"
)

// AnalysesHandler handles swing analysis requests.
type AnalysesHandler struct {
	deps Dependencies
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies) *AnalysesHandler {
	return &AnalysesHandler{deps: deps}
}

// analysisRequest mirrors the OpenAPI schema for POST /analyses. Frames are
// optional; when omitted the service runs its own pose detector against
// video_ref.
type analysisRequest struct {
	SessionID string          `json:"session_id"`
	AthleteID string          `json:"athlete_id"`
	VideoRef  string          `json:"video_ref"`
	FPS       float64         `json:"fps"`
	Frames    []pose.RawFrame `json:"frames"`
}

func (a analysisRequest) validate() error {
	switch {
	case strings.TrimSpace(a.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(a.AthleteID) == "":
		return errors.New("missing athlete_id")
	case strings.TrimSpace(a.VideoRef) == "" && len(a.Frames) == 0:
		return errors.New("missing video_ref or frames")
	case a.FPS < 0:
		return errors.New("fps must be non-negative")
	}
	return nil
}

// HandlePostAnalysis handles POST /analyses requests.
func (h *AnalysesHandler) HandlePostAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, ok := h.deps.Submit(r.Context(), Submission{
		SessionID: req.SessionID,
		AthleteID: req.AthleteID,
		VideoRef:  req.VideoRef,
		FPS:       req.FPS,
		Frames:    req.Frames,
	})
	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{
		Status:     "accepted",
		AttemptID:  receipt.AttemptID,
		Superseded: receipt.Superseded,
	})
}

// HandleGetAnalysis handles GET /analyses/{attempt_id} requests.
func (h *AnalysesHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/analyses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	snap, err := h.deps.Attempt(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisResponse(snap))
}

// analysisResponse is the external view of an attempt. Result is only set
// once the attempt completed with a score.
type analysisResponse struct {
	AttemptID   string          `json:"attempt_id"`
	SessionID   string          `json:"session_id"`
	AthleteID   string          `json:"athlete_id"`
	VideoRef    string          `json:"video_ref,omitempty"`
	State       string          `json:"state"`
	Percent     int             `json:"percent"`
	Status      string          `json:"status,omitempty"`
	Cancelled   bool            `json:"cancelled,omitempty"`
	NeedsRetake bool            `json:"needs_retake"`
	Reasons     []string        `json:"reasons,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      *resultResponse `json:"result,omitempty"`
}

type resultResponse struct {
	Overall          int                `json:"overall"`
	Label            string             `json:"label"`
	InsufficientData bool               `json:"insufficient_data,omitempty"`
	PerMetric        map[string]float64 `json:"per_metric,omitempty"`
	Weakest          []string           `json:"weakest,omitempty"`
	RawMetrics       map[string]float64 `json:"raw_metrics,omitempty"`
	Cards            []cardResponse     `json:"cards,omitempty"`
	PersistError     string             `json:"persist_error,omitempty"`
}

type cardResponse struct {
	Metric string         `json:"metric"`
	Cue    string         `json:"cue"`
	Drill  *drillResponse `json:"drill,omitempty"`
}

type drillResponse struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Equipment    string `json:"equipment,omitempty"`
}

func toDrillResponse(d *model.Drill) *drillResponse {
	if d == nil {
		return nil
	}
	return &drillResponse{
		Key:          d.Key,
		Name:         d.Name,
		Instructions: d.Instructions,
		Equipment:    d.Equipment,
	}
}

func toAnalysisResponse(snap attempt.Snapshot) analysisResponse {
	resp := analysisResponse{
		AttemptID:   snap.ID,
		SessionID:   snap.SessionID,
		AthleteID:   snap.AthleteID,
		VideoRef:    snap.VideoRef,
		State:       string(snap.State),
		Percent:     snap.Percent,
		Status:      snap.Status,
		Cancelled:   snap.Cancelled,
		NeedsRetake: snap.NeedsRetake,
		Reasons:     snap.Reasons,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	if snap.Result != nil {
		res := &resultResponse{
			Overall:          snap.Result.Score.Overall,
			Label:            snap.Result.Score.Label,
			InsufficientData: snap.Result.Score.InsufficientData,
			PerMetric:        snap.Result.Score.PerMetric,
			Weakest:          snap.Result.Score.Weakest,
			RawMetrics:       snap.Result.Record.RawMetrics,
		}
		for _, c := range snap.Result.Cards {
			res.Cards = append(res.Cards, cardResponse{Metric: c.Metric, Cue: c.Cue, Drill: toDrillResponse(c.Drill)})
		}
		if snap.Result.PersistError != nil {
			res.PersistError = snap.Result.PersistError.Error()
		}
		resp.Result = res
	}
	return resp
}
