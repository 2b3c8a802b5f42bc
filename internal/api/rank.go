package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Triage/internal/broker"
	"github.com/MikeSquared-Agency/Triage/internal/scoring"
	"github.com/MikeSquared-Agency/Triage/internal/triage"
)

const maxRankBody = 8 << 20

type RankHandler struct {
	broker *broker.Broker
}

func NewRankHandler(b *broker.Broker) *RankHandler {
	return &RankHandler{broker: b}
}

// RankRequest is the POST /rank body. A bare JSON array of tasks is accepted
// as well.
type RankRequest struct {
	Source    string           `json:"source,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	Tasks     []triage.RawTask `json:"tasks"`
}

type RankResponse struct {
	RunID    uuid.UUID            `json:"run_id"`
	ScoredAt time.Time            `json:"scored_at"`
	Tasks    []scoring.ScoredTask `json:"tasks"`
	Rejected []triage.Rejection   `json:"rejected"`
}

// Rank scores and ranks a batch of raw task records.
// POST /api/v1/rank
func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRankRequest(http.MaxBytesReader(w, r.Body, maxRankBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	run, err := h.broker.Rank(r.Context(), broker.Request{
		RequestID: req.RequestID,
		Source:    req.Source,
		CallerID:  r.Header.Get(callerHeader),
		Origin:    broker.OriginHTTP,
		Tasks:     req.Tasks,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RankResponse{
		RunID:    run.ID,
		ScoredAt: run.ScoredAt,
		Tasks:    run.Tasks,
		Rejected: run.Rejected,
	})
}

func decodeRankRequest(body io.Reader) (*RankRequest, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}

	req := &RankRequest{}
	if data[0] == '[' {
		err = json.Unmarshal(data, &req.Tasks)
	} else {
		err = json.Unmarshal(data, req)
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}
