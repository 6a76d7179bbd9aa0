package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"vigil/internal/engine"
	"vigil/internal/models"
)

// EvaluateHandler runs an on-demand batch evaluation with a caller-supplied
// snapshot. The scheduler-driven loop uses the same engine; this endpoint
// exists for dry runs and integrations that bring their own readings.
type EvaluateHandler struct {
	engine      *engine.Engine
	maxBodySize int64
}

// NewEvaluateHandler creates an evaluate handler
func NewEvaluateHandler(eng *engine.Engine, maxBodySize int64) *EvaluateHandler {
	if maxBodySize <= 0 {
		maxBodySize = 10 * 1024 * 1024 // 10MB
	}
	return &EvaluateHandler{engine: eng, maxBodySize: maxBodySize}
}

// EvaluateRequest is the evaluation payload
type EvaluateRequest struct {
	Configurations []models.AlertConfiguration `json:"configurations"`
	Context        models.EvaluationContext    `json:"context"`
}

// EvaluateResponse reports the batch outcome. Triggered counts only the
// instances created this pass; dedup-suppressed open instances are still
// listed in Alerts but counted separately.
type EvaluateResponse struct {
	Alerts      []*models.AlertInstance `json:"alerts"`
	Evaluated   int                     `json:"evaluated"`
	Triggered   int                     `json:"triggered"`
	Suppressed  int                     `json:"suppressed"`
	EvaluatedAt time.Time               `json:"evaluated_at"`
}

// ServeHTTP handles the evaluate HTTP request
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req EvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if len(req.Configurations) == 0 {
		writeError(w, http.StatusBadRequest, "no configurations provided")
		return
	}

	if req.Context.CurrentTime.IsZero() {
		req.Context.CurrentTime = time.Now().UTC()
	}
	for i := range req.Context.SensorReadings {
		req.Context.SensorReadings[i].Normalize()
	}

	res := h.engine.EvaluateBatch(r.Context(), req.Configurations, &req.Context)

	resp := EvaluateResponse{
		Alerts:      res.Alerts(),
		Evaluated:   len(req.Configurations),
		Triggered:   len(res.Created),
		Suppressed:  len(res.Suppressed),
		EvaluatedAt: req.Context.CurrentTime,
	}
	if resp.Alerts == nil {
		resp.Alerts = []*models.AlertInstance{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
