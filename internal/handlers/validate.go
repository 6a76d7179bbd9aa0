package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"vigil/internal/models"
	"vigil/internal/validator"
)

// ValidateHandler statically checks a candidate configuration. It is pure
// and safe to call from a configuration editor before saving.
type ValidateHandler struct {
	maxBodySize int64
}

// NewValidateHandler creates a validate handler
func NewValidateHandler(maxBodySize int64) *ValidateHandler {
	if maxBodySize <= 0 {
		maxBodySize = 1 * 1024 * 1024 // 1MB
	}
	return &ValidateHandler{maxBodySize: maxBodySize}
}

// ServeHTTP handles the validate HTTP request
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var cfg models.AlertConfiguration
	if err := json.Unmarshal(body, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	result := validator.Validate(cfg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
