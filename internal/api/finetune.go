package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/graylogic/smarwi-hub/internal/smarwi"
)

// finetuneBounds holds the valid value range for a calibration setting.
type finetuneBounds struct {
	min, max int
}

// finetuneLimits maps each setting to its valid range. The calibrated
// distance has no practical upper bound; it is capped generously.
var finetuneLimits = map[smarwi.FinetuneKey]finetuneBounds{
	smarwi.SettingClosedPosition:     {min: -20, max: 20},
	smarwi.SettingLockErrTrigger:     {min: 0, max: 40},
	smarwi.SettingCalibratedDistance: {min: 0, max: 1 << 20},
}

// defaultFinetuneBounds applies to the percentage-valued settings.
var defaultFinetuneBounds = finetuneBounds{min: 0, max: 100}

// boundsFor returns the valid range for a setting key.
func boundsFor(key smarwi.FinetuneKey) finetuneBounds {
	if b, ok := finetuneLimits[key]; ok {
		return b
	}
	return defaultFinetuneBounds
}

// finetuneValueRequest is the request body for PUT /devices/{id}/finetune/{key}.
type finetuneValueRequest struct {
	Value *int `json:"value"`
}

// handleGetFinetune returns the cached calibration settings of a device.
//
// The cache is populated from device responses only; an empty map means no
// settings response has arrived yet (use the refresh endpoint).
func (s *Server) handleGetFinetune(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dev, ok := s.manager.Device(id)
	if !ok {
		writeNotFound(w, "device is not currently managed")
		return
	}

	settings := dev.Finetune().All()
	out := make(map[string]int, len(settings))
	for k, v := range settings {
		out[string(k)] = v
	}

	writeJSON(w, http.StatusOK, map[string]any{"settings": out, "count": len(out)})
}

// handleRefreshFinetune asks the device to publish its current settings.
// The response arrives asynchronously on the config topic.
func (s *Server) handleRefreshFinetune(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dev, ok := s.manager.Device(id)
	if !ok {
		writeNotFound(w, "device is not currently managed")
		return
	}

	if err := dev.Finetune().RequestRefresh(); err != nil {
		s.writeFinetuneError(w, id, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "command": "refresh"})
}

// handleSetFinetune writes one calibration setting to the device.
func (s *Server) handleSetFinetune(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key := smarwi.FinetuneKey(chi.URLParam(r, "key"))

	if !smarwi.IsValidFinetuneKey(key) {
		writeBadRequest(w, "unknown setting key")
		return
	}

	dev, ok := s.manager.Device(id)
	if !ok {
		writeNotFound(w, "device is not currently managed")
		return
	}

	var req finetuneValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value field is required")
		return
	}

	bounds := boundsFor(key)
	if *req.Value < bounds.min || *req.Value > bounds.max {
		writeBadRequest(w, "value out of range for setting")
		return
	}

	if err := dev.Finetune().Set(key, *req.Value); err != nil {
		s.writeFinetuneError(w, id, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"setting": string(key),
		"value":   *req.Value,
	})
}

// writeFinetuneError maps finetune errors onto HTTP responses.
func (s *Server) writeFinetuneError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, smarwi.ErrIPAddressUnknown):
		writeError(w, http.StatusConflict, ErrCodeConflict,
			"device has not reported its IP address yet")
	case errors.Is(err, smarwi.ErrUnknownSetting):
		writeBadRequest(w, "unknown setting key")
	default:
		s.logger.Error("finetune command failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to send command")
	}
}
