package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/graylogic/smarwi-hub/internal/smarwi"
)

// positionRequest is the request body for position-carrying commands.
type positionRequest struct {
	Position *int `json:"position"`
}

// ridgeRequest is the request body for PUT /devices/{id}/ridge.
type ridgeRequest struct {
	Fixed *bool `json:"fixed"`
}

// handleOpen opens the window. An optional position in the body opens to
// an intermediate tilt instead of fully open.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cover, ok := s.managedCover(w, id)
	if !ok {
		return
	}

	var req positionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	var err error
	if req.Position != nil {
		err = cover.OpenTo(*req.Position)
	} else {
		err = cover.Open()
	}
	if err != nil {
		s.writeCommandError(w, id, "open", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "command": "open"})
}

// handleClose closes the window.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cover, ok := s.managedCover(w, id)
	if !ok {
		return
	}

	if err := cover.Close(); err != nil {
		s.writeCommandError(w, id, "close", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "command": "close"})
}

// handleStop halts window movement.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cover, ok := s.managedCover(w, id)
	if !ok {
		return
	}

	if err := cover.Stop(); err != nil {
		s.writeCommandError(w, id, "stop", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "command": "stop"})
}

// handleSetPosition moves the window to an absolute tilt position.
func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cover, ok := s.managedCover(w, id)
	if !ok {
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Position == nil {
		writeBadRequest(w, "position field is required")
		return
	}

	if err := cover.OpenTo(*req.Position); err != nil {
		s.writeCommandError(w, id, "position", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "accepted",
		"command":  "position",
		"position": *req.Position,
	})
}

// handleSetRidge fixes or releases the window ridge.
func (s *Server) handleSetRidge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dev, ok := s.manager.Device(id)
	if !ok {
		writeNotFound(w, "device is not currently managed")
		return
	}

	var req ridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Fixed == nil {
		writeBadRequest(w, "fixed field is required")
		return
	}

	if err := dev.ToggleRidgeFixed(*req.Fixed); err != nil {
		s.writeCommandError(w, id, "ridge", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"command": "ridge",
		"fixed":   *req.Fixed,
	})
}

// writeCommandError maps smarwi command errors onto HTTP responses.
func (s *Server) writeCommandError(w http.ResponseWriter, id, command string, err error) {
	if errors.Is(err, smarwi.ErrInvalidPosition) {
		writeBadRequest(w, "position must be between 0 and 100")
		return
	}

	s.logger.Error("device command failed", "device_id", id, "command", command, "error", err)
	writeInternalError(w, "failed to send command")
}
