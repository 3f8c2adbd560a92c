package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/graylogic/smarwi-hub/internal/device"
	"github.com/graylogic/smarwi-hub/internal/smarwi"
)

// DeviceView is the API representation of a device: persisted registry
// metadata plus the live view when the device is currently managed.
type DeviceView struct {
	device.Device
	Live *LiveState `json:"live,omitempty"`
}

// LiveState is the current motion and diagnostic state of a managed device.
// It is derived from status frames and never persisted.
type LiveState struct {
	Available   bool   `json:"available"`
	StateCode   int    `json:"state_code"`
	State       string `json:"state"`
	Position    *int   `json:"position,omitempty"`
	Moving      bool   `json:"moving"`
	Opening     bool   `json:"opening"`
	Closing     bool   `json:"closing"`
	Closed      *bool  `json:"closed,omitempty"`
	RidgeFixed  bool   `json:"ridge_fixed"`
	RidgeInside bool   `json:"ridge_inside"`
	RSSI        *int   `json:"rssi,omitempty"`
}

// liveState builds the live view for a device ID, or nil if the device is
// not currently managed (known from the registry but silent since startup).
func (s *Server) liveState(id string) *LiveState {
	dev, ok := s.manager.Device(id)
	if !ok {
		return nil
	}
	cover, ok := s.manager.Cover(id)
	if !ok {
		return nil
	}

	status := dev.Status()
	code := status.StateCode()

	live := &LiveState{
		Available:   cover.Available(),
		StateCode:   int(code),
		State:       code.String(),
		Moving:      cover.IsMoving(),
		Opening:     cover.IsOpening(),
		Closing:     cover.IsClosing(),
		Closed:      cover.IsClosed(),
		RidgeFixed:  status.RidgeFixed(),
		RidgeInside: status.RidgeInside(),
		RSSI:        status.RSSI(),
	}
	if pos, ok := cover.Position(); ok {
		live.Position = &pos
	}
	return live
}

// handleListDevices returns all known devices with their live state.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	views := make([]DeviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, DeviceView{Device: d, Live: s.liveState(d.ID)})
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, DeviceView{Device: *dev, Live: s.liveState(id)})
}

// handleDeleteDevice removes a device from the registry.
//
// The device is only forgotten, not deprovisioned: if it announces itself
// on the broker again it will be re-discovered.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

// handleDeviceStats returns registry statistics.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   stats.TotalDevices,
		"online":  stats.Online,
		"offline": stats.Offline,
		"managed": len(s.manager.DeviceIDs()),
	})
}

// managedCover resolves a device ID to its cover, writing a 404 when the
// device has not announced itself on the broker this session.
func (s *Server) managedCover(w http.ResponseWriter, id string) (*smarwi.Cover, bool) {
	cover, ok := s.manager.Cover(id)
	if !ok {
		writeNotFound(w, "device is not currently managed")
		return nil, false
	}
	return cover, true
}
