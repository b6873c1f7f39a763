package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/availwatch/internal/registry"
)

// removeRequest is the body of a bulk removal call. Either list may be
// empty, but not both.
type removeRequest struct {
	EntityIDs []string `json:"entity_ids"`
	DeviceIDs []string `json:"device_ids"`
}

// handleListEntities returns all registered entities.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.registry.ListEntities(r.Context())
	if err != nil {
		s.logger.Error("failed to list entities", "error", err)
		writeInternalError(w, "failed to list entities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities": entities,
		"count":    len(entities),
	})
}

// handleListDevices returns all registered devices.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		s.logger.Error("failed to list devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetEntity returns a single entity by id.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := s.registry.GetEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

// handleGetDevice returns a single device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.registry.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// handleRemoveItems deletes the requested entities and devices from the
// registry, drops their tracked states, and triggers an immediate
// re-evaluation so the published report reflects the removal.
//
// Removal is idempotent: ids that no longer exist are skipped, not
// errors. Removing a device does not remove its entities; orphaned
// entities are reported as standalone from the next cycle onward.
func (s *Server) handleRemoveItems(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.EntityIDs) == 0 && len(req.DeviceIDs) == 0 {
		writeBadRequest(w, "at least one entity_id or device_id is required")
		return
	}

	result, err := s.registry.RemoveItems(r.Context(), req.EntityIDs, req.DeviceIDs)
	if err != nil {
		// Partial progress may have been made; report what succeeded
		// alongside the failure.
		s.logger.Error("bulk removal failed",
			"error", err,
			"entities_removed", result.EntitiesRemoved,
			"devices_removed", result.DevicesRemoved,
			"subject", r.Context().Value(ctxKeySubject),
		)
		writeInternalError(w, "removal failed")
		return
	}

	s.states.Remove(req.EntityIDs...)
	s.reports.Refresh()

	s.logger.Info("registry items removed",
		"entities_removed", result.EntitiesRemoved,
		"devices_removed", result.DevicesRemoved,
		"subject", r.Context().Value(ctxKeySubject),
	)

	writeJSON(w, http.StatusOK, result)
}

// writeRegistryError maps registry sentinel errors to a 404, falling
// back to a 500 for anything else.
func writeRegistryError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrEntityNotFound) || errors.Is(err, registry.ErrDeviceNotFound) {
		writeNotFound(w, err.Error())
		return
	}
	writeInternalError(w, "registry error")
}
