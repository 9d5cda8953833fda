package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dstepanov-dev/medslot/internal/gorzdrav"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

// DirectoryService serves provider reference data for browsing.
type DirectoryService interface {
	Districts(ctx context.Context) ([]gorzdrav.District, error)
	Facilities(ctx context.Context) ([]gorzdrav.Facility, error)
	FacilitiesByDistrict(ctx context.Context, districtID int) ([]gorzdrav.Facility, error)
	Specialties(ctx context.Context, lpuID int) ([]gorzdrav.Specialty, error)
}

// DirectoryHandler exposes the reference-data directory over HTTP, for
// operators and front-ends building booking requests.
type DirectoryHandler struct {
	svc    DirectoryService
	logger *logging.Logger
}

// NewDirectoryHandler creates a directory handler.
func NewDirectoryHandler(svc DirectoryService, logger *logging.Logger) *DirectoryHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectoryHandler{svc: svc, logger: logger}
}

// Districts handles GET /api/v1/districts.
func (h *DirectoryHandler) Districts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.svc.Districts(r.Context())
	if err != nil {
		h.logger.Error("directory handler: list districts failed", "error", err)
		writeError(w, http.StatusBadGateway, "provider unavailable")
		return
	}
	writeJSON(w, http.StatusOK, districts)
}

// Facilities handles GET /api/v1/facilities, optionally filtered with
// ?district=<id>.
func (h *DirectoryHandler) Facilities(w http.ResponseWriter, r *http.Request) {
	var (
		facilities []gorzdrav.Facility
		err        error
	)
	if raw := r.URL.Query().Get("district"); raw != "" {
		districtID, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid district id")
			return
		}
		facilities, err = h.svc.FacilitiesByDistrict(r.Context(), districtID)
	} else {
		facilities, err = h.svc.Facilities(r.Context())
	}
	if err != nil {
		h.logger.Error("directory handler: list facilities failed", "error", err)
		writeError(w, http.StatusBadGateway, "provider unavailable")
		return
	}
	writeJSON(w, http.StatusOK, facilities)
}

// Specialties handles GET /api/v1/facilities/{lpuID}/specialties.
func (h *DirectoryHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	lpuID, err := strconv.Atoi(chi.URLParam(r, "lpuID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}
	specialties, err := h.svc.Specialties(r.Context(), lpuID)
	if err != nil {
		h.logger.Error("directory handler: list specialties failed",
			"lpu_id", lpuID, "error", err)
		writeError(w, http.StatusBadGateway, "provider unavailable")
		return
	}
	writeJSON(w, http.StatusOK, specialties)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
