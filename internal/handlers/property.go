package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/property"
)

type PropertyHandler struct {
	service *property.Service
	logger  zerolog.Logger
}

type setValuesRequest struct {
	Values map[string]string `json:"values"`
}

func NewPropertyHandler(service *property.Service, logger zerolog.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		logger:  logger.With().Str("handler", "property").Logger(),
	}
}

func (h *PropertyHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.service.ListFields(r.Context(), pathVar(r, "orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fields": fields})
}

func (h *PropertyHandler) CreateField(w http.ResponseWriter, r *http.Request) {
	var req property.CreateFieldInput
	if !decodeJSON(w, r, &req) {
		return
	}
	field, err := h.service.CreateField(r.Context(), pathVar(r, "orgID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

func (h *PropertyHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteField(r.Context(), pathVar(r, "orgID"), pathVar(r, "fieldID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) GetValues(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.GetValues(r.Context(), pathVar(r, "orgID"), pathVar(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"values": values})
}

func (h *PropertyHandler) SetValues(w http.ResponseWriter, r *http.Request) {
	var req setValuesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	values, err := h.service.SetValues(r.Context(), pathVar(r, "orgID"), pathVar(r, "userID"), req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"values": values})
}
