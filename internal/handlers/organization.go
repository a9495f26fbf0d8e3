package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/organization"
)

// OrganizationHandler serves organizations, their members and the caller's profile.
type OrganizationHandler struct {
	service *organization.Service
	logger  zerolog.Logger
}

type organizationRequest struct {
	Name            string  `json:"name"`
	HelperRoleLabel *string `json:"helper_role_label"`
}

type memberRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type activeOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

func NewOrganizationHandler(service *organization.Service, logger zerolog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
		logger:  logger.With().Str("handler", "organization").Logger(),
	}
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetOrganization(r.Context(), pathVar(r, "orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	org, err := h.service.UpdateOrganization(r.Context(), pathVar(r, "orgID"), req.Name, req.HelperRoleLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), pathVar(r, "orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *OrganizationHandler) UpdateMemberRoles(w http.ResponseWriter, r *http.Request) {
	var req memberRolesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	roles, err := h.service.UpdateMemberRoles(r.Context(), pathVar(r, "orgID"), pathVar(r, "userID"), req.RoleIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveMember(r.Context(), pathVar(r, "orgID"), pathVar(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrganizationHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (h *OrganizationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *OrganizationHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), req.FirstName, req.LastName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *OrganizationHandler) SetActiveOrganization(w http.ResponseWriter, r *http.Request) {
	var req activeOrganizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.service.SetActiveOrganization(r.Context(), req.OrganizationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
