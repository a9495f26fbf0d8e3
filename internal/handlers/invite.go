package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/invitation"
)

type InviteHandler struct {
	service *invitation.Service
	logger  zerolog.Logger
}

type inviteRequest struct {
	Email   string   `json:"email"`
	RoleIDs []string `json:"role_ids"`
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func NewInviteHandler(service *invitation.Service, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		service: service,
		logger:  logger.With().Str("handler", "invite").Logger(),
	}
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	summary, err := h.service.CreateInvitation(r.Context(), req.Email, pathVar(r, "orgID"), req.RoleIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListInvitations(r.Context(), pathVar(r, "orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": summaries})
}

func (h *InviteHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListInvitationsForEmail(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": summaries})
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RevokeInvitation(r.Context(), pathVar(r, "orgID"), pathVar(r, "invitationID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InviteHandler) Resend(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ResendInvitation(r.Context(), pathVar(r, "orgID"), pathVar(r, "invitationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Verify is public: the token is the only credential.
func (h *InviteHandler) Verify(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.VerifyInvitation(r.Context(), pathVar(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AcceptInvitation(r.Context(), pathVar(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InviteHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.service.CreateAccountFromInvitation(r.Context(), pathVar(r, "token"), req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
