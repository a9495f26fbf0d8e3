package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/handlers"
	"github.com/stanstork/stratum-orgs/internal/middleware"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Invites       *handlers.InviteHandler
	Organizations *handlers.OrganizationHandler
	Properties    *handlers.PropertyHandler
	Notifications *handlers.NotificationHandler
	Health        http.HandlerFunc
}

// NewRouter sets up the API routes. Token endpoints that work without a session
// are rate limited; everything else requires a bearer token.
func NewRouter(h Handlers, limiter *middleware.RateLimiter, members authz.RoleLookup) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Public endpoints
	public := api.NewRoute().Subrouter()
	public.Use(limiter.Handler)
	public.HandleFunc("/signup", h.Auth.SignUp).Methods(http.MethodPost)
	public.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	public.HandleFunc("/invitations/{token}", h.Invites.Verify).Methods(http.MethodGet)
	public.HandleFunc("/invitations/{token}/register", h.Invites.Register).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(h.Auth.JWTMiddleware)

	protected.HandleFunc("/invitations/{token}/accept", h.Invites.Accept).Methods(http.MethodPost)
	protected.HandleFunc("/roles", h.Organizations.ListRoles).Methods(http.MethodGet)

	protected.HandleFunc("/me", h.Organizations.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/me", h.Organizations.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/me/active-organization", h.Organizations.SetActiveOrganization).Methods(http.MethodPut)
	protected.HandleFunc("/me/invitations", h.Invites.ListMine).Methods(http.MethodGet)

	protected.HandleFunc("/organizations", h.Organizations.Create).Methods(http.MethodPost)
	protected.HandleFunc("/organizations/{orgID}", h.Organizations.Get).Methods(http.MethodGet)
	protected.HandleFunc("/organizations/{orgID}", h.Organizations.Update).Methods(http.MethodPut)
	protected.HandleFunc("/organizations/{orgID}/members", h.Organizations.ListMembers).Methods(http.MethodGet)
	protected.HandleFunc("/organizations/{orgID}/members/{userID}", h.Organizations.UpdateMemberRoles).Methods(http.MethodPut)
	protected.HandleFunc("/organizations/{orgID}/members/{userID}", h.Organizations.RemoveMember).Methods(http.MethodDelete)
	protected.HandleFunc("/organizations/{orgID}/members/{userID}/properties", h.Properties.GetValues).Methods(http.MethodGet)
	protected.HandleFunc("/organizations/{orgID}/members/{userID}/properties", h.Properties.SetValues).Methods(http.MethodPut)

	protected.HandleFunc("/organizations/{orgID}/invitations", h.Invites.List).Methods(http.MethodGet)
	protected.HandleFunc("/organizations/{orgID}/invitations", h.Invites.Create).Methods(http.MethodPost)
	protected.HandleFunc("/organizations/{orgID}/invitations/{invitationID}", h.Invites.Revoke).Methods(http.MethodDelete)
	protected.HandleFunc("/organizations/{orgID}/invitations/{invitationID}/resend", h.Invites.Resend).Methods(http.MethodPost)

	protected.HandleFunc("/organizations/{orgID}/properties", h.Properties.ListFields).Methods(http.MethodGet)
	protected.HandleFunc("/organizations/{orgID}/properties", h.Properties.CreateField).Methods(http.MethodPost)
	protected.HandleFunc("/organizations/{orgID}/properties/{fieldID}", h.Properties.DeleteField).Methods(http.MethodDelete)

	// Notification routes are member-only
	notifications := protected.PathPrefix("/organizations/{orgID}/notifications").Subrouter()
	notifications.Use(authz.MemberOnly(members))
	notifications.HandleFunc("", h.Notifications.List).Methods(http.MethodGet)
	notifications.HandleFunc("/{notificationID}/read", h.Notifications.MarkRead).Methods(http.MethodPost)

	return router
}
