package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/models"
)

// RoleLookup returns the roles a user holds in an organization.
type RoleLookup interface {
	RolesFor(ctx context.Context, userID, orgID string) ([]models.Role, error)
}

// RequirePermission checks that userID holds perm in orgID and returns the
// caller's roles there.
func RequirePermission(ctx context.Context, lookup RoleLookup, userID, orgID string, perm models.Permission) ([]models.Role, error) {
	roles, err := lookup.RolesFor(ctx, userID, orgID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load roles")
	}
	if !models.HasPermission(roles, perm) {
		names := models.RoleNames(roles)
		current := "none"
		if len(names) > 0 {
			current = strings.Join(names, ", ")
		}
		return nil, apperr.Newf(apperr.KindForbidden, "missing permission %s (current roles: %s)", perm, current)
	}
	return roles, nil
}

// RequireMember checks that userID holds any role in orgID.
func RequireMember(ctx context.Context, lookup RoleLookup, userID, orgID string) ([]models.Role, error) {
	roles, err := lookup.RolesFor(ctx, userID, orgID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load roles")
	}
	if len(roles) == 0 {
		return nil, apperr.New(apperr.KindForbidden, "not a member of this organization")
	}
	return roles, nil
}

// MemberOnly returns a middleware that rejects callers without a role in the
// organization named by the route's orgID variable.
func MemberOnly(lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromRequest(r)
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			orgID := mux.Vars(r)["orgID"]
			if _, err := RequireMember(r.Context(), lookup, id.UserID, orgID); err != nil {
				http.Error(w, apperr.Message(err), apperr.HTTPStatus(apperr.KindOf(err)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

