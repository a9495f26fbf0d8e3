package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stretchr/testify/require"
)

type staticRoles map[string][]models.Role

func (s staticRoles) RolesFor(_ context.Context, userID, orgID string) ([]models.Role, error) {
	return s[userID+"/"+orgID], nil
}

func rolesByName(names ...string) []models.Role {
	var out []models.Role
	for _, role := range models.DefaultRoles() {
		for _, name := range names {
			if role.Name == name {
				out = append(out, role)
			}
		}
	}
	return out
}

func TestRequirePermission(t *testing.T) {
	lookup := staticRoles{
		"admin/org":  rolesByName(models.RoleAdministrator),
		"helper/org": rolesByName(models.RoleHelper),
	}
	ctx := context.Background()

	roles, err := RequirePermission(ctx, lookup, "admin", "org", models.PermissionInviteUsers)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	_, err = RequirePermission(ctx, lookup, "helper", "org", models.PermissionInviteUsers)
	require.True(t, apperr.Is(err, apperr.KindForbidden))
	require.Contains(t, err.Error(), models.RoleHelper)

	_, err = RequirePermission(ctx, lookup, "stranger", "org", models.PermissionInviteUsers)
	require.True(t, apperr.Is(err, apperr.KindForbidden))
	require.Contains(t, err.Error(), "none")
}

func TestMemberOnly(t *testing.T) {
	lookup := staticRoles{"helper/org": rolesByName(models.RoleHelper)}

	router := mux.NewRouter()
	router.Handle("/orgs/{orgID}", MemberOnly(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	call := func(id *Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/orgs/org", nil)
		if id != nil {
			req = req.WithContext(WithIdentity(req.Context(), *id))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusUnauthorized, call(nil))
	require.Equal(t, http.StatusForbidden, call(&Identity{UserID: "stranger", Email: "s@example.com"}))
	require.Equal(t, http.StatusNoContent, call(&Identity{UserID: "helper", Email: "h@example.com"}))
}

func TestContextSession(t *testing.T) {
	_, ok := ContextSession{}.Current(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Email: "ada@example.com"})
	id, ok := ContextSession{}.Current(ctx)
	require.True(t, ok)
	require.Equal(t, "ada@example.com", id.Email)
}
