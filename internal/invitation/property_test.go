package invitation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/models"
)

var roleIDPool = []string{
	models.RoleAdministratorID,
	models.RoleOperationsManagerID,
	models.RoleHelperID,
}

// genRoleIDs yields non-empty role id lists, duplicates included.
func genRoleIDs() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(roleIDPool)-1)).
		SuchThat(func(idx []int) bool { return len(idx) > 0 }).
		Map(func(idx []int) []string {
			ids := make([]string, len(idx))
			for i, n := range idx {
				ids[i] = roleIDPool[n]
			}
			return ids
		})
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())
	return parameters
}

func TestIssueAndAcceptGrantEveryRole(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("one batch per issue and one grant per distinct role on accept", prop.ForAll(
		func(roleIDs []string) bool {
			f := newFixture(t)
			bob := f.createUser("bob@example.com", "Bob", "B")
			want := len(models.UniqueIDs(roleIDs))

			_, err := f.svc.CreateInvitation(f.as(f.admin), "bob@example.com", f.org.ID, roleIDs)
			if err != nil {
				t.Logf("create: %v", err)
				return false
			}
			pending := f.pending()
			if len(pending) != 1 || len(pending[0].RoleIDs) != want || pending[0].Email != "bob@example.com" {
				return false
			}

			if _, err := f.svc.AcceptInvitation(f.as(bob), f.mailer.last(t).token); err != nil {
				t.Logf("accept: %v", err)
				return false
			}
			roles, err := f.store.Memberships().RolesFor(context.Background(), bob.ID, f.org.ID)
			return err == nil && len(roles) == want && len(f.pending()) == 0
		},
		genRoleIDs(),
	))

	properties.TestingRun(t)
}

func TestFailedDeliveryLeavesNothing(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("no invitation survives a failed send", prop.ForAll(
		func(roleIDs []string) bool {
			f := newFixture(t)
			f.mailer.fail(errors.New("smtp down"))

			_, err := f.svc.CreateInvitation(f.as(f.admin), "bob@example.com", f.org.ID, roleIDs)
			return apperr.Is(err, apperr.KindDeliveryFailed) && len(f.pending()) == 0
		},
		genRoleIDs(),
	))

	properties.TestingRun(t)
}

func TestEmailMismatchNeverGrants(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("a different session email gets EmailMismatch and no roles", prop.ForAll(
		func(roleIDs []string, local string) bool {
			f := newFixture(t)
			other := f.createUser(local+"@other.example.com", "Other", "O")

			if _, err := f.svc.CreateInvitation(f.as(f.admin), "bob@example.com", f.org.ID, roleIDs); err != nil {
				return false
			}
			_, err := f.svc.AcceptInvitation(f.as(other), f.mailer.last(t).token)
			if !apperr.Is(err, apperr.KindEmailMismatch) {
				return false
			}
			roles, err := f.store.Memberships().RolesFor(context.Background(), other.ID, f.org.ID)
			return err == nil && len(roles) == 0 && len(f.pending()) == 1
		},
		genRoleIDs(),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t)
}
