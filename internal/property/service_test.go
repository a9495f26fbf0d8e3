package property

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *memory.Store
	svc    *Service
	org    models.Organization
	admin  models.User
	helper models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.NewStore()}
	f.svc = NewService(f.store, authz.ContextSession{}, zerolog.Nop())

	var err error
	f.org, err = f.store.Organizations().CreateOrganization(ctx, "Org", "org")
	require.NoError(t, err)

	for _, u := range []struct {
		dst    *models.User
		email  string
		roleID string
	}{
		{&f.admin, "admin@example.com", models.RoleAdministratorID},
		{&f.helper, "helper@example.com", models.RoleHelperID},
	} {
		*u.dst, err = f.store.Users().CreateUser(ctx, models.User{Email: u.email, FirstName: "A", LastName: "B", PasswordHash: "x"})
		require.NoError(t, err)
		_, err = f.store.Memberships().Grant(ctx, u.dst.ID, f.org.ID, u.roleID)
		require.NoError(t, err)
	}
	return f
}

func as(user models.User) context.Context {
	return authz.WithIdentity(context.Background(), authz.Identity{UserID: user.ID, Email: user.Email})
}

func (f *fixture) seedFields(t *testing.T) {
	t.Helper()
	inputs := []CreateFieldInput{
		{Key: "shirt_size", Label: "Shirt size", Type: models.FieldTypeSelect, Options: []string{"S", "M", " M ", "L"}},
		{Key: "birthday", Label: "Birthday", Type: models.FieldTypeDate},
		{Key: "height", Label: "Height", Type: models.FieldTypeNumber},
		{Key: "driver", Label: "Driver licence", Type: models.FieldTypeBoolean, Required: true},
	}
	for _, in := range inputs {
		_, err := f.svc.CreateField(as(f.admin), f.org.ID, in)
		require.NoError(t, err)
	}
}

func fieldByKey(t *testing.T, fields []models.PropertyField, key string) models.PropertyField {
	t.Helper()
	for _, f := range fields {
		if f.Key == key {
			return f
		}
	}
	require.FailNow(t, "field not found", key)
	return models.PropertyField{}
}

func TestCreateField(t *testing.T) {
	f := newFixture(t)
	f.seedFields(t)

	fields, err := f.svc.ListFields(as(f.helper), f.org.ID)
	require.NoError(t, err)
	require.Len(t, fields, 4)
	require.Equal(t, []string{"S", "M", "L"}, fieldByKey(t, fields, "shirt_size").Options)

	cases := []struct {
		name string
		in   CreateFieldInput
		kind apperr.Kind
	}{
		{"bad key", CreateFieldInput{Key: "1abc", Label: "x", Type: models.FieldTypeText}, apperr.KindInvalidInput},
		{"upper key", CreateFieldInput{Key: "Abc", Label: "x", Type: models.FieldTypeText}, apperr.KindInvalidInput},
		{"no label", CreateFieldInput{Key: "abc", Type: models.FieldTypeText}, apperr.KindInvalidInput},
		{"bad type", CreateFieldInput{Key: "abc", Label: "x", Type: "color"}, apperr.KindInvalidInput},
		{"select without options", CreateFieldInput{Key: "abc", Label: "x", Type: models.FieldTypeSelect}, apperr.KindInvalidInput},
		{"duplicate key", CreateFieldInput{Key: "height", Label: "x", Type: models.FieldTypeText}, apperr.KindConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateField(as(f.admin), f.org.ID, tc.in)
			require.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}

	_, err = f.svc.CreateField(as(f.helper), f.org.ID, CreateFieldInput{Key: "abc", Label: "x", Type: models.FieldTypeText})
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestSetValues(t *testing.T) {
	f := newFixture(t)
	f.seedFields(t)

	values, err := f.svc.SetValues(as(f.helper), f.org.ID, f.helper.ID, map[string]string{
		"shirt_size": "M",
		"birthday":   "1990-04-01",
		"height":     "1.80",
		"driver":     "true",
	})
	require.NoError(t, err)
	require.Equal(t, []Value{
		{Key: "birthday", Label: "Birthday", Value: "1990-04-01"},
		{Key: "driver", Label: "Driver licence", Value: "true"},
		{Key: "height", Label: "Height", Value: "1.8"},
		{Key: "shirt_size", Label: "Shirt size", Value: "M"},
	}, values)

	t.Run("empty optional value clears it", func(t *testing.T) {
		values, err := f.svc.SetValues(as(f.helper), f.org.ID, f.helper.ID, map[string]string{"height": ""})
		require.NoError(t, err)
		require.Len(t, values, 3)
	})

	t.Run("invalid values leave the stored ones untouched", func(t *testing.T) {
		for _, bad := range []map[string]string{
			{"driver": ""},
			{"driver": "yes"},
			{"birthday": "01.04.1990"},
			{"height": "tall"},
			{"height": "NaN"},
			{"height": "+Inf"},
			{"height": "1e400"},
			{"shirt_size": "XXL"},
			{"unknown": "x"},
			{"shirt_size": "L", "unknown": "x"},
		} {
			_, err := f.svc.SetValues(as(f.helper), f.org.ID, f.helper.ID, bad)
			require.True(t, apperr.Is(err, apperr.KindInvalidInput), "%v", bad)
		}
		values, err := f.svc.GetValues(as(f.admin), f.org.ID, f.helper.ID)
		require.NoError(t, err)
		require.Equal(t, "M", values[len(values)-1].Value)
	})

	t.Run("editing someone else needs properties:manage", func(t *testing.T) {
		_, err := f.svc.SetValues(as(f.helper), f.org.ID, f.admin.ID, map[string]string{"driver": "false"})
		require.True(t, apperr.Is(err, apperr.KindForbidden))

		_, err = f.svc.SetValues(as(f.admin), f.org.ID, f.helper.ID, map[string]string{"driver": "false"})
		require.NoError(t, err)
	})

	t.Run("target must be a member", func(t *testing.T) {
		_, err := f.svc.GetValues(as(f.admin), f.org.ID, "missing")
		require.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestDeleteField(t *testing.T) {
	f := newFixture(t)
	f.seedFields(t)

	fields, err := f.svc.ListFields(as(f.admin), f.org.ID)
	require.NoError(t, err)
	_, err = f.svc.SetValues(as(f.helper), f.org.ID, f.helper.ID, map[string]string{"shirt_size": "S", "driver": "true"})
	require.NoError(t, err)

	shirt := fieldByKey(t, fields, "shirt_size")
	require.NoError(t, f.svc.DeleteField(as(f.admin), f.org.ID, shirt.ID))
	err = f.svc.DeleteField(as(f.admin), f.org.ID, shirt.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	values, err := f.svc.GetValues(as(f.helper), f.org.ID, f.helper.ID)
	require.NoError(t, err)
	require.Equal(t, []Value{{Key: "driver", Label: "Driver licence", Value: "true"}}, values)
}

func TestValidateNumberIsFinite(t *testing.T) {
	field := models.PropertyField{Key: "height", Type: models.FieldTypeNumber}
	for _, raw := range []string{"NaN", "nan", "Inf", "-Infinity", "1e309"} {
		_, err := Validate(field, raw)
		require.True(t, apperr.Is(err, apperr.KindInvalidInput), raw)
	}
	got, err := Validate(field, "2.50")
	require.NoError(t, err)
	require.Equal(t, "2.5", got)
}
