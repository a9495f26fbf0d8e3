// Package property manages organization-defined profile fields and their per-user values.
package property

import (
	"context"
	stderrors "errors"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/apperr"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository"
)

const dateLayout = "2006-01-02"

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

type Service struct {
	store   repository.Store
	session authz.SessionProvider
	logger  zerolog.Logger
}

func NewService(store repository.Store, session authz.SessionProvider, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		session: session,
		logger:  logger.With().Str("component", "property_service").Logger(),
	}
}

type CreateFieldInput struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     models.FieldType `json:"type"`
	Options  []string         `json:"options"`
	Required bool             `json:"required"`
}

// Value is a stored value keyed by its field key.
type Value struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func (s *Service) ListFields(ctx context.Context, orgID string) ([]models.PropertyField, error) {
	if _, err := s.requireMember(ctx, orgID); err != nil {
		return nil, err
	}
	fields, err := s.store.Properties().ListFields(ctx, orgID)
	if err != nil {
		return nil, s.internal(err, "list fields")
	}
	return fields, nil
}

func (s *Service) CreateField(ctx context.Context, orgID string, in CreateFieldInput) (models.PropertyField, error) {
	if err := s.requirePermission(ctx, orgID, models.PermissionManageProperties); err != nil {
		return models.PropertyField{}, err
	}

	field := models.PropertyField{
		OrganizationID: orgID,
		Key:            strings.TrimSpace(in.Key),
		Label:          strings.TrimSpace(in.Label),
		Type:           in.Type,
		Required:       in.Required,
	}
	if !keyPattern.MatchString(field.Key) {
		return models.PropertyField{}, apperr.New(apperr.KindInvalidInput, "key must start with a letter and contain only a-z, 0-9 and _")
	}
	if field.Label == "" {
		return models.PropertyField{}, apperr.New(apperr.KindInvalidInput, "label is required")
	}
	if !field.Type.IsValid() {
		return models.PropertyField{}, apperr.Newf(apperr.KindInvalidInput, "unsupported field type %q", in.Type)
	}
	if field.Type == models.FieldTypeSelect {
		for _, opt := range in.Options {
			if opt = strings.TrimSpace(opt); opt != "" && !slices.Contains(field.Options, opt) {
				field.Options = append(field.Options, opt)
			}
		}
		if len(field.Options) == 0 {
			return models.PropertyField{}, apperr.New(apperr.KindInvalidInput, "select fields need at least one option")
		}
	}

	created, err := s.store.Properties().CreateField(ctx, field)
	switch {
	case stderrors.Is(err, repository.ErrDuplicate):
		return models.PropertyField{}, apperr.Newf(apperr.KindConflict, "a field with key %q already exists", field.Key)
	case stderrors.Is(err, repository.ErrNotFound):
		return models.PropertyField{}, apperr.New(apperr.KindNotFound, "organization not found")
	case err != nil:
		return models.PropertyField{}, s.internal(err, "create field")
	}
	return created, nil
}

func (s *Service) DeleteField(ctx context.Context, orgID, fieldID string) error {
	if err := s.requirePermission(ctx, orgID, models.PermissionManageProperties); err != nil {
		return err
	}
	err := s.store.Properties().DeleteField(ctx, orgID, fieldID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "field not found")
	}
	if err != nil {
		return s.internal(err, "delete field")
	}
	return nil
}

// GetValues returns the user's values for the organization's fields, ordered by key.
func (s *Service) GetValues(ctx context.Context, orgID, userID string) ([]Value, error) {
	if _, err := s.requireMember(ctx, orgID); err != nil {
		return nil, err
	}
	if err := s.requireTargetMember(ctx, orgID, userID); err != nil {
		return nil, err
	}
	return s.values(ctx, s.store, orgID, userID)
}

// SetValues writes values by field key. An empty value clears an optional field.
func (s *Service) SetValues(ctx context.Context, orgID, userID string, values map[string]string) ([]Value, error) {
	caller, err := s.requireMember(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if caller.UserID != userID {
		if err := s.requirePermission(ctx, orgID, models.PermissionManageProperties); err != nil {
			return nil, err
		}
	}
	if err := s.requireTargetMember(ctx, orgID, userID); err != nil {
		return nil, err
	}

	var result []Value
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		fields, err := tx.Properties().ListFields(ctx, orgID)
		if err != nil {
			return err
		}
		byKey := make(map[string]models.PropertyField, len(fields))
		for _, f := range fields {
			byKey[f.Key] = f
		}

		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			field, ok := byKey[key]
			if !ok {
				return apperr.Newf(apperr.KindInvalidInput, "unknown field %q", key)
			}
			value := strings.TrimSpace(values[key])
			if value == "" {
				if field.Required {
					return apperr.Newf(apperr.KindInvalidInput, "field %q is required", key)
				}
				if err := tx.Properties().DeleteValue(ctx, field.ID, userID); err != nil {
					return err
				}
				continue
			}
			normalized, err := Validate(field, value)
			if err != nil {
				return err
			}
			if err := tx.Properties().UpsertValue(ctx, field.ID, userID, normalized); err != nil {
				return err
			}
		}

		result, err = s.values(ctx, tx, orgID, userID)
		return err
	})
	if err != nil {
		return nil, s.internal(err, "set values")
	}
	return result, nil
}

// Validate checks value against the field type and returns its canonical form.
func Validate(field models.PropertyField, value string) (string, error) {
	switch field.Type {
	case models.FieldTypeText:
		return value, nil
	case models.FieldTypeNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return "", apperr.Newf(apperr.KindInvalidInput, "field %q must be a number", field.Key)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case models.FieldTypeDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return "", apperr.Newf(apperr.KindInvalidInput, "field %q must be a date (YYYY-MM-DD)", field.Key)
		}
		return value, nil
	case models.FieldTypeBoolean:
		if value != "true" && value != "false" {
			return "", apperr.Newf(apperr.KindInvalidInput, "field %q must be true or false", field.Key)
		}
		return value, nil
	case models.FieldTypeSelect:
		if !slices.Contains(field.Options, value) {
			return "", apperr.Newf(apperr.KindInvalidInput, "field %q must be one of: %s", field.Key, strings.Join(field.Options, ", "))
		}
		return value, nil
	}
	return "", apperr.Newf(apperr.KindInvalidInput, "unsupported field type %q", field.Type)
}

func (s *Service) values(ctx context.Context, store repository.Store, orgID, userID string) ([]Value, error) {
	fields, err := store.Properties().ListFields(ctx, orgID)
	if err != nil {
		return nil, s.internal(err, "list fields")
	}
	stored, err := store.Properties().GetValues(ctx, orgID, userID)
	if err != nil {
		return nil, s.internal(err, "get values")
	}
	byField := make(map[string]string, len(stored))
	for _, v := range stored {
		byField[v.FieldID] = v.Value
	}

	out := []Value{}
	for _, f := range fields {
		if v, ok := byField[f.ID]; ok {
			out = append(out, Value{Key: f.Key, Label: f.Label, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Service) requireMember(ctx context.Context, orgID string) (authz.Identity, error) {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return authz.Identity{}, apperr.New(apperr.KindUnauthenticated, "you must be signed in")
	}
	if _, err := authz.RequireMember(ctx, s.store.Memberships(), caller.UserID, orgID); err != nil {
		return authz.Identity{}, err
	}
	return caller, nil
}

func (s *Service) requirePermission(ctx context.Context, orgID string, perm models.Permission) error {
	caller, ok := s.session.Current(ctx)
	if !ok {
		return apperr.New(apperr.KindUnauthenticated, "you must be signed in")
	}
	_, err := authz.RequirePermission(ctx, s.store.Memberships(), caller.UserID, orgID, perm)
	return err
}

func (s *Service) requireTargetMember(ctx context.Context, orgID, userID string) error {
	roles, err := s.store.Memberships().RolesFor(ctx, userID, orgID)
	if err != nil {
		return s.internal(err, "load member roles")
	}
	if len(roles) == 0 {
		return apperr.New(apperr.KindNotFound, "member not found")
	}
	return nil
}

func (s *Service) internal(err error, op string) error {
	var appErr *apperr.Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error().Err(err).Str("op", op).Msg("property operation failed")
	return apperr.Internal(errors.Wrap(err, op), "failed to update properties")
}
