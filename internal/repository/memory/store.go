// Package memory provides an in-process repository.Store for tests and local runs.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository"
)

type grantKey struct {
	userID string
	orgID  string
	roleID string
}

type valueKey struct {
	fieldID string
	userID  string
}

type state struct {
	users         map[string]models.User
	orgs          map[string]models.Organization
	roles         map[string]models.Role
	grants        map[grantKey]struct{}
	invitations   map[string]models.Invitation
	fields        map[string]models.PropertyField
	values        map[valueKey]models.PropertyValue
	notifications []models.Notification
}

func (st *state) clone() *state {
	c := &state{
		users:         make(map[string]models.User, len(st.users)),
		orgs:          make(map[string]models.Organization, len(st.orgs)),
		roles:         make(map[string]models.Role, len(st.roles)),
		grants:        make(map[grantKey]struct{}, len(st.grants)),
		invitations:   make(map[string]models.Invitation, len(st.invitations)),
		fields:        make(map[string]models.PropertyField, len(st.fields)),
		values:        make(map[valueKey]models.PropertyValue, len(st.values)),
		notifications: append([]models.Notification(nil), st.notifications...),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.orgs {
		c.orgs[k] = v
	}
	for k, v := range st.roles {
		c.roles[k] = copyRole(v)
	}
	for k := range st.grants {
		c.grants[k] = struct{}{}
	}
	for k, v := range st.invitations {
		c.invitations[k] = copyInvitation(v)
	}
	for k, v := range st.fields {
		c.fields[k] = copyField(v)
	}
	for k, v := range st.values {
		c.values[k] = v
	}
	return c
}

type shared struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *state
}

// handle is what the repositories lock through. Outside a transaction every
// call also takes txMu, so it waits for any running transaction to finish.
type handle struct {
	*shared
	inTx bool
}

func (h *handle) lock() {
	if !h.inTx {
		h.txMu.Lock()
	}
	h.mu.Lock()
}

func (h *handle) unlock() {
	h.mu.Unlock()
	if !h.inTx {
		h.txMu.Unlock()
	}
}

// Store keeps every table in maps behind a mutex. Transactions hold the store
// exclusively and roll back by restoring the snapshot taken when they began.
type Store struct {
	shared *shared
	inTx   bool
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store seeded with the default roles.
func NewStore() *Store {
	st := &state{
		users:       map[string]models.User{},
		orgs:        map[string]models.Organization{},
		roles:       map[string]models.Role{},
		grants:      map[grantKey]struct{}{},
		invitations: map[string]models.Invitation{},
		fields:      map[string]models.PropertyField{},
		values:      map[valueKey]models.PropertyValue{},
	}
	for _, role := range models.DefaultRoles() {
		st.roles[role.ID] = role
	}
	return &Store{shared: &shared{state: st}}
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s.handle()} }
func (s *Store) Organizations() repository.OrganizationRepository { return &orgRepo{s.handle()} }
func (s *Store) Roles() repository.RoleRepository                 { return &roleRepo{s.handle()} }
func (s *Store) Memberships() repository.MembershipRepository     { return &membershipRepo{s.handle()} }
func (s *Store) Invitations() repository.InvitationRepository     { return &invitationRepo{s.handle()} }
func (s *Store) Properties() repository.PropertyRepository        { return &propertyRepo{s.handle()} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s.handle()} }

func (s *Store) handle() *handle {
	return &handle{shared: s.shared, inTx: s.inTx}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.shared.txMu.Lock()
	defer s.shared.txMu.Unlock()

	s.shared.mu.Lock()
	snapshot := s.shared.state.clone()
	s.shared.mu.Unlock()

	if err := fn(&Store{shared: s.shared, inTx: true}); err != nil {
		s.shared.mu.Lock()
		s.shared.state = snapshot
		s.shared.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func now() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func copyRole(r models.Role) models.Role {
	r.Permissions = append([]models.Permission{}, r.Permissions...)
	return r
}

func copyInvitation(inv models.Invitation) models.Invitation {
	inv.RoleIDs = append([]string{}, inv.RoleIDs...)
	return inv
}

func copyField(f models.PropertyField) models.PropertyField {
	if f.Options != nil {
		f.Options = append([]string{}, f.Options...)
	}
	return f
}

func copyString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	val := *s
	return &val
}

func sortRoles(roles []models.Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
}

// ---- users ----

type userRepo struct{ s *handle }

func (r *userRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	user.Email = models.NormalizeEmail(user.Email)
	for _, existing := range r.s.state.users {
		if existing.DeletedAt == nil && existing.Email == user.Email {
			return models.User{}, repository.ErrDuplicate
		}
	}
	if user.ActiveOrgID != nil {
		if _, ok := r.s.state.orgs[*user.ActiveOrgID]; !ok {
			return models.User{}, repository.ErrNotFound
		}
	}

	ts := now()
	user.ID = newID()
	user.FirstName = strings.TrimSpace(user.FirstName)
	user.LastName = strings.TrimSpace(user.LastName)
	user.ActiveOrgID = copyString(user.ActiveOrgID)
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = ts, ts
	user.DeletedAt = nil
	r.s.state.users[user.ID] = user
	return user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	user, ok := r.s.state.users[userID]
	if !ok || user.DeletedAt != nil {
		return models.User{}, repository.ErrNotFound
	}
	user.ActiveOrgID = copyString(user.ActiveOrgID)
	return user, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	email = models.NormalizeEmail(email)
	for _, user := range r.s.state.users {
		if user.DeletedAt == nil && user.Email == email {
			user.ActiveOrgID = copyString(user.ActiveOrgID)
			return user, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (r *userRepo) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	user, ok := r.s.state.users[userID]
	if !ok || user.DeletedAt != nil {
		return models.User{}, repository.ErrNotFound
	}
	user.FirstName = strings.TrimSpace(firstName)
	user.LastName = strings.TrimSpace(lastName)
	user.UpdatedAt = now()
	r.s.state.users[userID] = user
	user.ActiveOrgID = copyString(user.ActiveOrgID)
	return user, nil
}

func (r *userRepo) SetActiveOrganization(ctx context.Context, userID string, orgID *string) error {
	r.s.lock()
	defer r.s.unlock()

	user, ok := r.s.state.users[userID]
	if !ok || user.DeletedAt != nil {
		return repository.ErrNotFound
	}
	if orgID != nil && *orgID != "" {
		if _, ok := r.s.state.orgs[*orgID]; !ok {
			return repository.ErrNotFound
		}
	}
	user.ActiveOrgID = copyString(orgID)
	user.UpdatedAt = now()
	r.s.state.users[userID] = user
	return nil
}

func (r *userRepo) SetActiveOrganizationIfUnset(ctx context.Context, userID, orgID string) error {
	r.s.lock()
	defer r.s.unlock()

	user, ok := r.s.state.users[userID]
	if !ok || user.DeletedAt != nil || user.ActiveOrgID != nil {
		return nil
	}
	if _, ok := r.s.state.orgs[orgID]; !ok {
		return repository.ErrNotFound
	}
	user.ActiveOrgID = copyString(&orgID)
	user.UpdatedAt = now()
	r.s.state.users[userID] = user
	return nil
}

// ---- organizations ----

type orgRepo struct{ s *handle }

func (r *orgRepo) CreateOrganization(ctx context.Context, name, slug string) (models.Organization, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, existing := range r.s.state.orgs {
		if existing.Slug == slug {
			return models.Organization{}, repository.ErrDuplicate
		}
	}
	ts := now()
	org := models.Organization{
		ID:        newID(),
		Name:      strings.TrimSpace(name),
		Slug:      slug,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	r.s.state.orgs[org.ID] = org
	return org, nil
}

func (r *orgRepo) GetOrganizationByID(ctx context.Context, orgID string) (models.Organization, error) {
	r.s.lock()
	defer r.s.unlock()

	org, ok := r.s.state.orgs[orgID]
	if !ok {
		return models.Organization{}, repository.ErrNotFound
	}
	org.HelperRoleLabel = copyString(org.HelperRoleLabel)
	return org, nil
}

func (r *orgRepo) UpdateOrganization(ctx context.Context, org models.Organization) (models.Organization, error) {
	r.s.lock()
	defer r.s.unlock()

	existing, ok := r.s.state.orgs[org.ID]
	if !ok {
		return models.Organization{}, repository.ErrNotFound
	}
	existing.Name = strings.TrimSpace(org.Name)
	existing.HelperRoleLabel = copyString(org.HelperRoleLabel)
	existing.UpdatedAt = now()
	r.s.state.orgs[org.ID] = existing
	existing.HelperRoleLabel = copyString(existing.HelperRoleLabel)
	return existing, nil
}

// ---- roles ----

type roleRepo struct{ s *handle }

func (r *roleRepo) ListRoles(ctx context.Context) ([]models.Role, error) {
	r.s.lock()
	defer r.s.unlock()

	roles := make([]models.Role, 0, len(r.s.state.roles))
	for _, role := range r.s.state.roles {
		roles = append(roles, copyRole(role))
	}
	sortRoles(roles)
	return roles, nil
}

func (r *roleRepo) GetRolesByIDs(ctx context.Context, ids []string) ([]models.Role, error) {
	r.s.lock()
	defer r.s.unlock()

	roles := []models.Role{}
	for _, id := range models.UniqueIDs(ids) {
		if role, ok := r.s.state.roles[id]; ok {
			roles = append(roles, copyRole(role))
		}
	}
	sortRoles(roles)
	return roles, nil
}

// ---- memberships ----

type membershipRepo struct{ s *handle }

func (r *membershipRepo) Grant(ctx context.Context, userID, orgID, roleID string) (bool, error) {
	r.s.lock()
	defer r.s.unlock()

	if err := r.checkRefs(userID, orgID, roleID); err != nil {
		return false, err
	}
	key := grantKey{userID: userID, orgID: orgID, roleID: roleID}
	if _, ok := r.s.state.grants[key]; ok {
		return false, nil
	}
	r.s.state.grants[key] = struct{}{}
	return true, nil
}

func (r *membershipRepo) ReplaceRoles(ctx context.Context, userID, orgID string, roleIDs []string) error {
	r.s.lock()
	defer r.s.unlock()

	for _, roleID := range roleIDs {
		if err := r.checkRefs(userID, orgID, roleID); err != nil {
			return err
		}
	}
	for key := range r.s.state.grants {
		if key.userID == userID && key.orgID == orgID {
			delete(r.s.state.grants, key)
		}
	}
	for _, roleID := range roleIDs {
		r.s.state.grants[grantKey{userID: userID, orgID: orgID, roleID: roleID}] = struct{}{}
	}
	return nil
}

func (r *membershipRepo) RemoveMember(ctx context.Context, userID, orgID string) (int64, error) {
	r.s.lock()
	defer r.s.unlock()

	var removed int64
	for key := range r.s.state.grants {
		if key.userID == userID && key.orgID == orgID {
			delete(r.s.state.grants, key)
			removed++
		}
	}
	return removed, nil
}

func (r *membershipRepo) RolesFor(ctx context.Context, userID, orgID string) ([]models.Role, error) {
	r.s.lock()
	defer r.s.unlock()

	return r.rolesFor(userID, orgID), nil
}

func (r *membershipRepo) ListForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	r.s.lock()
	defer r.s.unlock()

	orgIDs := map[string]struct{}{}
	for key := range r.s.state.grants {
		if key.userID == userID {
			orgIDs[key.orgID] = struct{}{}
		}
	}

	memberships := []models.Membership{}
	for orgID := range orgIDs {
		org, ok := r.s.state.orgs[orgID]
		if !ok {
			continue
		}
		m := models.Membership{OrganizationID: org.ID, OrganizationName: org.Name, Roles: []string{}}
		for _, role := range r.rolesFor(userID, orgID) {
			m.Roles = append(m.Roles, org.RoleDisplayName(role.Name))
		}
		memberships = append(memberships, m)
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].OrganizationName < memberships[j].OrganizationName
	})
	return memberships, nil
}

func (r *membershipRepo) ListMembers(ctx context.Context, orgID string) ([]models.Member, error) {
	r.s.lock()
	defer r.s.unlock()

	userIDs := map[string]struct{}{}
	for key := range r.s.state.grants {
		if key.orgID == orgID {
			userIDs[key.userID] = struct{}{}
		}
	}

	members := []models.Member{}
	for userID := range userIDs {
		user, ok := r.s.state.users[userID]
		if !ok || user.DeletedAt != nil {
			continue
		}
		members = append(members, models.Member{
			UserID:    user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Roles:     r.rolesFor(userID, orgID),
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Email < members[j].Email })
	return members, nil
}

func (r *membershipRepo) CountWithRole(ctx context.Context, orgID, roleID string) (int, error) {
	r.s.lock()
	defer r.s.unlock()

	count := 0
	for key := range r.s.state.grants {
		if key.orgID == orgID && key.roleID == roleID {
			count++
		}
	}
	return count, nil
}

func (r *membershipRepo) rolesFor(userID, orgID string) []models.Role {
	roles := []models.Role{}
	for key := range r.s.state.grants {
		if key.userID != userID || key.orgID != orgID {
			continue
		}
		if role, ok := r.s.state.roles[key.roleID]; ok {
			roles = append(roles, copyRole(role))
		}
	}
	sortRoles(roles)
	return roles
}

func (r *membershipRepo) checkRefs(userID, orgID, roleID string) error {
	if _, ok := r.s.state.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.state.orgs[orgID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.state.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

// ---- invitations ----

type invitationRepo struct{ s *handle }

func (r *invitationRepo) CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	r.s.lock()
	defer r.s.unlock()

	inv.Email = models.NormalizeEmail(inv.Email)
	inv.RoleIDs = models.UniqueIDs(inv.RoleIDs)

	if _, ok := r.s.state.orgs[inv.OrganizationID]; !ok {
		return models.Invitation{}, repository.ErrNotFound
	}
	for _, roleID := range inv.RoleIDs {
		if _, ok := r.s.state.roles[roleID]; !ok {
			return models.Invitation{}, repository.ErrNotFound
		}
	}
	for _, existing := range r.s.state.invitations {
		if existing.TokenHash == inv.TokenHash {
			return models.Invitation{}, repository.ErrDuplicate
		}
		if existing.Email == inv.Email && existing.OrganizationID == inv.OrganizationID {
			return models.Invitation{}, repository.ErrDuplicate
		}
	}

	inv.ID = newID()
	inv.InvitedBy = copyString(inv.InvitedBy)
	inv.CreatedAt = now()
	r.s.state.invitations[inv.ID] = copyInvitation(inv)
	return copyInvitation(inv), nil
}

func (r *invitationRepo) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (models.Invitation, error) {
	return r.find(func(inv models.Invitation) bool { return inv.TokenHash == tokenHash })
}

func (r *invitationRepo) GetValidInvitationByTokenHash(ctx context.Context, tokenHash string, at time.Time) (models.Invitation, error) {
	return r.find(func(inv models.Invitation) bool {
		return inv.TokenHash == tokenHash && !inv.IsExpired(at)
	})
}

func (r *invitationRepo) GetInvitationByID(ctx context.Context, orgID, invitationID string) (models.Invitation, error) {
	return r.find(func(inv models.Invitation) bool {
		return inv.ID == invitationID && inv.OrganizationID == orgID
	})
}

func (r *invitationRepo) FindPendingInvitation(ctx context.Context, email, orgID string, at time.Time) (models.Invitation, error) {
	email = models.NormalizeEmail(email)
	return r.find(func(inv models.Invitation) bool {
		return inv.Email == email && inv.OrganizationID == orgID && !inv.IsExpired(at)
	})
}

func (r *invitationRepo) ListPendingByOrganization(ctx context.Context, orgID string, at time.Time) ([]models.Invitation, error) {
	return r.filter(func(inv models.Invitation) bool {
		return inv.OrganizationID == orgID && !inv.IsExpired(at)
	}), nil
}

func (r *invitationRepo) ListPendingByEmail(ctx context.Context, email string, at time.Time) ([]models.Invitation, error) {
	email = models.NormalizeEmail(email)
	return r.filter(func(inv models.Invitation) bool {
		return inv.Email == email && !inv.IsExpired(at)
	}), nil
}

func (r *invitationRepo) UpdateToken(ctx context.Context, invitationID, tokenHash string, expiresAt time.Time) error {
	r.s.lock()
	defer r.s.unlock()

	inv, ok := r.s.state.invitations[invitationID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.s.state.invitations {
		if id != invitationID && existing.TokenHash == tokenHash {
			return repository.ErrDuplicate
		}
	}
	inv.TokenHash = tokenHash
	inv.ExpiresAt = expiresAt
	r.s.state.invitations[invitationID] = inv
	return nil
}

func (r *invitationRepo) DeleteInvitation(ctx context.Context, invitationID string) (bool, error) {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.state.invitations[invitationID]; !ok {
		return false, nil
	}
	delete(r.s.state.invitations, invitationID)
	return true, nil
}

func (r *invitationRepo) DeleteExpiredFor(ctx context.Context, email, orgID string, at time.Time) (int64, error) {
	r.s.lock()
	defer r.s.unlock()

	email = models.NormalizeEmail(email)
	var removed int64
	for id, inv := range r.s.state.invitations {
		if inv.Email == email && inv.OrganizationID == orgID && inv.IsExpired(at) {
			delete(r.s.state.invitations, id)
			removed++
		}
	}
	return removed, nil
}

func (r *invitationRepo) PurgeExpired(ctx context.Context, at time.Time) (map[string]int64, error) {
	r.s.lock()
	defer r.s.unlock()

	counts := map[string]int64{}
	for id, inv := range r.s.state.invitations {
		if inv.IsExpired(at) {
			delete(r.s.state.invitations, id)
			counts[inv.OrganizationID]++
		}
	}
	return counts, nil
}

func (r *invitationRepo) find(match func(models.Invitation) bool) (models.Invitation, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, inv := range r.s.state.invitations {
		if match(inv) {
			return copyInvitation(inv), nil
		}
	}
	return models.Invitation{}, repository.ErrNotFound
}

func (r *invitationRepo) filter(match func(models.Invitation) bool) []models.Invitation {
	r.s.lock()
	defer r.s.unlock()

	out := []models.Invitation{}
	for _, inv := range r.s.state.invitations {
		if match(inv) {
			out = append(out, copyInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ---- properties ----

type propertyRepo struct{ s *handle }

func (r *propertyRepo) CreateField(ctx context.Context, field models.PropertyField) (models.PropertyField, error) {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.state.orgs[field.OrganizationID]; !ok {
		return models.PropertyField{}, repository.ErrNotFound
	}
	for _, existing := range r.s.state.fields {
		if existing.OrganizationID == field.OrganizationID && existing.Key == field.Key {
			return models.PropertyField{}, repository.ErrDuplicate
		}
	}
	field.ID = newID()
	field.CreatedAt = now()
	if len(field.Options) == 0 {
		field.Options = nil
	}
	r.s.state.fields[field.ID] = copyField(field)
	return copyField(field), nil
}

func (r *propertyRepo) ListFields(ctx context.Context, orgID string) ([]models.PropertyField, error) {
	r.s.lock()
	defer r.s.unlock()

	fields := r.fieldsFor(orgID)
	for i := range fields {
		fields[i] = copyField(fields[i])
	}
	return fields, nil
}

func (r *propertyRepo) GetField(ctx context.Context, orgID, fieldID string) (models.PropertyField, error) {
	r.s.lock()
	defer r.s.unlock()

	field, ok := r.s.state.fields[fieldID]
	if !ok || field.OrganizationID != orgID {
		return models.PropertyField{}, repository.ErrNotFound
	}
	return copyField(field), nil
}

func (r *propertyRepo) DeleteField(ctx context.Context, orgID, fieldID string) error {
	r.s.lock()
	defer r.s.unlock()

	field, ok := r.s.state.fields[fieldID]
	if !ok || field.OrganizationID != orgID {
		return repository.ErrNotFound
	}
	delete(r.s.state.fields, fieldID)
	for key := range r.s.state.values {
		if key.fieldID == fieldID {
			delete(r.s.state.values, key)
		}
	}
	return nil
}

func (r *propertyRepo) GetValues(ctx context.Context, orgID, userID string) ([]models.PropertyValue, error) {
	r.s.lock()
	defer r.s.unlock()

	values := []models.PropertyValue{}
	for _, field := range r.fieldsFor(orgID) {
		if v, ok := r.s.state.values[valueKey{fieldID: field.ID, userID: userID}]; ok {
			values = append(values, v)
		}
	}
	return values, nil
}

func (r *propertyRepo) UpsertValue(ctx context.Context, fieldID, userID, value string) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.state.fields[fieldID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.state.users[userID]; !ok {
		return repository.ErrNotFound
	}
	r.s.state.values[valueKey{fieldID: fieldID, userID: userID}] = models.PropertyValue{
		FieldID:   fieldID,
		UserID:    userID,
		Value:     value,
		UpdatedAt: now(),
	}
	return nil
}

func (r *propertyRepo) DeleteValue(ctx context.Context, fieldID, userID string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.state.values, valueKey{fieldID: fieldID, userID: userID})
	return nil
}

func (r *propertyRepo) fieldsFor(orgID string) []models.PropertyField {
	fields := []models.PropertyField{}
	for _, field := range r.s.state.fields {
		if field.OrganizationID == orgID {
			fields = append(fields, field)
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].CreatedAt.Equal(fields[j].CreatedAt) {
			return fields[i].Key < fields[j].Key
		}
		return fields[i].CreatedAt.Before(fields[j].CreatedAt)
	})
	return fields
}

// ---- notifications ----

type notificationRepo struct{ s *handle }

func (r *notificationRepo) Create(ctx context.Context, params repository.CreateNotificationParams) (models.Notification, error) {
	r.s.lock()
	defer r.s.unlock()

	notif := models.Notification{
		ID:             newID(),
		OrganizationID: copyString(params.OrganizationID),
		EventType:      params.Event,
		Severity:       params.Severity,
		Title:          params.Title,
		Message:        params.Message,
		CreatedAt:      now(),
	}
	if len(params.Metadata) > 0 {
		raw, err := json.Marshal(params.Metadata)
		if err != nil {
			return models.Notification{}, err
		}
		notif.Metadata = raw
	}
	r.s.state.notifications = append(r.s.state.notifications, notif)
	return notif, nil
}

func (r *notificationRepo) ListRecent(ctx context.Context, orgID string, limit int) ([]models.Notification, error) {
	r.s.lock()
	defer r.s.unlock()

	if limit <= 0 || limit > 100 {
		limit = 25
	}
	out := []models.Notification{}
	for i := len(r.s.state.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		notif := r.s.state.notifications[i]
		if notif.OrganizationID == nil || *notif.OrganizationID == orgID {
			out = append(out, notif)
		}
	}
	return out, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, orgID, notificationID string) (models.Notification, error) {
	r.s.lock()
	defer r.s.unlock()

	for i, notif := range r.s.state.notifications {
		if notif.ID != notificationID {
			continue
		}
		if notif.OrganizationID != nil && *notif.OrganizationID != orgID {
			break
		}
		ts := now()
		notif.ReadAt = &ts
		r.s.state.notifications[i] = notif
		return notif, nil
	}
	return models.Notification{}, repository.ErrNotFound
}
