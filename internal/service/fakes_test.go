package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Payphone-Digital/tracker/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeUserRepo mimics the gorm repository, returning copies so callers never share rows
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User
	addRoleFn func(user *model.User, role *model.Role) error
	deleted   []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Roles = append([]model.Role(nil), u.Roles...)
	return &c
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return cloneUser(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetAll(_ context.Context, limit, offset int, _ string) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []model.User
	for _, u := range r.users {
		all = append(all, *cloneUser(u))
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.IsActive = user.IsActive
	stored.FailedAccessCount = user.FailedAccessCount
	stored.LockoutUntil = user.LockoutUntil
	stored.LastLogin = user.LastLogin
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id string, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.PasswordHash = hashedPassword
	stored.FailedAccessCount = 0
	stored.LockoutUntil = nil
	return nil
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, id string, hash *string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.RefreshTokenHash = hash
	stored.RefreshTokenExpiresAt = expiresAt
	return nil
}

func (r *fakeUserRepo) SwapRefreshToken(_ context.Context, id, oldHash, newHash string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok || stored.RefreshTokenHash == nil || *stored.RefreshTokenHash != oldHash {
		return false, nil
	}
	stored.RefreshTokenHash = &newHash
	stored.RefreshTokenExpiresAt = &expiresAt
	return true, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.IsActive = active
	if active {
		stored.FailedAccessCount = 0
		stored.LockoutUntil = nil
	} else {
		stored.RefreshTokenHash = nil
		stored.RefreshTokenExpiresAt = nil
	}
	return nil
}

func (r *fakeUserRepo) AddRole(_ context.Context, user *model.User, role *model.Role) error {
	if r.addRoleFn != nil {
		if err := r.addRoleFn(user, role); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Roles = append(stored.Roles, *role)
	return nil
}

func (r *fakeUserRepo) HardDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeUserRepo) stored(email string) *model.User {
	u, err := r.GetByEmail(context.Background(), email)
	if err != nil {
		return nil
	}
	return u
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeRoleRepo struct {
	roles map[string]*model.Role
}

func newFakeRoleRepo(names ...string) *fakeRoleRepo {
	r := &fakeRoleRepo{roles: make(map[string]*model.Role)}
	for _, n := range names {
		r.roles[n] = &model.Role{Base: model.Base{ID: uuid.NewString()}, Name: n}
	}
	return r
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

// recordingAudit keeps every entry for assertions
type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, entry AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) events(name string) []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []AuditEntry
	for _, e := range a.entries {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

type capturingNotifier struct {
	tokens []string
	err    error
}

func (n *capturingNotifier) NotifyPasswordReset(_ context.Context, _ *model.User, token string) error {
	n.tokens = append(n.tokens, token)
	return n.err
}

var errRoleBackend = errors.New("role backend unavailable")
