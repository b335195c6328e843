package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/session-auth/internal/domain"
)

// MemoryDirectory is a process-local Directory.
type MemoryDirectory struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]*domain.Account
	byEmail  map[string]int64
	roles    map[string]struct{}
}

// NewMemoryDirectory returns an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		accounts: make(map[int64]*domain.Account),
		byEmail:  make(map[string]int64),
		roles:    make(map[string]struct{}),
	}
}

func (d *MemoryDirectory) FindByID(_ context.Context, id int64) (*domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	account, ok := d.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	identity := cloneIdentity(account.Identity)
	return &identity, nil
}

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	account := *d.accounts[id]
	account.Identity = cloneIdentity(account.Identity)
	return &account, nil
}

func (d *MemoryDirectory) Create(_ context.Context, account *domain.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[account.Email]; exists {
		return ErrEmailTaken
	}
	d.nextID++
	account.ID = d.nextID
	account.CreatedAt = time.Now().UTC()
	account.Roles = sortedRoles(account.Roles)
	for _, role := range account.Roles {
		d.roles[role] = struct{}{}
	}

	stored := *account
	stored.Identity = cloneIdentity(account.Identity)
	d.accounts[stored.ID] = &stored
	d.byEmail[stored.Email] = stored.ID
	return nil
}

func (d *MemoryDirectory) AssignRoles(_ context.Context, id int64, roles ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	account, ok := d.accounts[id]
	if !ok {
		return ErrNotFound
	}
	for _, role := range roles {
		d.roles[role] = struct{}{}
	}
	account.Roles = sortedRoles(append(account.Roles, roles...))
	return nil
}

func (d *MemoryDirectory) EnsureRoles(_ context.Context, roles ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, role := range roles {
		d.roles[role] = struct{}{}
	}
	return nil
}

// RevokeRole removes role from the identity.
func (d *MemoryDirectory) RevokeRole(id int64, role string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if account, ok := d.accounts[id]; ok {
		account.Roles = slices.DeleteFunc(account.Roles, func(r string) bool { return r == role })
	}
}

// Delete removes the identity entirely.
func (d *MemoryDirectory) Delete(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if account, ok := d.accounts[id]; ok {
		delete(d.byEmail, account.Email)
		delete(d.accounts, id)
	}
}

func (d *MemoryDirectory) Ping(context.Context) error {
	return nil
}

func cloneIdentity(identity domain.Identity) domain.Identity {
	identity.Roles = slices.Clone(identity.Roles)
	if identity.Roles == nil {
		identity.Roles = []string{}
	}
	return identity
}

// sortedRoles returns roles deduplicated and in name order.
func sortedRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if role == "" {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
