package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return repository.ErrDuplicateEmail
	}
	r.users[u.ID] = cloneUser(u)
	r.byEmail[email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}

	oldEmail := strings.ToLower(current.Email)
	newEmail := strings.ToLower(u.Email)
	if oldEmail != newEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return repository.ErrDuplicateEmail
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = u.ID
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, strings.ToLower(u.Email))
	delete(r.users, id)
	return nil
}
