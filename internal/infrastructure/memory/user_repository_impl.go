// Package memory keeps users in process memory. It backs the memory://
// DATABASE_URL and the service and HTTP tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]entity.User), now: time.Now}
}

// taken reports whether another user already holds userName or email.
// Caller holds mu.
func (r *UserRepository) taken(exceptID, userName, email string) bool {
	for id, u := range r.users {
		if id == exceptID {
			continue
		}
		if u.UserName == userName || strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken("", u.UserName, u.Email) {
		return apperr.ErrConflict
	}
	now := r.now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u.WithoutPassword(), nil
}

func (r *UserRepository) GetByIdentifier(_ context.Context, identifier string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byEmail := entity.IsEmailIdentifier(identifier)
	for _, u := range r.users {
		if (byEmail && strings.EqualFold(u.Email, identifier)) || (!byEmail && u.UserName == identifier) {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.WithoutPassword())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	patch.Apply(&u)
	if r.taken(id, u.UserName, u.Email) {
		return nil, apperr.ErrConflict
	}
	u.UpdatedAt = r.now().UTC()
	r.users[id] = u
	return u.WithoutPassword(), nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
