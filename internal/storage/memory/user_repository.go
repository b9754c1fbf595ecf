package memory

import (
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// UserRepository — in-memory справочник пользователей.
// Реализует domain.UserDirectory; наполняется снаружи (seed, тесты).
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]domain.User
}

// NewUserRepository возвращает in-memory справочник пользователей.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]domain.User),
	}
}

// Add добавляет или заменяет пользователя.
func (r *UserRepository) Add(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[user.ID] = user
	r.byEmail[strings.ToLower(user.Email)] = user
}

// Get возвращает пользователя или ErrUserNotFound.
func (r *UserRepository) Get(userID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByEmail возвращает пользователя по email (без учёта регистра).
func (r *UserRepository) GetByEmail(email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

var _ domain.UserDirectory = (*UserRepository)(nil)
