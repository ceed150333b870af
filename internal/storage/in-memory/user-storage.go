package in_memory

import (
	"context"
	"sync"

	"github.com/dorakhq/dorak/internal/model"
)

type UserStorage struct {
	mu          sync.Mutex
	users       map[string]model.User
	currentUser *model.User
	googleUser  *model.User
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		users: make(map[string]model.User),
	}
}

func (u *UserStorage) GetUser(_ context.Context, email string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[email]
	if !ok {
		return model.User{}, model.ErrUserDoesNotExists
	}
	return user, nil
}

func (u *UserStorage) SaveUser(_ context.Context, user model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[user.Email] = user
	return nil
}

func (u *UserStorage) DeleteUser(_ context.Context, email string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[email]; !ok {
		return model.ErrUserDoesNotExists
	}
	delete(u.users, email)
	return nil
}

func (u *UserStorage) GetCurrentUser(_ context.Context) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.currentUser == nil {
		return model.User{}, model.ErrNoCurrentUser
	}
	return *u.currentUser, nil
}

func (u *UserStorage) SetCurrentUser(_ context.Context, user model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.currentUser = &user
	return nil
}

func (u *UserStorage) ClearCurrentUser(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.currentUser = nil
	return nil
}

func (u *UserStorage) GetGoogleUser(_ context.Context) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.googleUser == nil {
		return model.User{}, model.ErrNoGoogleUser
	}
	return *u.googleUser, nil
}

func (u *UserStorage) SaveGoogleUser(_ context.Context, user model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.googleUser = &user
	return nil
}

func (u *UserStorage) DeleteGoogleUser(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.googleUser = nil
	return nil
}
