package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dorakhq/dorak/internal/model"
)

const (
	currentUserKey = "dorak_vision_user"
	googleUserKey  = "dorak_user_google_simulated"
)

// userInternal is the persisted record. The key scheme and record shape
// mirror what the browser build kept in local storage, one JSON value per
// key, written wholesale.
type userInternal struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Credits      int    `json:"credits"`
	Verified     bool   `json:"verified"`
}

type UserStorage struct {
	rdb *redis.Client
}

func NewUserStorage(rdb *redis.Client) *UserStorage {
	return &UserStorage{
		rdb: rdb,
	}
}

func (u *UserStorage) GetUser(ctx context.Context, email string) (model.User, error) {
	return u.getUser(ctx, getUserKey(email), model.ErrUserDoesNotExists)
}

func (u *UserStorage) SaveUser(ctx context.Context, user model.User) error {
	return u.setUser(ctx, getUserKey(user.Email), user)
}

func (u *UserStorage) DeleteUser(ctx context.Context, email string) error {
	deleted, err := u.rdb.Del(ctx, getUserKey(email)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", email, err)
	}
	if deleted == 0 {
		return model.ErrUserDoesNotExists
	}
	return nil
}

func (u *UserStorage) GetCurrentUser(ctx context.Context) (model.User, error) {
	return u.getUser(ctx, currentUserKey, model.ErrNoCurrentUser)
}

func (u *UserStorage) SetCurrentUser(ctx context.Context, user model.User) error {
	return u.setUser(ctx, currentUserKey, user)
}

func (u *UserStorage) ClearCurrentUser(ctx context.Context) error {
	if err := u.rdb.Del(ctx, currentUserKey).Err(); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}

func (u *UserStorage) GetGoogleUser(ctx context.Context) (model.User, error) {
	return u.getUser(ctx, googleUserKey, model.ErrNoGoogleUser)
}

func (u *UserStorage) SaveGoogleUser(ctx context.Context, user model.User) error {
	return u.setUser(ctx, googleUserKey, user)
}

func (u *UserStorage) DeleteGoogleUser(ctx context.Context) error {
	if err := u.rdb.Del(ctx, googleUserKey).Err(); err != nil {
		return fmt.Errorf("failed to delete google user: %w", err)
	}
	return nil
}

func (u *UserStorage) getUser(ctx context.Context, key string, missing error) (model.User, error) {
	userRaw, err := u.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, missing
		}
		return model.User{}, fmt.Errorf("failed to get userInternal %s: %w", key, err)
	}
	var userInt userInternal
	if err = json.Unmarshal([]byte(userRaw), &userInt); err != nil {
		return model.User{}, fmt.Errorf("failed to unmarshal userInternal %s: %w", key, err)
	}
	user := model.User{
		Username:     userInt.Username,
		Email:        userInt.Email,
		PasswordHash: userInt.PasswordHash,
		Credits:      userInt.Credits,
		Verified:     userInt.Verified,
	}
	return user, nil
}

func (u *UserStorage) setUser(ctx context.Context, key string, user model.User) error {
	userInt := userInternal{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Credits:      user.Credits,
		Verified:     user.Verified,
	}
	userJSON, err := json.Marshal(userInt)
	if err != nil {
		return fmt.Errorf("failed to marshal internal user: %w", err)
	}
	if err = u.rdb.Set(ctx, key, userJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save userInternal %s: %w", key, err)
	}
	return nil
}

func getUserKey(email string) string {
	return fmt.Sprintf("dorak_user_%s", email)
}
