package key_value

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dorakhq/dorak/internal/model"
)

const themeKey = "theme"

type PreferenceStorage struct {
	rdb *redis.Client
}

func NewPreferenceStorage(rdb *redis.Client) *PreferenceStorage {
	return &PreferenceStorage{
		rdb: rdb,
	}
}

func (p *PreferenceStorage) GetTheme(ctx context.Context) (model.Theme, error) {
	themeRaw, err := p.rdb.Get(ctx, themeKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrThemeNotSet
		}
		return "", fmt.Errorf("failed to get theme: %w", err)
	}
	return model.ParseTheme(themeRaw), nil
}

func (p *PreferenceStorage) SetTheme(ctx context.Context, theme model.Theme) error {
	if err := p.rdb.Set(ctx, themeKey, string(theme), 0).Err(); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}
