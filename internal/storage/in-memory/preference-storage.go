package in_memory

import (
	"context"
	"sync"

	"github.com/dorakhq/dorak/internal/model"
)

type PreferenceStorage struct {
	mu    sync.Mutex
	theme *model.Theme
}

func NewPreferenceStorage() *PreferenceStorage {
	return &PreferenceStorage{}
}

func (p *PreferenceStorage) GetTheme(_ context.Context) (model.Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.theme == nil {
		return "", model.ErrThemeNotSet
	}
	return *p.theme, nil
}

func (p *PreferenceStorage) SetTheme(_ context.Context, theme model.Theme) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.theme = &theme
	return nil
}
