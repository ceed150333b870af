package model

import "errors"

var (
	ErrUserDoesNotExists = errors.New("user doesn't exists")
	ErrNoCurrentUser     = errors.New("no current user")
	ErrNoGoogleUser      = errors.New("no simulated google user")
	ErrThemeNotSet       = errors.New("theme not set")
)

type User struct {
	Username     string
	Email        string
	PasswordHash string
	Credits      int
	Verified     bool
}

type Theme string

const (
	ThemeLight = Theme("light")
	ThemeDark  = Theme("dark")
)

func ParseTheme(s string) Theme {
	if s == string(ThemeLight) {
		return ThemeLight
	}
	return ThemeDark
}
