package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/model"
	"github.com/dorakhq/dorak/pkg/strength"
)

var (
	ErrEmailTaken          = errors.New("an account with this email already exists")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrWeakPassword        = errors.New("password is not strong enough")
	ErrNoAccount           = errors.New("no account found with this email")
	ErrWrongPassword       = errors.New("incorrect password")
	ErrNotVerified         = errors.New("account not verified")
	ErrEmptyProfileFields  = errors.New("username and email cannot be empty")
	ErrShortPassword       = errors.New("new password must be at least 8 characters")
	ErrUnknownCreditPlan   = errors.New("unknown credit plan")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrEmptyGoogleName     = errors.New("simulated google sign-in was cancelled")
)

// CreditPlan is a purchasable credit bundle shown on the profile page.
type CreditPlan struct {
	Name    string `json:"name"`
	Credits int    `json:"credits"`
	Price   int    `json:"price"`
}

var creditPlans = []CreditPlan{
	{Name: "Starter", Credits: 100, Price: 5},
	{Name: "Creator", Credits: 250, Price: 10},
	{Name: "Pro", Credits: 600, Price: 20},
	{Name: "Studio", Credits: 1500, Price: 45},
}

type UserStorage interface {
	GetUser(ctx context.Context, email string) (model.User, error)
	SaveUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, email string) error
	GetCurrentUser(ctx context.Context) (model.User, error)
	SetCurrentUser(ctx context.Context, user model.User) error
	ClearCurrentUser(ctx context.Context) error
	GetGoogleUser(ctx context.Context) (model.User, error)
	SaveGoogleUser(ctx context.Context, user model.User) error
	DeleteGoogleUser(ctx context.Context) error
}

type PreferenceStorage interface {
	GetTheme(ctx context.Context) (model.Theme, error)
	SetTheme(ctx context.Context, theme model.Theme) error
}

type AccountUsecaseDeps struct {
	UserStorage UserStorage
	Preferences PreferenceStorage
}

type AccountUsecase struct {
	AccountUsecaseDeps
	cfg config.Account
}

func NewAccountUsecase(deps AccountUsecaseDeps, cfg config.Account) *AccountUsecase {
	return &AccountUsecase{
		AccountUsecaseDeps: deps,
		cfg:                cfg,
	}
}

// SignUp creates an unverified account with the signup credit grant.
func (a *AccountUsecase) SignUp(ctx context.Context, username, email, password, confirm string) (model.User, error) {
	email = strings.TrimSpace(email)
	if password != confirm {
		return model.User{}, ErrPasswordMismatch
	}
	if strength.Evaluate(password).Score < strength.MinAcceptableScore {
		return model.User{}, ErrWeakPassword
	}
	if _, err := a.UserStorage.GetUser(ctx, email); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserDoesNotExists) {
		return model.User{}, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user := model.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: string(hash),
		Credits:      a.cfg.SignupCredits,
		Verified:     false,
	}
	if err = a.UserStorage.SaveUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

// VerifyEmail marks the account verified. The verification mail is simulated,
// so this doubles as the "resend verification" action.
func (a *AccountUsecase) VerifyEmail(ctx context.Context, email string) error {
	user, err := a.UserStorage.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserDoesNotExists) {
			return ErrNoAccount
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	user.Verified = true
	if err = a.UserStorage.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (a *AccountUsecase) Login(ctx context.Context, email, password string) (model.User, error) {
	user, err := a.UserStorage.GetUser(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrUserDoesNotExists) {
			return model.User{}, ErrNoAccount
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.User{}, ErrWrongPassword
	}
	if !user.Verified {
		return model.User{}, ErrNotVerified
	}
	if err = a.UserStorage.SetCurrentUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to set current user: %w", err)
	}
	return user, nil
}

// Logout clears the current user and the simulated google record, so a
// subsequent google sign-in starts from scratch.
func (a *AccountUsecase) Logout(ctx context.Context) error {
	if err := a.UserStorage.ClearCurrentUser(ctx); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	if err := a.UserStorage.DeleteGoogleUser(ctx); err != nil {
		return fmt.Errorf("failed to delete google user: %w", err)
	}
	return nil
}

// ForgotPassword only checks that the email exists. There is no token or
// proof-of-ownership step; the reset mail is simulated.
func (a *AccountUsecase) ForgotPassword(ctx context.Context, email string) error {
	if _, err := a.UserStorage.GetUser(ctx, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, model.ErrUserDoesNotExists) {
			return ErrNoAccount
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}

func (a *AccountUsecase) ResetPassword(ctx context.Context, email, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if strength.Evaluate(password).Score < strength.MinAcceptableScore {
		return ErrWeakPassword
	}
	user, err := a.UserStorage.GetUser(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrUserDoesNotExists) {
			return ErrNoAccount
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err = a.UserStorage.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GoogleLogin reuses the persisted simulated record when present; the first
// call fabricates an account from the supplied display name.
func (a *AccountUsecase) GoogleLogin(ctx context.Context, name string) (model.User, error) {
	user, err := a.UserStorage.GetGoogleUser(ctx)
	if err == nil {
		if err = a.UserStorage.SetCurrentUser(ctx, user); err != nil {
			return model.User{}, fmt.Errorf("failed to set current user: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, model.ErrNoGoogleUser) {
		return model.User{}, fmt.Errorf("failed to get google user: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, ErrEmptyGoogleName
	}
	email := strings.ToLower(strings.Join(strings.Fields(name), ".")) + "@simulated-google.com"
	user = model.User{
		Username: name,
		Email:    email,
		Credits:  a.cfg.SignupCredits,
		Verified: true,
	}
	if err = a.UserStorage.SaveGoogleUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to save google user: %w", err)
	}
	if err = a.UserStorage.SaveUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}
	if err = a.UserStorage.SetCurrentUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to set current user: %w", err)
	}
	return user, nil
}

func (a *AccountUsecase) User(ctx context.Context, email string) (model.User, error) {
	user, err := a.UserStorage.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserDoesNotExists) {
			return model.User{}, ErrNoAccount
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes username and email. A changed email moves the record
// to the new key.
func (a *AccountUsecase) UpdateProfile(ctx context.Context, email, newUsername, newEmail string) (model.User, error) {
	newUsername = strings.TrimSpace(newUsername)
	newEmail = strings.TrimSpace(newEmail)
	if newUsername == "" || newEmail == "" {
		return model.User{}, ErrEmptyProfileFields
	}
	user, err := a.User(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	oldEmail := user.Email
	user.Username = newUsername
	user.Email = newEmail
	if err = a.UserStorage.SaveUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}
	if oldEmail != newEmail {
		if err = a.UserStorage.DeleteUser(ctx, oldEmail); err != nil && !errors.Is(err, model.ErrUserDoesNotExists) {
			return model.User{}, fmt.Errorf("failed to delete old user record: %w", err)
		}
	}
	if err = a.UserStorage.SetCurrentUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to set current user: %w", err)
	}
	return user, nil
}

func (a *AccountUsecase) ChangePassword(ctx context.Context, email, current, newPassword, confirm string) error {
	user, err := a.User(ctx, email)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	if len(newPassword) < 8 {
		return ErrShortPassword
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err = a.UserStorage.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (a *AccountUsecase) CreditPlans() []CreditPlan {
	return creditPlans
}

func (a *AccountUsecase) PurchaseCredits(ctx context.Context, email, planName string) (model.User, error) {
	var plan *CreditPlan
	for i := range creditPlans {
		if creditPlans[i].Name == planName {
			plan = &creditPlans[i]
			break
		}
	}
	if plan == nil {
		return model.User{}, ErrUnknownCreditPlan
	}
	user, err := a.User(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	user.Credits += plan.Credits
	if err = a.saveAndRefresh(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// DeductCredits lowers the balance, refusing to go below zero.
func (a *AccountUsecase) DeductCredits(ctx context.Context, email string, amount int) (model.User, error) {
	user, err := a.User(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if user.Credits < amount {
		return model.User{}, ErrInsufficientCredits
	}
	user.Credits -= amount
	if err = a.saveAndRefresh(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (a *AccountUsecase) DeleteAccount(ctx context.Context, email string) error {
	if err := a.UserStorage.DeleteUser(ctx, email); err != nil && !errors.Is(err, model.ErrUserDoesNotExists) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return a.Logout(ctx)
}

func (a *AccountUsecase) Theme(ctx context.Context) (model.Theme, error) {
	theme, err := a.Preferences.GetTheme(ctx)
	if err != nil {
		if errors.Is(err, model.ErrThemeNotSet) {
			return model.ThemeDark, nil
		}
		return "", fmt.Errorf("failed to get theme: %w", err)
	}
	return theme, nil
}

func (a *AccountUsecase) SetTheme(ctx context.Context, theme model.Theme) error {
	if err := a.Preferences.SetTheme(ctx, theme); err != nil {
		return fmt.Errorf("failed to set theme: %w", err)
	}
	return nil
}

func (a *AccountUsecase) saveAndRefresh(ctx context.Context, user model.User) error {
	if err := a.UserStorage.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if err := a.UserStorage.SetCurrentUser(ctx, user); err != nil {
		return fmt.Errorf("failed to set current user: %w", err)
	}
	return nil
}
