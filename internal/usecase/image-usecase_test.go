package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/model"
	in_memory "github.com/dorakhq/dorak/internal/storage/in-memory"
)

type fakeImageProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	refs    [][]model.InlineData

	failOn int // 1-based call number that fails; 0 means never
}

func (f *fakeImageProvider) GenerateImage(
	_ context.Context,
	prompt string,
	_ model.AspectRatio,
	refs []model.InlineData,
) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, prompt)
	f.refs = append(f.refs, refs)
	f.mu.Unlock()

	if f.failOn != 0 && call == f.failOn {
		return "", errors.New("generation failed")
	}
	return fmt.Sprintf("data:image/png;base64,img-%d", call), nil
}

func accountCfg() config.Account {
	return config.Account{SignupCredits: 25, CreditsPerImage: 5}
}

func newImageUsecase(provider ImageProvider) (*ImageUsecase, *AccountUsecase) {
	account := NewAccountUsecase(AccountUsecaseDeps{
		UserStorage: in_memory.NewUserStorage(),
		Preferences: in_memory.NewPreferenceStorage(),
	}, accountCfg())
	images := NewImageUsecase(ImageUsecaseDeps{Provider: provider, Account: account}, accountCfg())
	return images, account
}

func TestGenerateBatchCountAndOrder(t *testing.T) {
	provider := &fakeImageProvider{}
	images, _ := newImageUsecase(provider)

	urls, err := images.Generate(context.Background(), model.GenerationRequest{
		Prompt:   "a red fox",
		Quantity: 4,
	})
	require.NoError(t, err)
	require.Len(t, urls, 4)
	for _, url := range urls {
		assert.Contains(t, url, "data:image/png;base64,")
	}
	assert.Equal(t, 4, provider.calls)
}

func TestGenerateAllOrNothing(t *testing.T) {
	provider := &fakeImageProvider{failOn: 2}
	images, _ := newImageUsecase(provider)

	urls, err := images.Generate(context.Background(), model.GenerationRequest{
		Prompt:   "a red fox",
		Quantity: 3,
	})
	require.Error(t, err)
	assert.Nil(t, urls)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	provider := &fakeImageProvider{}
	images, _ := newImageUsecase(provider)

	_, err := images.Generate(context.Background(), model.GenerationRequest{Prompt: "   "})
	require.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Zero(t, provider.calls)
}

func TestGenerateZeroQuantityMeansOne(t *testing.T) {
	provider := &fakeImageProvider{}
	images, _ := newImageUsecase(provider)

	urls, err := images.Generate(context.Background(), model.GenerationRequest{Prompt: "a red fox"})
	require.NoError(t, err)
	assert.Len(t, urls, 1)
}

func TestAugmentPromptOrder(t *testing.T) {
	ref := model.InlineData{MIMEType: "image/png", Data: []byte{1}}
	prompt := augmentPrompt(model.GenerationRequest{
		Prompt:      "a castle",
		Style:       model.StyleFantasy,
		Colors:      "deep blues",
		Character:   &ref,
		Inspiration: &ref,
	})
	assert.Equal(t,
		"a castle, in a fantasy art style, with a color palette focusing on deep blues."+
			" Use the first provided image as a character reference."+
			" Use the next provided image as a style reference.",
		prompt)
}

func TestAugmentPromptNoneStyleIsSkipped(t *testing.T) {
	prompt := augmentPrompt(model.GenerationRequest{Prompt: "a castle", Style: model.StyleNone})
	assert.Equal(t, "a castle", prompt)
}

func TestGenerateForUserChargesAfterSuccess(t *testing.T) {
	provider := &fakeImageProvider{}
	images, account := newImageUsecase(provider)
	ctx := context.Background()

	user, err := account.SignUp(ctx, "vera", "vera@example.com", "Str0ng!pass", "Str0ng!pass")
	require.NoError(t, err)
	require.Equal(t, 25, user.Credits)

	urls, user, err := images.GenerateForUser(ctx, "vera@example.com", model.GenerationRequest{
		Prompt:   "a red fox",
		Quantity: 2,
	})
	require.NoError(t, err)
	assert.Len(t, urls, 2)
	assert.Equal(t, 15, user.Credits)
}

func TestGenerateForUserFailedBatchCostsNothing(t *testing.T) {
	provider := &fakeImageProvider{failOn: 1}
	images, account := newImageUsecase(provider)
	ctx := context.Background()

	_, err := account.SignUp(ctx, "vera", "vera@example.com", "Str0ng!pass", "Str0ng!pass")
	require.NoError(t, err)

	_, _, err = images.GenerateForUser(ctx, "vera@example.com", model.GenerationRequest{Prompt: "a red fox"})
	require.Error(t, err)

	user, err := account.User(ctx, "vera@example.com")
	require.NoError(t, err)
	assert.Equal(t, 25, user.Credits)
}

func TestGenerateForUserInsufficientCredits(t *testing.T) {
	provider := &fakeImageProvider{}
	images, account := newImageUsecase(provider)
	ctx := context.Background()

	_, err := account.SignUp(ctx, "vera", "vera@example.com", "Str0ng!pass", "Str0ng!pass")
	require.NoError(t, err)

	_, _, err = images.GenerateForUser(ctx, "vera@example.com", model.GenerationRequest{
		Prompt:   "a red fox",
		Quantity: 6, // 30 credits against a 25 credit balance
	})
	require.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Zero(t, provider.calls)
}
