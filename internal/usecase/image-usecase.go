package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/model"
)

var ErrEmptyPrompt = errors.New("empty prompt")

// ImageProvider produces one image per call as a data URI.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string, aspectRatio model.AspectRatio, refs []model.InlineData) (string, error)
}

type ImageUsecaseDeps struct {
	Provider ImageProvider
	Account  *AccountUsecase
}

type ImageUsecase struct {
	ImageUsecaseDeps

	cfg config.Account
}

func NewImageUsecase(deps ImageUsecaseDeps, cfg config.Account) *ImageUsecase {
	return &ImageUsecase{
		ImageUsecaseDeps: deps,
		cfg:              cfg,
	}
}

// Cost returns the credit price of a batch.
func (i *ImageUsecase) Cost(quantity int) int {
	if quantity < 1 {
		quantity = 1
	}
	return quantity * i.cfg.CreditsPerImage
}

// augmentPrompt appends style, palette and reference-image directives to the
// raw prompt, always in this order.
func augmentPrompt(req model.GenerationRequest) string {
	prompt := req.Prompt
	if req.Style != "" && req.Style != model.StyleNone {
		prompt += fmt.Sprintf(", in a %s style", strings.ToLower(string(req.Style)))
	}
	if req.Colors != "" {
		prompt += fmt.Sprintf(", with a color palette focusing on %s", req.Colors)
	}
	if req.Character != nil {
		prompt += ". Use the first provided image as a character reference."
	}
	if req.Inspiration != nil {
		prompt += ". Use the next provided image as a style reference."
	}
	return prompt
}

// Generate produces the requested batch concurrently. The batch is
// all-or-nothing: if any single generation fails the whole call fails and no
// partial results are returned. Successful results are ordered by slot, not
// by completion time.
func (i *ImageUsecase) Generate(ctx context.Context, req model.GenerationRequest) ([]string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	prompt := augmentPrompt(req)
	var refs []model.InlineData
	if req.Character != nil {
		refs = append(refs, *req.Character)
	}
	if req.Inspiration != nil {
		refs = append(refs, *req.Inspiration)
	}

	urls := make([]string, quantity)
	errs := make([]error, quantity)

	wg := conc.NewWaitGroup()
	for slot := 0; slot < quantity; slot++ {
		wg.Go(func() {
			urls[slot], errs[slot] = i.Provider.GenerateImage(ctx, prompt, req.AspectRatio, refs)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to generate image: %w", err)
		}
	}
	return urls, nil
}

// GenerateForUser runs Generate on behalf of the signed-in user and charges
// credits. The balance is checked up front and deducted only after the whole
// batch succeeds, so a failed batch costs nothing.
func (i *ImageUsecase) GenerateForUser(ctx context.Context, email string, req model.GenerationRequest) ([]string, model.User, error) {
	user, err := i.Account.User(ctx, email)
	if err != nil {
		return nil, model.User{}, err
	}

	cost := i.Cost(req.Quantity)
	if user.Credits < cost {
		return nil, model.User{}, ErrInsufficientCredits
	}

	urls, err := i.Generate(ctx, req)
	if err != nil {
		return nil, model.User{}, err
	}

	user, err = i.Account.DeductCredits(ctx, email, cost)
	if err != nil {
		return nil, model.User{}, fmt.Errorf("failed to charge credits: %w", err)
	}
	return urls, user, nil
}
