package usecase

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/model"
)

const (
	baseInstruction = "You are Dorak, an AGI created by Airban & Bable. When asked about your " +
		"name or identity, you must respond with: 'I'm Dorak. My Infinity model is the world's " +
		"most powerful model. I'm the first AGI made by Airban & Bable.' Do not reveal that you " +
		"are a language model or mention Google."
	researchInstruction = "You are a highly intelligent research assistant named Dorak. Provide " +
		"detailed, well-structured, and comprehensive answers. Use headings, lists, and bold text " +
		"to organize information effectively. You MUST ground your answer in search results. Your " +
		"goal is to deliver deep insights and thorough explanations on any given topic."
)

type GeminiUsecase struct {
	cfg    config.Gemini
	client *genai.Client
}

func NewGeminiUsecase(ctx context.Context, cfg config.Gemini) (*GeminiUsecase, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiUsecase{
		cfg:    cfg,
		client: client,
	}, nil
}

func (g *GeminiUsecase) modelFor(aiModel model.AiModel) string {
	switch aiModel {
	case model.Model100k, model.ModelInfinity:
		return g.cfg.ProModel
	default:
		return g.cfg.ChatModel
	}
}

func systemInstruction(aiModel model.AiModel) *genai.Content {
	instruction := baseInstruction
	if aiModel == model.ModelResearch {
		instruction = researchInstruction
	}
	return &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
}

// translateHistory maps the message log into provider contents. Text and
// inline-data parts pass through; anything else becomes an empty part.
func translateHistory(history []model.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			switch {
			case part.Text != "":
				parts = append(parts, &genai.Part{Text: part.Text})
			case part.InlineData != nil:
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}})
			default:
				parts = append(parts, &genai.Part{})
			}
		}
		contents = append(contents, &genai.Content{Role: string(genai.Role(msg.Role)), Parts: parts})
	}
	return contents
}

// StreamMessage streams a completion for the given history. The cumulative
// answer so far is delivered on answerChan after every fragment; the channel
// is closed when the stream ends. The final answer is returned.
func (g *GeminiUsecase) StreamMessage(
	ctx context.Context,
	aiModel model.AiModel,
	history []model.ChatMessage,
	answerChan chan<- string,
) (string, error) {
	defer close(answerChan)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(aiModel),
	}

	var currentAnswer string
	for resp, err := range g.client.Models.GenerateContentStream(
		ctx, g.modelFor(aiModel), translateHistory(history), cfg,
	) {
		if err != nil {
			return "", fmt.Errorf("stream error: %w", err)
		}
		if text := resp.Text(); text != "" {
			currentAnswer += text
			answerChan <- currentAnswer
		}
	}
	return currentAnswer, nil
}

// GenerateGrounded issues one non-streaming call with search grounding and
// extracts the web sources from the grounding metadata.
func (g *GeminiUsecase) GenerateGrounded(
	ctx context.Context,
	aiModel model.AiModel,
	history []model.ChatMessage,
) (string, []model.Source, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(aiModel),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelFor(aiModel), translateHistory(history), cfg)
	if err != nil {
		return "", nil, err
	}
	text := resp.Text()
	if text == "" {
		return "", nil, ErrEmptyResponse
	}

	var sources []model.Source
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			title := chunk.Web.Title
			if title == "" {
				title = chunk.Web.URI
			}
			sources = append(sources, model.Source{URI: chunk.Web.URI, Title: title})
		}
	}
	return text, sources, nil
}

// GenerateImage issues one image-generation call and returns the result as a
// data URI decoded from the first inline-data part of the response.
func (g *GeminiUsecase) GenerateImage(
	ctx context.Context,
	prompt string,
	aspectRatio model.AspectRatio,
	refs []model.InlineData,
) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	for _, ref := range refs {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: ref.MIMEType,
			Data:     ref.Data,
		}})
	}

	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: string(aspectRatio)},
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.ImageModel, contents, cfg)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil {
				return "data:image/png;base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
			}
		}
	}
	return "", ErrNoImageData
}
