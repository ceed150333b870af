package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/dorakhq/dorak/internal/markdown"
	"github.com/dorakhq/dorak/internal/model"
	"github.com/dorakhq/dorak/pkg/tokencount"
)

var (
	ErrEmptyMessage     = errors.New("empty message")
	ErrExchangeInFlight = errors.New("another exchange is in flight")
	ErrEmptyResponse    = errors.New("received an empty response from the AI")
	ErrNoImageData      = errors.New("no image data found in a response")
)

// ChatProvider is the model backend for one exchange. StreamMessage delivers
// the cumulative answer on answerChan after every fragment and must close the
// channel when done.
type ChatProvider interface {
	StreamMessage(ctx context.Context, aiModel model.AiModel, history []model.ChatMessage, answerChan chan<- string) (string, error)
	GenerateGrounded(ctx context.Context, aiModel model.AiModel, history []model.ChatMessage) (string, []model.Source, error)
}

type ChatEventType string

const (
	EventProgress        = ChatEventType("progress")
	EventDelta           = ChatEventType("delta")
	EventComplete        = ChatEventType("complete")
	EventSwitchGenerator = ChatEventType("switch-generator")
)

// ChatEvent is one update pushed to the client during an exchange.
type ChatEvent struct {
	Type    ChatEventType    `json:"type"`
	Stage   string           `json:"stage,omitempty"`
	Percent int              `json:"percent,omitempty"`
	Text    string           `json:"text,omitempty"`
	Blocks  []markdown.Block `json:"blocks,omitempty"`
	Sources []model.Source   `json:"sources,omitempty"`
	Tokens  int              `json:"tokens,omitempty"`
	Prompt  string           `json:"prompt,omitempty"`
}

// ChatSession holds the ordered message log of one connection. The log is
// only ever mutated by the single active exchange; a new send is rejected
// while one is in flight.
type ChatSession struct {
	ID uuid.UUID

	mu         sync.Mutex
	messages   []model.ChatMessage
	inFlight   bool
	attachment *model.Attachment
	aiModel    model.AiModel
}

func NewChatSession() *ChatSession {
	return &ChatSession{
		ID:      uuid.New(),
		aiModel: model.ModelP3,
	}
}

func (s *ChatSession) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage{}, s.messages...)
}

func (s *ChatSession) Model() model.AiModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiModel
}

func (s *ChatSession) SetModel(aiModel model.AiModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiModel = aiModel
}

// StageAttachment replaces any previously staged attachment; exactly one may
// be staged at a time.
func (s *ChatSession) StageAttachment(att model.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = &att
}

func (s *ChatSession) RemoveAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
}

type ChatUsecaseDeps struct {
	Provider ChatProvider
}

type ChatUsecase struct {
	ChatUsecaseDeps
}

func NewChatUsecase(deps ChatUsecaseDeps) *ChatUsecase {
	return &ChatUsecase{
		ChatUsecaseDeps: deps,
	}
}

type progressStage struct {
	delay   time.Duration
	stage   string
	percent int
}

func progressStages(aiModel model.AiModel) []progressStage {
	if aiModel == model.ModelResearch {
		return []progressStage{
			{0, "Searching web sources...", 25},
			{1500 * time.Millisecond, "Analyzing information...", 60},
		}
	}
	return []progressStage{
		{0, "Processing request...", 30},
		{time.Second, "Generating response...", 70},
	}
}

// Send runs one exchange. All events are written to events before Send
// returns; the caller must drain the channel until then. On any failure the
// user message and placeholder are removed again, so the log length is
// exactly what it was before the call.
func (c *ChatUsecase) Send(ctx context.Context, session *ChatSession, input string, events chan<- ChatEvent) error {
	input = strings.TrimSpace(input)

	session.mu.Lock()
	if session.aiModel == model.ModelCreateImage {
		session.mu.Unlock()
		if input == "" {
			return ErrEmptyMessage
		}
		events <- ChatEvent{Type: EventSwitchGenerator, Prompt: input}
		return nil
	}
	if input == "" && session.attachment == nil {
		session.mu.Unlock()
		return ErrEmptyMessage
	}
	if session.inFlight {
		session.mu.Unlock()
		return ErrExchangeInFlight
	}

	userMessage := buildUserMessage(input, session.attachment)
	session.attachment = nil
	session.inFlight = true
	history := append([]model.ChatMessage{}, session.messages...)
	placeholder := model.ChatMessage{Role: model.RoleModel, Parts: []model.ChatMessagePart{{}}}
	session.messages = append(session.messages, userMessage, placeholder)
	aiModel := session.aiModel
	session.mu.Unlock()

	defer func() {
		session.mu.Lock()
		session.inFlight = false
		session.mu.Unlock()
	}()

	contents := append(history, userMessage)

	progressDone := make(chan struct{})
	var progressOnce sync.Once
	stopProgress := func() { progressOnce.Do(func() { close(progressDone) }) }
	defer stopProgress()

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		for _, st := range progressStages(aiModel) {
			select {
			case <-time.After(st.delay):
			case <-progressDone:
				return
			}
			select {
			case events <- ChatEvent{Type: EventProgress, Stage: st.stage, Percent: st.percent}:
			case <-progressDone:
				return
			}
		}
	})

	var (
		answer  string
		sources []model.Source
		sendErr error
	)

	if aiModel == model.ModelResearch {
		answer, sources, sendErr = c.Provider.GenerateGrounded(ctx, aiModel, contents)
		stopProgress()
		if sendErr == nil {
			final := model.ChatMessage{
				Role:    model.RoleModel,
				Parts:   []model.ChatMessagePart{{Text: answer}},
				Sources: sources,
			}
			session.mu.Lock()
			session.messages[len(session.messages)-1] = final
			session.mu.Unlock()
		}
	} else {
		answerChan := make(chan string)
		wg.Go(func() {
			answer, sendErr = c.Provider.StreamMessage(ctx, aiModel, contents, answerChan)
		})
		wg.Go(func() {
			// Keeps draining after cancellation so the provider never
			// blocks on a send.
			cancelled := false
			for currentAnswer := range answerChan {
				stopProgress()
				session.mu.Lock()
				session.messages[len(session.messages)-1] = model.ChatMessage{
					Role:  model.RoleModel,
					Parts: []model.ChatMessagePart{{Text: currentAnswer}},
				}
				session.mu.Unlock()
				if cancelled {
					continue
				}
				select {
				case events <- ChatEvent{Type: EventDelta, Text: currentAnswer}:
				case <-ctx.Done():
					cancelled = true
				}
			}
		})
	}

	wg.Wait()

	if sendErr == nil && answer == "" {
		sendErr = ErrEmptyResponse
	}
	if sendErr != nil {
		session.mu.Lock()
		session.messages = session.messages[:len(session.messages)-2]
		session.mu.Unlock()
		return fmt.Errorf("failed to get response: %w", sendErr)
	}

	events <- ChatEvent{
		Type:    EventComplete,
		Text:    answer,
		Blocks:  markdown.Render(answer),
		Sources: sources,
		Tokens:  estimateExchangeTokens(contents, answer),
	}
	return nil
}

func buildUserMessage(input string, att *model.Attachment) model.ChatMessage {
	var parts []model.ChatMessagePart
	combined := input
	if att != nil {
		switch att.Kind {
		case model.AttachmentImage, model.AttachmentVideo:
			parts = append(parts, model.ChatMessagePart{InlineData: &model.InlineData{
				MIMEType: att.MIMEType,
				Data:     att.Data,
			}})
		case model.AttachmentText:
			fileText := fmt.Sprintf("Content from uploaded file %q:\n\n%s", att.FileName, att.Content)
			combined = fileText + "\n\n" + input
		}
	}
	if combined != "" {
		parts = append(parts, model.ChatMessagePart{Text: combined})
	}
	return model.ChatMessage{Role: model.RoleUser, Parts: parts}
}

func estimateExchangeTokens(history []model.ChatMessage, answer string) int {
	texts := make([]string, 0, len(history)+1)
	for _, msg := range history {
		texts = append(texts, msg.Text())
	}
	texts = append(texts, answer)
	tokens, err := tokencount.Estimate(texts...)
	if err != nil {
		log.Printf("failed to estimate tokens: %v", err)
		return 0
	}
	return tokens
}
