// Package assistant answers free-text weather questions through a
// generative language model, using the selected point as context.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrRateLimited   = errors.New("too many assistant requests")
)

const (
	// FallbackReply is used when the model returns no text.
	FallbackReply = "Não consegui gerar a resposta."
	// FailureReply is shown when the model cannot be reached.
	FailureReply = "Erro ao comunicar com o Gemini."

	maxQuestionRunes = 2000
)

// Generator produces text for a prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Message is one assistant reply.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Assistant struct {
	generator Generator
	limiter   *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Assistant allowing perMinute requests per minute.
func New(generator Generator, perMinute int, logger *slog.Logger) *Assistant {
	if perMinute <= 0 {
		perMinute = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		generator: generator,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:    logger,
		now:       time.Now,
	}
}

// Reply answers question. at is the currently selected point, if any.
func (a *Assistant) Reply(ctx context.Context, question string, at *selection.Coordinates) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, ErrEmptyQuestion
	}
	if r := []rune(question); len(r) > maxQuestionRunes {
		question = string(r[:maxQuestionRunes])
	}
	if !a.limiter.Allow() {
		return Message{}, ErrRateLimited
	}

	text, err := a.generator.GenerateText(ctx, BuildPrompt(question, at))
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate reply: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Warn("assistant returned an empty reply")
		text = FallbackReply
	}
	return Message{
		ID:        uuid.New(),
		Role:      "assistant",
		Text:      text,
		CreatedAt: a.now().UTC(),
	}, nil
}

// BuildPrompt wraps question with the location context.
func BuildPrompt(question string, at *selection.Coordinates) string {
	location := "não informada"
	if at != nil {
		location = fmt.Sprintf("latitude %.4f, longitude %.4f", at.Lat, at.Lng)
	}
	return fmt.Sprintf(
		"Você é especialista em meteorologia. Sua localização atual é essa: %s. Responda a seguinte pergunta de forma clara: %s",
		location, question,
	)
}
