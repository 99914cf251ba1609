package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPrompt(t *testing.T) {
	at := &selection.Coordinates{Lat: 38.7223, Lng: -9.1393}
	assert.Equal(t,
		"Você é especialista em meteorologia. Sua localização atual é essa: latitude 38.7223, longitude -9.1393. Responda a seguinte pergunta de forma clara: Vai chover?",
		BuildPrompt("Vai chover?", at),
	)
	assert.Contains(t, BuildPrompt("Vai chover?", nil), "não informada")
}

func TestReply(t *testing.T) {
	testCases := []struct {
		name      string
		question  string
		generator *fakeGenerator
		wantText  string
		wantErr   error
	}{
		{
			name:      "answer",
			question:  "Vai chover amanhã?",
			generator: &fakeGenerator{reply: "  Sim, leve guarda-chuva.  "},
			wantText:  "Sim, leve guarda-chuva.",
		},
		{
			name:      "empty reply",
			question:  "Vai chover amanhã?",
			generator: &fakeGenerator{reply: ""},
			wantText:  FallbackReply,
		},
		{
			name:      "blank question",
			question:  "   ",
			generator: &fakeGenerator{},
			wantErr:   ErrEmptyQuestion,
		},
		{
			name:      "generator failure",
			question:  "Vai chover?",
			generator: &fakeGenerator{err: errors.New("quota exceeded")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := New(tc.generator, 10, testLogger())
			a.now = func() time.Time { return time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC) }

			msg, err := a.Reply(context.Background(), tc.question, &selection.Coordinates{Lat: 1, Lng: 2})
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.wantText == "":
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.wantText, msg.Text)
				assert.Equal(t, "assistant", msg.Role)
				assert.Equal(t, 2025, msg.CreatedAt.Year())
				assert.True(t, strings.HasSuffix(tc.generator.prompt, tc.question))
			}
		})
	}
}

func TestReplyRateLimited(t *testing.T) {
	a := New(&fakeGenerator{reply: "ok"}, 1, testLogger())

	_, err := a.Reply(context.Background(), "primeira", nil)
	require.NoError(t, err)

	_, err = a.Reply(context.Background(), "segunda", nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}
