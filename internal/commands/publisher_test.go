package commands

import (
	"context"
	"errors"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/hookkeeper/internal/bot/handlers"
)

type recordingSetter struct {
	calls []*tgbot.SetMyCommandsParams
	ack   bool
	err   error
}

func (s *recordingSetter) SetMyCommands(_ context.Context, params *tgbot.SetMyCommandsParams) (bool, error) {
	s.calls = append(s.calls, params)
	return s.ack, s.err
}

func cmd(name, desc string) handlers.RegisteredCommand {
	c := handlers.RegisteredCommand{Summary: desc}
	c.Pattern = name
	return c
}

func TestPublishEmptyMakesNoCall(t *testing.T) {
	t.Parallel()

	for name, hs := range map[string][]handlers.Handler{
		"nil":           nil,
		"only callback": {handlers.RegisteredHandler{Pattern: "status:refresh"}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := &recordingSetter{ack: true}
			require.NoError(t, NewPublisher(s, nil).Publish(context.Background(), hs, ""))
			assert.Empty(t, s.calls)
		})
	}
}

func TestPublishSingleCall(t *testing.T) {
	t.Parallel()

	s := &recordingSetter{ack: true}
	hs := []handlers.Handler{
		cmd("start", "begin"),
		handlers.RegisteredHandler{Pattern: "status:refresh"},
		cmd("help", "assist"),
		cmd("start", "again"),
	}

	require.NoError(t, NewPublisher(s, nil).Publish(context.Background(), hs, "en"))

	require.Len(t, s.calls, 1)
	got := s.calls[0]
	assert.Equal(t, []models.BotCommand{
		{Command: "start", Description: "begin"},
		{Command: "help", Description: "assist"},
		{Command: "start", Description: "again"},
	}, got.Commands)
	assert.Equal(t, "en", got.LanguageCode)
	assert.IsType(t, &models.BotCommandScopeDefault{}, got.Scope)
}

func TestPublishFailures(t *testing.T) {
	t.Parallel()

	tests := map[string]*recordingSetter{
		"transport error":  {err: errors.New("connection refused")},
		"not acknowledged": {ack: false},
	}

	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := NewPublisher(s, nil).Publish(context.Background(), []handlers.Handler{cmd("start", "begin")}, "")
			assert.ErrorIs(t, err, ErrCommandPublishFailed)
			assert.Len(t, s.calls, 1)
		})
	}
}

func TestDescriptors(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Descriptors(nil))
	assert.Equal(t,
		[]models.BotCommand{{Command: "start", Description: "begin"}},
		Descriptors([]handlers.Handler{cmd("start", "begin")}),
	)
}
