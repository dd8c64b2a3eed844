package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/gemini"
	"trend-finder-be/pkg/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingChat holds every reply until release is closed.
type blockingChat struct {
	started chan struct{}
	release chan struct{}
	reply   string
	err     error
}

func newBlockingChat(reply string, err error) *blockingChat {
	return &blockingChat{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		reply:   reply,
		err:     err,
	}
}

func (b *blockingChat) SendMessage(ctx context.Context, _ string) (string, error) {
	b.started <- struct{}{}
	<-b.release
	return b.reply, b.err
}

type instantChat struct {
	reply string
	err   error
}

func (i instantChat) SendMessage(context.Context, string) (string, error) {
	return i.reply, i.err
}

func factoryOf(chats ...Chat) ChatFactory {
	var mu sync.Mutex
	return func(Seed) (Chat, error) {
		mu.Lock()
		defer mu.Unlock()
		c := chats[0]
		if len(chats) > 1 {
			chats = chats[1:]
		}
		return c, nil
	}
}

func seed(query string) Seed {
	return Seed{Query: query, Result: &entity.AnalysisResult{Summary: "s"}, Language: entity.LanguageEnglish}
}

func TestSendRequiresSeed(t *testing.T) {
	c := NewController(factoryOf(instantChat{reply: "r"}), logger.NewNopLogger())

	_, err := c.Send(context.Background(), "hello")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Empty(t, c.Transcript())
	assert.Equal(t, StateIdle, c.State())
}

func TestSendReplacesPlaceholder(t *testing.T) {
	c := NewController(factoryOf(instantChat{reply: "people are upbeat"}), logger.NewNopLogger())
	require.NoError(t, c.Seed(seed("topic")))

	msg, err := c.Send(context.Background(), "why?")
	require.NoError(t, err)
	assert.Equal(t, "people are upbeat", msg.Content)

	assert.Equal(t, []entity.ChatMessage{
		{Role: entity.ChatRoleUser, Content: "why?"},
		{Role: entity.ChatRoleModel, Content: "people are upbeat"},
	}, c.Transcript())
	assert.Equal(t, StateSeeded, c.State())
}

func TestSendFailureBecomesErrorTurn(t *testing.T) {
	c := NewController(factoryOf(instantChat{err: errors.New("unavailable")}), logger.NewNopLogger())
	require.NoError(t, c.Seed(seed("topic")))

	msg, err := c.Send(context.Background(), "why?")
	require.NoError(t, err)
	assert.Equal(t, i18n.T(entity.LanguageEnglish, i18n.MsgChatError), msg.Content)

	for _, m := range c.Transcript() {
		assert.False(t, m.IsLoading)
	}
	assert.Equal(t, StateSeeded, c.State())
}

func TestSendWhileAwaitingIsNoop(t *testing.T) {
	chat := newBlockingChat("done", nil)
	c := NewController(factoryOf(chat), logger.NewNopLogger())
	require.NoError(t, c.Seed(seed("topic")))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Send(context.Background(), "first")
		assert.NoError(t, err)
	}()
	<-chat.started

	before := c.Transcript()
	require.Len(t, before, 2)
	assert.True(t, before[1].IsLoading)
	assert.Equal(t, StateAwaitingReply, c.State())

	_, err := c.Send(context.Background(), "second")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, before, c.Transcript())

	close(chat.release)
	<-done
	assert.Len(t, c.Transcript(), 2)
	assert.Equal(t, "done", c.Transcript()[1].Content)
}

func TestReseedDropsLateReply(t *testing.T) {
	old := newBlockingChat("stale", nil)
	c := NewController(factoryOf(old, instantChat{reply: "fresh"}), logger.NewNopLogger())
	require.NoError(t, c.Seed(seed("old")))

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "question")
		errCh <- err
	}()
	<-old.started

	require.NoError(t, c.Seed(seed("new")))
	assert.Empty(t, c.Transcript())

	close(old.release)
	select {
	case err := <-errCh:
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	case <-time.After(time.Second):
		t.Fatal("send did not return")
	}

	assert.Empty(t, c.Transcript())
	assert.Equal(t, StateSeeded, c.State())

	msg, err := c.Send(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "fresh", msg.Content)
}

func TestResetAndObserver(t *testing.T) {
	c := NewController(factoryOf(instantChat{reply: "r"}), logger.NewNopLogger())

	var lengths []int
	c.SetObserver(func(transcript []entity.ChatMessage) {
		lengths = append(lengths, len(transcript))
	})

	require.NoError(t, c.Seed(seed("q")))
	_, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	c.Reset()

	assert.Equal(t, []int{0, 2, 2, 0}, lengths)
	assert.Equal(t, StateIdle, c.State())
}

func TestSeedFailureLeavesIdle(t *testing.T) {
	c := NewController(func(Seed) (Chat, error) { return nil, errors.New("no model") }, logger.NewNopLogger())

	err := c.Seed(seed("q"))
	assert.True(t, apperr.IsKind(err, apperr.KindRemoteService))
	assert.Equal(t, StateIdle, c.State())
}

func TestSeedHistory(t *testing.T) {
	s := Seed{
		Query:    "Nvidia",
		HasImage: true,
		Result:   &entity.AnalysisResult{Summary: "hype"},
		Language: entity.LanguageHebrew,
	}

	history, err := SeedHistory(s)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, gemini.RoleUser, history[0].Role)
	assert.Equal(t, `Analyze the topic: "Nvidia" and the provided image. Respond in Hebrew`, history[0].Parts[0].Text)
	assert.Equal(t, gemini.RoleModel, history[1].Role)
	assert.Contains(t, history[1].Parts[0].Text, `"summary":"hype"`)

	s.FromFavorite = true
	history, err = SeedHistory(s)
	require.NoError(t, err)
	assert.Equal(t, "Analyze this topic: Nvidia. Respond in Hebrew", history[0].Parts[0].Text)

	assert.Contains(t, SystemInstruction(s), "ALWAYS respond in Hebrew")
}
